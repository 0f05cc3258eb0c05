// Package conf loads the engine's deployment configuration. Everything
// gameplay-tunable (bands, thresholds, downtimes) lives here so a
// rebalance is a config push, not a release.
package conf

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/hollowmoor/showdown/proficiency"
)

type Config struct {
	Env   string
	Debug DebugConf

	// Bands and Thresholds override the built-in schedules when set.
	Bands      []proficiency.Band     `mapstructure:"bands"`
	Thresholds proficiency.Thresholds `mapstructure:"thresholds"`
	Variants   map[string]VariantConf `mapstructure:"variants"`

	// Audit sinks. Empty DSNs disable the corresponding recorder.
	AuditDBDSN     string
	RedisConn      string
	TrailRetention int `mapstructure:"trail_retention_sec"`

	// AttestKey signs outcome attestations; empty disables signing.
	AttestKey string

	ArenaTickMs int `mapstructure:"arena_tick_ms"`
}

type DebugConf struct {
	LogLevel string
}

type VariantConf struct {
	// Raw is handed to the variant's own config parser untouched.
	Raw json.RawMessage `mapstructure:"raw"`
}

var DefaultConf = &Config{
	Env:         "dev",
	Debug:       DebugConf{LogLevel: "info"},
	ArenaTickMs: 1000,
}

func ConfInit(filename string, PrintConf bool) (*Config, error) {
	out := &Config{}
	*out = *DefaultConf
	defer func() {
		if PrintConf {
			if data, err := json.Marshal(out); err == nil {
				fmt.Println("the real config value is: ", string(data))
			} else {
				fmt.Println(err)
			}
		}
	}()

	c := viper.New()

	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	c.SetConfigType(ext)

	c.SetConfigFile(filename)
	if err := c.ReadInConfig(); err != nil {
		return nil, err
	}

	if err := c.Unmarshal(out); err != nil {
		return nil, err
	}

	return out, nil
}
