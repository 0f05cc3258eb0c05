package proficiency

// Abilities is the set of session capabilities a participant has earned
// from one governing skill level. Counts are per session.
type Abilities struct {
	// ExtraDraw deals a sixth card at the start of a contest.
	ExtraDraw bool
	// Previews is how many times the participant may reveal the next
	// replacement card before committing.
	Previews int
	// Rerolls is how many held cards the participant may swap out
	// during resolution.
	Rerolls int
}

// Thresholds collects every unlock rule in one table so balance tuning
// touches a single place.
type Thresholds struct {
	// RerollPerLevels grants one reroll per this many levels.
	RerollPerLevels int `mapstructure:"reroll_per_levels"`
	// PreviewLevel is the level at which one preview unlocks.
	PreviewLevel int `mapstructure:"preview_level"`
	// ExtraDrawLevel is the level at which the sixth card unlocks.
	ExtraDrawLevel int `mapstructure:"extra_draw_level"`
}

var DefaultThresholds = Thresholds{
	RerollPerLevels: 10,
	PreviewLevel:    15,
	ExtraDrawLevel:  25,
}

// Unlocks is the pure level-to-capability function. No other code may
// hardcode a threshold literal.
func Unlocks(level int, th Thresholds) Abilities {
	if th.RerollPerLevels <= 0 {
		th = DefaultThresholds
	}
	a := Abilities{}
	if level <= 0 {
		return a
	}
	a.Rerolls = level / th.RerollPerLevels
	if level >= th.PreviewLevel {
		a.Previews = 1
	}
	a.ExtraDraw = level >= th.ExtraDrawLevel
	return a
}
