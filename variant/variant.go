// Package variant holds the pluggable rule-sets built on the shared
// card primitives. Each engine defines its own legality, payout and
// termination rules; none of them touches Deck or the evaluator
// internals, so a new variant is one file registering a creator.
package variant

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/hollowmoor/showdown/audit"
	"github.com/hollowmoor/showdown/core/errors"
	"github.com/hollowmoor/showdown/hand"
	"github.com/hollowmoor/showdown/outcome"
	"github.com/hollowmoor/showdown/proficiency"
	"github.com/hollowmoor/showdown/session"
)

// Round is one live contest under some variant's rules. Every round is
// also a session.Contest, so the arena can time it out.
type Round interface {
	ID() string
	Variant() string
	Deadline() time.Time
	Terminal() bool
	Expire() error
	// Outcome is nil until the round is terminal.
	Outcome() *outcome.Outcome
}

// RoundOptions is the variant-independent part of a resolution request.
// Conf carries the variant's own JSON configuration.
type RoundOptions struct {
	ID           string
	Participants []session.ParticipantConfig
	Relevance    proficiency.Relevance
	Bands        []proficiency.Band
	Thresholds   proficiency.Thresholds
	Seed         *int64
	Conf         []byte
	Recorder     audit.Recorder
	Logger       *slog.Logger
}

func (o *RoundOptions) normalize(variantName string) {
	if o.Recorder == nil {
		o.Recorder = audit.Noop{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default().With("variant", variantName)
	}
}

type CreateFunc func(opts RoundOptions) (Round, error)

var (
	regMu    sync.RWMutex
	creators = map[string]CreateFunc{}
)

// Register installs a variant engine under its name. Variants register
// themselves from init; a name collision is a programming error.
func Register(name string, fn CreateFunc) {
	regMu.Lock()
	defer regMu.Unlock()
	if _, dup := creators[name]; dup {
		panic(fmt.Sprintf("variant %q registered twice", name))
	}
	creators[name] = fn
}

// NewRound starts a contest under the named variant's rules.
func NewRound(name string, opts RoundOptions) (Round, error) {
	regMu.RLock()
	fn, ok := creators[name]
	regMu.RUnlock()
	if !ok {
		return nil, errors.New(errors.CodeUnknownVariant, fmt.Sprintf("unknown variant %q", name))
	}
	return fn(opts)
}

// List returns the registered variant names, sorted.
func List() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	names := make([]string, 0, len(creators))
	for name := range creators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// contestTotal is the shared scoring rule for hand-evaluated variants:
// category base plus relevant suit bonuses plus the signed curse. Only
// the base bonus clamps at zero; the combined total may go negative.
func contestTotal(p proficiency.Profile, rel proficiency.Relevance, bands []proficiency.Band,
	res hand.Result, curse int) (bonus, total int) {
	bonus = proficiency.TotalBonus(p, rel, bands)
	total = res.Category.BaseScore() + bonus + curse
	return bonus, total
}

func invalid(format string, args ...interface{}) error {
	return errors.New(errors.CodeInvalidSessionAction, fmt.Sprintf(format, args...))
}
