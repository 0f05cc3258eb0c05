// Package proficiency turns a character's trained skills into the suit
// bonuses and unlocked abilities a resolution reads. Everything here is
// a pure function over a profile snapshot; nothing is cached between
// resolutions, so level-ups take effect on the next contest.
package proficiency

import (
	"github.com/hollowmoor/showdown/card"
)

// Profile is a snapshot of skill name to trained level. The engine never
// owns character persistence; callers pass a fresh snapshot per request.
type Profile map[string]int

// Level returns the trained level for a skill, zero when untrained.
func (p Profile) Level(skill string) int {
	return p[skill]
}

// Relevance declares, for one action type, which skills feed which suit.
// The action's inbound request decides this, not the character sheet.
type Relevance map[string]card.Suit

// Band is one segment of the convex bonus schedule: levels up to Limit
// earn PerLevel points each.
type Band struct {
	Limit    int `mapstructure:"limit"`
	PerLevel int `mapstructure:"per_level"`
}

// DefaultBands rewards deep specialization: each ten levels earn more
// per level than the ten before.
var DefaultBands = []Band{
	{Limit: 10, PerLevel: 1},
	{Limit: 20, PerLevel: 2},
	{Limit: 30, PerLevel: 3},
	{Limit: 1 << 30, PerLevel: 4},
}

// LevelBonus maps one skill level through the banded schedule. Monotonic
// and convex in level; never negative.
func LevelBonus(level int, bands []Band) int {
	if level <= 0 {
		return 0
	}
	if len(bands) == 0 {
		bands = DefaultBands
	}
	total := 0
	prev := 0
	for _, b := range bands {
		if level <= prev {
			break
		}
		upper := b.Limit
		if level < upper {
			upper = level
		}
		total += (upper - prev) * b.PerLevel
		prev = b.Limit
	}
	return total
}

// SuitBonuses computes the additive bonus per suit for one action.
// Multiple relevant skills feeding the same suit sum. The result is
// clamped non-negative per suit; signed curse modifiers are applied
// later at the combined-score level so they keep their bite.
func SuitBonuses(p Profile, rel Relevance, bands []Band) map[card.Suit]int {
	out := map[card.Suit]int{}
	for skill, suit := range rel {
		b := LevelBonus(p.Level(skill), bands)
		if b < 0 {
			b = 0
		}
		out[suit] += b
	}
	return out
}

// TotalBonus sums the bonuses of every suit relevant to the action.
func TotalBonus(p Profile, rel Relevance, bands []Band) int {
	total := 0
	for _, b := range SuitBonuses(p, rel, bands) {
		total += b
	}
	return total
}
