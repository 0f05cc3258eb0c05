package outcome

import (
	"fmt"
	"math"
	"sort"
)

// Side is one side of a group contest: participants whose individual
// results have already been evaluated elsewhere.
type Side struct {
	ID      string              `json:"id"`
	Results []ParticipantResult `json:"results"`
}

// Total sums the side's contest scores. Pure commutative sum, so member
// order never changes it.
func (s Side) Total() int {
	total := 0
	for _, r := range s.Results {
		total += r.Total
	}
	return total
}

// GroupOutcome is the aggregate of several already-resolved sides.
type GroupOutcome struct {
	WinnerSideIDs []string       `json:"winner_side_ids"`
	Draw          bool           `json:"draw"`
	Margin        int            `json:"margin"`
	Totals        map[string]int `json:"totals"`
	Sides         []Side         `json:"sides"`
}

// ResolveGroup combines evaluated sides into one group outcome. It never
// re-evaluates a hand; it only sums contest totals already produced.
// The contributing results ride along for audit and display.
func ResolveGroup(sides []Side) (GroupOutcome, error) {
	if len(sides) < 2 {
		return GroupOutcome{}, fmt.Errorf("group contest needs at least 2 sides, got %d", len(sides))
	}

	totals := map[string]int{}
	best, second := math.MinInt, math.MinInt
	for _, s := range sides {
		if _, dup := totals[s.ID]; dup {
			return GroupOutcome{}, fmt.Errorf("duplicate side id %q", s.ID)
		}
		tt := s.Total()
		totals[s.ID] = tt
		if tt > best {
			second = best
			best = tt
		} else if tt > second {
			second = tt
		}
	}

	out := GroupOutcome{Totals: totals, Sides: sides, Margin: best - second}
	for id, tt := range totals {
		if tt == best {
			out.WinnerSideIDs = append(out.WinnerSideIDs, id)
		}
	}
	sort.Strings(out.WinnerSideIDs)
	if len(out.WinnerSideIDs) > 1 {
		out.Draw = true
		out.Margin = 0
	}
	return out, nil
}
