package proficiency

import (
	"testing"

	"github.com/hollowmoor/showdown/card"
)

func TestLevelBonusBands(t *testing.T) {
	cases := []struct {
		level int
		want  int
	}{
		{0, 0},
		{-3, 0},
		{1, 1},
		{10, 10},
		{11, 12},
		{20, 30},
		{21, 33},
		{30, 60},
		{31, 64},
		{40, 100},
	}
	for _, tc := range cases {
		if got := LevelBonus(tc.level, DefaultBands); got != tc.want {
			t.Errorf("LevelBonus(%d) = %d, want %d", tc.level, got, tc.want)
		}
	}
}

func TestLevelBonusMonotonic(t *testing.T) {
	prev := 0
	for lv := 0; lv <= 120; lv++ {
		got := LevelBonus(lv, DefaultBands)
		if got < prev {
			t.Fatalf("bonus dropped at level %d: %d < %d", lv, got, prev)
		}
		prev = got
	}
}

func TestSuitBonusesSumPersuit(t *testing.T) {
	p := Profile{"blades": 10, "dueling": 10, "lockpicking": 5}
	rel := Relevance{
		"blades":      card.Spades,
		"dueling":     card.Spades,
		"lockpicking": card.Clubs,
	}
	got := SuitBonuses(p, rel, DefaultBands)
	if got[card.Spades] != 20 {
		t.Fatalf("spades = %d, want 20", got[card.Spades])
	}
	if got[card.Clubs] != 5 {
		t.Fatalf("clubs = %d, want 5", got[card.Clubs])
	}
	if got[card.Hearts] != 0 {
		t.Fatalf("hearts = %d, want 0", got[card.Hearts])
	}
	if TotalBonus(p, rel, DefaultBands) != 25 {
		t.Fatalf("total = %d", TotalBonus(p, rel, DefaultBands))
	}
}

func TestUntrainedSkillIsZero(t *testing.T) {
	got := SuitBonuses(Profile{}, Relevance{"blades": card.Spades}, DefaultBands)
	if got[card.Spades] != 0 {
		t.Fatalf("untrained bonus = %d", got[card.Spades])
	}
}

func TestUnlocks(t *testing.T) {
	cases := []struct {
		level int
		want  Abilities
	}{
		{0, Abilities{}},
		{9, Abilities{}},
		{10, Abilities{Rerolls: 1}},
		{15, Abilities{Rerolls: 1, Previews: 1}},
		{25, Abilities{Rerolls: 2, Previews: 1, ExtraDraw: true}},
		{47, Abilities{Rerolls: 4, Previews: 1, ExtraDraw: true}},
	}
	for _, tc := range cases {
		if got := Unlocks(tc.level, DefaultThresholds); got != tc.want {
			t.Errorf("Unlocks(%d) = %+v, want %+v", tc.level, got, tc.want)
		}
	}
}
