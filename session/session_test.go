package session

import (
	"testing"
	"time"

	"github.com/hollowmoor/showdown/audit"
	"github.com/hollowmoor/showdown/card"
	"github.com/hollowmoor/showdown/core/errors"
	"github.com/hollowmoor/showdown/outcome"
	"github.com/hollowmoor/showdown/proficiency"
)

func seedp(v int64) *int64 { return &v }

func newTestSession(t *testing.T, seed int64, a, b proficiency.Profile) *Session {
	t.Helper()
	s, err := New(Options{
		Variant: "drawpoker",
		Participants: []ParticipantConfig{
			{ID: "p1", Profile: a, GoverningSkill: "gambit"},
			{ID: "p2", Profile: b, GoverningSkill: "gambit"},
		},
		Relevance: proficiency.Relevance{"gambit": card.Spades},
		Seed:      seedp(seed),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Begin(); err != nil {
		t.Fatal(err)
	}
	return s
}

func mkCards(specs ...string) []card.Card {
	suits := map[byte]card.Suit{'c': card.Clubs, 'd': card.Diamonds, 'h': card.Hearts, 's': card.Spades}
	ranks := map[string]card.Rank{
		"2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7, "8": 8, "9": 9,
		"10": 10, "J": card.Jack, "Q": card.Queen, "K": card.King, "A": card.Ace,
	}
	out := make([]card.Card, 0, len(specs))
	for _, s := range specs {
		out = append(out, card.MustNew(ranks[s[:len(s)-1]], suits[s[len(s)-1]]))
	}
	return out
}

func TestSessionDealAndBarrier(t *testing.T) {
	s := newTestSession(t, 100, proficiency.Profile{}, proficiency.Profile{})

	h1, err := s.Hand("p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(h1) != HandSize {
		t.Fatalf("hand size %d", len(h1))
	}

	if err := s.Commit("p1", []int{0, 1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	// one commit must not advance the round
	if got := s.State(); got != StateDeciding {
		t.Fatalf("state after one commit = %v", got)
	}
	if s.Committed("p2") {
		t.Fatal("p2 reported committed")
	}

	if err := s.Commit("p2", []int{0, 1}); err != nil {
		t.Fatal(err)
	}
	if got := s.State(); got != StateTerminal {
		t.Fatalf("state after both commits = %v", got)
	}
	out := s.Outcome()
	if out == nil {
		t.Fatal("no outcome at terminal")
	}
	if len(out.Results) != 2 {
		t.Fatalf("results = %d", len(out.Results))
	}
	for _, r := range out.Results {
		if len(r.RawHand) != HandSize {
			t.Fatalf("raw hand %d cards", len(r.RawHand))
		}
	}
}

func TestSessionDeterministicWithSeed(t *testing.T) {
	run := func() []card.Card {
		s := newTestSession(t, 77, proficiency.Profile{}, proficiency.Profile{})
		if err := s.Commit("p1", []int{1, 3}); err != nil {
			t.Fatal(err)
		}
		if err := s.Commit("p2", nil); err != nil {
			t.Fatal(err)
		}
		return s.Outcome().Results[0].RawHand
	}
	a := run()
	b := run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different hands: %v vs %v", a, b)
		}
	}
}

func TestCommitValidation(t *testing.T) {
	s := newTestSession(t, 5, proficiency.Profile{}, proficiency.Profile{})

	cases := []struct {
		name string
		held []int
		code int16
	}{
		{"too many held", []int{0, 1, 2, 3, 4, 5}, errors.CodeInvalidSessionAction},
		{"out of range", []int{7}, errors.CodeInvalidSessionAction},
		{"negative slot", []int{-1}, errors.CodeInvalidSessionAction},
		{"repeated slot", []int{2, 2}, errors.CodeInvalidSessionAction},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := s.Commit("p1", tc.held)
			if err == nil {
				t.Fatal("expect rejection")
			}
			if !errors.Is(err, tc.code) {
				t.Fatalf("wrong code: %v", err)
			}
			// rejected input must leave the session untouched
			if s.State() != StateDeciding || s.Committed("p1") {
				t.Fatal("rejected commit mutated state")
			}
		})
	}

	if err := s.Commit("ghost", nil); err == nil {
		t.Fatal("unknown participant accepted")
	}
	if err := s.Commit("p1", []int{0}); err != nil {
		t.Fatal(err)
	}
	if err := s.Commit("p1", []int{1}); err == nil {
		t.Fatal("double commit accepted")
	}
}

func TestAbilityGating(t *testing.T) {
	// p1 untrained: no previews, no rerolls. p2 level 15: one preview.
	s := newTestSession(t, 9,
		proficiency.Profile{},
		proficiency.Profile{"gambit": 15})

	if _, err := s.Peek("p1"); !errors.Is(err, errors.CodeAbilityNotUnlocked) {
		t.Fatalf("p1 peek: %v", err)
	}
	if _, err := s.Peek("p2"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Peek("p2"); !errors.Is(err, errors.CodeAbilityNotUnlocked) {
		t.Fatalf("second peek: %v", err)
	}
	if s.State() != StateDeciding {
		t.Fatal("peek gate mutated state")
	}
}

func TestExtraDrawDealsSix(t *testing.T) {
	s, err := New(Options{
		Participants: []ParticipantConfig{
			{ID: "vet", Profile: proficiency.Profile{"gambit": 25}, GoverningSkill: "gambit"},
			{ID: "novice", Profile: proficiency.Profile{}, GoverningSkill: "gambit"},
		},
		Seed: seedp(3),
	})
	if err != nil {
		t.Fatal(err)
	}
	vh, _ := s.Hand("vet")
	nh, _ := s.Hand("novice")
	if len(vh) != 6 || len(nh) != 5 {
		t.Fatalf("deal sizes: vet %d novice %d", len(vh), len(nh))
	}
}

func TestRerollWindow(t *testing.T) {
	// level 10: one reroll
	s := newTestSession(t, 21,
		proficiency.Profile{"gambit": 10},
		proficiency.Profile{})

	if err := s.Commit("p1", []int{0, 1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := s.Commit("p2", nil); err != nil {
		t.Fatal(err)
	}
	// p2 has nothing to confirm; session waits on p1's reroll window
	if got := s.State(); got != StateResolving {
		t.Fatalf("state = %v", got)
	}

	before, _ := s.Hand("p1")
	if _, err := s.Reroll("p1", 5); !errors.Is(err, errors.CodeInvalidSessionAction) {
		t.Fatalf("out-of-range reroll: %v", err)
	}
	if _, err := s.Reroll("p1", 4); !errors.Is(err, errors.CodeInvalidSessionAction) {
		t.Fatalf("reroll of a drawn slot must be rejected: %v", err)
	}
	fresh, err := s.Reroll("p1", 1)
	if err != nil {
		t.Fatal(err)
	}
	after, _ := s.Hand("p1")
	if after[1] != fresh || after[1] == before[1] {
		t.Fatalf("reroll did not swap slot 1: %v -> %v", before, after)
	}
	if _, err := s.Reroll("p1", 0); !errors.Is(err, errors.CodeAbilityNotUnlocked) {
		t.Fatalf("allotment exceeded: %v", err)
	}

	if err := s.Confirm("p1"); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateTerminal {
		t.Fatalf("state = %v", s.State())
	}
}

func TestExpireDiscardsAll(t *testing.T) {
	s := newTestSession(t, 33, proficiency.Profile{}, proficiency.Profile{})
	if err := s.Commit("p1", []int{0, 1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	if err := s.Expire(); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateTerminal {
		t.Fatalf("state = %v", s.State())
	}
	out := s.Outcome()
	if !out.TimedOut {
		t.Fatal("outcome not marked timed out")
	}
	// p1 held everything, p2 discarded everything
	r1, _ := out.ResultFor("p1")
	if len(r1.RawHand) != HandSize {
		t.Fatal("p1 hand lost")
	}
}

func TestForfeit(t *testing.T) {
	s := newTestSession(t, 41, proficiency.Profile{}, proficiency.Profile{})
	if err := s.Forfeit("p1"); err != nil {
		t.Fatal(err)
	}
	out := s.Outcome()
	if !out.Forfeit || len(out.WinnerIDs) != 1 || out.WinnerIDs[0] != "p2" {
		t.Fatalf("forfeit outcome: %+v", out)
	}
	if err := s.Forfeit("p2"); err == nil {
		t.Fatal("forfeit after terminal accepted")
	}
}

func TestCategoryBeatsBonus(t *testing.T) {
	// Two Pair against High Card carrying a +65 suit bonus: the
	// category gap is wider than the bonus, so the bonus cannot
	// overturn it.
	s, err := New(Options{
		Participants: []ParticipantConfig{
			{ID: "p1", Profile: proficiency.Profile{}},
			{ID: "p2", Profile: proficiency.Profile{"blades": 30, "footwork": 5}},
		},
		Relevance: proficiency.Relevance{"blades": card.Clubs, "footwork": card.Clubs},
		Seed:      seedp(1),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Begin(); err != nil {
		t.Fatal(err)
	}
	s.byID["p1"].hand = mkCards("9c", "9d", "5c", "2c", "2h")
	s.byID["p2"].hand = mkCards("Kc", "Qh", "Jc", "8c", "4s")

	if err := s.Commit("p1", []int{0, 1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	if err := s.Commit("p2", []int{0, 1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}

	out := s.Outcome()
	r2, _ := out.ResultFor("p2")
	if r2.Bonus != 65 {
		t.Fatalf("p2 bonus = %d, want 65", r2.Bonus)
	}
	if out.Draw || out.WinnerIDs[0] != "p1" {
		t.Fatalf("two pair must beat boosted high card: %+v", out)
	}
	if out.Margin != 200-65 {
		t.Fatalf("margin = %d", out.Margin)
	}
}

func TestTrueDrawNotBrokenByOrder(t *testing.T) {
	// rank-identical flushes in different suits tie on both rankScore
	// and bonus total: a legitimate Draw, never an arbitrary winner
	for _, order := range [][2]string{{"p1", "p2"}, {"p2", "p1"}} {
		s := newTestSession(t, 55, proficiency.Profile{}, proficiency.Profile{})
		s.byID["p1"].hand = mkCards("9h", "8h", "6h", "4h", "2h")
		s.byID["p2"].hand = mkCards("9s", "8s", "6s", "4s", "2s")

		if err := s.Commit(order[0], []int{0, 1, 2, 3, 4}); err != nil {
			t.Fatal(err)
		}
		if err := s.Commit(order[1], []int{0, 1, 2, 3, 4}); err != nil {
			t.Fatal(err)
		}
		out := s.Outcome()
		if !out.Draw || len(out.WinnerIDs) != 2 || out.Margin != 0 {
			t.Fatalf("expected draw with order %v, got %+v", order, out)
		}
	}
}

func TestDeadMansHandFlag(t *testing.T) {
	s := newTestSession(t, 60, proficiency.Profile{}, proficiency.Profile{})
	s.byID["p1"].hand = mkCards("Ac", "Ad", "8h", "8s", "2c")
	s.byID["p2"].hand = mkCards("Kc", "Kd", "8c", "8d", "3c")

	if err := s.Commit("p1", []int{0, 1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	if err := s.Commit("p2", []int{0, 1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	out := s.Outcome()
	if !out.SpecialFlag {
		t.Fatal("aces and eights must set the special flag")
	}
	r1, _ := out.ResultFor("p1")
	r2, _ := out.ResultFor("p2")
	if !r1.DeadMansHand || r2.DeadMansHand {
		t.Fatalf("per-participant flags wrong: %v %v", r1.DeadMansHand, r2.DeadMansHand)
	}
}

func TestCurseModifierKeepsBite(t *testing.T) {
	s, err := New(Options{
		Participants: []ParticipantConfig{
			{ID: "p1", Profile: proficiency.Profile{}, CurseModifier: -40},
			{ID: "p2", Profile: proficiency.Profile{}},
		},
		Seed: seedp(12),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Begin(); err != nil {
		t.Fatal(err)
	}
	// both high card: the curse alone decides, pushing p1 negative
	s.byID["p1"].hand = mkCards("Kc", "Qh", "9c", "5d", "3s")
	s.byID["p2"].hand = mkCards("Kd", "Qs", "9d", "5h", "2c")

	if err := s.Commit("p1", []int{0, 1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	if err := s.Commit("p2", []int{0, 1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	out := s.Outcome()
	r1, _ := out.ResultFor("p1")
	if r1.Total != -40 {
		t.Fatalf("cursed total = %d, want -40", r1.Total)
	}
	if out.WinnerIDs[0] != "p2" {
		t.Fatalf("winners = %v", out.WinnerIDs)
	}
}

func TestAuditTrailRecordsRawHands(t *testing.T) {
	rec := audit.NewMemory()
	seed := int64(88)
	s, err := New(Options{
		ID:      "audit-session",
		Variant: "drawpoker",
		Participants: []ParticipantConfig{
			{ID: "p1", Profile: proficiency.Profile{}},
			{ID: "p2", Profile: proficiency.Profile{}},
		},
		Seed:     &seed,
		Recorder: rec,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Begin(); err != nil {
		t.Fatal(err)
	}
	if err := s.Commit("p1", []int{0, 1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := s.Commit("p2", []int{4}); err != nil {
		t.Fatal(err)
	}

	draws := rec.Draws("audit-session")
	// two deals plus two replacement draws
	if len(draws) != 4 {
		t.Fatalf("draw entries = %d", len(draws))
	}
	outs := rec.Outcomes()
	if len(outs) != 1 || len(outs[0].Results[0].RawHand) != HandSize {
		t.Fatalf("outcome audit incomplete: %+v", outs)
	}
}

func TestFinalizeAdjustsOutcomeBeforeRecording(t *testing.T) {
	rec := audit.NewMemory()
	seed := int64(91)
	s, err := New(Options{
		Variant: "drawpoker",
		Participants: []ParticipantConfig{
			{ID: "p1", Profile: proficiency.Profile{}},
			{ID: "p2", Profile: proficiency.Profile{}},
		},
		Seed: &seed,
		Finalize: func(out *outcome.Outcome) {
			out.Payout = 42
		},
		Recorder: rec,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Begin(); err != nil {
		t.Fatal(err)
	}
	if err := s.Commit("p1", []int{0, 1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	if err := s.Commit("p2", []int{0, 1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}

	out := s.Outcome()
	if out.Payout != 42 {
		t.Fatalf("delivered payout %d, want finalized 42", out.Payout)
	}
	outs := rec.Outcomes()
	if len(outs) != 1 {
		t.Fatalf("recorded outcomes = %d", len(outs))
	}
	// the trail must hold the finalized outcome, not a pre-adjustment copy
	if outs[0] != out {
		t.Fatalf("recorded outcome diverges from delivered: %+v vs %+v", outs[0], out)
	}
}

func TestTimedOutWindowRejectsWithTimeoutCode(t *testing.T) {
	s := newTestSession(t, 92, proficiency.Profile{}, proficiency.Profile{})

	// wrong state without a timeout is a plain invalid action
	if err := s.Confirm("p1"); !errors.Is(err, errors.CodeInvalidSessionAction) {
		t.Fatalf("confirm while deciding err = %v", err)
	}

	if err := s.Expire(); err != nil {
		t.Fatal(err)
	}
	if err := s.Commit("p1", []int{0}); !errors.Is(err, errors.CodeSessionTimeout) {
		t.Fatalf("commit after timeout err = %v", err)
	}
	if _, err := s.Peek("p1"); !errors.Is(err, errors.CodeSessionTimeout) {
		t.Fatalf("peek after timeout err = %v", err)
	}
}

func TestDecisionDeadlineSet(t *testing.T) {
	s := newTestSession(t, 2, proficiency.Profile{}, proficiency.Profile{})
	if s.Deadline().IsZero() {
		t.Fatal("deciding session carries no deadline")
	}
	if s.Deadline().After(time.Now().Add(DefaultDecisionTimeout + time.Second)) {
		t.Fatal("deadline too far out")
	}
}
