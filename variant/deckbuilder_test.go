package variant

import (
	"testing"

	"github.com/hollowmoor/showdown/card"
	"github.com/hollowmoor/showdown/hand"
	"github.com/hollowmoor/showdown/proficiency"
	"github.com/hollowmoor/showdown/session"
)

func suitRun(s card.Suit) []card.Card {
	out := make([]card.Card, 0, 13)
	for r := card.Rank(2); r <= card.Ace; r++ {
		out = append(out, card.MustNew(r, s))
	}
	return out
}

func TestAssembleAllOneSuitGuaranteesFlush(t *testing.T) {
	db, err := NewDeckBuilder(RoundOptions{
		Participants: []session.ParticipantConfig{
			{ID: "builder", Profile: proficiency.Profile{}},
		},
		Relevance: spadesRel,
		Seed:      seedp(81),
		Conf:      []byte(`{"MinDeck":13}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Assemble("builder", suitRun(card.Spades)); err != nil {
		t.Fatal(err)
	}
	if !db.Terminal() {
		t.Fatal("not terminal after sole assembly")
	}
	out := db.Outcome()
	r, _ := out.ResultFor("builder")
	if r.HandResult.Category < hand.Flush {
		t.Fatalf("all-spade sub-deck produced %s", r.HandResult.Category)
	}
	for _, c := range r.RawHand {
		if c.Suit != card.Spades {
			t.Fatalf("off-suit card %s from an all-spade build", c)
		}
	}
}

func TestAssembleValidation(t *testing.T) {
	newRound := func() *DeckBuilder {
		db, err := NewDeckBuilder(RoundOptions{
			Participants: twoPlayers(proficiency.Profile{}, proficiency.Profile{}),
			Relevance:    spadesRel,
			Seed:         seedp(82),
		})
		if err != nil {
			t.Fatal(err)
		}
		return db
	}

	db := newRound()
	if err := db.Assemble("p1", suitRun(card.Spades)); err == nil {
		t.Fatal("13-card build accepted under the default 15 minimum")
	}

	build := append(suitRun(card.Spades), mkCards("2h", "3h", "4h")...)
	dup := append(append([]card.Card{}, build...), build[0])
	if err := db.Assemble("p1", dup); err == nil {
		t.Fatal("duplicate card accepted")
	}
	if err := db.Assemble("ghost", build); err == nil {
		t.Fatal("unknown participant accepted")
	}

	if err := db.Assemble("p1", build); err != nil {
		t.Fatal(err)
	}
	if err := db.Assemble("p1", build); err == nil {
		t.Fatal("second assembly accepted")
	}
	if db.Terminal() {
		t.Fatal("terminal with p2 unassembled")
	}
}

func TestDeckBuilderExpireDealsFullPool(t *testing.T) {
	db, err := NewDeckBuilder(RoundOptions{
		Participants: twoPlayers(proficiency.Profile{}, proficiency.Profile{}),
		Relevance:    spadesRel,
		Seed:         seedp(83),
	})
	if err != nil {
		t.Fatal(err)
	}
	build := append(suitRun(card.Hearts), mkCards("2s", "3s")...)
	if err := db.Assemble("p1", build); err != nil {
		t.Fatal(err)
	}
	if err := db.Expire(); err != nil {
		t.Fatal(err)
	}
	if !db.Terminal() {
		t.Fatal("not terminal after expire")
	}
	out := db.Outcome()
	if !out.TimedOut {
		t.Fatal("outcome not marked timed out")
	}
	if len(out.Results) != 2 {
		t.Fatalf("results = %d, want both participants dealt", len(out.Results))
	}
	r2, _ := out.ResultFor("p2")
	if len(r2.RawHand) != session.HandSize {
		t.Fatalf("straggler hand size %d", len(r2.RawHand))
	}
}

func TestDeckBuilderSeededDeterminism(t *testing.T) {
	play := func() []card.Card {
		db, err := NewDeckBuilder(RoundOptions{
			Participants: []session.ParticipantConfig{
				{ID: "builder", Profile: proficiency.Profile{}},
			},
			Relevance: spadesRel,
			Seed:      seedp(84),
			Conf:      []byte(`{"MinDeck":13}`),
		})
		if err != nil {
			t.Fatal(err)
		}
		if err := db.Assemble("builder", suitRun(card.Diamonds)); err != nil {
			t.Fatal(err)
		}
		r, _ := db.Outcome().ResultFor("builder")
		return r.RawHand
	}

	first, second := play(), play()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("seeded draws diverged: %v vs %v", first, second)
		}
	}
}
