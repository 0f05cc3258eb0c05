package hand

import (
	"math/rand"
	"testing"

	poker "github.com/paulhankin/poker"

	"github.com/hollowmoor/showdown/card"
)

// refCard converts to the reference evaluator's encoding, which plays
// the ace as rank 1.
func refCard(t *testing.T, c card.Card) poker.Card {
	r := uint8(c.Rank)
	if c.Rank == card.Ace {
		r = 1
	}
	pc, err := poker.MakeCard(poker.Suit(c.Suit), poker.Rank(r))
	if err != nil {
		t.Fatalf("make reference card %v: %v", c, err)
	}
	return pc
}

// TestOrderAgainstReference draws random pairs of disjoint 5-card hands
// and checks that our total order agrees with the reference evaluator.
func TestOrderAgainstReference(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	all := card.All()

	for i := 0; i < 20000; i++ {
		rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
		h1 := all[:5]
		h2 := all[5:10]

		r1, err := Evaluate(h1)
		if err != nil {
			t.Fatal(err)
		}
		r2, err := Evaluate(h2)
		if err != nil {
			t.Fatal(err)
		}

		var p1, p2 [5]poker.Card
		for j := 0; j < 5; j++ {
			p1[j] = refCard(t, h1[j])
			p2[j] = refCard(t, h2[j])
		}
		e1 := poker.Eval5(&p1)
		e2 := poker.Eval5(&p2)

		got := Compare(r1, r2)
		want := 0
		if e1 > e2 {
			want = 1
		} else if e1 < e2 {
			want = -1
		}
		if got != want {
			t.Fatalf("order disagrees with reference on %v vs %v: got %d want %d",
				h1, h2, got, want)
		}
	}
}
