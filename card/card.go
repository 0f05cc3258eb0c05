// Package card holds the 52-card model shared by every game variant.
package card

import "fmt"

type Suit uint8

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

const SuitCount = 4

func (s Suit) String() string {
	switch s {
	case Clubs:
		return "♣"
	case Diamonds:
		return "♦"
	case Hearts:
		return "♥"
	case Spades:
		return "♠"
	default:
		return "?"
	}
}

// Rank runs 2..14. Ace is high (14) everywhere except the ace-low
// straight, which the evaluator handles as a special pattern.
type Rank uint8

const (
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

const (
	MinRank Rank = 2
	MaxRank Rank = 14
)

func (r Rank) String() string {
	switch r {
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	default:
		return fmt.Sprintf("%d", uint8(r))
	}
}

// Card is an immutable rank+suit value. Two cards are equal iff both
// fields match, so Card works as a map key.
type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

func New(r Rank, s Suit) (Card, error) {
	if r < MinRank || r > MaxRank || s > Spades {
		return Card{}, fmt.Errorf("invalid card %d of %d", r, s)
	}
	return Card{Rank: r, Suit: s}, nil
}

// MustNew is New for hardcoded cards in tests and tables.
func MustNew(r Rank, s Suit) Card {
	c, err := New(r, s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// All returns the full 52-card set in canonical suit-then-rank order.
func All() []Card {
	ret := make([]Card, 0, 52)
	for s := Clubs; s <= Spades; s++ {
		for r := MinRank; r <= MaxRank; r++ {
			ret = append(ret, Card{Rank: r, Suit: s})
		}
	}
	return ret
}
