// Package hand classifies 5-card hands into the ten poker categories and
// produces a total-order score for tie-breaking between arbitrary hands.
package hand

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hollowmoor/showdown/card"
)

type Category int

const (
	HighCard Category = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

var categoryNames = []string{
	"High Card",
	"Pair",
	"Two Pair",
	"Three of a Kind",
	"Straight",
	"Flush",
	"Full House",
	"Four of a Kind",
	"Straight Flush",
	"Royal Flush",
}

func (c Category) String() string {
	if c < HighCard || c > RoyalFlush {
		return "Unknown"
	}
	return categoryNames[c]
}

// BaseScore is the category-derived base used for contest totals. The
// step between adjacent categories is wide enough that no suit bonus in
// the tuning range can overturn a category-level win.
func (c Category) BaseScore() int {
	return int(c) * 100
}

// kickerBase encodes ordered kickers positionally. Ranks top out at 14,
// so base 15 keeps every digit unambiguous.
const (
	kickerBase   = 15
	kickerSlots  = 5
	categoryUnit = kickerBase * kickerBase * kickerBase * kickerBase * kickerBase
)

// Result is the evaluation of one 5-card hand.
//
// Score is a single comparable key: Score(A) > Score(B) iff A beats B
// under standard poker rules, and equality is a true rules-tie.
type Result struct {
	Category Category    `json:"category"`
	Score    int64       `json:"score"`
	Kickers  []card.Rank `json:"kickers"`
}

// Beats reports whether r strictly beats other.
func (r Result) Beats(other Result) bool {
	return r.Score > other.Score
}

// Ties reports a true rules-tie: same category, same tiebreak ranks.
func (r Result) Ties(other Result) bool {
	return r.Score == other.Score
}

// Compare returns -1, 0 or 1 ordering a against b by hand strength.
func Compare(a, b Result) int {
	switch {
	case a.Score < b.Score:
		return -1
	case a.Score > b.Score:
		return 1
	default:
		return 0
	}
}

// DeadMansHand reports the canonical two pair of Aces and Eights,
// flagged for narrative reaction regardless of who wins.
func (r Result) DeadMansHand() bool {
	if r.Category != TwoPair || len(r.Kickers) < 2 {
		return false
	}
	return r.Kickers[0] == card.Ace && r.Kickers[1] == 8
}

func (r Result) String() string {
	ks := make([]string, len(r.Kickers))
	for i, k := range r.Kickers {
		ks[i] = k.String()
	}
	return fmt.Sprintf("%s [%s]", r.Category, strings.Join(ks, " "))
}

func score(c Category, kickers []card.Rank) int64 {
	s := int64(c) * categoryUnit
	mult := int64(categoryUnit / kickerBase)
	for i := 0; i < kickerSlots && i < len(kickers); i++ {
		s += int64(kickers[i]) * mult
		mult /= kickerBase
	}
	return s
}

// profile is the rank/suit bucketing pass every pattern predicate reads
// from. Classification is a flat pipeline over this, not a decision tree.
type profile struct {
	groups       []group     // by count desc, then rank desc
	ranksDesc    []card.Rank // all five ranks, high to low
	flush        bool
	straight     bool
	straightHigh card.Rank // 5 for the ace-low straight
}

type group struct {
	rank  card.Rank
	count int
}

func buildProfile(cards []card.Card) profile {
	rankCount := map[card.Rank]int{}
	suitCount := map[card.Suit]int{}
	for _, c := range cards {
		rankCount[c.Rank]++
		suitCount[c.Suit]++
	}

	p := profile{}
	for r, n := range rankCount {
		p.groups = append(p.groups, group{rank: r, count: n})
	}
	sort.Slice(p.groups, func(i, j int) bool {
		if p.groups[i].count != p.groups[j].count {
			return p.groups[i].count > p.groups[j].count
		}
		return p.groups[i].rank > p.groups[j].rank
	})

	for _, c := range cards {
		p.ranksDesc = append(p.ranksDesc, c.Rank)
	}
	sort.Slice(p.ranksDesc, func(i, j int) bool { return p.ranksDesc[i] > p.ranksDesc[j] })

	p.flush = len(suitCount) == 1

	if len(p.groups) == 5 {
		// distinct ranks; run check on the sorted ranks
		if p.ranksDesc[0]-p.ranksDesc[4] == 4 {
			p.straight = true
			p.straightHigh = p.ranksDesc[0]
		} else if p.ranksDesc[0] == card.Ace && p.ranksDesc[1] == 5 &&
			p.ranksDesc[1]-p.ranksDesc[4] == 3 {
			// A-2-3-4-5: ace plays low, the five is the high card
			p.straight = true
			p.straightHigh = 5
		}
	}
	return p
}

// Evaluate classifies a 5-card hand. Evaluation is order-independent;
// callers may pass the hand in any display order.
func Evaluate(cards []card.Card) (Result, error) {
	if len(cards) != 5 {
		return Result{}, fmt.Errorf("evaluate wants 5 cards, got %d", len(cards))
	}
	seen := map[card.Card]bool{}
	for _, c := range cards {
		if seen[c] {
			return Result{}, fmt.Errorf("duplicate card %v in hand", c)
		}
		seen[c] = true
	}

	p := buildProfile(cards)
	for _, pat := range patterns {
		if cat, kickers, ok := pat(p); ok {
			return Result{Category: cat, Score: score(cat, kickers), Kickers: kickers}, nil
		}
	}
	// unreachable: highCard always matches
	return Result{}, fmt.Errorf("hand did not classify: %v", cards)
}

// patterns run strongest-first; the first match wins.
var patterns = []func(profile) (Category, []card.Rank, bool){
	royalFlush,
	straightFlush,
	fourOfAKind,
	fullHouse,
	flush,
	straight,
	threeOfAKind,
	twoPair,
	pair,
	highCard,
}

func royalFlush(p profile) (Category, []card.Rank, bool) {
	if p.flush && p.straight && p.straightHigh == card.Ace {
		return RoyalFlush, []card.Rank{card.Ace}, true
	}
	return 0, nil, false
}

func straightFlush(p profile) (Category, []card.Rank, bool) {
	if p.flush && p.straight {
		return StraightFlush, []card.Rank{p.straightHigh}, true
	}
	return 0, nil, false
}

func fourOfAKind(p profile) (Category, []card.Rank, bool) {
	if p.groups[0].count == 4 {
		return FourOfAKind, []card.Rank{p.groups[0].rank, p.groups[1].rank}, true
	}
	return 0, nil, false
}

func fullHouse(p profile) (Category, []card.Rank, bool) {
	if p.groups[0].count == 3 && p.groups[1].count == 2 {
		return FullHouse, []card.Rank{p.groups[0].rank, p.groups[1].rank}, true
	}
	return 0, nil, false
}

func flush(p profile) (Category, []card.Rank, bool) {
	if p.flush {
		return Flush, p.ranksDesc, true
	}
	return 0, nil, false
}

func straight(p profile) (Category, []card.Rank, bool) {
	if p.straight {
		return Straight, []card.Rank{p.straightHigh}, true
	}
	return 0, nil, false
}

func threeOfAKind(p profile) (Category, []card.Rank, bool) {
	if p.groups[0].count == 3 {
		return ThreeOfAKind, []card.Rank{p.groups[0].rank, p.groups[1].rank, p.groups[2].rank}, true
	}
	return 0, nil, false
}

func twoPair(p profile) (Category, []card.Rank, bool) {
	if p.groups[0].count == 2 && p.groups[1].count == 2 {
		return TwoPair, []card.Rank{p.groups[0].rank, p.groups[1].rank, p.groups[2].rank}, true
	}
	return 0, nil, false
}

func pair(p profile) (Category, []card.Rank, bool) {
	if p.groups[0].count == 2 {
		return Pair, []card.Rank{p.groups[0].rank, p.groups[1].rank, p.groups[2].rank, p.groups[3].rank}, true
	}
	return 0, nil, false
}

func highCard(p profile) (Category, []card.Rank, bool) {
	return HighCard, p.ranksDesc, true
}
