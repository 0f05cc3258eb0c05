package card

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"

	"github.com/hollowmoor/showdown/core/errors"
)

// Deck is an ordered run of cards with a cursor of cards already dealt.
// A deck belongs to exactly one resolution; nothing persists it across
// sessions.
type Deck struct {
	cards []Card
	dealt int
}

// NewSeed generates a shuffle seed using crypto/rand. The server is the
// only party that ever produces one; participants never supply seeds.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// NewShuffled builds a full 52-card deck in an unpredictable order.
func NewShuffled() (*Deck, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return NewShuffledSeed(seed), nil
}

// NewShuffledSeed builds a full deck with a deterministic permutation.
// The seeded path exists so tests can assert exact hands.
func NewShuffledSeed(seed int64) *Deck {
	return NewShuffledPool(All(), seed)
}

// NewShuffledPool builds a deck from an arbitrary card pool, used by the
// deck-builder variant where only unlocked cards are eligible.
func NewShuffledPool(pool []Card, seed int64) *Deck {
	cards := make([]Card, len(pool))
	copy(cards, pool)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return &Deck{cards: cards}
}

// Draw removes and returns the top n cards.
func (d *Deck) Draw(n int) ([]Card, error) {
	if n < 0 || n > len(d.cards)-d.dealt {
		return nil, errors.New(errors.CodeExhaustedDeck,
			fmt.Sprintf("draw %d with %d remaining", n, d.Remaining()))
	}
	out := d.cards[d.dealt : d.dealt+n]
	d.dealt += n
	return out, nil
}

// Peek returns the next card that would be drawn without removing it.
func (d *Deck) Peek() (Card, error) {
	if d.Remaining() == 0 {
		return Card{}, errors.New(errors.CodeExhaustedDeck, "peek on empty deck")
	}
	return d.cards[d.dealt], nil
}

func (d *Deck) Remaining() int {
	return len(d.cards) - d.dealt
}

func (d *Deck) Size() int {
	return len(d.cards)
}
