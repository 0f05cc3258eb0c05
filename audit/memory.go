package audit

import (
	"context"
	"sync"

	"github.com/hollowmoor/showdown/card"
	"github.com/hollowmoor/showdown/outcome"
)

// DrawEntry is one recorded deal or replacement draw.
type DrawEntry struct {
	SessionID     string
	ParticipantID string
	Cards         []card.Card
}

// Memory keeps the trail in process. Used by tests and the simulator.
type Memory struct {
	mu       sync.Mutex
	draws    []DrawEntry
	outcomes []*outcome.Outcome
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) RecordDraw(ctx context.Context, sessionID, participantID string, cards []card.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cc := make([]card.Card, len(cards))
	copy(cc, cards)
	m.draws = append(m.draws, DrawEntry{SessionID: sessionID, ParticipantID: participantID, Cards: cc})
	return nil
}

func (m *Memory) RecordOutcome(ctx context.Context, out *outcome.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, out)
	return nil
}

// Draws returns the draw trail for one session in record order.
func (m *Memory) Draws(sessionID string) []DrawEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []DrawEntry
	for _, d := range m.draws {
		if d.SessionID == sessionID {
			out = append(out, d)
		}
	}
	return out
}

// Outcomes returns every recorded outcome in record order.
func (m *Memory) Outcomes() []*outcome.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*outcome.Outcome, len(m.outcomes))
	copy(out, m.outcomes)
	return out
}
