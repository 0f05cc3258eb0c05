// Package audit durably records every draw and final outcome, keyed by
// session id, so disputes and anti-cheat reviews can replay the raw
// hands. The engine always hands over full card lists, never summaries.
package audit

import (
	"context"

	"github.com/hollowmoor/showdown/card"
	"github.com/hollowmoor/showdown/outcome"
)

type Recorder interface {
	RecordDraw(ctx context.Context, sessionID, participantID string, cards []card.Card) error
	RecordOutcome(ctx context.Context, out *outcome.Outcome) error
}

// Noop discards everything; the default when no recorder is configured.
type Noop struct{}

func (Noop) RecordDraw(ctx context.Context, sessionID, participantID string, cards []card.Card) error {
	return nil
}

func (Noop) RecordOutcome(ctx context.Context, out *outcome.Outcome) error {
	return nil
}
