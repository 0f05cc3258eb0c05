// Package outcome defines the sole externally visible artifact of a
// resolution, plus the aggregate resolver for multi-party contests.
package outcome

import (
	"time"

	"github.com/hollowmoor/showdown/card"
	"github.com/hollowmoor/showdown/hand"
)

// ParticipantResult is one participant's fully evaluated standing.
// RawHand carries the actual cards so the audit trail records hands,
// never summaries.
type ParticipantResult struct {
	ParticipantID string      `json:"participant_id"`
	RawHand       []card.Card `json:"raw_hand"`
	HandResult    hand.Result `json:"hand_result"`
	Bonus         int         `json:"bonus"`
	Modifier      int         `json:"modifier"`
	Total         int         `json:"total"`
	DeadMansHand  bool        `json:"dead_mans_hand"`
}

// Outcome is immutable once produced. The engine logs it before handing
// it to collaborators; nothing downstream may alter it.
type Outcome struct {
	SessionID string    `json:"session_id"`
	Variant   string    `json:"variant"`
	At        time.Time `json:"at"`

	WinnerIDs []string `json:"winner_ids"`
	Draw      bool     `json:"draw"`
	Margin    int      `json:"margin"`
	Payout    int      `json:"payout"`

	// SpecialFlag is set when any participant shows the dead man's
	// hand, win or lose, for narrative reaction downstream.
	SpecialFlag bool `json:"special_flag"`
	Forfeit     bool `json:"forfeit"`
	TimedOut    bool `json:"timed_out"`

	Results []ParticipantResult `json:"results"`
}

// ResultFor looks up one participant's result.
func (o *Outcome) ResultFor(id string) (ParticipantResult, bool) {
	for _, r := range o.Results {
		if r.ParticipantID == id {
			return r, true
		}
	}
	return ParticipantResult{}, false
}

// Won reports whether the participant is among the winners.
func (o *Outcome) Won(id string) bool {
	for _, w := range o.WinnerIDs {
		if w == id {
			return true
		}
	}
	return false
}
