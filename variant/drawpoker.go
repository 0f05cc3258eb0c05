package variant

import (
	"encoding/json"
	"time"

	"github.com/hollowmoor/showdown/card"
	"github.com/hollowmoor/showdown/outcome"
	"github.com/hollowmoor/showdown/session"
)

// DrawPokerName is the default contest for combat-like actions.
const DrawPokerName = "drawpoker"

func init() {
	Register(DrawPokerName, func(opts RoundOptions) (Round, error) {
		return NewDrawPoker(opts)
	})
}

type DrawPokerConfig struct {
	DowntimeSec int
	// RewardScale multiplies the winning margin into the payout the
	// reward/damage collaborator consumes.
	RewardScale int
}

var defaultDrawPokerConf = DrawPokerConfig{
	DowntimeSec: 30,
	RewardScale: 1,
}

func ParseDrawPokerConfig(raw []byte) (*DrawPokerConfig, error) {
	ret := defaultDrawPokerConf
	if len(raw) <= 2 {
		return &ret, nil
	}
	if err := json.Unmarshal(raw, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

// DrawPoker is the hold/discard session under poker rules with a
// margin-scaled payout.
type DrawPoker struct {
	sess *session.Session
	conf *DrawPokerConfig
}

func NewDrawPoker(opts RoundOptions) (*DrawPoker, error) {
	opts.normalize(DrawPokerName)
	conf, err := ParseDrawPokerConfig(opts.Conf)
	if err != nil {
		return nil, err
	}
	sess, err := session.New(session.Options{
		ID:              opts.ID,
		Variant:         DrawPokerName,
		Participants:    opts.Participants,
		Relevance:       opts.Relevance,
		Bands:           opts.Bands,
		Thresholds:      opts.Thresholds,
		Seed:            opts.Seed,
		DecisionTimeout: time.Duration(conf.DowntimeSec) * time.Second,
		Finalize: func(out *outcome.Outcome) {
			out.Payout = out.Margin * conf.RewardScale
		},
		Recorder: opts.Recorder,
		Logger:   opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	if err := sess.Begin(); err != nil {
		return nil, err
	}
	return &DrawPoker{sess: sess, conf: conf}, nil
}

func (d *DrawPoker) ID() string          { return d.sess.ID() }
func (d *DrawPoker) Variant() string     { return DrawPokerName }
func (d *DrawPoker) Deadline() time.Time { return d.sess.Deadline() }
func (d *DrawPoker) Terminal() bool      { return d.sess.Terminal() }
func (d *DrawPoker) Expire() error       { return d.sess.Expire() }

// Session exposes the interactive surface: Hand, Peek, Commit, Reroll,
// Confirm, Forfeit.
func (d *DrawPoker) Session() *session.Session { return d.sess }

func (d *DrawPoker) Hand(pid string) ([]card.Card, error) { return d.sess.Hand(pid) }

func (d *DrawPoker) Commit(pid string, held []int) error { return d.sess.Commit(pid, held) }

func (d *DrawPoker) Forfeit(pid string) error { return d.sess.Forfeit(pid) }

// Outcome is the session outcome; the payout scaling is applied by the
// finalize hook before the session records it, so the audit trail and
// this value never differ.
func (d *DrawPoker) Outcome() *outcome.Outcome {
	return d.sess.Outcome()
}
