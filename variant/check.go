package variant

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hollowmoor/showdown/card"
	"github.com/hollowmoor/showdown/core/errors"
	"github.com/hollowmoor/showdown/hand"
	"github.com/hollowmoor/showdown/outcome"
	"github.com/hollowmoor/showdown/session"
)

// CheckName is the solo skill check: one participant, one immediate
// five-card draw against a difficulty threshold, no decision window.
// Lock-picks and perception checks go through here; anything worth a
// real decision goes through a session-backed variant.
const CheckName = "check"

func init() {
	Register(CheckName, func(opts RoundOptions) (Round, error) {
		return NewCheck(opts)
	})
}

type CheckConfig struct {
	RewardScale int
	// Difficulty is the total the draw must reach to pass.
	Difficulty int
}

var defaultCheckConf = CheckConfig{
	RewardScale: 1,
	Difficulty:  100,
}

func ParseCheckConfig(raw []byte) (*CheckConfig, error) {
	ret := defaultCheckConf
	if len(raw) <= 2 {
		return &ret, nil
	}
	if err := json.Unmarshal(raw, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

// Check is terminal from the moment it is created; the outcome is the
// whole round.
type Check struct {
	id   string
	conf *CheckConfig
	out  *outcome.Outcome
}

func NewCheck(opts RoundOptions) (*Check, error) {
	opts.normalize(CheckName)
	conf, err := ParseCheckConfig(opts.Conf)
	if err != nil {
		return nil, err
	}
	if conf.Difficulty < 0 {
		return nil, errors.New(errors.CodeInvalidConfig, "check difficulty must be non-negative")
	}
	if len(opts.Participants) != 1 {
		return nil, invalid("check needs exactly 1 participant, got %d", len(opts.Participants))
	}
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	pc := opts.Participants[0]
	if pc.ID == "" {
		return nil, invalid("participant with empty id")
	}

	var deck *card.Deck
	if opts.Seed != nil {
		deck = card.NewShuffledSeed(*opts.Seed)
	} else {
		deck, err = card.NewShuffled()
		if err != nil {
			return nil, err
		}
	}
	cards, err := deck.Draw(session.HandSize)
	if err != nil {
		return nil, err
	}
	log := opts.Logger.With("session", opts.ID)
	if err := opts.Recorder.RecordDraw(context.Background(), opts.ID, pc.ID, cards); err != nil {
		log.Error("record deal", "err", err)
	}

	res, err := hand.Evaluate(cards)
	if err != nil {
		return nil, err
	}
	bonus, total := contestTotal(pc.Profile, opts.Relevance, opts.Bands, res, pc.CurseModifier)

	passed := total >= conf.Difficulty
	margin := total - conf.Difficulty
	winners := []string{}
	payout := 0
	if passed {
		winners = []string{pc.ID}
		payout = margin * conf.RewardScale
	}

	out := &outcome.Outcome{
		SessionID:   opts.ID,
		Variant:     CheckName,
		At:          time.Now(),
		WinnerIDs:   winners,
		Margin:      margin,
		Payout:      payout,
		SpecialFlag: res.DeadMansHand(),
		Results: []outcome.ParticipantResult{{
			ParticipantID: pc.ID,
			RawHand:       cards,
			HandResult:    res,
			Bonus:         bonus,
			Modifier:      pc.CurseModifier,
			Total:         total,
			DeadMansHand:  res.DeadMansHand(),
		}},
	}
	if err := opts.Recorder.RecordOutcome(context.Background(), out); err != nil {
		log.Error("record outcome", "err", err)
	}
	log.Info("check resolved", "passed", passed, "total", total, "difficulty", conf.Difficulty)

	return &Check{id: opts.ID, conf: conf, out: out}, nil
}

func (c *Check) ID() string          { return c.id }
func (c *Check) Variant() string     { return CheckName }
func (c *Check) Deadline() time.Time { return c.out.At }
func (c *Check) Terminal() bool      { return true }
func (c *Check) Expire() error       { return nil }

func (c *Check) Outcome() *outcome.Outcome { return c.out }

// Passed reports whether the draw met the difficulty.
func (c *Check) Passed() bool { return len(c.out.WinnerIDs) == 1 }

var _ session.Contest = (*Check)(nil)
