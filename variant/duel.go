package variant

import (
	"encoding/json"
	"time"

	"github.com/hollowmoor/showdown/outcome"
	"github.com/hollowmoor/showdown/session"
)

// DuelName is the two-participant grudge contest with an initiative
// tie-break.
const DuelName = "duel"

func init() {
	Register(DuelName, func(opts RoundOptions) (Round, error) {
		return NewDuel(opts)
	})
}

type DuelConfig struct {
	DowntimeSec int
	RewardScale int
	// KnockoutTotal is the contest total at which a hand counts as a
	// knockout blow.
	KnockoutTotal int
	// InitiativeSkill decides who resolves first when both land a
	// knockout simultaneously.
	InitiativeSkill string
}

var defaultDuelConf = DuelConfig{
	DowntimeSec:     30,
	RewardScale:     1,
	KnockoutTotal:   400,
	InitiativeSkill: "reflexes",
}

func ParseDuelConfig(raw []byte) (*DuelConfig, error) {
	ret := defaultDuelConf
	if len(raw) <= 2 {
		return &ret, nil
	}
	if err := json.Unmarshal(raw, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

// Duel is a strictly two-participant session. On a dead-even exchange
// where both totals reach knockout level, the higher initiative skill
// resolves first and takes the win; anything else dead-even stays a
// Draw.
type Duel struct {
	sess     *session.Session
	conf     *DuelConfig
	profiles map[string]int // participant id -> initiative level
}

func NewDuel(opts RoundOptions) (*Duel, error) {
	opts.normalize(DuelName)
	if len(opts.Participants) != 2 {
		return nil, invalid("duel needs exactly 2 participants, got %d", len(opts.Participants))
	}
	conf, err := ParseDuelConfig(opts.Conf)
	if err != nil {
		return nil, err
	}
	d := &Duel{conf: conf, profiles: map[string]int{}}
	for _, pc := range opts.Participants {
		d.profiles[pc.ID] = pc.Profile.Level(conf.InitiativeSkill)
	}
	sess, err := session.New(session.Options{
		ID:              opts.ID,
		Variant:         DuelName,
		Participants:    opts.Participants,
		Relevance:       opts.Relevance,
		Bands:           opts.Bands,
		Thresholds:      opts.Thresholds,
		Seed:            opts.Seed,
		DecisionTimeout: time.Duration(conf.DowntimeSec) * time.Second,
		Finalize: func(out *outcome.Outcome) {
			d.applyInitiative(out)
			out.Payout = out.Margin * conf.RewardScale
		},
		Recorder: opts.Recorder,
		Logger:   opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	d.sess = sess
	if err := sess.Begin(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Duel) ID() string          { return d.sess.ID() }
func (d *Duel) Variant() string     { return DuelName }
func (d *Duel) Deadline() time.Time { return d.sess.Deadline() }
func (d *Duel) Terminal() bool      { return d.sess.Terminal() }
func (d *Duel) Expire() error       { return d.sess.Expire() }

func (d *Duel) Session() *session.Session { return d.sess }

// Outcome is the session outcome; the initiative rule and payout
// scaling run in the finalize hook before the session records it, so
// the audit trail and this value never differ.
func (d *Duel) Outcome() *outcome.Outcome {
	return d.sess.Outcome()
}

func (d *Duel) applyInitiative(out *outcome.Outcome) {
	if !out.Draw || out.Forfeit || !d.bothKnockout(out) {
		return
	}
	a, b := out.Results[0], out.Results[1]
	la, lb := d.profiles[a.ParticipantID], d.profiles[b.ParticipantID]
	if la == lb {
		return
	}
	winner := a.ParticipantID
	if lb > la {
		winner = b.ParticipantID
	}
	out.WinnerIDs = []string{winner}
	out.Draw = false
	out.Margin = 0
}

func (d *Duel) bothKnockout(out *outcome.Outcome) bool {
	if len(out.Results) != 2 {
		return false
	}
	return out.Results[0].Total >= d.conf.KnockoutTotal &&
		out.Results[1].Total >= d.conf.KnockoutTotal
}
