package variant

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hollowmoor/showdown/audit"
	"github.com/hollowmoor/showdown/card"
	"github.com/hollowmoor/showdown/core/errors"
	"github.com/hollowmoor/showdown/outcome"
	"github.com/hollowmoor/showdown/proficiency"
	"github.com/hollowmoor/showdown/session"
)

// PressLuckName is the push-your-luck contest: keep drawing to grow a
// pot of rank points, bank to lock it in, and lose the whole pot the
// moment a drawn rank repeats.
const PressLuckName = "pressluck"

func init() {
	Register(PressLuckName, func(opts RoundOptions) (Round, error) {
		return NewPressLuck(opts)
	})
}

type PressLuckConfig struct {
	DowntimeSec int
	RewardScale int
	// MaxStreak caps the run length; reaching it banks automatically.
	MaxStreak int
}

var defaultPressLuckConf = PressLuckConfig{
	DowntimeSec: 30,
	RewardScale: 1,
	MaxStreak:   8,
}

func ParsePressLuckConfig(raw []byte) (*PressLuckConfig, error) {
	ret := defaultPressLuckConf
	if len(raw) <= 2 {
		return &ret, nil
	}
	if err := json.Unmarshal(raw, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

type plParticipant struct {
	id        string
	profile   proficiency.Profile
	curse     int
	abilities proficiency.Abilities

	// streak is the participant's own run; each participant presses
	// their luck against a private seeded deck so one player's draws
	// never change another's odds.
	deck   *card.Deck
	streak []card.Card
	seen   map[card.Rank]bool
	pot    int
	banked bool
	busted bool

	previewsUsed int
	rerollsUsed  int
}

// PressLuck accumulates rank points per draw. A repeated rank busts the
// streak to zero; banking locks the pot. The preview unlock lets a
// participant peek at their next card, and the reroll unlock burns the
// next card unseen instead of drawing it.
type PressLuck struct {
	mu   sync.Mutex
	conf *PressLuckConfig

	id       string
	deadline time.Time
	timedOut bool

	participants []*plParticipant
	byID         map[string]*plParticipant

	rel   proficiency.Relevance
	bands []proficiency.Band

	out *outcome.Outcome
	log *slog.Logger
	rec audit.Recorder
}

func NewPressLuck(opts RoundOptions) (*PressLuck, error) {
	opts.normalize(PressLuckName)
	conf, err := ParsePressLuckConfig(opts.Conf)
	if err != nil {
		return nil, err
	}
	if conf.MaxStreak < 1 || conf.MaxStreak > 13 {
		return nil, errors.New(errors.CodeInvalidConfig, "press-luck max streak out of range")
	}
	if len(opts.Participants) == 0 {
		return nil, invalid("press-luck needs at least one participant")
	}
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}

	pl := &PressLuck{
		conf:     conf,
		id:       opts.ID,
		deadline: time.Now().Add(time.Duration(conf.DowntimeSec) * time.Second),
		byID:     map[string]*plParticipant{},
		rel:      opts.Relevance,
		bands:    opts.Bands,
		log:      opts.Logger.With("session", opts.ID),
		rec:      opts.Recorder,
	}

	for i, pc := range opts.Participants {
		if pc.ID == "" {
			return nil, invalid("participant with empty id")
		}
		if _, dup := pl.byID[pc.ID]; dup {
			return nil, invalid("duplicate participant id %q", pc.ID)
		}
		level := pc.Profile.Level(pc.GoverningSkill)
		p := &plParticipant{
			id:        pc.ID,
			profile:   pc.Profile,
			curse:     pc.CurseModifier,
			abilities: proficiency.Unlocks(level, opts.Thresholds),
			seen:      map[card.Rank]bool{},
		}
		if opts.Seed != nil {
			p.deck = card.NewShuffledSeed(*opts.Seed + int64(i))
		} else {
			deck, err := card.NewShuffled()
			if err != nil {
				return nil, err
			}
			p.deck = deck
		}
		pl.participants = append(pl.participants, p)
		pl.byID[pc.ID] = p
	}

	pl.log.Info("press-luck started", "participants", len(pl.participants), "max_streak", conf.MaxStreak)
	return pl, nil
}

func (pl *PressLuck) ID() string      { return pl.id }
func (pl *PressLuck) Variant() string { return PressLuckName }

func (pl *PressLuck) Deadline() time.Time {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.deadline
}

func (pl *PressLuck) Terminal() bool {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.out != nil
}

func (pl *PressLuck) Outcome() *outcome.Outcome {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.out
}

// Pot reports a participant's current unbanked pot.
func (pl *PressLuck) Pot(pid string) (int, error) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	p, ok := pl.byID[pid]
	if !ok {
		return 0, invalid("unknown participant %q", pid)
	}
	return p.pot, nil
}

func (pl *PressLuck) live(pid string) (*plParticipant, error) {
	if pl.out != nil {
		return nil, invalid("round already evaluated")
	}
	p, ok := pl.byID[pid]
	if !ok {
		return nil, invalid("unknown participant %q", pid)
	}
	if p.banked || p.busted {
		return nil, invalid("participant %q is no longer live", pid)
	}
	return p, nil
}

// Press draws the next card. A fresh rank adds its value to the pot; a
// repeat busts the pot to zero and ends the run.
func (pl *PressLuck) Press(pid string) (card.Card, error) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	p, err := pl.live(pid)
	if err != nil {
		return card.Card{}, err
	}
	cards, err := p.deck.Draw(1)
	if err != nil {
		return card.Card{}, err
	}
	c := cards[0]
	p.streak = append(p.streak, c)
	if err := pl.rec.RecordDraw(context.Background(), pl.id, p.id, cards); err != nil {
		pl.log.Error("record press", "err", err)
	}
	if p.seen[c.Rank] {
		p.busted = true
		p.pot = 0
		pl.log.Info("streak busted", "participant", p.id, "rank", c.Rank.String())
		pl.maybeEvaluate()
		return c, nil
	}
	p.seen[c.Rank] = true
	p.pot += int(c.Rank)
	if len(p.streak) >= pl.conf.MaxStreak {
		p.banked = true
		pl.log.Info("streak capped, banked", "participant", p.id, "pot", p.pot)
		pl.maybeEvaluate()
	}
	return c, nil
}

// Peek shows the next card without drawing it, spending a preview.
func (pl *PressLuck) Peek(pid string) (card.Card, error) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	p, err := pl.live(pid)
	if err != nil {
		return card.Card{}, err
	}
	if p.previewsUsed >= p.abilities.Previews {
		return card.Card{}, errors.New(errors.CodeAbilityNotUnlocked, "no previews available")
	}
	c, err := p.deck.Peek()
	if err != nil {
		return card.Card{}, err
	}
	p.previewsUsed++
	return c, nil
}

// Burn discards the next card unseen, spending a reroll.
func (pl *PressLuck) Burn(pid string) error {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	p, err := pl.live(pid)
	if err != nil {
		return err
	}
	if p.rerollsUsed >= p.abilities.Rerolls {
		return errors.New(errors.CodeAbilityNotUnlocked, "no rerolls available")
	}
	if _, err := p.deck.Draw(1); err != nil {
		return err
	}
	p.rerollsUsed++
	return nil
}

// Bank locks the current pot in.
func (pl *PressLuck) Bank(pid string) error {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	p, err := pl.live(pid)
	if err != nil {
		return err
	}
	p.banked = true
	pl.maybeEvaluate()
	return nil
}

// Expire banks every live pot at the deadline; hesitation keeps what
// was already drawn.
func (pl *PressLuck) Expire() error {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	if pl.out != nil {
		return invalid("round already evaluated")
	}
	pl.timedOut = true
	for _, p := range pl.participants {
		p.banked = true
	}
	pl.log.Warn("round expired, banking all pots")
	pl.evaluate()
	return nil
}

func (pl *PressLuck) maybeEvaluate() {
	for _, p := range pl.participants {
		if !p.banked && !p.busted {
			return
		}
	}
	pl.evaluate()
}

func (pl *PressLuck) evaluate() {
	results := make([]outcome.ParticipantResult, 0, len(pl.participants))
	for _, p := range pl.participants {
		bonus := proficiency.TotalBonus(p.profile, pl.rel, pl.bands)
		results = append(results, outcome.ParticipantResult{
			ParticipantID: p.id,
			RawHand:       append([]card.Card{}, p.streak...),
			Bonus:         bonus,
			Modifier:      p.curse,
			Total:         p.pot + bonus + p.curse,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Total > results[j].Total
	})

	best := results[0].Total
	winners := []string{}
	for _, r := range results {
		if r.Total == best {
			winners = append(winners, r.ParticipantID)
		}
	}
	sort.Strings(winners)

	margin := 0
	if len(results) > 1 && len(winners) == 1 {
		margin = best - results[1].Total
	}
	draw := len(results) > 1 && len(winners) > 1

	pl.out = &outcome.Outcome{
		SessionID: pl.id,
		Variant:   PressLuckName,
		At:        time.Now(),
		WinnerIDs: winners,
		Draw:      draw,
		Margin:    margin,
		Payout:    margin * pl.conf.RewardScale,
		TimedOut:  pl.timedOut,
		Results:   results,
	}
	if err := pl.rec.RecordOutcome(context.Background(), pl.out); err != nil {
		pl.log.Error("record outcome", "err", err)
	}
	pl.log.Info("round evaluated", "winners", winners, "margin", margin, "draw", draw)
}

var _ session.Contest = (*PressLuck)(nil)
