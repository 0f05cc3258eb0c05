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

// BlackjackName is the sum-to-target contest: draw toward the target,
// bust past it, closest non-busted sum wins.
const BlackjackName = "blackjack"

func init() {
	Register(BlackjackName, func(opts RoundOptions) (Round, error) {
		return NewBlackjack(opts)
	})
}

type BlackjackConfig struct {
	DowntimeSec int
	RewardScale int
	// Target is the sum to approach without exceeding.
	Target int
	// AllowDoubleDown and AllowInsurance are table rules; even when
	// allowed, each move still needs the participant's own unlock.
	AllowDoubleDown bool
	AllowInsurance  bool
}

var defaultBlackjackConf = BlackjackConfig{
	DowntimeSec:     30,
	RewardScale:     1,
	Target:          21,
	AllowDoubleDown: true,
	AllowInsurance:  true,
}

func ParseBlackjackConfig(raw []byte) (*BlackjackConfig, error) {
	ret := defaultBlackjackConf
	if len(raw) <= 2 {
		return &ret, nil
	}
	if err := json.Unmarshal(raw, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

type bjParticipant struct {
	id        string
	profile   proficiency.Profile
	curse     int
	abilities proficiency.Abilities

	hand    []card.Card
	stood   bool
	busted  bool
	doubled bool
	insured bool
	// preBust keeps the last non-busting sum so insurance can fall
	// back to it.
	preBust int
}

// Blackjack runs one shared deck across all participants. Moves are
// not turn-ordered; each participant draws against their own hand
// until they stand or bust, and the round evaluates when nobody is
// still live.
type Blackjack struct {
	mu   sync.Mutex
	conf *BlackjackConfig

	id       string
	deck     *card.Deck
	deadline time.Time
	timedOut bool

	participants []*bjParticipant
	byID         map[string]*bjParticipant

	rel   proficiency.Relevance
	bands []proficiency.Band

	out *outcome.Outcome
	log *slog.Logger
	rec audit.Recorder
}

func NewBlackjack(opts RoundOptions) (*Blackjack, error) {
	opts.normalize(BlackjackName)
	conf, err := ParseBlackjackConfig(opts.Conf)
	if err != nil {
		return nil, err
	}
	if conf.Target < 2 {
		return nil, errors.New(errors.CodeInvalidConfig, "blackjack target too small")
	}
	if len(opts.Participants) == 0 {
		return nil, invalid("blackjack needs at least one participant")
	}
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}

	b := &Blackjack{
		conf:     conf,
		id:       opts.ID,
		deadline: time.Now().Add(time.Duration(conf.DowntimeSec) * time.Second),
		byID:     map[string]*bjParticipant{},
		rel:      opts.Relevance,
		bands:    opts.Bands,
		log:      opts.Logger.With("session", opts.ID),
		rec:      opts.Recorder,
	}

	for _, pc := range opts.Participants {
		if pc.ID == "" {
			return nil, invalid("participant with empty id")
		}
		if _, dup := b.byID[pc.ID]; dup {
			return nil, invalid("duplicate participant id %q", pc.ID)
		}
		level := pc.Profile.Level(pc.GoverningSkill)
		p := &bjParticipant{
			id:        pc.ID,
			profile:   pc.Profile,
			curse:     pc.CurseModifier,
			abilities: proficiency.Unlocks(level, opts.Thresholds),
		}
		b.participants = append(b.participants, p)
		b.byID[pc.ID] = p
	}

	if opts.Seed != nil {
		b.deck = card.NewShuffledSeed(*opts.Seed)
	} else {
		deck, err := card.NewShuffled()
		if err != nil {
			return nil, err
		}
		b.deck = deck
	}

	for _, p := range b.participants {
		cards, err := b.deck.Draw(2)
		if err != nil {
			return nil, err
		}
		p.hand = append([]card.Card{}, cards...)
		p.preBust, _ = blackjackSum(p.hand, conf.Target)
		if err := b.rec.RecordDraw(context.Background(), b.id, p.id, p.hand); err != nil {
			b.log.Error("record deal", "err", err)
		}
	}

	b.log.Info("blackjack dealt", "participants", len(b.participants), "target", conf.Target)
	return b, nil
}

// blackjackSum values faces at ten and aces at eleven while that fits
// under the target, one otherwise. Returns the best sum and whether it
// exceeds the target even with every ace counted low.
func blackjackSum(cards []card.Card, target int) (sum int, bust bool) {
	aces := 0
	for _, c := range cards {
		switch {
		case c.Rank == card.Ace:
			aces++
			sum += 11
		case c.Rank >= card.Jack:
			sum += 10
		default:
			sum += int(c.Rank)
		}
	}
	for sum > target && aces > 0 {
		sum -= 10
		aces--
	}
	return sum, sum > target
}

func (b *Blackjack) ID() string      { return b.id }
func (b *Blackjack) Variant() string { return BlackjackName }

func (b *Blackjack) Deadline() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.deadline
}

func (b *Blackjack) Terminal() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.out != nil
}

func (b *Blackjack) Outcome() *outcome.Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.out
}

func (b *Blackjack) Hand(pid string) ([]card.Card, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.byID[pid]
	if !ok {
		return nil, invalid("unknown participant %q", pid)
	}
	return append([]card.Card{}, p.hand...), nil
}

// Sum reports a participant's current best sum and bust status.
func (b *Blackjack) Sum(pid string) (int, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.byID[pid]
	if !ok {
		return 0, false, invalid("unknown participant %q", pid)
	}
	sum, bust := blackjackSum(p.hand, b.conf.Target)
	return sum, bust, nil
}

func (b *Blackjack) live(pid string) (*bjParticipant, error) {
	if b.out != nil {
		return nil, invalid("round already evaluated")
	}
	p, ok := b.byID[pid]
	if !ok {
		return nil, invalid("unknown participant %q", pid)
	}
	if p.stood || p.busted {
		return nil, invalid("participant %q is no longer live", pid)
	}
	return p, nil
}

// Hit draws one card. Busting stands the participant automatically.
func (b *Blackjack) Hit(pid string) (card.Card, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, err := b.live(pid)
	if err != nil {
		return card.Card{}, err
	}
	return b.hit(p)
}

func (b *Blackjack) hit(p *bjParticipant) (card.Card, error) {
	cards, err := b.deck.Draw(1)
	if err != nil {
		return card.Card{}, err
	}
	p.preBust, _ = blackjackSum(p.hand, b.conf.Target)
	p.hand = append(p.hand, cards[0])
	if err := b.rec.RecordDraw(context.Background(), b.id, p.id, cards); err != nil {
		b.log.Error("record hit", "err", err)
	}
	if _, bust := blackjackSum(p.hand, b.conf.Target); bust {
		p.busted = true
		b.log.Info("participant busted", "participant", p.id)
		b.maybeEvaluate()
	}
	return cards[0], nil
}

// Stand locks the participant's sum.
func (b *Blackjack) Stand(pid string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, err := b.live(pid)
	if err != nil {
		return err
	}
	p.stood = true
	b.maybeEvaluate()
	return nil
}

// DoubleDown takes exactly one more card and stands, doubling the
// participant's payout share on a win. Needs the late-draw unlock.
func (b *Blackjack) DoubleDown(pid string) (card.Card, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.conf.AllowDoubleDown {
		return card.Card{}, invalid("double down disabled for this round")
	}
	p, err := b.live(pid)
	if err != nil {
		return card.Card{}, err
	}
	if !p.abilities.ExtraDraw {
		return card.Card{}, errors.New(errors.CodeAbilityNotUnlocked, "double down not unlocked")
	}
	if p.doubled {
		return card.Card{}, invalid("already doubled down")
	}
	p.doubled = true
	c, err := b.hit(p)
	if err != nil {
		return card.Card{}, err
	}
	if !p.busted {
		p.stood = true
		b.maybeEvaluate()
	}
	return c, nil
}

// Insurance hedges a later bust: a busted insured hand scores its last
// sum before the busting draw instead of zero. Needs the preview
// unlock.
func (b *Blackjack) Insurance(pid string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.conf.AllowInsurance {
		return invalid("insurance disabled for this round")
	}
	p, err := b.live(pid)
	if err != nil {
		return err
	}
	if p.abilities.Previews == 0 {
		return errors.New(errors.CodeAbilityNotUnlocked, "insurance not unlocked")
	}
	if p.insured {
		return invalid("already insured")
	}
	p.insured = true
	return nil
}

// Expire stands every live participant at the deadline.
func (b *Blackjack) Expire() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.out != nil {
		return invalid("round already evaluated")
	}
	b.timedOut = true
	for _, p := range b.participants {
		p.stood = true
	}
	b.log.Warn("round expired, standing all hands")
	b.evaluate()
	return nil
}

func (b *Blackjack) maybeEvaluate() {
	for _, p := range b.participants {
		if !p.stood && !p.busted {
			return
		}
	}
	b.evaluate()
}

func (b *Blackjack) evaluate() {
	results := make([]outcome.ParticipantResult, 0, len(b.participants))
	for _, p := range b.participants {
		sum, _ := blackjackSum(p.hand, b.conf.Target)
		if p.busted {
			sum = 0
			if p.insured {
				sum = p.preBust
			}
		}
		bonus := proficiency.TotalBonus(p.profile, b.rel, b.bands)
		results = append(results, outcome.ParticipantResult{
			ParticipantID: p.id,
			RawHand:       append([]card.Card{}, p.hand...),
			Bonus:         bonus,
			Modifier:      p.curse,
			Total:         sum + bonus + p.curse,
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

	payout := margin * b.conf.RewardScale
	if len(winners) == 1 {
		if w := b.byID[winners[0]]; w != nil && w.doubled {
			payout *= 2
		}
	}

	b.out = &outcome.Outcome{
		SessionID: b.id,
		Variant:   BlackjackName,
		At:        time.Now(),
		WinnerIDs: winners,
		Draw:      draw,
		Margin:    margin,
		Payout:    payout,
		TimedOut:  b.timedOut,
		Results:   results,
	}
	if err := b.rec.RecordOutcome(context.Background(), b.out); err != nil {
		b.log.Error("record outcome", "err", err)
	}
	b.log.Info("round evaluated", "winners", winners, "margin", margin, "draw", draw)
}

var _ session.Contest = (*Blackjack)(nil)
