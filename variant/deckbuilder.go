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
	"github.com/hollowmoor/showdown/hand"
	"github.com/hollowmoor/showdown/outcome"
	"github.com/hollowmoor/showdown/proficiency"
	"github.com/hollowmoor/showdown/session"
)

// DeckBuilderName is the constructed-deck contest: each participant
// assembles a private sub-deck from the full pool, then draws five from
// it and resolves under the standard hand ranking.
const DeckBuilderName = "deckbuilder"

func init() {
	Register(DeckBuilderName, func(opts RoundOptions) (Round, error) {
		return NewDeckBuilder(opts)
	})
}

type DeckBuilderConfig struct {
	DowntimeSec int
	RewardScale int
	// MinDeck is the smallest legal sub-deck. Small enough to let a
	// build chase flushes, large enough that the draw stays a gamble.
	MinDeck int
}

var defaultDeckBuilderConf = DeckBuilderConfig{
	DowntimeSec: 60,
	RewardScale: 1,
	MinDeck:     15,
}

func ParseDeckBuilderConfig(raw []byte) (*DeckBuilderConfig, error) {
	ret := defaultDeckBuilderConf
	if len(raw) <= 2 {
		return &ret, nil
	}
	if err := json.Unmarshal(raw, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

type dbParticipant struct {
	id      string
	profile proficiency.Profile
	curse   int

	assembled bool
	hand      []card.Card
}

// DeckBuilder lets each participant curate the odds before drawing.
// Because every sub-deck is cut from its own copy of the pool, two
// participants can legitimately draw the same card; ties are settled
// by the usual total-then-score rule.
type DeckBuilder struct {
	mu   sync.Mutex
	conf *DeckBuilderConfig

	id       string
	seed     *int64
	deadline time.Time
	timedOut bool

	participants []*dbParticipant
	byID         map[string]*dbParticipant

	rel   proficiency.Relevance
	bands []proficiency.Band

	out *outcome.Outcome
	log *slog.Logger
	rec audit.Recorder
}

func NewDeckBuilder(opts RoundOptions) (*DeckBuilder, error) {
	opts.normalize(DeckBuilderName)
	conf, err := ParseDeckBuilderConfig(opts.Conf)
	if err != nil {
		return nil, err
	}
	if conf.MinDeck < session.HandSize || conf.MinDeck > 52 {
		return nil, errors.New(errors.CodeInvalidConfig, "deck-builder min deck out of range")
	}
	if len(opts.Participants) == 0 {
		return nil, invalid("deck-builder needs at least one participant")
	}
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}

	db := &DeckBuilder{
		conf:     conf,
		id:       opts.ID,
		seed:     opts.Seed,
		deadline: time.Now().Add(time.Duration(conf.DowntimeSec) * time.Second),
		byID:     map[string]*dbParticipant{},
		rel:      opts.Relevance,
		bands:    opts.Bands,
		log:      opts.Logger.With("session", opts.ID),
		rec:      opts.Recorder,
	}

	for _, pc := range opts.Participants {
		if pc.ID == "" {
			return nil, invalid("participant with empty id")
		}
		if _, dup := db.byID[pc.ID]; dup {
			return nil, invalid("duplicate participant id %q", pc.ID)
		}
		p := &dbParticipant{
			id:      pc.ID,
			profile: pc.Profile,
			curse:   pc.CurseModifier,
		}
		db.participants = append(db.participants, p)
		db.byID[pc.ID] = p
	}

	db.log.Info("deck-builder started", "participants", len(db.participants), "min_deck", conf.MinDeck)
	return db, nil
}

func (db *DeckBuilder) ID() string      { return db.id }
func (db *DeckBuilder) Variant() string { return DeckBuilderName }

func (db *DeckBuilder) Deadline() time.Time {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.deadline
}

func (db *DeckBuilder) Terminal() bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.out != nil
}

func (db *DeckBuilder) Outcome() *outcome.Outcome {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.out
}

func (db *DeckBuilder) Hand(pid string) ([]card.Card, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	p, ok := db.byID[pid]
	if !ok {
		return nil, invalid("unknown participant %q", pid)
	}
	if !p.assembled {
		return nil, invalid("participant %q has not assembled a deck", pid)
	}
	return append([]card.Card{}, p.hand...), nil
}

// Assemble submits a participant's sub-deck, shuffles it and draws
// their hand immediately. The build must be at least MinDeck cards
// with no duplicates. The last assembly triggers evaluation.
func (db *DeckBuilder) Assemble(pid string, build []card.Card) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.out != nil {
		return invalid("round already evaluated")
	}
	p, ok := db.byID[pid]
	if !ok {
		return invalid("unknown participant %q", pid)
	}
	if p.assembled {
		return invalid("participant %q already assembled", pid)
	}
	if len(build) < db.conf.MinDeck {
		return invalid("sub-deck has %d cards, need at least %d", len(build), db.conf.MinDeck)
	}
	seen := map[card.Card]bool{}
	for _, c := range build {
		if _, err := card.New(c.Rank, c.Suit); err != nil {
			return err
		}
		if seen[c] {
			return invalid("duplicate card %s in sub-deck", c)
		}
		seen[c] = true
	}
	return db.deal(p, build)
}

func (db *DeckBuilder) deal(p *dbParticipant, build []card.Card) error {
	seed, err := db.participantSeed(p)
	if err != nil {
		return err
	}
	deck := card.NewShuffledPool(build, seed)
	cards, err := deck.Draw(session.HandSize)
	if err != nil {
		return err
	}
	p.assembled = true
	p.hand = append([]card.Card{}, cards...)
	if err := db.rec.RecordDraw(context.Background(), db.id, p.id, p.hand); err != nil {
		db.log.Error("record deal", "err", err)
	}
	db.maybeEvaluate()
	return nil
}

// participantSeed keeps test determinism when a round seed is set,
// offset per participant so identical builds still shuffle apart.
func (db *DeckBuilder) participantSeed(p *dbParticipant) (int64, error) {
	if db.seed != nil {
		for i, q := range db.participants {
			if q == p {
				return *db.seed + int64(i), nil
			}
		}
	}
	return card.NewSeed()
}

// Expire hands every unassembled participant the full pool: no build
// means no curation, not no hand.
func (db *DeckBuilder) Expire() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.out != nil {
		return invalid("round already evaluated")
	}
	db.timedOut = true
	db.log.Warn("round expired, dealing stragglers from the full pool")
	for _, p := range db.participants {
		if p.assembled {
			continue
		}
		if err := db.deal(p, card.All()); err != nil {
			return err
		}
	}
	if db.out == nil {
		db.evaluate()
	}
	return nil
}

func (db *DeckBuilder) maybeEvaluate() {
	for _, p := range db.participants {
		if !p.assembled {
			return
		}
	}
	db.evaluate()
}

func (db *DeckBuilder) evaluate() {
	results := make([]outcome.ParticipantResult, 0, len(db.participants))
	for _, p := range db.participants {
		res, err := hand.Evaluate(p.hand)
		if err != nil {
			db.log.Error("evaluate hand", "participant", p.id, "err", err)
			continue
		}
		bonus, total := contestTotal(p.profile, db.rel, db.bands, res, p.curse)
		results = append(results, outcome.ParticipantResult{
			ParticipantID: p.id,
			RawHand:       append([]card.Card{}, p.hand...),
			HandResult:    res,
			Bonus:         bonus,
			Modifier:      p.curse,
			Total:         total,
			DeadMansHand:  res.DeadMansHand(),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Total != results[j].Total {
			return results[i].Total > results[j].Total
		}
		return results[i].HandResult.Score > results[j].HandResult.Score
	})

	best := results[0]
	winners := []string{}
	special := false
	for _, r := range results {
		if r.Total == best.Total && r.HandResult.Score == best.HandResult.Score {
			winners = append(winners, r.ParticipantID)
		}
		if r.DeadMansHand {
			special = true
		}
	}
	sort.Strings(winners)

	margin := 0
	if len(results) > 1 && len(winners) == 1 {
		margin = best.Total - results[1].Total
	}
	draw := len(results) > 1 && len(winners) > 1

	db.out = &outcome.Outcome{
		SessionID:   db.id,
		Variant:     DeckBuilderName,
		At:          time.Now(),
		WinnerIDs:   winners,
		Draw:        draw,
		Margin:      margin,
		Payout:      margin * db.conf.RewardScale,
		SpecialFlag: special,
		TimedOut:    db.timedOut,
		Results:     results,
	}
	if err := db.rec.RecordOutcome(context.Background(), db.out); err != nil {
		db.log.Error("record outcome", "err", err)
	}
	db.log.Info("round evaluated", "winners", winners, "margin", margin, "draw", draw)
}

var _ session.Contest = (*DeckBuilder)(nil)
