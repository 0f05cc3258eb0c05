// Package session implements the hold/discard resolution contest: one
// deck, one or more participants, a barrier that treats all decisions
// within a round as simultaneous, and a bounded decision window.
package session

import (
	"context"
	"fmt"
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
)

type State int32

const (
	StateDealt State = iota
	StateDeciding
	StateResolving
	StateEvaluated
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StateDealt:
		return "Dealt"
	case StateDeciding:
		return "Deciding"
	case StateResolving:
		return "Resolving"
	case StateEvaluated:
		return "Evaluated"
	case StateTerminal:
		return "Terminal"
	default:
		return "Unknown"
	}
}

// HandSize is the evaluated hand size for every hold/discard contest.
const HandSize = 5

// DefaultDecisionTimeout bounds each interactive window; when it fires
// the current selection auto-commits and unselected cards discard.
const DefaultDecisionTimeout = 30 * time.Second

// ParticipantConfig is the per-participant slice of a resolution
// request: a proficiency snapshot plus the action's signed curse or
// blessing modifier.
type ParticipantConfig struct {
	ID             string
	Profile        proficiency.Profile
	GoverningSkill string
	CurseModifier  int
}

// Options configures one session. Seed is the injectable deterministic
// path for tests; production leaves it nil and the deck seeds itself
// from crypto/rand.
type Options struct {
	ID              string
	Variant         string
	Participants    []ParticipantConfig
	Relevance       proficiency.Relevance
	Bands           []proficiency.Band
	Thresholds      proficiency.Thresholds
	Seed            *int64
	DecisionTimeout time.Duration
	// Finalize lets the owning variant adjust the outcome (payout
	// scaling, tie-break rules) before it is recorded and published.
	// The audit trail and callers always see the same outcome.
	Finalize func(*outcome.Outcome)
	Recorder audit.Recorder
	Logger   *slog.Logger
}

type participant struct {
	id        string
	profile   proficiency.Profile
	curse     int
	abilities proficiency.Abilities

	hand []card.Card

	// Deciding: held is buffered and hidden until everyone commits.
	committed bool
	held      []int

	// Resolving: the first heldCount cards of hand are the kept ones,
	// eligible for reroll; the rest are fresh replacements.
	heldCount    int
	confirmed    bool
	previewsUsed int
	rerollsUsed  int

	result outcome.ParticipantResult
}

// Session is the live state of one contest. All methods are safe for
// concurrent use; the barrier never reveals one participant's buffered
// selection to another before both commit.
type Session struct {
	mu   sync.Mutex
	opts Options

	id       string
	deck     *card.Deck
	state    State
	deadline time.Time
	timedOut bool

	// participants keeps request order for stable draw sequencing
	participants []*participant
	byID         map[string]*participant

	out *outcome.Outcome
	log *slog.Logger
	rec audit.Recorder
}

func invalid(format string, args ...interface{}) error {
	return errors.New(errors.CodeInvalidSessionAction, fmt.Sprintf(format, args...))
}

// windowClosed rejects an interactive action in the wrong state,
// distinguishing a window lost to the timeout from a plain illegal
// transition. Callers hold the lock.
func (s *Session) windowClosed(verb string) error {
	if s.timedOut {
		return errors.New(errors.CodeSessionTimeout,
			fmt.Sprintf("%s after the window timed out", verb))
	}
	return invalid("%s in state %v", verb, s.state)
}

// New deals the initial hands and leaves the session in Dealt. The deck
// is sized so the session's maximum possible draws cannot exhaust it;
// a participant set too large for one deck is rejected up front.
func New(opts Options) (*Session, error) {
	if len(opts.Participants) == 0 {
		return nil, invalid("session needs at least one participant")
	}
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.DecisionTimeout <= 0 {
		opts.DecisionTimeout = DefaultDecisionTimeout
	}
	if opts.Recorder == nil {
		opts.Recorder = audit.Noop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Session{
		opts:  opts,
		id:    opts.ID,
		state: StateDealt,
		byID:  map[string]*participant{},
		log:   opts.Logger.With("session", opts.ID),
		rec:   opts.Recorder,
	}

	maxDraws := 0
	for _, pc := range opts.Participants {
		if pc.ID == "" {
			return nil, invalid("participant with empty id")
		}
		if _, dup := s.byID[pc.ID]; dup {
			return nil, invalid("duplicate participant id %q", pc.ID)
		}
		level := pc.Profile.Level(pc.GoverningSkill)
		p := &participant{
			id:        pc.ID,
			profile:   pc.Profile,
			curse:     pc.CurseModifier,
			abilities: proficiency.Unlocks(level, opts.Thresholds),
		}
		s.participants = append(s.participants, p)
		s.byID[pc.ID] = p

		deal := HandSize
		if p.abilities.ExtraDraw {
			deal++
		}
		maxDraws += deal + HandSize + p.abilities.Rerolls
	}
	if maxDraws > 52 {
		return nil, invalid("%d participants would need up to %d draws from one deck",
			len(opts.Participants), maxDraws)
	}

	if opts.Seed != nil {
		s.deck = card.NewShuffledSeed(*opts.Seed)
	} else {
		deck, err := card.NewShuffled()
		if err != nil {
			return nil, err
		}
		s.deck = deck
	}

	for _, p := range s.participants {
		deal := HandSize
		if p.abilities.ExtraDraw {
			deal++
		}
		cards, err := s.deck.Draw(deal)
		if err != nil {
			return nil, err
		}
		p.hand = append([]card.Card{}, cards...)
		if err := s.rec.RecordDraw(context.Background(), s.id, p.id, p.hand); err != nil {
			s.log.Error("record deal", "err", err)
		}
	}

	s.log.Info("session dealt", "variant", opts.Variant, "participants", len(s.participants))
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Deadline is the zero time until Begin opens the decision window.
func (s *Session) Deadline() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deadline
}

// TimedOut reports whether any interactive window expired before every
// participant acted.
func (s *Session) TimedOut() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timedOut
}

// Hand returns the participant's own current hand. Transport code must
// only ever relay a hand to its owner.
func (s *Session) Hand(participantID string) ([]card.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[participantID]
	if !ok {
		return nil, invalid("unknown participant %q", participantID)
	}
	out := make([]card.Card, len(p.hand))
	copy(out, p.hand)
	return out, nil
}

// Committed reports only whether a participant has committed, never
// what; selections stay buffered until the whole round resolves.
func (s *Session) Committed(participantID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[participantID]
	return ok && p.committed
}

// Outcome returns the final artifact, nil before Terminal.
func (s *Session) Outcome() *outcome.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out
}

// Begin opens the decision window: Dealt -> Deciding.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateDealt {
		return invalid("begin in state %v", s.state)
	}
	s.state = StateDeciding
	s.deadline = time.Now().Add(s.opts.DecisionTimeout)
	return nil
}

// Peek reveals the next card the deck would serve as a replacement,
// consuming one preview use. Only legal while deciding and before
// committing.
func (s *Session) Peek(participantID string) (card.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[participantID]
	if !ok {
		return card.Card{}, invalid("unknown participant %q", participantID)
	}
	if s.state != StateDeciding {
		return card.Card{}, s.windowClosed("peek")
	}
	if p.committed {
		return card.Card{}, invalid("peek after commit")
	}
	if p.previewsUsed >= p.abilities.Previews {
		return card.Card{}, errors.New(errors.CodeAbilityNotUnlocked,
			fmt.Sprintf("preview allotment %d exhausted", p.abilities.Previews))
	}
	c, err := s.deck.Peek()
	if err != nil {
		return card.Card{}, err
	}
	p.previewsUsed++
	return c, nil
}

// Commit buffers one participant's held-card selection; everything not
// held is flagged for discard. A rejected commit leaves all session
// state untouched. Once every participant has committed, discards are
// replaced from the deck and the session moves to Resolving.
func (s *Session) Commit(participantID string, held []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[participantID]
	if !ok {
		return invalid("unknown participant %q", participantID)
	}
	if s.state != StateDeciding {
		return s.windowClosed("commit")
	}
	if p.committed {
		return invalid("participant %q already committed", participantID)
	}
	if len(held) > HandSize {
		return invalid("holding %d cards, max %d", len(held), HandSize)
	}
	seen := map[int]bool{}
	for _, idx := range held {
		if idx < 0 || idx >= len(p.hand) {
			return invalid("held slot %d out of range", idx)
		}
		if seen[idx] {
			return invalid("held slot %d repeated", idx)
		}
		seen[idx] = true
	}

	p.held = append([]int{}, held...)
	p.committed = true

	if s.allCommitted() {
		return s.resolve()
	}
	return nil
}

func (s *Session) allCommitted() bool {
	for _, p := range s.participants {
		if !p.committed {
			return false
		}
	}
	return true
}

// resolve replaces every discarded slot with fresh draws and opens the
// Resolving window, where reroll uses may swap already-held cards.
// Callers hold the lock.
func (s *Session) resolve() error {
	s.state = StateResolving
	for _, p := range s.participants {
		final := make([]card.Card, 0, HandSize)
		for _, idx := range p.held {
			final = append(final, p.hand[idx])
		}
		p.heldCount = len(final)
		need := HandSize - len(final)
		if need > 0 {
			draws, err := s.deck.Draw(need)
			if err != nil {
				return err
			}
			final = append(final, draws...)
			if err := s.rec.RecordDraw(context.Background(), s.id, p.id, draws); err != nil {
				s.log.Error("record draw", "err", err)
			}
		}
		p.hand = final
		// nothing left to reroll means nothing to wait for
		if p.abilities.Rerolls == 0 || p.heldCount == 0 {
			p.confirmed = true
		}
	}
	s.deadline = time.Now().Add(s.opts.DecisionTimeout)

	if s.allConfirmed() {
		return s.evaluate()
	}
	return nil
}

// Reroll swaps one already-held card for a fresh draw, consuming one
// use of the reroll allotment. Only legal in Resolving, on a slot that
// was held through the discard phase, and before confirming.
func (s *Session) Reroll(participantID string, slot int) (card.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[participantID]
	if !ok {
		return card.Card{}, invalid("unknown participant %q", participantID)
	}
	if s.state != StateResolving {
		return card.Card{}, s.windowClosed("reroll")
	}
	if p.confirmed {
		return card.Card{}, invalid("reroll after confirm")
	}
	if p.rerollsUsed >= p.abilities.Rerolls {
		return card.Card{}, errors.New(errors.CodeAbilityNotUnlocked,
			fmt.Sprintf("reroll allotment %d exhausted", p.abilities.Rerolls))
	}
	if slot < 0 || slot >= p.heldCount {
		return card.Card{}, invalid("reroll slot %d is not a held card", slot)
	}

	draws, err := s.deck.Draw(1)
	if err != nil {
		return card.Card{}, err
	}
	p.hand[slot] = draws[0]
	p.rerollsUsed++
	if err := s.rec.RecordDraw(context.Background(), s.id, p.id, draws); err != nil {
		s.log.Error("record reroll", "err", err)
	}
	return draws[0], nil
}

// Confirm ends a participant's Resolving window. When everyone has
// confirmed, hands are evaluated and the session terminates.
func (s *Session) Confirm(participantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[participantID]
	if !ok {
		return invalid("unknown participant %q", participantID)
	}
	if s.state != StateResolving {
		return s.windowClosed("confirm")
	}
	if p.confirmed {
		return invalid("participant %q already confirmed", participantID)
	}
	p.confirmed = true
	if s.allConfirmed() {
		return s.evaluate()
	}
	return nil
}

func (s *Session) allConfirmed() bool {
	for _, p := range s.participants {
		if !p.confirmed {
			return false
		}
	}
	return true
}

// Expire closes whichever interactive window is open: in Deciding,
// uncommitted participants discard everything; in Resolving, pending
// rerolls are abandoned. This is the timeout path, a guaranteed
// transition rather than an error.
func (s *Session) Expire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateDeciding:
		for _, p := range s.participants {
			if !p.committed {
				p.held = nil
				p.committed = true
				s.log.Info("decision timeout, discarding all", "participant", p.id)
			}
		}
		s.timedOut = true
		return s.resolve()
	case StateResolving:
		for _, p := range s.participants {
			p.confirmed = true
		}
		s.timedOut = true
		return s.evaluate()
	default:
		return invalid("expire in state %v", s.state)
	}
}

// evaluate scores every final hand and builds the outcome. Callers hold
// the lock.
func (s *Session) evaluate() error {
	s.state = StateEvaluated
	for _, p := range s.participants {
		res, err := hand.Evaluate(p.hand)
		if err != nil {
			return err
		}
		bonus := proficiency.TotalBonus(p.profile, s.opts.Relevance, s.opts.Bands)
		total := res.Category.BaseScore() + bonus + p.curse
		p.result = outcome.ParticipantResult{
			ParticipantID: p.id,
			RawHand:       append([]card.Card{}, p.hand...),
			HandResult:    res,
			Bonus:         bonus,
			Modifier:      p.curse,
			Total:         total,
			DeadMansHand:  res.DeadMansHand(),
		}
	}
	s.finish(s.buildOutcome())
	return nil
}

// Forfeit resolves an abandoned session: the forfeiting participant
// loses outright and everyone else is credited the win. Current hands
// still ride on the outcome for the audit trail.
func (s *Session) Forfeit(participantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[participantID]
	if !ok {
		return invalid("unknown participant %q", participantID)
	}
	if s.state == StateTerminal {
		return invalid("forfeit after terminal")
	}

	out := &outcome.Outcome{
		SessionID: s.id,
		Variant:   s.opts.Variant,
		At:        time.Now(),
		Forfeit:   true,
	}
	for _, q := range s.participants {
		raw := q.hand
		if len(raw) > HandSize {
			raw = raw[:HandSize]
		}
		res := outcome.ParticipantResult{
			ParticipantID: q.id,
			RawHand:       append([]card.Card{}, raw...),
		}
		if hr, err := hand.Evaluate(res.RawHand); err == nil {
			res.HandResult = hr
			res.DeadMansHand = hr.DeadMansHand()
		}
		out.Results = append(out.Results, res)
		if q != p {
			out.WinnerIDs = append(out.WinnerIDs, q.id)
		}
	}
	s.log.Info("session forfeited", "participant", participantID)
	s.finish(out)
	return nil
}

// buildOutcome ranks participants by contest total, breaking ties on
// rankScore; equality on both is a true Draw, never broken by input
// order. Callers hold the lock.
func (s *Session) buildOutcome() *outcome.Outcome {
	out := &outcome.Outcome{
		SessionID: s.id,
		Variant:   s.opts.Variant,
		At:        time.Now(),
		TimedOut:  s.timedOut,
	}

	ranked := make([]*participant, len(s.participants))
	copy(ranked, s.participants)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.result.Total != b.result.Total {
			return a.result.Total > b.result.Total
		}
		return a.result.HandResult.Score > b.result.HandResult.Score
	})

	best := ranked[0]
	for _, p := range ranked {
		if p.result.Total == best.result.Total &&
			p.result.HandResult.Score == best.result.HandResult.Score {
			out.WinnerIDs = append(out.WinnerIDs, p.id)
		}
	}
	out.Draw = len(out.WinnerIDs) > 1
	if len(ranked) > 1 && !out.Draw {
		out.Margin = best.result.Total - ranked[1].result.Total
	}

	for _, p := range s.participants {
		out.Results = append(out.Results, p.result)
		if p.result.DeadMansHand {
			out.SpecialFlag = true
		}
	}
	return out
}

func (s *Session) finish(out *outcome.Outcome) {
	if s.opts.Finalize != nil {
		s.opts.Finalize(out)
	}
	s.state = StateTerminal
	s.out = out
	if err := s.rec.RecordOutcome(context.Background(), out); err != nil {
		s.log.Error("record outcome", "err", err)
	}
	s.log.Info("session terminal",
		"winners", out.WinnerIDs, "margin", out.Margin,
		"draw", out.Draw, "special", out.SpecialFlag)
}
