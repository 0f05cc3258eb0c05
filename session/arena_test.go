package session

import (
	"testing"
	"time"

	"github.com/hollowmoor/showdown/proficiency"
)

func TestArenaSweepExpiresStalledSession(t *testing.T) {
	arena := NewArena(ArenaOptions{TickInterval: 10 * time.Millisecond})
	defer arena.Close()

	s, err := New(Options{
		Participants: []ParticipantConfig{
			{ID: "p1", Profile: proficiency.Profile{}},
			{ID: "p2", Profile: proficiency.Profile{}},
		},
		Seed:            seedp(17),
		DecisionTimeout: 30 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Begin(); err != nil {
		t.Fatal(err)
	}
	if err := arena.Add(s); err != nil {
		t.Fatal(err)
	}
	if _, ok := arena.Get(s.ID()); !ok {
		t.Fatal("session not addressable")
	}

	// p1 commits, p2 stalls; the sweep must force the round through
	if err := s.Commit("p1", []int{0, 1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for s.State() != StateTerminal {
		if time.Now().After(deadline) {
			t.Fatalf("session never expired, state %v", s.State())
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !s.Outcome().TimedOut {
		t.Fatal("forced outcome not marked timed out")
	}

	// the sweep reaps terminal sessions
	deadline = time.Now().Add(2 * time.Second)
	for arena.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("terminal session never reaped, len %d", arena.Len())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestArenaOnFinish(t *testing.T) {
	done := make(chan Contest, 1)
	arena := NewArena(ArenaOptions{
		TickInterval: 10 * time.Millisecond,
		OnFinish:     func(c Contest) { done <- c },
	})
	defer arena.Close()

	s, err := New(Options{
		Participants:    []ParticipantConfig{{ID: "solo", Profile: proficiency.Profile{}}},
		Seed:            seedp(4),
		DecisionTimeout: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Begin(); err != nil {
		t.Fatal(err)
	}
	if err := arena.Add(s); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-done:
		if c.ID() != s.ID() {
			t.Fatalf("finished contest %q", c.ID())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnFinish never fired")
	}
}

// stuckContest never advances its window and never terminates: its
// deadline stays in the past and Expire always fails.
type stuckContest struct {
	expires int
}

func (c *stuckContest) ID() string          { return "stuck" }
func (c *stuckContest) Deadline() time.Time { return time.Time{} }
func (c *stuckContest) Terminal() bool      { return false }
func (c *stuckContest) Expire() error {
	c.expires++
	return errInvalidExpire
}

var errInvalidExpire = invalid("expire in state Dealt")

func TestArenaBacksOffStuckContest(t *testing.T) {
	arena := NewArena(ArenaOptions{TickInterval: time.Hour})
	defer arena.Close()

	c := &stuckContest{}
	if err := arena.Add(c); err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	arena.sweep(now)
	if c.expires != 1 {
		t.Fatalf("expire attempts = %d after first sweep", c.expires)
	}
	// with the deadline unmoved, the next sweep must not retry before
	// the backoff elapses
	arena.sweep(now.Add(time.Minute))
	if c.expires != 1 {
		t.Fatalf("expire retried within the backoff, attempts = %d", c.expires)
	}
	arena.sweep(now.Add(2 * time.Hour))
	if c.expires != 2 {
		t.Fatalf("expire attempts = %d after backoff elapsed", c.expires)
	}
	if arena.Len() != 1 {
		t.Fatalf("stuck contest dropped, len = %d", arena.Len())
	}
}

func TestArenaRejectsDuplicate(t *testing.T) {
	arena := NewArena(ArenaOptions{TickInterval: time.Hour})
	defer arena.Close()

	s, err := New(Options{
		ID:           "dup",
		Participants: []ParticipantConfig{{ID: "p1", Profile: proficiency.Profile{}}},
		Seed:         seedp(6),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := arena.Add(s); err != nil {
		t.Fatal(err)
	}
	if err := arena.Add(s); err == nil {
		t.Fatal("duplicate add accepted")
	}
}
