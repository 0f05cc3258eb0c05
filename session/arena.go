package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
)

// Contest is anything the arena can keep alive: a hold/discard session
// or a variant round with its own interactive windows.
type Contest interface {
	ID() string
	Deadline() time.Time
	Terminal() bool
	Expire() error
}

// Terminal reports whether the session has produced its outcome.
func (s *Session) Terminal() bool {
	return s.State() == StateTerminal
}

// ArenaOptions tunes the live-contest registry.
type ArenaOptions struct {
	// TickInterval is how often the deadline sweep runs.
	TickInterval time.Duration
	// OnFinish is called from the arena loop after a terminal contest
	// is dropped, e.g. to hand its outcome to reward logic.
	OnFinish func(Contest)
	Logger   *slog.Logger
}

// Arena owns every live contest, addressed by id, and fires the
// timeout transition on whichever one's window expires. There is no
// process-wide deck or session singleton; contests enter at creation
// and leave at Terminal.
type Arena struct {
	opts ArenaOptions

	mu       sync.Mutex
	contests map[string]Contest
	// byDeadline indexes contest ids by deadline so the sweep never
	// scans the whole arena. Entries go stale when a contest's window
	// resets; the sweep re-indexes lazily.
	byDeadline *treemap.Map // unix nano -> []string

	actQue chan func()
	quit   chan bool
	log    *slog.Logger
}

func NewArena(opts ArenaOptions) *Arena {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	a := &Arena{
		opts:       opts,
		contests:   map[string]Contest{},
		byDeadline: treemap.NewWith(utils.Int64Comparator),
		actQue:     make(chan func(), 64),
		quit:       make(chan bool),
		log:        opts.Logger.With("component", "arena"),
	}

	go func() {
		safecall := func(f func()) {
			defer func() {
				if err := recover(); err != nil {
					a.log.Error("panic in arena action", "err", err)
				}
			}()
			f()
		}

		tk := time.NewTicker(a.opts.TickInterval)
		defer tk.Stop()

		for {
			select {
			case f := <-a.actQue:
				safecall(f)
			case now := <-tk.C:
				a.sweep(now)
			case <-a.quit:
				return
			}
		}
	}()

	return a
}

// Do schedules a function on the arena loop.
func (a *Arena) Do(f func()) {
	a.actQue <- f
}

// AfterFunc schedules a function on the arena loop after a delay.
func (a *Arena) AfterFunc(td time.Duration, f func()) {
	time.AfterFunc(td, func() {
		a.Do(f)
	})
}

// Add registers a live contest. The contest's clock should already be
// running; a zero deadline is swept on the next tick.
func (a *Arena) Add(c Contest) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, dup := a.contests[c.ID()]; dup {
		return fmt.Errorf("contest %q already live", c.ID())
	}
	a.contests[c.ID()] = c
	a.index(c.ID(), c.Deadline())
	return nil
}

func (a *Arena) Get(id string) (Contest, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.contests[id]
	return c, ok
}

// Remove drops a contest without waiting for the sweep, e.g. after an
// explicit forfeit.
func (a *Arena) Remove(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.contests, id)
}

func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.contests)
}

func (a *Arena) Close() {
	select {
	case <-a.quit:
		return
	default:
	}
	close(a.quit)
}

// index must run with the lock held.
func (a *Arena) index(id string, deadline time.Time) {
	key := deadline.UnixNano()
	var ids []string
	if v, found := a.byDeadline.Get(key); found {
		ids = v.([]string)
	}
	a.byDeadline.Put(key, append(ids, id))
}

func (a *Arena) sweep(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	nowKey := now.UnixNano()
	var dueKeys []int64
	it := a.byDeadline.Iterator()
	for it.Next() {
		key := it.Key().(int64)
		if key > nowKey {
			break
		}
		dueKeys = append(dueKeys, key)
	}

	for _, key := range dueKeys {
		v, found := a.byDeadline.Get(key)
		a.byDeadline.Remove(key)
		if !found {
			continue
		}
		for _, id := range v.([]string) {
			c, live := a.contests[id]
			if !live {
				continue
			}
			if c.Terminal() {
				a.drop(id, c)
				continue
			}
			if dl := c.Deadline(); dl.After(now) {
				// window was reset since indexing
				a.index(id, dl)
				continue
			}
			if err := c.Expire(); err != nil {
				a.log.Error("expire contest", "contest", id, "err", err)
			}
			if c.Terminal() {
				a.drop(id, c)
				continue
			}
			next := c.Deadline()
			if !next.After(now) {
				// expire did not advance the window; back off one
				// tick instead of retrying every sweep
				next = now.Add(a.opts.TickInterval)
			}
			a.index(id, next)
		}
	}
}

// drop must run with the lock held.
func (a *Arena) drop(id string, c Contest) {
	delete(a.contests, id)
	a.log.Info("contest finished", "contest", id)
	if a.opts.OnFinish != nil {
		fin := a.opts.OnFinish
		go fin(c)
	}
}
