// Package sessionguard tracks client-side authentication state for the
// reader UI. It is a UX cache, never a security boundary: the server
// re-verifies every request regardless of what the guard believes.
package sessionguard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/beranamag/berana/internal/data"
)

// State is the guard's view of the session.
type State int

const (
	// StateUnknown is the initial state before the first probe resolves.
	StateUnknown State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "invalid"
	}
}

// Reason explains why a transition happened.
type Reason string

const (
	ReasonInitialCheck Reason = "initial_check"
	ReasonPoll         Reason = "poll"
	ReasonCheckFailed  Reason = "check_failed"
	ReasonLogin        Reason = "login"
	ReasonLogout       Reason = "logout"
	ReasonInactivity   Reason = "inactivity"
	ReasonHiddenTab    Reason = "hidden_tab"
)

// Checker probes the server for the current authentication state.
// Any error counts as unauthenticated.
type Checker func(ctx context.Context) (bool, error)

// TransitionFunc receives every state change.
type TransitionFunc func(from, to State, reason Reason)

const (
	defaultPollInterval    = 30 * time.Second
	defaultInactivityLimit = 10 * time.Minute
	defaultHiddenGrace     = 2 * time.Minute
)

// Options configures a Guard.
type Options struct {
	// Checker is the auth probe. Required.
	Checker Checker
	// OnTransition is invoked from the guard's own goroutine for every
	// state change. Optional.
	OnTransition TransitionFunc

	PollInterval    time.Duration
	InactivityLimit time.Duration
	HiddenGrace     time.Duration

	TimeProvider data.TimeProvider
	Logger       *slog.Logger
}

// Guard is the session state machine. All deadlines (poll, inactivity,
// hidden-tab grace) funnel through a single rescheduled timer owned by
// the run goroutine, so there is exactly one timer source of truth.
type Guard struct {
	checker      Checker
	onTransition TransitionFunc
	pollEvery    time.Duration
	inactivity   time.Duration
	hiddenGrace  time.Duration
	timeProvider data.TimeProvider
	logger       *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	wake   chan struct{}

	mu           sync.Mutex
	state        State
	lastActivity time.Time
	hidden       bool
	hiddenAt     time.Time
	nextPollAt   time.Time
}

// New creates and starts a Guard. The first probe runs immediately and
// resolves the Unknown state. Close must be called to release the timer
// goroutine.
func New(opts Options) (*Guard, error) {
	if opts.Checker == nil {
		return nil, errors.New("sessionguard: Checker is required")
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.InactivityLimit <= 0 {
		opts.InactivityLimit = defaultInactivityLimit
	}
	if opts.HiddenGrace <= 0 {
		opts.HiddenGrace = defaultHiddenGrace
	}
	if opts.TimeProvider == nil {
		opts.TimeProvider = &data.RealTimeProvider{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	now := opts.TimeProvider.Now()
	g := &Guard{
		checker:      opts.Checker,
		onTransition: opts.OnTransition,
		pollEvery:    opts.PollInterval,
		inactivity:   opts.InactivityLimit,
		hiddenGrace:  opts.HiddenGrace,
		timeProvider: opts.TimeProvider,
		logger:       opts.Logger.With(slog.String("component", "sessionguard")),
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
		wake:         make(chan struct{}, 1),
		state:        StateUnknown,
		lastActivity: now,
		nextPollAt:   now,
	}
	go g.run()
	return g, nil
}

// State returns the current state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Activity records user interaction and pushes the inactivity deadline
// out.
func (g *Guard) Activity() {
	g.mu.Lock()
	g.lastActivity = g.timeProvider.Now()
	g.mu.Unlock()
	g.notify()
}

// VisibilityChanged reports the tab being hidden or shown. A tab hidden
// past the grace window drops the session.
func (g *Guard) VisibilityChanged(hidden bool) {
	g.mu.Lock()
	if hidden && !g.hidden {
		g.hidden = true
		g.hiddenAt = g.timeProvider.Now()
	} else if !hidden && g.hidden {
		g.hidden = false
		g.lastActivity = g.timeProvider.Now()
	}
	g.mu.Unlock()
	g.notify()
}

// LoginSucceeded moves the guard to Authenticated. Only an explicit
// login leaves the Unauthenticated state.
func (g *Guard) LoginSucceeded() {
	g.mu.Lock()
	now := g.timeProvider.Now()
	g.lastActivity = now
	g.nextPollAt = now.Add(g.pollEvery)
	g.transitionLocked(StateAuthenticated, ReasonLogin)
	g.mu.Unlock()
	g.notify()
}

// Logout moves the guard to Unauthenticated immediately.
func (g *Guard) Logout() {
	g.mu.Lock()
	g.transitionLocked(StateUnauthenticated, ReasonLogout)
	g.mu.Unlock()
	g.notify()
}

// Close stops the run goroutine and cancels the pending timer. It is
// safe to call more than once.
func (g *Guard) Close() {
	g.cancel()
	<-g.done
}

func (g *Guard) notify() {
	select {
	case g.wake <- struct{}{}:
	default:
	}
}

// transitionLocked applies a state change and queues the callback.
// Callers hold g.mu; the callback itself runs outside the lock via
// fireTransition.
func (g *Guard) transitionLocked(to State, reason Reason) {
	from := g.state
	if from == to {
		return
	}
	g.state = to
	g.logger.Debug("session state changed",
		slog.String("from", from.String()),
		slog.String("to", to.String()),
		slog.String("reason", string(reason)))
	if g.onTransition != nil {
		go g.onTransition(from, to, reason)
	}
}

// run owns the single timer. Every pass recomputes the earliest pending
// deadline, sleeps until it (or an event wakes it), then acts on
// whatever expired.
func (g *Guard) run() {
	defer close(g.done)

	timer := time.NewTimer(0)
	defer timer.Stop()
	if !timer.Stop() {
		<-timer.C
	}

	for {
		g.handleDeadlines()

		wait := g.untilNextDeadline()
		timer.Reset(wait)

		select {
		case <-g.ctx.Done():
			return
		case <-g.wake:
		case <-timer.C:
			continue
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
	}
}

// untilNextDeadline picks the soonest of the poll tick, the inactivity
// limit, and the hidden-tab grace, relative to now.
func (g *Guard) untilNextDeadline() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.timeProvider.Now()
	next := g.nextPollAt
	if g.state == StateAuthenticated {
		if d := g.lastActivity.Add(g.inactivity); d.Before(next) {
			next = d
		}
		if g.hidden {
			if d := g.hiddenAt.Add(g.hiddenGrace); d.Before(next) {
				next = d
			}
		}
	}
	wait := next.Sub(now)
	if wait < 0 {
		wait = 0
	}
	return wait
}

func (g *Guard) handleDeadlines() {
	g.mu.Lock()
	now := g.timeProvider.Now()

	if g.state == StateAuthenticated {
		if g.hidden && !now.Before(g.hiddenAt.Add(g.hiddenGrace)) {
			g.transitionLocked(StateUnauthenticated, ReasonHiddenTab)
			g.mu.Unlock()
			return
		}
		if !now.Before(g.lastActivity.Add(g.inactivity)) {
			g.transitionLocked(StateUnauthenticated, ReasonInactivity)
			g.mu.Unlock()
			return
		}
	}

	pollDue := !now.Before(g.nextPollAt)
	if pollDue {
		g.nextPollAt = now.Add(g.pollEvery)
	}
	initial := g.state == StateUnknown
	g.mu.Unlock()

	if !pollDue && !initial {
		return
	}
	g.probe(initial)
}

// probe asks the checker and applies the answer. Errors fail closed.
func (g *Guard) probe(initial bool) {
	ok, err := g.checker(g.ctx)
	if err != nil {
		if g.ctx.Err() != nil {
			return
		}
		g.logger.Warn("auth check failed, treating as unauthenticated", slog.Any("error", err))
		ok = false
	}

	reason := ReasonPoll
	if initial {
		reason = ReasonInitialCheck
	} else if err != nil {
		reason = ReasonCheckFailed
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if ok {
		// A poll result never resurrects a session the user left or
		// that timed out; only LoginSucceeded does that.
		if g.state == StateUnknown {
			g.transitionLocked(StateAuthenticated, reason)
		}
		return
	}
	g.transitionLocked(StateUnauthenticated, reason)
}
