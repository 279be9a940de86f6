package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests")
)

// State of a breaker
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

var stateNames = map[State]string{
	StateClosed:   "closed",
	StateHalfOpen: "half-open",
	StateOpen:     "open",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Settings tune a breaker. Zero values take the defaults noted per field.
type Settings struct {
	// MaxRequests trial calls are admitted while half-open (1)
	MaxRequests uint32
	// Interval after which a closed breaker forgets its counts (60s)
	Interval time.Duration
	// Timeout an open breaker waits before going half-open (60s)
	Timeout time.Duration
	// ReadyToTrip is asked after every failure while closed (more than 5 in a row)
	ReadyToTrip func(counts Counts) bool
	// IsSuccessful classifies a call result (nil or context.Canceled)
	IsSuccessful func(err error) bool
	// OnStateChange observes transitions
	OnStateChange func(name string, from State, to State)
	// Now is the clock (time.Now)
	Now func() time.Time
}

func (s Settings) withDefaults() Settings {
	if s.MaxRequests == 0 {
		s.MaxRequests = 1
	}
	if s.Interval <= 0 {
		s.Interval = time.Minute
	}
	if s.Timeout <= 0 {
		s.Timeout = time.Minute
	}
	if s.ReadyToTrip == nil {
		s.ReadyToTrip = func(c Counts) bool { return c.ConsecutiveFailures > 5 }
	}
	if s.IsSuccessful == nil {
		s.IsSuccessful = func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		}
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	return s
}

// Counts are the call statistics of the current epoch
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

func (c *Counts) success() {
	c.TotalSuccesses++
	c.ConsecutiveSuccesses++
	c.ConsecutiveFailures = 0
}

func (c *Counts) failure() {
	c.TotalFailures++
	c.ConsecutiveFailures++
	c.ConsecutiveSuccesses = 0
}

// Breaker guards calls to one dependency. Every state change and every
// interval rollover starts a new epoch; results of calls admitted in an
// earlier epoch are discarded.
type Breaker struct {
	name string
	cfg  Settings

	mu       sync.Mutex
	state    State
	counts   Counts
	epoch    uint64
	deadline time.Time // end of the closed interval or of the open timeout
}

// New creates a closed breaker
func New(name string, settings Settings) *Breaker {
	cfg := settings.withDefaults()
	return &Breaker{
		name:     name,
		cfg:      cfg,
		deadline: cfg.Now().Add(cfg.Interval),
	}
}

func (b *Breaker) Name() string { return b.name }

// State returns the state as of now
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance(b.cfg.Now())
	return b.state
}

// Counts returns a snapshot of the current epoch's counts
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// Run executes fn if the breaker admits it.
func (b *Breaker) Run(fn func() error) error {
	_, err := Do(b, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// Do executes fn through b and returns its result. A rejected call never
// reaches fn and yields ErrCircuitOpen or ErrTooManyRequests. A panic in fn
// is recorded as a failure and re-raised.
func Do[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	epoch, err := b.admit()
	if err != nil {
		return zero, err
	}

	settled := false
	defer func() {
		if !settled {
			b.settle(epoch, false)
		}
	}()

	v, err := fn()
	settled = true
	b.settle(epoch, b.cfg.IsSuccessful(err))
	return v, err
}

func (b *Breaker) admit() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.advance(b.cfg.Now())
	switch {
	case b.state == StateOpen:
		return 0, ErrCircuitOpen
	case b.state == StateHalfOpen && b.counts.Requests >= b.cfg.MaxRequests:
		return 0, ErrTooManyRequests
	}
	b.counts.Requests++
	return b.epoch, nil
}

func (b *Breaker) settle(epoch uint64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.cfg.Now()
	b.advance(now)
	if epoch != b.epoch {
		return
	}

	switch {
	case ok:
		b.counts.success()
		if b.state == StateHalfOpen && b.counts.ConsecutiveSuccesses >= b.cfg.MaxRequests {
			b.transition(StateClosed, now)
		}
	case b.state == StateHalfOpen:
		b.transition(StateOpen, now)
	case b.state == StateClosed:
		b.counts.failure()
		if b.cfg.ReadyToTrip(b.counts) {
			b.transition(StateOpen, now)
		}
	}
}

// advance applies the time-driven changes: interval rollover while closed
// and the open timeout.
func (b *Breaker) advance(now time.Time) {
	switch b.state {
	case StateClosed:
		if now.After(b.deadline) {
			b.counts = Counts{}
			b.epoch++
			b.deadline = now.Add(b.cfg.Interval)
		}
	case StateOpen:
		if now.After(b.deadline) {
			b.transition(StateHalfOpen, now)
		}
	}
}

func (b *Breaker) transition(to State, now time.Time) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	b.counts = Counts{}
	b.epoch++

	switch to {
	case StateClosed:
		b.deadline = now.Add(b.cfg.Interval)
	case StateOpen:
		b.deadline = now.Add(b.cfg.Timeout)
	default:
		b.deadline = time.Time{}
	}

	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.name, from, to)
	}
}
