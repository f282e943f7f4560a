package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrOpen = errors.New("circuit breaker open")

type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	}
	return "unknown"
}

type Config struct {
	// FailureLimit consecutive failures trip the breaker.
	FailureLimit int
	// Cooldown is how long the breaker stays open before probing.
	Cooldown time.Duration
	// ProbeLimit successful probes in half-open close the breaker again.
	ProbeLimit int
	Logger     *zap.Logger
}

// Breaker guards a downstream dependency. After FailureLimit
// consecutive failures it rejects calls with ErrOpen until Cooldown
// elapses, then lets probes through one at a time.
type Breaker struct {
	name         string
	failureLimit int
	cooldown     time.Duration
	probeLimit   int
	logger       *zap.Logger

	mu        sync.Mutex
	state     State
	failures  int
	successes int
	probing   bool
	openedAt  time.Time
}

func New(name string, cfg Config) *Breaker {
	if cfg.FailureLimit <= 0 {
		cfg.FailureLimit = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.ProbeLimit <= 0 {
		cfg.ProbeLimit = 2
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Breaker{
		name:         name,
		failureLimit: cfg.FailureLimit,
		cooldown:     cfg.Cooldown,
		probeLimit:   cfg.ProbeLimit,
		logger:       cfg.Logger,
		state:        Closed,
	}
}

func (b *Breaker) Do(ctx context.Context, fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}

	err := fn()
	b.record(err == nil)
	return err
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return nil
	case Open:
		if time.Since(b.openedAt) < b.cooldown {
			return ErrOpen
		}
		b.transition(HalfOpen)
		b.probing = true
		return nil
	case HalfOpen:
		if b.probing {
			return ErrOpen
		}
		b.probing = true
		return nil
	}
	return nil
}

func (b *Breaker) record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		if success {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.failureLimit {
			b.transition(Open)
		}
	case HalfOpen:
		b.probing = false
		if !success {
			b.transition(Open)
			return
		}
		b.successes++
		if b.successes >= b.probeLimit {
			b.transition(Closed)
		}
	}
}

func (b *Breaker) transition(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	b.failures = 0
	b.successes = 0
	b.probing = false
	if to == Open {
		b.openedAt = time.Now()
	}

	b.logger.Info("circuit breaker state changed",
		zap.String("name", b.name),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == Open && time.Since(b.openedAt) >= b.cooldown {
		return HalfOpen
	}
	return b.state
}
