package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Policy controls backoff between attempts. Delay doubles after each
// failure up to MaxDelay, with +/- Jitter fraction applied.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Jitter    float64
	Logger    *zap.Logger
}

func DefaultPolicy() Policy {
	return Policy{
		Attempts:  3,
		BaseDelay: 200 * time.Millisecond,
		MaxDelay:  5 * time.Second,
		Jitter:    0.2,
		Logger:    zap.NewNop(),
	}
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent wraps an error so Do gives up immediately instead of
// retrying. Unwrap still exposes the original error to errors.Is.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func (p Policy) normalized() Policy {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 200 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 5 * time.Second
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	return p
}

func (p Policy) Do(ctx context.Context, name string, op func() error) error {
	p = p.normalized()

	var lastErr error
	delay := p.BaseDelay

	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op()
		if err == nil {
			if attempt > 1 {
				p.Logger.Info("operation recovered",
					zap.String("operation", name),
					zap.Int("attempt", attempt),
				)
			}
			return nil
		}
		lastErr = err

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}

		if attempt == p.Attempts {
			break
		}

		p.Logger.Warn("operation failed, will retry",
			zap.String("operation", name),
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jittered(delay, p.Jitter)):
		}

		delay *= 2
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	return lastErr
}

// Value runs op under the policy and returns its result along with the
// final error.
func Value[T any](ctx context.Context, p Policy, name string, op func() (T, error)) (T, error) {
	var result T
	err := p.Do(ctx, name, func() error {
		var opErr error
		result, opErr = op()
		return opErr
	})
	return result, err
}

func jittered(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return d
	}
	spread := float64(d) * fraction
	offset := (rand.Float64()*2 - 1) * spread
	return time.Duration(float64(d) + offset)
}
