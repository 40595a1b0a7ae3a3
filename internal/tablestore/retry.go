package tablestore

import (
	"context"
	"time"
)

// Policy is the store-wide retry schedule: a bounded attempt count with
// exponential backoff. Backends signal transient failures by returning
// an error; the predicate can exclude errors that will never succeed on
// retry (defaults to retrying everything, matching the backing store's
// network/rate-limit failure modes).
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Transient   func(error) bool
}

func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 5, BaseDelay: 500 * time.Millisecond}
}

// Do runs op until it succeeds, the attempt budget is spent, or ctx is
// done. Backoff doubles per attempt: base, 2x, 4x, ...
func (p Policy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = op(); err == nil {
			return nil
		}
		if p.Transient != nil && !p.Transient(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		delay := p.BaseDelay << uint(i)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
