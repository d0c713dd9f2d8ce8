// Package retry provides the bounded retry policy shared by every stage that
// calls a language-model collaborator.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy retries an operation a fixed number of times with a fixed delay
// between attempts. No backoff: collaborator failures here are almost always
// malformed model output, where an immediate retry is as good as a delayed one.
type Policy struct {
	Attempts int
	Delay    time.Duration
}

// Default matches the retry budget the stages assume: 5 attempts.
func Default() Policy {
	return Policy{Attempts: 5, Delay: time.Second}
}

// Do runs op until it succeeds, the attempt budget is exhausted, or ctx is
// cancelled. On exhaustion the last error is returned, wrapped with the
// attempt count.
func (p Policy) Do(ctx context.Context, op func(context.Context) error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	var last error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if last = op(ctx); last == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		if p.Delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.Delay):
			}
		}
	}
	return fmt.Errorf("after %d attempts: %w", attempts, last)
}
