// Package retry wraps a model completer with bounded exponential-backoff
// retry. The policy is a plain value so it can be tested without a network
// call, and the invoker composes with any Completer.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/passionateSandy2004/agenticShopping/pkg/chats/chat"
	"github.com/passionateSandy2004/agenticShopping/pkg/chats/message"
	"github.com/passionateSandy2004/agenticShopping/pkg/events"
	"github.com/passionateSandy2004/agenticShopping/pkg/modeladapter"
	"github.com/passionateSandy2004/agenticShopping/pkg/toolbox"
)

// ErrExhausted is returned after the final attempt fails. The last underlying
// error is wrapped alongside it.
var ErrExhausted = errors.New("retry: exhausted attempts")

// Policy describes a bounded exponential backoff schedule. The wait before
// attempt i (1-based, i >= 2) is BaseDelay * 2^(i-2). No jitter is applied;
// with a single in-flight call at a time there is no thundering herd to
// spread out.
type Policy struct {
	MaxAttempts    int           // Total attempts, including the first.
	BaseDelay      time.Duration // Delay after the first failed attempt.
	AttemptTimeout time.Duration // Wall-clock bound per attempt; 0 disables it.
}

// Default returns the stock policy: 4 attempts starting at 1.2s.
func Default() Policy {
	return Policy{
		MaxAttempts: 4,
		BaseDelay:   1200 * time.Millisecond,
	}
}

// Delay returns the backoff wait after the given failed attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	return p.BaseDelay << (attempt - 1)
}

var _ modeladapter.Completer = (*Invoker)(nil)

// Invoker retries an inner Completer according to a Policy. Every completer
// error is treated uniformly as transient; error classes are not
// distinguished. Attempt and retry-wait events go to the sink.
type Invoker struct {
	inner   modeladapter.Completer
	policy  Policy
	sink    events.Sink
	section string

	// sleepFunc is used for testing; defaults to a context-aware sleep.
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// New creates an Invoker. A nil sink is treated as events.Discard.
func New(inner modeladapter.Completer, policy Policy, sink events.Sink) *Invoker {
	if sink == nil {
		sink = events.Discard
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = Default().MaxAttempts
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = Default().BaseDelay
	}

	return &Invoker{
		inner:     inner,
		policy:    policy,
		sink:      sink,
		sleepFunc: contextSleep,
	}
}

// ForSection returns a copy of the Invoker that labels its events with the
// given section name. The underlying completer and policy are shared.
func (i *Invoker) ForSection(section string) *Invoker {
	cp := *i
	cp.section = section
	return &cp
}

// SetSleepFunc overrides the backoff sleep (for testing).
func (i *Invoker) SetSleepFunc(fn func(ctx context.Context, d time.Duration) error) {
	i.sleepFunc = fn
}

// Complete attempts the inner call up to MaxAttempts times. Cancellation
// during an attempt or a backoff wait returns ctx.Err() immediately and
// skips the remaining attempts.
func (i *Invoker) Complete(ctx context.Context, c *chat.Chat, tools []toolbox.Tool) (message.Message, error) {
	var lastErr error

	for attempt := 1; attempt <= i.policy.MaxAttempts; attempt++ {
		i.sink.Emit(events.Event{
			Kind:        events.KindAttempt,
			Section:     i.section,
			Attempt:     attempt,
			MaxAttempts: i.policy.MaxAttempts,
			Timestamp:   time.Now(),
		})

		msg, err := i.attempt(ctx, c, tools)
		if err == nil {
			return msg, nil
		}

		if ctx.Err() != nil {
			return message.Message{}, ctx.Err()
		}

		lastErr = err

		if attempt == i.policy.MaxAttempts {
			break
		}

		wait := i.policy.Delay(attempt)

		// A server-provided Retry-After acts as a floor on the computed wait.
		var rle *modeladapter.RateLimitError
		if errors.As(err, &rle) && rle.RetryAfter > wait {
			wait = rle.RetryAfter
		}

		i.sink.Emit(events.Event{
			Kind:        events.KindRetryWait,
			Section:     i.section,
			Attempt:     attempt,
			MaxAttempts: i.policy.MaxAttempts,
			Wait:        wait,
			Err:         err,
			Timestamp:   time.Now(),
		})

		if sleepErr := i.sleepFunc(ctx, wait); sleepErr != nil {
			return message.Message{}, sleepErr
		}
	}

	return message.Message{}, fmt.Errorf("%w (%d attempts): %w", ErrExhausted, i.policy.MaxAttempts, lastErr)
}

// attempt runs one inner call, bounded by AttemptTimeout when set.
func (i *Invoker) attempt(ctx context.Context, c *chat.Chat, tools []toolbox.Tool) (message.Message, error) {
	if i.policy.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.policy.AttemptTimeout)
		defer cancel()
	}

	return i.inner.Complete(ctx, c, tools)
}

// contextSleep sleeps for d or until ctx is cancelled.
func contextSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
