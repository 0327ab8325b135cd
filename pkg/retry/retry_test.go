package retry_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passionateSandy2004/agenticShopping/pkg/chats/chat"
	"github.com/passionateSandy2004/agenticShopping/pkg/chats/message"
	"github.com/passionateSandy2004/agenticShopping/pkg/chats/role"
	"github.com/passionateSandy2004/agenticShopping/pkg/events"
	"github.com/passionateSandy2004/agenticShopping/pkg/modeladapter"
	"github.com/passionateSandy2004/agenticShopping/pkg/retry"
	"github.com/passionateSandy2004/agenticShopping/pkg/toolbox"
)

var errBoom = errors.New("boom")

// stubCompleter fails the first `failures` calls (every call when failures is
// negative) and then succeeds with a fixed text reply.
type stubCompleter struct {
	failures int
	err      error
	calls    int
}

func (s *stubCompleter) Complete(_ context.Context, _ *chat.Chat, _ []toolbox.Tool) (message.Message, error) {
	s.calls++
	if s.failures < 0 || s.calls <= s.failures {
		return message.Message{}, s.err
	}
	return message.NewText("", role.Assistant, "ok"), nil
}

// captureSink records every emitted event.
type captureSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *captureSink) Emit(e events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *captureSink) byKind(k events.Kind) []events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []events.Event
	for _, e := range c.events {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// recordSleeps replaces the invoker's sleep with an instant recorder.
func recordSleeps(inv *retry.Invoker) *[]time.Duration {
	var sleeps []time.Duration
	inv.SetSleepFunc(func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	})
	return &sleeps
}

func TestPermanentFailureExhaustsAttempts(t *testing.T) {
	stub := &stubCompleter{failures: -1, err: errBoom}
	inv := retry.New(stub, retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}, events.Discard)
	recordSleeps(inv)

	_, err := inv.Complete(context.Background(), chat.New(), nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, retry.ErrExhausted)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 3, stub.calls)
}

func TestBackoffSchedule(t *testing.T) {
	stub := &stubCompleter{failures: -1, err: errBoom}
	inv := retry.New(stub, retry.Policy{MaxAttempts: 4, BaseDelay: 100 * time.Millisecond}, events.Discard)
	sleeps := recordSleeps(inv)

	_, err := inv.Complete(context.Background(), chat.New(), nil)

	require.Error(t, err)
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
	}, *sleeps)
}

func TestSucceedsOnKthAttempt(t *testing.T) {
	stub := &stubCompleter{failures: 2, err: errBoom}
	inv := retry.New(stub, retry.Policy{MaxAttempts: 4, BaseDelay: time.Millisecond}, events.Discard)
	sleeps := recordSleeps(inv)

	msg, err := inv.Complete(context.Background(), chat.New(), nil)

	require.NoError(t, err)
	assert.Equal(t, "ok", msg.TextContent())
	assert.Equal(t, 3, stub.calls)
	assert.Len(t, *sleeps, 2)
}

func TestFirstAttemptSuccessSkipsBackoff(t *testing.T) {
	stub := &stubCompleter{}
	inv := retry.New(stub, retry.Default(), events.Discard)
	sleeps := recordSleeps(inv)

	_, err := inv.Complete(context.Background(), chat.New(), nil)

	require.NoError(t, err)
	assert.Equal(t, 1, stub.calls)
	assert.Empty(t, *sleeps)
}

func TestAttemptEvents(t *testing.T) {
	stub := &stubCompleter{failures: 1, err: errBoom}
	sink := &captureSink{}
	inv := retry.New(stub, retry.Policy{MaxAttempts: 4, BaseDelay: time.Millisecond}, sink).
		ForSection("Product Profile")
	recordSleeps(inv)

	_, err := inv.Complete(context.Background(), chat.New(), nil)
	require.NoError(t, err)

	attempts := sink.byKind(events.KindAttempt)
	require.Len(t, attempts, 2)
	assert.Equal(t, 1, attempts[0].Attempt)
	assert.Equal(t, 2, attempts[1].Attempt)
	assert.Equal(t, 4, attempts[0].MaxAttempts)
	assert.Equal(t, "Product Profile", attempts[0].Section)

	waits := sink.byKind(events.KindRetryWait)
	require.Len(t, waits, 1)
	assert.Equal(t, time.Millisecond, waits[0].Wait)
	assert.ErrorIs(t, waits[0].Err, errBoom)
}

func TestRetryAfterFloorsBackoff(t *testing.T) {
	stub := &stubCompleter{
		failures: 1,
		err:      &modeladapter.RateLimitError{RetryAfter: 5 * time.Second},
	}
	inv := retry.New(stub, retry.Policy{MaxAttempts: 2, BaseDelay: 100 * time.Millisecond}, events.Discard)
	sleeps := recordSleeps(inv)

	_, err := inv.Complete(context.Background(), chat.New(), nil)

	require.NoError(t, err)
	require.Len(t, *sleeps, 1)
	assert.Equal(t, 5*time.Second, (*sleeps)[0])
}

func TestCancellationDuringBackoff(t *testing.T) {
	stub := &stubCompleter{failures: -1, err: errBoom}
	inv := retry.New(stub, retry.Policy{MaxAttempts: 4, BaseDelay: time.Hour}, events.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	inv.SetSleepFunc(func(sleepCtx context.Context, _ time.Duration) error {
		cancel()
		return sleepCtx.Err()
	})

	_, err := inv.Complete(ctx, chat.New(), nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	// Cancellation skips the remaining retries.
	assert.Equal(t, 1, stub.calls)
}

func TestCancelledContextPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stub := &stubCompleter{failures: -1, err: errBoom}
	inv := retry.New(stub, retry.Policy{MaxAttempts: 4, BaseDelay: time.Millisecond}, events.Discard)

	_, err := inv.Complete(ctx, chat.New(), nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, stub.calls)
}

// stalledCompleter blocks until the attempt context expires for the first
// `stalls` calls, then succeeds.
type stalledCompleter struct {
	stalls int
	calls  int
}

func (s *stalledCompleter) Complete(ctx context.Context, _ *chat.Chat, _ []toolbox.Tool) (message.Message, error) {
	s.calls++
	if s.calls <= s.stalls {
		<-ctx.Done()
		return message.Message{}, ctx.Err()
	}
	return message.NewText("", role.Assistant, "ok"), nil
}

func TestAttemptTimeoutBoundsEachAttempt(t *testing.T) {
	stub := &stalledCompleter{stalls: 2}
	inv := retry.New(stub, retry.Policy{
		MaxAttempts:    2,
		BaseDelay:      time.Millisecond,
		AttemptTimeout: 10 * time.Millisecond,
	}, events.Discard)
	recordSleeps(inv)

	ctx := context.Background()
	_, err := inv.Complete(ctx, chat.New(), nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, retry.ErrExhausted)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	// Both attempts ran: the per-attempt deadline is transient, not fatal.
	assert.Equal(t, 2, stub.calls)
	// The parent context is untouched by the per-attempt deadlines.
	assert.NoError(t, ctx.Err())
}

func TestAttemptTimeoutRecoversOnRetry(t *testing.T) {
	stub := &stalledCompleter{stalls: 1}
	inv := retry.New(stub, retry.Policy{
		MaxAttempts:    3,
		BaseDelay:      time.Millisecond,
		AttemptTimeout: 10 * time.Millisecond,
	}, events.Discard)
	sleeps := recordSleeps(inv)

	msg, err := inv.Complete(context.Background(), chat.New(), nil)

	require.NoError(t, err)
	assert.Equal(t, "ok", msg.TextContent())
	assert.Equal(t, 2, stub.calls)
	assert.Len(t, *sleeps, 1)
}

func TestPolicyDelay(t *testing.T) {
	p := retry.Policy{MaxAttempts: 4, BaseDelay: 1200 * time.Millisecond}

	assert.Equal(t, 1200*time.Millisecond, p.Delay(1))
	assert.Equal(t, 2400*time.Millisecond, p.Delay(2))
	assert.Equal(t, 4800*time.Millisecond, p.Delay(3))
}

func TestDefaultPolicy(t *testing.T) {
	p := retry.Default()

	assert.Equal(t, 4, p.MaxAttempts)
	assert.Equal(t, 1200*time.Millisecond, p.BaseDelay)
	assert.Zero(t, p.AttemptTimeout)
}
