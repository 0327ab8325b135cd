package events

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnippetShortStringUnchanged(t *testing.T) {
	assert.Equal(t, "hello", Snippet("hello", TextSnippetWidth))
}

func TestSnippetTruncates(t *testing.T) {
	long := strings.Repeat("a", 600)
	got := Snippet(long, TextSnippetWidth)

	assert.True(t, strings.HasSuffix(got, "…"))
	assert.Less(t, len([]rune(got)), 600)
}

func TestSnippetCollapsesNewlines(t *testing.T) {
	got := Snippet("line 1\nline 2\nline 3", TextSnippetWidth)
	assert.Equal(t, "line 1 line 2 line 3", got)
}

func TestSnippetWideRunes(t *testing.T) {
	// Wide characters count double: ten of them fill a width of 20.
	got := Snippet(strings.Repeat("世", 20), 20)
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestSinkFunc(t *testing.T) {
	var got Event
	sink := SinkFunc(func(e Event) { got = e })

	sink.Emit(Event{Kind: KindAttempt, Section: "Product Profile"})

	assert.Equal(t, KindAttempt, got.Kind)
	assert.Equal(t, "Product Profile", got.Section)
}

func TestDiscardDropsEvents(t *testing.T) {
	// Must not panic.
	Discard.Emit(Event{Kind: KindError})
}

func TestBusFanOut(t *testing.T) {
	bus := NewBus()
	a := bus.Subscribe(10)
	b := bus.Subscribe(10)

	bus.Emit(Event{Kind: KindSectionStart, Section: "Product Profile"})

	gotA := <-a.C
	gotB := <-b.C
	assert.Equal(t, "Product Profile", gotA.Section)
	assert.Equal(t, "Product Profile", gotB.Section)
}

func TestBusDropsWhenBufferFull(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(1)

	bus.Emit(Event{Kind: KindAttempt, Attempt: 1})
	bus.Emit(Event{Kind: KindAttempt, Attempt: 2}) // dropped

	got := <-sub.C
	assert.Equal(t, 1, got.Attempt)

	select {
	case e := <-sub.C:
		t.Fatalf("expected no more events, got %+v", e)
	default:
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(1)

	bus.Unsubscribe(sub)

	_, ok := <-sub.C
	require.False(t, ok)

	// Emitting after unsubscribe must not panic.
	bus.Emit(Event{Kind: KindSectionEnd})
}

func TestBusUnsubscribeTwice(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(1)

	bus.Unsubscribe(sub)
	bus.Unsubscribe(sub)
}
