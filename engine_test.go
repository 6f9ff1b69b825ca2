package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	event EngineEvent
	at    time.Time
}

func collectEvents(t *testing.T, events <-chan recordedEvent, wantMessages int, timeout time.Duration) []recordedEvent {
	t.Helper()

	var collected []recordedEvent
	messages := 0
	deadline := time.After(timeout)
	for messages < wantMessages {
		select {
		case recorded := <-events:
			collected = append(collected, recorded)
			if recorded.event.Type == engineEventMessage {
				messages++
			}
		case <-deadline:
			t.Fatalf("timed out after %v with %d/%d messages", timeout, messages, wantMessages)
		}
	}
	return collected
}

func newRecordingEngine(base, perChar time.Duration) (*RoastEngine, chan recordedEvent) {
	events := make(chan recordedEvent, 128)
	engine := NewRoastEngine(base, perChar, func(event EngineEvent) {
		events <- recordedEvent{event: event, at: time.Now()}
	})
	return engine, events
}

func messageTexts(events []recordedEvent) []string {
	var texts []string
	for _, recorded := range events {
		if recorded.event.Type == engineEventMessage {
			texts = append(texts, recorded.event.Message.Text)
		}
	}
	return texts
}

func TestEnginePacingLowerBound(t *testing.T) {
	base := 50 * time.Millisecond
	perChar := 2 * time.Millisecond
	engine, events := newRecordingEngine(base, perChar)

	msg := Message{Text: "hello", PauseMs: 30}
	want := base + 5*perChar + 30*time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go engine.Run(ctx)

	start := time.Now()
	engine.AppendBatch([]Message{msg})

	collected := collectEvents(t, events, 1, 5*time.Second)
	last := collected[len(collected)-1]
	require.Equal(t, engineEventMessage, last.event.Type)

	elapsed := last.at.Sub(start)
	assert.GreaterOrEqual(t, elapsed, want, "message revealed after %v, want at least %v", elapsed, want)
}

// The typing indicator always precedes its message and only one reveal is
// ever in flight: events strictly alternate typing, message, typing, ...
func TestEngineSingleInFlight(t *testing.T) {
	engine, events := newRecordingEngine(time.Millisecond, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go engine.Run(ctx)

	engine.AppendBatch([]Message{{Text: "one"}, {Text: "two"}, {Text: "three"}})

	collected := collectEvents(t, events, 3, 5*time.Second)
	require.Len(t, collected, 6)
	for i, recorded := range collected {
		if i%2 == 0 {
			assert.Equal(t, engineEventTyping, recorded.event.Type, "event %d", i)
		} else {
			assert.Equal(t, engineEventMessage, recorded.event.Type, "event %d", i)
			assert.True(t, recorded.event.Sound)
		}
	}
}

// Batches appended from concurrently-resolving fetches stay contiguous: the
// opener script drains first, then whole batches in arrival order.
func TestEngineBatchOrderingNoInterleave(t *testing.T) {
	engine, events := newRecordingEngine(time.Millisecond, 0)

	engine.AppendBatch([]Message{{Text: "opener"}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go engine.Run(ctx)

	// Y completes before X even though X was "requested" first.
	engine.AppendBatch([]Message{{Text: "y1"}, {Text: "y2"}, {Text: "y3"}})
	engine.AppendBatch([]Message{{Text: "x1"}, {Text: "x2"}})

	collected := collectEvents(t, events, 6, 5*time.Second)
	assert.Equal(t, []string{"opener", "y1", "y2", "y3", "x1", "x2"}, messageTexts(collected))
}

func TestEngineIdlesWhenEmptyThenResumes(t *testing.T) {
	engine, events := newRecordingEngine(time.Millisecond, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go engine.Run(ctx)

	engine.AppendBatch([]Message{{Text: "first"}})
	collectEvents(t, events, 1, 5*time.Second)

	// Queue is now empty; a later append wakes the drain loop again.
	engine.AppendBatch([]Message{{Text: "second"}})
	collected := collectEvents(t, events, 1, 5*time.Second)
	assert.Equal(t, []string{"second"}, messageTexts(collected))
}

func TestEngineStopsOnCancel(t *testing.T) {
	engine, _ := newRecordingEngine(time.Hour, 0)
	engine.AppendBatch([]Message{{Text: "never revealed"}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		engine.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop after cancellation")
	}
}

func TestEngineAppendEmptyBatchIsNoop(t *testing.T) {
	engine, events := newRecordingEngine(time.Millisecond, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go engine.Run(ctx)

	engine.AppendBatch(nil)
	engine.AppendBatch([]Message{})
	engine.AppendBatch([]Message{{Text: "only"}})

	collected := collectEvents(t, events, 1, 5*time.Second)
	assert.Equal(t, []string{"only"}, messageTexts(collected))
}
