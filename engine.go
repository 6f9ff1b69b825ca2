package main

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
)

const (
	engineEventTyping  = "typing"
	engineEventMessage = "message"
)

// EngineEvent is what the engine emits to its sink: a typing indicator when
// a reveal starts, then the revealed message. Message events carry a sound
// flag so the page can play the notification blip.
type EngineEvent struct {
	Type    string   `json:"type"`
	Message *Message `json:"message,omitempty"`
	Sound   bool     `json:"sound,omitempty"`
}

// RoastEngine owns the pacing queue for one roast view. Batches are
// appended contiguously and drained strictly FIFO by a single consumer, so
// batches never interleave and at most one message is ever in flight.
type RoastEngine struct {
	baseDelay time.Duration
	perChar   time.Duration
	sink      func(EngineEvent)

	mu    sync.Mutex
	queue []Message
	wake  chan struct{}
}

func NewRoastEngine(baseDelay, perChar time.Duration, sink func(EngineEvent)) *RoastEngine {
	return &RoastEngine{
		baseDelay: baseDelay,
		perChar:   perChar,
		sink:      sink,
		wake:      make(chan struct{}, 1),
	}
}

// AppendBatch adds a batch to the tail of the queue as one contiguous run.
func (e *RoastEngine) AppendBatch(batch []Message) {
	if len(batch) == 0 {
		return
	}

	e.mu.Lock()
	e.queue = append(e.queue, batch...)
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *RoastEngine) popFront() (Message, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.queue) == 0 {
		return Message{}, false
	}
	msg := e.queue[0]
	e.queue = e.queue[1:]
	return msg, true
}

// revealDelay is the simulated typing time for a message: a fixed base plus
// a per-character factor plus the message's own optional pause.
func (e *RoastEngine) revealDelay(msg Message) time.Duration {
	delay := e.baseDelay + time.Duration(utf8.RuneCountInString(msg.Text))*e.perChar
	if msg.PauseMs > 0 {
		delay += time.Duration(msg.PauseMs) * time.Millisecond
	}
	return delay
}

// Run drains the queue until ctx is cancelled: pop the front message, show
// the typing indicator, wait out the reveal delay, emit the message, repeat.
// An empty queue idles until the next append.
func (e *RoastEngine) Run(ctx context.Context) {
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		msg, ok := e.popFront()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-e.wake:
				continue
			}
		}

		e.sink(EngineEvent{Type: engineEventTyping})

		timer.Reset(e.revealDelay(msg))
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return
		case <-timer.C:
		}

		e.sink(EngineEvent{Type: engineEventMessage, Message: &msg, Sound: true})
	}
}

// launchStatFetches fires the three stat fetches concurrently. Each
// completion grades into a scripted batch appended to the engine in arrival
// order; a failed fetch is logged and its batch silently never appears.
func launchStatFetches(ctx context.Context, engine *RoastEngine, stats *StatsClient, bundle CredentialBundle) {
	group, _ := errgroup.WithContext(ctx)

	group.Go(func() error {
		result, err := stats.FetchInactiveUsers(bundle)
		if err != nil {
			logWarn("roast.fetch_failed", "stat", StatInactiveUsers, "error", err)
			return nil
		}
		engine.AppendBatch(buildInactiveUsersBatch(*result))
		return nil
	})

	group.Go(func() error {
		result, err := stats.FetchSlowExplores(bundle)
		if err != nil {
			logWarn("roast.fetch_failed", "stat", StatSlowExplores, "error", err)
			return nil
		}
		engine.AppendBatch(buildSlowExploresBatch(*result))
		return nil
	})

	group.Go(func() error {
		result, err := stats.FetchAbandonedDashboards(bundle)
		if err != nil {
			logWarn("roast.fetch_failed", "stat", StatAbandonedDashboards, "error", err)
			return nil
		}
		engine.AppendBatch(buildAbandonedDashboardsBatch(*result))
		return nil
	})

	go func() {
		_ = group.Wait()
		logInfo("roast.fetches_done")
	}()
}
