// Package hook dispatches vault events to registered handlers and runs
// delayed one-shot tasks.
package hook

import (
	"context"
	"sync"
	"time"
)

// Kind names an event type.
type Kind string

const (
	// Created fires once when a new note appears in the watched folder.
	Created Kind = "created"
)

// Event is a single vault event. Path is relative to the vault root.
type Event struct {
	Kind Kind
	Path string
}

// Handler reacts to an event.
type Handler func(ctx context.Context, ev Event)

// Registry maps event kinds to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[Kind][]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[Kind][]Handler)}
}

// On registers h for events of the given kind. Handlers run in registration order.
func (r *Registry) On(kind Kind, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = append(r.handlers[kind], h)
}

// Dispatch calls every handler registered for ev.Kind and returns how many ran.
func (r *Registry) Dispatch(ctx context.Context, ev Event) int {
	r.mu.RLock()
	hs := append([]Handler(nil), r.handlers[ev.Kind]...)
	r.mu.RUnlock()

	for _, h := range hs {
		h(ctx, ev)
	}
	return len(hs)
}

// Scheduler runs one-shot tasks after a delay.
//
// Tasks are fire-and-forget: there is no per-task handle. A pending task is
// dropped when the context given to After is done or when Stop is called.
// A task that has already started always runs to completion; Stop waits for it.
type Scheduler struct {
	mu      sync.Mutex
	stopped bool
	pending map[*time.Timer]struct{}
	wg      sync.WaitGroup
	base    context.Context
	cancel  context.CancelFunc
}

// NewScheduler creates a running scheduler.
func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		pending: make(map[*time.Timer]struct{}),
		base:    ctx,
		cancel:  cancel,
	}
}

// After schedules task to run once after delay. It reports false if the
// scheduler is already stopped.
func (s *Scheduler) After(ctx context.Context, delay time.Duration, task func(context.Context)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}

	s.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		defer s.wg.Done()

		s.mu.Lock()
		delete(s.pending, t)
		s.mu.Unlock()

		if ctx.Err() != nil || s.base.Err() != nil {
			return
		}
		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		stop := context.AfterFunc(s.base, cancel)
		defer stop()
		task(runCtx)
	})
	s.pending[t] = struct{}{}
	return true
}

// Pending returns the number of tasks waiting for their delay to elapse.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Wait blocks until every scheduled task has either run or been dropped.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Stop drops all pending tasks, cancels running ones and waits for them to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		s.cancel()
		for t := range s.pending {
			if t.Stop() {
				s.wg.Done()
			}
			delete(s.pending, t)
		}
	}
	s.mu.Unlock()
	s.wg.Wait()
}
