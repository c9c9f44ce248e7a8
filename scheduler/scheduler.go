// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

var ErrStopped = errors.New("scheduler stopped")

type entry struct {
	open  *time.Timer
	close *time.Timer
}

// Scheduler fires election transitions at their scheduled instants and runs
// CPU-bound work on a bounded pool.
type Scheduler struct {
	mu      sync.Mutex
	timers  map[string]*entry
	stopped bool

	sem    *semaphore.Weighted
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	now func() time.Time
}

// New returns a scheduler that runs at most workers dispatched jobs at once.
func New(workers int) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		timers: make(map[string]*entry),
		sem:    semaphore.NewWeighted(int64(workers)),
		ctx:    ctx,
		cancel: cancel,
		now:    time.Now,
	}
}

// Schedule arranges for onOpen to run at start and onClose at end.
// Instants already in the past fire immediately; when end has passed only
// onClose runs. Scheduling a key again replaces its previous timers.
func (s *Scheduler) Schedule(key string, start, end time.Time, onOpen, onClose func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if old, ok := s.timers[key]; ok {
		old.stop()
	}

	now := s.now()
	e := &entry{}
	if now.Before(end) {
		e.open = time.AfterFunc(start.Sub(now), s.guard(onOpen))
	}
	e.close = time.AfterFunc(end.Sub(now), s.guard(func() {
		s.mu.Lock()
		if s.timers[key] == e {
			delete(s.timers, key)
		}
		s.mu.Unlock()
		onClose()
	}))
	s.timers[key] = e
	return nil
}

// Cancel stops any pending transitions for key.
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.timers[key]; ok {
		e.stop()
		delete(s.timers, key)
	}
}

// Pending reports how many keys still have a close transition to fire.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Dispatch runs fn on the worker pool without blocking the caller.
func (s *Scheduler) Dispatch(fn func()) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		if err := s.sem.Acquire(s.ctx, 1); err != nil {
			return
		}
		defer s.sem.Release(1)
		fn()
	}()
	return nil
}

// Stop cancels all timers, drops queued jobs and waits for running ones.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for key, e := range s.timers {
		e.stop()
		delete(s.timers, key)
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

// guard wraps a timer callback so it is skipped after Stop and waited for
// by it.
func (s *Scheduler) guard(fn func()) func() {
	return func() {
		s.mu.Lock()
		if s.stopped {
			s.mu.Unlock()
			return
		}
		s.wg.Add(1)
		s.mu.Unlock()

		defer s.wg.Done()
		fn()
	}
}

func (e *entry) stop() {
	if e.open != nil {
		e.open.Stop()
	}
	if e.close != nil {
		e.close.Stop()
	}
}
