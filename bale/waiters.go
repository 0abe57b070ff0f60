// Copyright (c) 2024 RoseLoverX

package bale

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

type waitResult struct {
	ev  *Event
	err error
}

// Waiter is a pending one-shot subscription created by Expect. It takes the
// first event of its kind that passes its check, before any handler sees it.
type Waiter struct {
	kind     UpdateKind
	check    func(e *Event) bool
	deadline time.Time
	result   chan waitResult
	table    *waiterTable
}

func (w *Waiter) Kind() UpdateKind { return w.kind }

// Wait blocks until the waiter is fulfilled, its timeout passes, ctx ends
// or the dispatcher stops. Call it at most once.
func (w *Waiter) Wait(ctx context.Context) (*Event, error) {
	var expired <-chan time.Time
	if !w.deadline.IsZero() {
		t := time.NewTimer(time.Until(w.deadline))
		defer t.Stop()
		expired = t.C
	}

	select {
	case r := <-w.result:
		return r.ev, r.err
	case <-expired:
		if w.table.remove(w) {
			return nil, ErrWaitExpired
		}
	case <-ctx.Done():
		if w.table.remove(w) {
			return nil, errors.Wrap(ErrWaitCancelled, ctx.Err().Error())
		}
	}
	// claimed concurrently, the result is already on its way
	r := <-w.result
	return r.ev, r.err
}

// Cancel drops the waiter; a blocked Wait returns ErrWaitCancelled.
func (w *Waiter) Cancel() {
	if w.table.remove(w) {
		w.result <- waitResult{err: ErrWaitCancelled}
	}
}

func (w *Waiter) expired(now time.Time) bool {
	return !w.deadline.IsZero() && !now.Before(w.deadline)
}

// waiterTable holds pending waiters in creation order. A waiter is claimed
// by removing it under the lock, so exactly one party resolves it. Once
// closed, the table refuses new waiters until reopened.
type waiterTable struct {
	mu      sync.Mutex
	waiters []*Waiter
	closed  bool
}

// add queues w and reports false, leaving w untouched, when the table is
// closed.
func (t *waiterTable) add(w *Waiter) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	t.waiters = append(t.waiters, w)
	return true
}

func (t *waiterTable) reopen() {
	t.mu.Lock()
	t.closed = false
	t.mu.Unlock()
}

func (t *waiterTable) remove(w *Waiter) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.removeLocked(w)
}

func (t *waiterTable) removeLocked(w *Waiter) bool {
	for i, v := range t.waiters {
		if v == w {
			t.waiters = append(t.waiters[:i], t.waiters[i+1:]...)
			return true
		}
	}
	return false
}

func (t *waiterTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.waiters)
}

// candidates returns the live waiters of kind, oldest first, and resolves
// the expired ones it comes across.
func (t *waiterTable) candidates(kind UpdateKind, now time.Time) []*Waiter {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []*Waiter
	live := t.waiters[:0]
	for _, w := range t.waiters {
		if w.expired(now) {
			w.result <- waitResult{err: ErrWaitExpired}
			continue
		}
		live = append(live, w)
		if w.kind == kind {
			out = append(out, w)
		}
	}
	clear(t.waiters[len(live):])
	t.waiters = live
	return out
}

// fulfill hands ev to the oldest waiter that wants it and reports whether
// one did. Checks run without the lock held.
func (t *waiterTable) fulfill(ev *Event, log Logger) bool {
	for _, w := range t.candidates(ev.Kind, time.Now()) {
		if !safeCheck(w.check, ev, log) {
			continue
		}
		if t.remove(w) {
			w.result <- waitResult{ev: ev}
			return true
		}
	}
	return false
}

// cancelAll closes the table and resolves every pending waiter with
// ErrWaitCancelled.
func (t *waiterTable) cancelAll() int {
	t.mu.Lock()
	pending := t.waiters
	t.waiters = nil
	t.closed = true
	t.mu.Unlock()
	for _, w := range pending {
		w.result <- waitResult{err: ErrWaitCancelled}
	}
	return len(pending)
}

func safeCheck(check func(*Event) bool, ev *Event, log Logger) (ok bool) {
	if check == nil {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("wait predicate panicked: %v", r)
			ok = false
		}
	}()
	return check(ev)
}

// Expect registers a waiter for the next event of kind that passes check
// (nil accepts any). The waiter is live from this call on, so an action
// that provokes the event can be performed before Wait. A timeout of 0
// waits forever.
func (c *Client) Expect(kind UpdateKind, check func(e *Event) bool, timeout time.Duration) *Waiter {
	w := &Waiter{
		kind:   kind,
		check:  check,
		result: make(chan waitResult, 1),
		table:  c.waiters,
	}
	if timeout > 0 {
		w.deadline = time.Now().Add(timeout)
	}
	if s := c.State(); s == StateStopping || s == StateStopped || !c.waiters.add(w) {
		w.result <- waitResult{err: ErrWaitCancelled}
	}
	return w
}

// WaitFor suspends the caller until an event of kind passes check. It
// returns ErrWaitExpired after timeout (0 waits forever) and
// ErrWaitCancelled when the dispatcher stops or ctx ends first.
func (c *Client) WaitFor(ctx context.Context, kind UpdateKind, check func(e *Event) bool, timeout time.Duration) (*Event, error) {
	return c.Expect(kind, check, timeout).Wait(ctx)
}

// PendingWaiters is the number of waiters not yet resolved.
func (c *Client) PendingWaiters() int {
	return c.waiters.Len()
}
