// Copyright (c) 2024 RoseLoverX

package bale

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/k0kubun/pp"
	"github.com/pkg/errors"

	"github.com/amarnathcjd/balegram"
	"github.com/amarnathcjd/balegram/internal/session"
	"github.com/amarnathcjd/balegram/internal/utils"
)

type RunState int32

const (
	StateIdle RunState = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s RunState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "idle"
	}
}

func (c *Client) State() RunState {
	return RunState(c.runState.Load())
}

// runScope is what one call to Run hands to the goroutines it spawns.
type runScope struct {
	pollCtx    context.Context
	handlerCtx context.Context
	seen       *utils.RecentSet[int64]
	wg         sync.WaitGroup
}

// ActiveHandlers is the number of handler and tick goroutines still running,
// including ones a previous run abandoned after its shutdown grace.
func (c *Client) ActiveHandlers() int {
	return int(c.active.Load())
}

// Run fetches the bot identity and dispatches updates until Stop is called
// or ctx ends. Only a failing getMe makes it return an error; everything
// after that is logged and retried. A stopped client may be run again; the
// new run does not wait for handlers an earlier run abandoned.
func (c *Client) Run(ctx context.Context) error {
	if !c.runState.CompareAndSwap(int32(StateIdle), int32(StateRunning)) &&
		!c.runState.CompareAndSwap(int32(StateStopped), int32(StateRunning)) {
		return ErrAlreadyRunning
	}
	c.waiters.reopen()

	pollCtx, stopPoll := context.WithCancel(ctx)
	defer stopPoll()
	c.mu.Lock()
	c.stopPoll = stopPoll
	c.mu.Unlock()

	// handlers outlive the poll context by the shutdown grace
	handlerCtx, stopHandlers := context.WithCancel(context.WithoutCancel(ctx))
	defer stopHandlers()

	me, err := c.GetMe(pollCtx)
	if err != nil {
		c.runState.Store(int32(StateStopped))
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if pollCtx.Err() != nil {
			// stopped before identity was known
			return nil
		}
		return balegram.NewError(balegram.KindAuth, "getMe", errors.Wrap(err, "fetching bot identity"))
	}
	c.setMe(me)
	if c.config.AutoLogStartMessage {
		c.Log.Info("bot @%s (%d) started", me.Username, me.ID)
	}

	store := c.openCheckpoint(me.ID)
	if c.config.OnReady != nil {
		c.config.OnReady(pollCtx, c)
	}

	run := &runScope{
		pollCtx:    pollCtx,
		handlerCtx: handlerCtx,
		seen:       utils.NewRecentSet[int64](DefaultSeenSize),
	}
	c.ticker.restart(time.Now())
	tickerDone := make(chan struct{})
	go func() {
		defer close(tickerDone)
		c.ticker.run(pollCtx, func(t *tickTask) { c.fireTick(run, t) })
	}()

	for c.State() == StateRunning {
		batch, err := c.source.Next(pollCtx)
		if err != nil {
			break
		}
		for i := range batch {
			c.dispatch(run, &batch[i])
		}
		if len(batch) > 0 {
			c.checkpoint(store, me.ID)
		}
		for _, t := range c.ticker.due(time.Now()) {
			c.fireTick(run, t)
		}
	}

	c.runState.Store(int32(StateStopping))
	stopPoll()
	<-tickerDone
	if n := c.waiters.cancelAll(); n > 0 {
		c.Log.Debug("cancelled %d pending waiter(s)", n)
	}
	c.awaitHandlers(run, c.config.ShutdownGrace)
	stopHandlers()

	if store != nil {
		c.checkpoint(store, me.ID)
		if err := store.Close(); err != nil {
			c.Log.Warn("closing offset checkpoint: %v", err)
		}
	}
	if c.config.OnClose != nil {
		c.config.OnClose(c)
	}
	c.runState.Store(int32(StateStopped))
	c.Log.Debug("dispatcher stopped at offset %d", c.source.Offset())
	flushLogger(c.Log)

	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Stop asks a running dispatcher to shut down and returns immediately.
// Run returns once handlers had their grace period. Stopping a client that
// is not running returns ErrNotRunning.
func (c *Client) Stop() error {
	if !c.runState.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		return ErrNotRunning
	}
	c.mu.Lock()
	stop := c.stopPoll
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
	return nil
}

// dispatch routes one update. The offset is committed on return, by which
// time every handler for the update has been started.
func (c *Client) dispatch(run *runScope, u *Update) {
	defer c.source.Commit(u.UpdateID)

	if !run.seen.Add(u.UpdateID) {
		c.Log.Debug("skipping duplicate update %d", u.UpdateID)
		return
	}
	if c.config.Debug {
		c.Log.Debug("update %d:\n%s", u.UpdateID, pp.Sprint(u))
	}

	ev, ok := Classify(u)
	if !ok {
		c.Log.Debug("ignoring update %d with no supported payload", u.UpdateID)
		return
	}

	if c.waiters.fulfill(ev, c.Log) {
		return
	}

	if ev.Kind == OnMessage {
		if h, args, ok := c.handlers.matchCommand(ev.Message.Text, c.botUsername()); ok {
			if c.passes(h, ev) {
				c.spawnHandler(run, h, ev, args)
			}
			return
		}
	}

	for _, h := range c.handlers.handlersFor(ev.Kind) {
		if c.passes(h, ev) {
			c.spawnHandler(run, h, ev, nil)
		}
	}
}

func (c *Client) passes(h *handle, ev *Event) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.Log.Error("filter of handler %d panicked: %v", h.id, r)
			ok = false
		}
	}()
	for _, f := range h.filters {
		if f != nil && !f(ev) {
			return false
		}
	}
	return true
}

// spawnHandler starts h in its own goroutine, first waiting for a free
// slot when concurrency is bounded.
func (c *Client) spawnHandler(run *runScope, h *handle, ev *Event, args []string) {
	release := func() {}
	if c.sem != nil {
		select {
		case c.sem <- struct{}{}:
			release = func() { <-c.sem }
		case <-run.pollCtx.Done():
			c.Log.Warn("dropping %s handler %d: shutting down", ev.Kind, h.id)
			return
		}
	}
	name := string(ev.Kind)
	if h.command != "" {
		name = "command " + h.command
	}
	c.spawn(run, name, func() error {
		defer release()
		return h.fn(run.handlerCtx, ev, args)
	})
}

func (c *Client) fireTick(run *runScope, t *tickTask) {
	c.spawn(run, t.name, func() error { return t.fn(run.handlerCtx) })
}

// spawn runs fn in a tracked goroutine. Errors and panics are logged and
// never reach the poll loop.
func (c *Client) spawn(run *runScope, name string, fn func() error) {
	run.wg.Add(1)
	c.active.Add(1)
	go func() {
		defer run.wg.Done()
		defer c.active.Add(-1)
		defer func() {
			if r := recover(); r != nil {
				c.Log.Error("%s handler panicked: %v\n%s", name, r, debug.Stack())
			}
		}()
		if err := fn(); err != nil {
			c.Log.Error("%s handler failed: %v", name, err)
		}
	}()
}

// awaitHandlers waits up to grace for the handlers of run; the rest are
// abandoned once their context is cancelled.
func (c *Client) awaitHandlers(run *runScope, grace time.Duration) {
	done := make(chan struct{})
	go func() {
		run.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(grace):
		c.Log.Warn("%d handler(s) still running after %s, cancelling", c.active.Load(), grace)
	}
}

func (c *Client) openCheckpoint(botID int64) session.OffsetStore {
	if !c.config.PersistOffset {
		return nil
	}
	store, err := session.OpenBolt(c.config.DatabaseName)
	if err != nil {
		c.Log.Warn("offset checkpoint disabled: %v", err)
		return nil
	}
	offset, err := store.LoadOffset(botID)
	switch {
	case err == nil:
		c.source.SetOffset(offset)
		c.Log.Debug("resuming from offset %d", offset)
	case !errors.Is(err, session.ErrOffsetNotFound):
		c.Log.Warn("reading offset checkpoint: %v", err)
	}
	return store
}

func (c *Client) checkpoint(store session.OffsetStore, botID int64) {
	if store == nil {
		return
	}
	if err := store.StoreOffset(botID, c.source.Offset()); err != nil {
		c.Log.Warn("storing offset checkpoint: %v", err)
	}
}
