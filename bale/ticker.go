// Copyright (c) 2024 RoseLoverX

package bale

import (
	"context"
	"sync"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/pkg/errors"
)

type TickFunc func(ctx context.Context) error

// TickHandle identifies a scheduled task. Zero is never a valid handle.
type TickHandle uint64

type tickTask struct {
	id       TickHandle
	name     string
	interval time.Duration
	schedule *cronexpr.Expression
	lastRun  time.Time
	fn       TickFunc
}

// nextAt is the zero time for a cron expression with no future match.
func (t *tickTask) nextAt() time.Time {
	if t.schedule != nil {
		return t.schedule.Next(t.lastRun)
	}
	return t.lastRun.Add(t.interval)
}

// ticker keeps periodic tasks. A task runs when now has passed its next
// fire time; lastRun is then set to now, so a task that fell behind runs
// once and resumes its cadence from there.
type ticker struct {
	mu     sync.Mutex
	nextID TickHandle
	tasks  []*tickTask
	wake   chan struct{}
}

func newTicker() *ticker {
	return &ticker{wake: make(chan struct{}, 1)}
}

func (t *ticker) add(task *tickTask) TickHandle {
	t.mu.Lock()
	t.nextID++
	task.id = t.nextID
	t.tasks = append(t.tasks, task)
	t.mu.Unlock()
	t.poke()
	return task.id
}

func (t *ticker) remove(id TickHandle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, task := range t.tasks {
		if task.id == id {
			t.tasks = append(t.tasks[:i], t.tasks[i+1:]...)
			return true
		}
	}
	return false
}

func (t *ticker) poke() {
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// restart makes every task count its cadence from now.
func (t *ticker) restart(now time.Time) {
	t.mu.Lock()
	for _, task := range t.tasks {
		task.lastRun = now
	}
	t.mu.Unlock()
}

// due returns the tasks to fire at now and marks them as run.
func (t *ticker) due(now time.Time) []*tickTask {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []*tickTask
	for _, task := range t.tasks {
		next := task.nextAt()
		if next.IsZero() || now.Before(next) {
			continue
		}
		task.lastRun = now
		out = append(out, task)
	}
	return out
}

// earliest is the next time any task becomes due.
func (t *ticker) earliest() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var first time.Time
	for _, task := range t.tasks {
		next := task.nextAt()
		if next.IsZero() {
			continue
		}
		if first.IsZero() || next.Before(first) {
			first = next
		}
	}
	return first, !first.IsZero()
}

// run sleeps until the earliest task is due and hands due tasks to fire,
// until ctx ends.
func (t *ticker) run(ctx context.Context, fire func(*tickTask)) {
	const idle = time.Hour
	timer := time.NewTimer(idle)
	defer timer.Stop()
	for {
		wait := idle
		if next, ok := t.earliest(); ok {
			wait = max(time.Until(next), 0)
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			return
		case <-t.wake:
		case now := <-timer.C:
			for _, task := range t.due(now) {
				fire(task)
			}
		}
	}
}

// Every runs fn every interval while the dispatcher runs. The first run is
// one interval after Run starts (or after registration, when running).
func (c *Client) Every(interval time.Duration, fn TickFunc) TickHandle {
	if interval <= 0 || fn == nil {
		c.Log.Error("scheduling tick every %s: %v", interval, ErrInvalidHandler)
		return 0
	}
	return c.ticker.add(&tickTask{
		name:     "every " + interval.String(),
		interval: interval,
		lastRun:  time.Now(),
		fn:       fn,
	})
}

// Cron runs fn at the times matched by a cron expression, e.g.
// "*/5 * * * *" or "@hourly".
func (c *Client) Cron(expr string, fn TickFunc) (TickHandle, error) {
	if fn == nil {
		return 0, errors.Wrap(ErrInvalidHandler, "nil tick function")
	}
	schedule, err := cronexpr.Parse(expr)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing cron expression %q", expr)
	}
	return c.ticker.add(&tickTask{
		name:     "cron " + expr,
		schedule: schedule,
		lastRun:  time.Now(),
		fn:       fn,
	}), nil
}

// RemoveTick unschedules h and reports whether it was scheduled.
func (c *Client) RemoveTick(h TickHandle) bool {
	return c.ticker.remove(h)
}
