// Copyright (c) 2024 RoseLoverX

package bale

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/amarnathcjd/balegram"
	"github.com/amarnathcjd/balegram/internal/utils"
)

const (
	pollBackoffInitial = time.Second
	pollBackoffMax     = 5 * time.Second
	// pause after a rate limit without retry_after
	rateLimitFallback = time.Second
)

// Poller performs one getUpdates call. *Client implements it.
type Poller interface {
	GetUpdates(ctx context.Context, offset int64, limit int, timeout time.Duration) ([]Update, error)
}

// UpdateSource turns long polls into a stream of update batches. It owns
// the offset: an update is only acknowledged once Commit has been called
// for it, so the next poll after a crash re-delivers everything uncommitted.
type UpdateSource struct {
	poller  Poller
	log     Logger
	limit   int
	timeout time.Duration

	mu      sync.Mutex
	offset  int64
	backoff *backoff.ExponentialBackOff
}

func NewUpdateSource(p Poller, limit int, timeout time.Duration, log Logger) *UpdateSource {
	if log == nil {
		log = NewLogger(LogDisable)
	}
	return &UpdateSource{
		poller:  p,
		log:     log,
		limit:   getInt(limit, DefaultPollLimit),
		timeout: getDuration(timeout, DefaultPollTimeout),
		backoff: utils.NewBackoff(pollBackoffInitial, pollBackoffMax),
	}
}

// Poll is a single getUpdates at offset, without retries.
func (s *UpdateSource) Poll(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	return s.poller.GetUpdates(ctx, offset, s.limit, timeout)
}

// Next blocks until a poll succeeds and returns its (possibly empty) batch.
// Failures are logged and retried after a pause; only ctx ending makes it
// return an error.
func (s *UpdateSource) Next(ctx context.Context) ([]Update, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch, err := s.Poll(ctx, s.Offset(), s.timeout)
		if err == nil {
			s.mu.Lock()
			s.backoff.Reset()
			s.mu.Unlock()
			return batch, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		wait := s.pause(err)
		if balegram.KindOf(err).Retryable() {
			s.log.Warn("polling updates failed, retrying in %s: %v", wait, err)
		} else {
			s.log.Error("polling updates failed, retrying in %s: %v", wait, err)
		}
		if !utils.Sleep(ctx.Done(), wait) {
			return nil, ctx.Err()
		}
	}
}

func (s *UpdateSource) pause(err error) time.Duration {
	if balegram.IsKind(err, balegram.KindRateLimit) {
		if d := balegram.RetryAfter(err); d > 0 {
			return d
		}
		return rateLimitFallback
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backoff.NextBackOff()
}

// Updates yields updates one at a time, committing each after the consumer
// has taken it. The sequence ends when ctx does.
func (s *UpdateSource) Updates(ctx context.Context) iter.Seq[Update] {
	return func(yield func(Update) bool) {
		for {
			batch, err := s.Next(ctx)
			if err != nil {
				return
			}
			for _, u := range batch {
				more := yield(u)
				s.Commit(u.UpdateID)
				if !more {
					return
				}
			}
		}
	}
}

// Commit acknowledges every update up to and including id. The offset
// never moves backwards.
func (s *UpdateSource) Commit(id int64) {
	s.mu.Lock()
	if id+1 > s.offset {
		s.offset = id + 1
	}
	s.mu.Unlock()
}

func (s *UpdateSource) Offset() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}

// SetOffset moves the offset to offset when that is ahead of the current
// one, used to restore a checkpoint.
func (s *UpdateSource) SetOffset(offset int64) {
	if offset > 0 {
		s.Commit(offset - 1)
	}
}
