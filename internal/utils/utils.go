// Copyright (c) 2024 RoseLoverX

package utils

import (
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// MaskToken hides everything but the bot id part of a token so URLs can be
// logged.
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	if i := strings.IndexByte(token, ':'); i > 0 {
		return token[:i] + ":***"
	}
	if len(token) <= 4 {
		return "***"
	}
	return token[:4] + "***"
}

// MaskURL replaces every occurrence of token inside s.
func MaskURL(s, token string) string {
	if token == "" {
		return s
	}
	return strings.ReplaceAll(s, token, MaskToken(token))
}

// NewBackoff returns a jitter-free exponential backoff that starts at
// initial, doubles on every failure and never exceeds max. It never gives up.
func NewBackoff(initial, max time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.MaxInterval = max
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Sleep waits for d or until done is closed. It reports whether the full
// duration elapsed.
func Sleep(done <-chan struct{}, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-done:
			return false
		default:
			return true
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-done:
		return false
	}
}
