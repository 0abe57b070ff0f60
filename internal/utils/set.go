package utils

import (
	"sync"
)

const DefaultRecentSetSize = 100

type null = struct{}

// RecentSet remembers the last `size` keys added to it. Adding a key
// past capacity evicts the oldest one.
type RecentSet[T comparable] struct {
	mu    sync.RWMutex
	m     map[T]null
	ring  []T
	next  int
	count int
}

func NewRecentSet[T comparable](size int) *RecentSet[T] {
	if size <= 0 {
		size = DefaultRecentSetSize
	}
	return &RecentSet[T]{
		m:    make(map[T]null, size),
		ring: make([]T, size),
	}
}

// Add records key and reports whether it was new.
func (s *RecentSet[T]) Add(key T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[key]; ok {
		return false
	}
	if s.count == len(s.ring) {
		delete(s.m, s.ring[s.next])
	} else {
		s.count++
	}
	s.ring[s.next] = key
	s.next = (s.next + 1) % len(s.ring)
	s.m[key] = null{}
	return true
}

func (s *RecentSet[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}
