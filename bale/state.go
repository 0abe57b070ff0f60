// Copyright (c) 2024 RoseLoverX

package bale

import "sync"

// StateStore is an in-memory map from user (or chat) id to a state name,
// used to drive multi-step interactions. Nothing is persisted.
type StateStore struct {
	mu     sync.RWMutex
	states map[string]string
}

func NewStateStore() *StateStore {
	return &StateStore{states: make(map[string]string)}
}

func (s *StateStore) Set(id int64, state string) {
	s.mu.Lock()
	s.states[stateKey(id)] = state
	s.mu.Unlock()
}

func (s *StateStore) Get(id int64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[stateKey(id)]
	return state, ok
}

// Del is a no-op for ids without a state.
func (s *StateStore) Del(id int64) {
	s.mu.Lock()
	delete(s.states, stateKey(id))
	s.mu.Unlock()
}

func (s *StateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

func (c *Client) SetState(id int64, state string) { c.states.Set(id, state) }

func (c *Client) GetState(id int64) (string, bool) { return c.states.Get(id) }

func (c *Client) DelState(id int64) { c.states.Del(id) }
