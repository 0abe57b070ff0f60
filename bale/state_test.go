package bale

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateStore(t *testing.T) {
	s := NewStateStore()

	_, ok := s.Get(7)
	assert.False(t, ok)

	s.Set(7, "awaiting_name")
	s.Set(-100, "group_setup")
	state, ok := s.Get(7)
	assert.True(t, ok)
	assert.Equal(t, "awaiting_name", state)
	assert.Equal(t, 2, s.Len())

	s.Set(7, "awaiting_age")
	state, _ = s.Get(7)
	assert.Equal(t, "awaiting_age", state)

	s.Del(7)
	s.Del(7)
	_, ok = s.Get(7)
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestStateStore_Concurrent(t *testing.T) {
	s := NewStateStore()
	var wg sync.WaitGroup
	for i := int64(0); i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.Set(id, "x")
			s.Get(id)
			if id%2 == 0 {
				s.Del(id)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 25, s.Len())
}

func TestClient_StateHelpers(t *testing.T) {
	c := newTestClient(t)
	c.SetState(1, "a")
	state, ok := c.GetState(1)
	assert.True(t, ok)
	assert.Equal(t, "a", state)
	c.DelState(1)
	_, ok = c.States().Get(1)
	assert.False(t, ok)
}
