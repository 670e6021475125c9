package agent

import (
	"math/rand"

	"snakeql/internal/env"
)

// Transition is one step of experience.
type Transition struct {
	State  env.Observation
	Action env.Action
	Reward int
	Next   env.Observation
	Done   bool
}

// Memory is a bounded FIFO replay buffer. Once full, the oldest
// transition is overwritten.
type Memory struct {
	buf      []Transition
	capacity int
	position int
}

// NewMemory creates a replay buffer holding at most capacity transitions.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemorySize
	}
	return &Memory{capacity: capacity}
}

// Push appends t, evicting the oldest transition when full.
func (m *Memory) Push(t Transition) {
	if len(m.buf) < m.capacity {
		m.buf = append(m.buf, t)
		return
	}
	m.buf[m.position] = t
	m.position = (m.position + 1) % m.capacity
}

// Len returns the number of stored transitions.
func (m *Memory) Len() int { return len(m.buf) }

// Cap returns the buffer capacity.
func (m *Memory) Cap() int { return m.capacity }

// All returns every stored transition, oldest first.
func (m *Memory) All() []Transition {
	out := make([]Transition, 0, len(m.buf))
	out = append(out, m.buf[m.position:]...)
	return append(out, m.buf[:m.position]...)
}

// Sample draws n distinct transitions uniformly. If n is not smaller than
// Len the whole memory is returned in insertion order.
func (m *Memory) Sample(n int, rng *rand.Rand) []Transition {
	if n >= len(m.buf) {
		return m.All()
	}
	out := make([]Transition, n)
	for i, idx := range rng.Perm(len(m.buf))[:n] {
		out[i] = m.buf[idx]
	}
	return out
}
