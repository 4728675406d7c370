package sequence

import (
	"context"
	"sync"
)

// Memory is an in-process counter. Numbers restart at the initial value
// after a restart.
type Memory struct {
	gate gate

	mu    sync.Mutex
	value int
}

// NewMemory creates a counter whose first number is start (1 if start < 1).
func NewMemory(start int) *Memory {
	if start < 1 {
		start = 1
	}
	return &Memory{gate: newGate(), value: start}
}

// Next implements Counter.
func (m *Memory) Next(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, nil
}

// Reserve implements Counter.
func (m *Memory) Reserve(ctx context.Context) (*Reservation, error) {
	return m.gate.reserve(ctx,
		func() (int, error) { return m.Next(ctx) },
		func(int) error {
			m.mu.Lock()
			m.value++
			m.mu.Unlock()
			return nil
		},
	)
}

// Close implements Counter.
func (m *Memory) Close() error {
	return nil
}
