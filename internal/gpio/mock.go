package gpio

import "sync"

// Mock records every Write without touching hardware. Used in tests and on
// developer workstations (FIRE_GPIO_MOCK=true).
type Mock struct {
	mu         sync.Mutex
	configured map[int]bool
	state      map[int]bool
	writes     []MockWrite
}

// MockWrite is one recorded call to Write, in call order.
type MockWrite struct {
	Pin       int
	Energized bool
}

// NewMock constructs an empty recorder.
func NewMock() *Mock {
	return &Mock{
		configured: make(map[int]bool),
		state:      make(map[int]bool),
	}
}

func (m *Mock) Configure(pin int, activeLow bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configured[pin] = true
	m.state[pin] = false
	return nil
}

func (m *Mock) Write(pin int, energized bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.configured[pin] {
		return ErrPinNotConfigured(pin)
	}
	m.state[pin] = energized
	m.writes = append(m.writes, MockWrite{Pin: pin, Energized: energized})
	return nil
}

func (m *Mock) Read(pin int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.configured[pin] {
		return false, ErrPinNotConfigured(pin)
	}
	return m.state[pin], nil
}

func (m *Mock) ReleaseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for pin := range m.state {
		m.state[pin] = false
	}
	return nil
}

// Writes returns a copy of every Write call recorded so far, oldest first.
func (m *Mock) Writes() []MockWrite {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockWrite, len(m.writes))
	copy(out, m.writes)
	return out
}

// State reports the last value written to pin (false if never written).
func (m *Mock) State(pin int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state[pin]
}
