package mocks

import (
	"context"
	"sync"
	"time"
)

// MockDistributedLock is an in-memory mock implementation of DistributedLock.
type MockDistributedLock struct {
	mu       sync.Mutex
	held     map[string]bool
	order    []string
	extended []string

	// AcquireErr, when set, is returned from every Acquire call.
	AcquireErr error
	// ExtendErr, when set, is returned from every Extend call.
	ExtendErr error
	// Contended names always fail to acquire (simulates another holder).
	Contended map[string]bool
}

// NewMockDistributedLock creates a new MockDistributedLock
func NewMockDistributedLock() *MockDistributedLock {
	return &MockDistributedLock{
		held:      make(map[string]bool),
		Contended: make(map[string]bool),
	}
}

func (m *MockDistributedLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AcquireErr != nil {
		return false, m.AcquireErr
	}
	if m.Contended[name] || m.held[name] {
		return false, nil
	}
	m.held[name] = true
	m.order = append(m.order, name)
	return true, nil
}

func (m *MockDistributedLock) Release(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, name)
	return nil
}

func (m *MockDistributedLock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ExtendErr != nil {
		return m.ExtendErr
	}
	m.extended = append(m.extended, name)
	return nil
}

// ExtendedNames returns every lock name extended, in order (test helper).
func (m *MockDistributedLock) ExtendedNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.extended))
	copy(out, m.extended)
	return out
}

func (m *MockDistributedLock) Ping(ctx context.Context) error { return nil }

// AcquiredNames returns every lock name acquired, in order (test helper).
func (m *MockDistributedLock) AcquiredNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// IsHeld reports whether the named lock is currently held (test helper).
func (m *MockDistributedLock) IsHeld(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held[name]
}
