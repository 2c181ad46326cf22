package kv

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memEntry struct {
	value       string
	present     bool
	prev        string
	prevPresent bool
	visibleAt   time.Time
}

// Memory is an in-process medium. With a non-zero lag it models media that
// acknowledge a write before it becomes readable: a Get issued within the
// lag still observes the previous value.
type Memory struct {
	Now func() time.Time

	mu      sync.Mutex
	lag     time.Duration
	entries map[string]memEntry
	closed  bool
}

func NewMemory() *Memory {
	return &Memory{Now: time.Now, entries: map[string]memEntry{}}
}

// SetLag sets the delay between a write and its visibility.
func (m *Memory) SetLag(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lag = d
}

func (m *Memory) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

func (m *Memory) visible(e memEntry) (string, bool) {
	if !e.visibleAt.IsZero() && m.now().Before(e.visibleAt) {
		return e.prev, e.prevPresent
	}
	return e.value, e.present
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", false, ErrClosed
	}
	e, ok := m.entries[key]
	if !ok {
		return "", false, nil
	}
	v, present := m.visible(e)
	return v, present, nil
}

func (m *Memory) put(key, value string, present bool) {
	e := m.entries[key]
	prev, prevPresent := m.visible(e)
	next := memEntry{value: value, present: present, prev: prev, prevPresent: prevPresent}
	if m.lag > 0 {
		next.visibleAt = m.now().Add(m.lag)
	}
	m.entries[key] = next
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.put(key, value, true)
	return nil
}

func (m *Memory) MultiRemove(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	for _, k := range keys {
		if _, ok := m.entries[k]; ok {
			m.put(k, "", false)
		}
	}
	return nil
}

func (m *Memory) Keys(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	var keys []string
	for k, e := range m.entries {
		if _, present := m.visible(e); present {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
