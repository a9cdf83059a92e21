package history

import "sync"

// Memory is the in-memory Provider.
//
// All methods are safe for concurrent use.
type Memory struct {
	mu         sync.Mutex
	past       []string
	current    string
	future     []string
	maxEntries int
}

// MemoryOption configures a Memory.
type MemoryOption func(*Memory)

// WithMaxEntries bounds the past stack. When a push would exceed n entries
// the oldest one is dropped. n <= 0 means unbounded.
func WithMaxEntries(n int) MemoryOption {
	return func(m *Memory) {
		m.maxEntries = n
	}
}

// NewMemory creates a Memory whose current path is initial. An empty initial
// path means "/".
func NewMemory(initial string, opts ...MemoryOption) *Memory {
	if initial == "" {
		initial = "/"
	}
	m := &Memory{current: initial}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Current returns the current path.
func (m *Memory) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Push makes path current and clears the forward history.
func (m *Memory) Push(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.past = append(m.past, m.current)
	if m.maxEntries > 0 && len(m.past) > m.maxEntries {
		m.past = append(m.past[:0:0], m.past[len(m.past)-m.maxEntries:]...)
	}
	m.current = path
	m.future = nil
}

// Replace overwrites the current path.
func (m *Memory) Replace(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = path
}

// GoBack moves to the previous path. It does nothing if there is none.
func (m *Memory) GoBack() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.back()
}

// GoForward moves to the next path. It does nothing if there is none.
func (m *Memory) GoForward() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forward()
}

// Sync moves to path the way a browser would have: back when path is the
// previous entry, forward when it is the next one, otherwise by replacing
// the current entry. It reports whether the current path changed. The
// whole move happens under one lock.
func (m *Memory) Sync(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case path == m.current:
		return false
	case len(m.past) > 0 && m.past[len(m.past)-1] == path:
		m.back()
	case len(m.future) > 0 && m.future[len(m.future)-1] == path:
		m.forward()
	default:
		m.current = path
	}
	return true
}

func (m *Memory) back() {
	if len(m.past) == 0 {
		return
	}
	last := len(m.past) - 1
	m.future = append(m.future, m.current)
	m.current = m.past[last]
	m.past = m.past[:last]
}

func (m *Memory) forward() {
	if len(m.future) == 0 {
		return
	}
	last := len(m.future) - 1
	m.past = append(m.past, m.current)
	m.current = m.future[last]
	m.future = m.future[:last]
}

// CanGoBack reports whether there is a previous path.
func (m *Memory) CanGoBack() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.past) > 0
}

// CanGoForward reports whether there is a next path.
func (m *Memory) CanGoForward() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.future) > 0
}

// Snapshot returns a copy of the stacks. Future is ordered nearest first.
func (m *Memory) Snapshot() Stack {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Stack{
		Past:    append([]string(nil), m.past...),
		Current: m.current,
	}
	for i := len(m.future) - 1; i >= 0; i-- {
		s.Future = append(s.Future, m.future[i])
	}
	return s
}

// Restore replaces the stacks with s.
func (m *Memory) Restore(s Stack) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.past = append([]string(nil), s.Past...)
	m.current = s.Current
	if m.current == "" {
		m.current = "/"
	}
	m.future = nil
	for i := len(s.Future) - 1; i >= 0; i-- {
		m.future = append(m.future, s.Future[i])
	}
}
