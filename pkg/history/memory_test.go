package history

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryInitial(t *testing.T) {
	assert.Equal(t, "/", NewMemory("").Current())
	assert.Equal(t, "/start?x=1", NewMemory("/start?x=1").Current())

	m := NewMemory("/")
	assert.False(t, m.CanGoBack())
	assert.False(t, m.CanGoForward())
}

func TestMemoryPushThenBackRestores(t *testing.T) {
	m := NewMemory("/a")
	m.Push("/b")
	require.Equal(t, "/b", m.Current())
	assert.True(t, m.CanGoBack())

	m.GoBack()
	assert.Equal(t, "/a", m.Current())
	assert.True(t, m.CanGoForward())

	m.GoForward()
	assert.Equal(t, "/b", m.Current())
	assert.False(t, m.CanGoForward())
}

func TestMemoryPushClearsFuture(t *testing.T) {
	m := NewMemory("/")
	m.Push("/a")
	m.Push("/b")
	m.Push("/c")
	m.GoBack()
	m.GoBack()
	require.True(t, m.CanGoForward())

	m.Push("/x")
	assert.False(t, m.CanGoForward())
	assert.Equal(t, "/x", m.Current())

	m.GoBack()
	assert.Equal(t, "/a", m.Current())
}

func TestMemoryReplaceKeepsStacks(t *testing.T) {
	m := NewMemory("/")
	m.Push("/a")
	m.Push("/b")
	m.GoBack()

	back, fwd := m.CanGoBack(), m.CanGoForward()
	m.Replace("/replaced")
	assert.Equal(t, "/replaced", m.Current())
	assert.Equal(t, back, m.CanGoBack())
	assert.Equal(t, fwd, m.CanGoForward())

	m.GoForward()
	assert.Equal(t, "/b", m.Current())
	m.GoBack()
	assert.Equal(t, "/replaced", m.Current())
}

func TestMemoryEmptyStacksAreNoOps(t *testing.T) {
	m := NewMemory("/home")
	m.GoBack()
	assert.Equal(t, "/home", m.Current())
	m.GoForward()
	assert.Equal(t, "/home", m.Current())
}

func TestMemoryMaxEntries(t *testing.T) {
	m := NewMemory("/0", WithMaxEntries(2))
	for i := 1; i <= 5; i++ {
		m.Push(fmt.Sprintf("/%d", i))
	}
	assert.Equal(t, []string{"/3", "/4"}, m.Snapshot().Past)

	m.GoBack()
	m.GoBack()
	assert.Equal(t, "/3", m.Current())
	assert.False(t, m.CanGoBack())
}

func TestMemorySnapshotRestore(t *testing.T) {
	m := NewMemory("/")
	m.Push("/a")
	m.Push("/b")
	m.Push("/c")
	m.GoBack()
	m.GoBack()

	s := m.Snapshot()
	assert.Equal(t, Stack{Past: []string{"/"}, Current: "/a", Future: []string{"/b", "/c"}}, s)

	other := NewMemory("/elsewhere")
	other.Restore(s)
	assert.Equal(t, s, other.Snapshot())
	other.GoForward()
	assert.Equal(t, "/b", other.Current())
}

func TestMemoryConcurrentReads(t *testing.T) {
	m := NewMemory("/")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = m.Current()
				_ = m.CanGoBack()
			}
		}()
	}
	for j := 0; j < 100; j++ {
		m.Push(fmt.Sprintf("/%d", j))
	}
	wg.Wait()
	assert.Equal(t, "/99", m.Current())
}

func TestControlledReportsForeignNavigation(t *testing.T) {
	mem := NewMemory("/")
	c, ctl := NewControlled(mem)

	calls := 0
	c.OnForeignNavigation(func() { calls++ })

	// Driving the provider directly is not foreign.
	c.Push("/a")
	c.Push("/b")
	assert.Equal(t, 0, calls)

	ctl.GoBack()
	assert.Equal(t, 1, calls)
	assert.Equal(t, "/a", c.Current())

	ctl.GoForward()
	ctl.Push("/c")
	ctl.Replace("/d")
	assert.Equal(t, 4, calls)
	assert.Equal(t, "/d", ctl.Current())
	assert.False(t, c.CanGoForward())
}

func TestControlledExternal(t *testing.T) {
	c, _ := NewControlled(NewMemory("/"))
	assert.False(t, c.CanExternal())
	assert.ErrorIs(t, c.External("https://example.com"), ErrExternalUnsupported)
	assert.Equal(t, "", c.Prefix())
}

func TestMemorySync(t *testing.T) {
	m := NewMemory("/a")
	m.Push("/b")
	m.Push("/c")

	assert.False(t, m.Sync("/c"), "already current")

	require.True(t, m.Sync("/b"))
	assert.Equal(t, Stack{Past: []string{"/a"}, Current: "/b", Future: []string{"/c"}}, m.Snapshot())

	require.True(t, m.Sync("/c"))
	assert.Equal(t, Stack{Past: []string{"/a", "/b"}, Current: "/c"}, m.Snapshot())

	require.True(t, m.Sync("/elsewhere"))
	assert.Equal(t, Stack{Past: []string{"/a", "/b"}, Current: "/elsewhere"}, m.Snapshot())
}

func TestMemorySyncConcurrentWithPush(t *testing.T) {
	m := NewMemory("/")
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			m.Push(fmt.Sprintf("/p%d", i))
		}()
		go func() {
			defer wg.Done()
			m.Sync("/")
		}()
	}
	wg.Wait()

	// Each push adds one entry; Sync only moves entries or overwrites current.
	s := m.Snapshot()
	assert.NotEmpty(t, s.Current)
	assert.LessOrEqual(t, len(s.Past)+len(s.Future), 50)
}
