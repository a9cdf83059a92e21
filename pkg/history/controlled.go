package history

import "sync"

// Controlled wraps a Provider so it can also be driven from outside the
// navigation service through a Controller. Outside changes are reported as
// foreign navigation.
type Controlled struct {
	inner Provider

	mu      sync.Mutex
	foreign func()
}

// Controller drives a Controlled provider the way a host environment would,
// for example a user pressing the browser's back button.
type Controller struct {
	c *Controlled
}

// NewControlled wraps inner.
func NewControlled(inner Provider) (*Controlled, *Controller) {
	c := &Controlled{inner: inner}
	return c, &Controller{c: c}
}

func (c *Controlled) Current() string    { return c.inner.Current() }
func (c *Controlled) Push(path string)    { c.inner.Push(path) }
func (c *Controlled) Replace(path string) { c.inner.Replace(path) }
func (c *Controlled) GoBack()             { c.inner.GoBack() }
func (c *Controlled) GoForward()          { c.inner.GoForward() }
func (c *Controlled) CanGoBack() bool     { return c.inner.CanGoBack() }
func (c *Controlled) CanGoForward() bool  { return c.inner.CanGoForward() }

// OnForeignNavigation sets the callback run after each Controller change.
func (c *Controlled) OnForeignNavigation(fn func()) {
	c.mu.Lock()
	c.foreign = fn
	c.mu.Unlock()
}

func (c *Controlled) notify() {
	c.mu.Lock()
	fn := c.foreign
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Current returns the current path of the controlled provider.
func (c *Controller) Current() string { return c.c.inner.Current() }

// Push pushes path and reports a foreign navigation.
func (c *Controller) Push(path string) {
	c.c.inner.Push(path)
	c.c.notify()
}

// Replace replaces the current path and reports a foreign navigation.
func (c *Controller) Replace(path string) {
	c.c.inner.Replace(path)
	c.c.notify()
}

// GoBack goes back and reports a foreign navigation.
func (c *Controller) GoBack() {
	c.c.inner.GoBack()
	c.c.notify()
}

// GoForward goes forward and reports a foreign navigation.
func (c *Controller) GoForward() {
	c.c.inner.GoForward()
	c.c.notify()
}

// CanExternal reports whether the wrapped provider supports external navigation.
func (c *Controlled) CanExternal() bool { return CanExternal(c.inner) }

// External forwards to the wrapped provider.
func (c *Controlled) External(url string) error {
	ext, ok := c.inner.(ExternalNavigator)
	if !ok || !ext.CanExternal() {
		return ErrExternalUnsupported
	}
	return ext.External(url)
}

// Prefix returns the wrapped provider's prefix.
func (c *Controlled) Prefix() string { return Prefix(c.inner) }
