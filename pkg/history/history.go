// Package history provides the back/forward/current stacks the navigation
// service drives.
//
// A Provider owns three sequences: past, current and future.
//
//	Push(p)     past += current; current = p; future = nil
//	Replace(p)  current = p
//	GoBack()    future = current + future; current = pop(past)   (no-op if past is empty)
//	GoForward() past += current; current = shift(future)         (no-op if future is empty)
//
// Paths carry an optional "?query" suffix. Providers may implement
// ExternalNavigator, Prefixer and ForeignNotifier for extra capabilities.
package history

import "errors"

// ErrExternalUnsupported is returned by External when the provider cannot
// leave the managed route tree.
var ErrExternalUnsupported = errors.New("external navigation not supported")

// Provider is a back/forward/current stack of paths.
//
// Providers are driven by a single writer, the navigation service.
type Provider interface {
	// Current returns the current path. It has no side effect.
	Current() string

	// Push makes path current and discards the forward history.
	Push(path string)

	// Replace overwrites the current path.
	Replace(path string)

	// GoBack moves to the previous path, if any.
	GoBack()

	// GoForward moves to the next path, if any.
	GoForward()

	// CanGoBack reports whether GoBack would change the current path.
	CanGoBack() bool

	// CanGoForward reports whether GoForward would change the current path.
	CanGoForward() bool
}

// ExternalNavigator is implemented by providers that can leave the managed
// route tree, such as a browser tab.
type ExternalNavigator interface {
	// CanExternal reports whether External is supported right now.
	CanExternal() bool

	// External hands navigation off to url.
	External(url string) error
}

// Prefixer is implemented by providers that mount the route tree below a
// path prefix.
type Prefixer interface {
	Prefix() string
}

// ForeignNotifier is implemented by providers whose current path can change
// without going through the navigation service, for example a browser back
// button. The callback must be safe to call from any goroutine.
type ForeignNotifier interface {
	OnForeignNavigation(fn func())
}

// Stack is a copy of a provider's stacks.
type Stack struct {
	Past    []string `json:"past"`
	Current string   `json:"current"`
	Future  []string `json:"future"`
}

// CanExternal reports whether p supports external navigation.
func CanExternal(p Provider) bool {
	ext, ok := p.(ExternalNavigator)
	return ok && ext.CanExternal()
}

// Prefix returns p's prefix, or "" if it has none.
func Prefix(p Provider) string {
	if pp, ok := p.(Prefixer); ok {
		return pp.Prefix()
	}
	return ""
}

var (
	_ Provider          = (*Memory)(nil)
	_ Provider          = (*Controlled)(nil)
	_ ForeignNotifier   = (*Controlled)(nil)
	_ ExternalNavigator = (*Controlled)(nil)
	_ Provider          = (*Persistent)(nil)
)
