package navigation

import (
	"errors"

	"github.com/vango-dev/waypoint/pkg/history"
)

var (
	// ErrRedirectLoop is returned when a redirect chain exceeds the
	// configured maximum.
	ErrRedirectLoop = errors.New("redirect loop detected")

	// ErrExternalUnsupported is returned when an external target is used
	// with a provider that cannot leave the route tree.
	ErrExternalUnsupported = history.ErrExternalUnsupported
)
