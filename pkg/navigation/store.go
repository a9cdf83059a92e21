package navigation

import (
	"sync/atomic"

	"github.com/vango-dev/waypoint/pkg/router"
)

// Store holds the published RouterState.
//
// Load never blocks; publishing swaps the pointer.
type Store struct {
	state atomic.Pointer[router.RouterState]
}

// Load returns the current snapshot. It is nil before the first settle.
func (s *Store) Load() *router.RouterState {
	return s.state.Load()
}

func (s *Store) publish(st *router.RouterState) {
	s.state.Store(st)
}
