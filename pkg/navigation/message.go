package navigation

import (
	"fmt"

	"github.com/vango-dev/waypoint/pkg/history"
	"github.com/vango-dev/waypoint/pkg/router"
)

// Message is a request processed by the next drain cycle.
//
// It is one of Subscribe, Push, Replace, GoBack, GoForward or SetRoutes.
type Message interface {
	apply(s *Service) error
	kind() string
}

// Subscribe registers a subscriber. It is notified at the end of the cycle
// that registers it and on every later settle while it is alive.
type Subscribe struct {
	Subscriber Subscriber
}

// Push resolves Target and pushes it onto the history.
type Push struct {
	Target router.Target
}

// Replace resolves Target and replaces the current history entry.
type Replace struct {
	Target router.Target
}

// GoBack moves back in the history.
type GoBack struct{}

// GoForward moves forward in the history.
type GoForward struct{}

// SetRoutes swaps the route tree. Later messages in the same cycle resolve
// against the new tree.
type SetRoutes struct {
	Tree *router.Segment
}

// foreignNavigation records that the provider changed on its own.
// Nothing is applied; the cycle only re-resolves.
type foreignNavigation struct{}

func (Subscribe) kind() string         { return "subscribe" }
func (Push) kind() string              { return "push" }
func (Replace) kind() string           { return "replace" }
func (GoBack) kind() string            { return "back" }
func (GoForward) kind() string         { return "forward" }
func (SetRoutes) kind() string         { return "routes" }
func (foreignNavigation) kind() string { return "foreign" }

func (m Subscribe) apply(s *Service) error {
	if m.Subscriber == nil {
		return nil
	}
	s.subscribers = append(s.subscribers, m.Subscriber)
	return nil
}

func (m Push) apply(s *Service) error {
	path, err := s.target(m.Target)
	if err != nil || path == "" {
		return err
	}
	s.history.Push(path)
	return nil
}

func (m Replace) apply(s *Service) error {
	path, err := s.target(m.Target)
	if err != nil || path == "" {
		return err
	}
	s.history.Replace(path)
	return nil
}

func (GoBack) apply(s *Service) error {
	s.history.GoBack()
	return nil
}

func (GoForward) apply(s *Service) error {
	s.history.GoForward()
	return nil
}

func (m SetRoutes) apply(s *Service) error {
	if m.Tree == nil {
		return nil
	}
	s.tree.Store(m.Tree)
	return nil
}

func (foreignNavigation) apply(*Service) error { return nil }

// target resolves an internal target to a path. External targets are handed
// to the provider and yield an empty path.
func (s *Service) target(t router.Target) (string, error) {
	if t == nil {
		return "", nil
	}
	if ext, ok := t.(router.ExternalTarget); ok {
		return "", s.external(string(ext))
	}
	path, err := router.ResolveTarget(s.tree.Load(), s.history.Current(), t)
	if err != nil {
		return "", fmt.Errorf("navigate to %s: %w", t, err)
	}
	return path, nil
}

func (s *Service) external(url string) error {
	ext, ok := s.history.(history.ExternalNavigator)
	if !ok || !ext.CanExternal() {
		return fmt.Errorf("navigate to %s: %w", url, ErrExternalUnsupported)
	}
	if err := ext.External(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}
