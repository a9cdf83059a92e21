package navigation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/waypoint/pkg/history"
	"github.com/vango-dev/waypoint/pkg/routepath"
	"github.com/vango-dev/waypoint/pkg/router"
)

// Service serializes navigation into drain cycles.
//
// Submit may be called from any goroutine. Drain and Run may also be called
// from any goroutine, but cycles never overlap: one cycle holds the writer
// lock for its whole duration.
type Service struct {
	history history.Provider
	tree    atomic.Pointer[router.Segment]
	store   Store

	logger       *slog.Logger
	updater      func(SubscriberID)
	onError      func(error)
	fallback     router.Content
	maxRedirects int
	middleware   []Middleware

	// queue is the unbounded inbox; wake has capacity 1.
	qmu   sync.Mutex
	queue []Message
	wake  chan struct{}

	// Fields below are owned by the writer.
	writer      sync.Mutex
	subscribers []Subscriber
	seq         uint64
}

// NewService creates a service over tree and h and resolves the initial
// state. A nil tree is treated as an empty segment.
func NewService(tree *router.Segment, h history.Provider, opts ...Option) *Service {
	if tree == nil {
		tree = router.NewSegment()
	}
	s := &Service{
		history:      h,
		logger:       slog.Default(),
		maxRedirects: DefaultMaxRedirects,
		wake:         make(chan struct{}, 1),
	}
	s.tree.Store(tree)
	for _, opt := range opts {
		opt(s)
	}

	if fn, ok := h.(history.ForeignNotifier); ok {
		fn.OnForeignNavigation(func() {
			s.Submit(foreignNavigation{})
		})
	}

	s.writer.Lock()
	state, _, err := s.resolve()
	s.store.publish(state)
	s.writer.Unlock()
	if err != nil {
		s.report(err)
	}
	return s
}

// State returns the current snapshot. It never blocks.
func (s *Service) State() *router.RouterState {
	return s.store.Load()
}

// Store returns the store the service publishes to.
func (s *Service) Store() *Store {
	return &s.store
}

// Routes returns the current route tree.
func (s *Service) Routes() *router.Segment {
	return s.tree.Load()
}

// History returns the provider the service drives.
func (s *Service) History() history.Provider {
	return s.history
}

// Submit enqueues msg for the next drain cycle. It never blocks.
func (s *Service) Submit(msg Message) {
	if msg == nil {
		return
	}
	s.qmu.Lock()
	s.queue = append(s.queue, msg)
	s.qmu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued messages.
func (s *Service) Pending() int {
	s.qmu.Lock()
	defer s.qmu.Unlock()
	return len(s.queue)
}

func (s *Service) take() []Message {
	s.qmu.Lock()
	defer s.qmu.Unlock()
	msgs := s.queue
	s.queue = nil
	return msgs
}

// Drain runs one cycle over every queued message. With an empty queue it
// does nothing.
//
// The returned error joins the errors of the cycle: unresolved names,
// unsupported external targets and redirect loops. Failed messages are
// skipped; the cycle still settles and notifies.
func (s *Service) Drain() error {
	s.writer.Lock()
	defer s.writer.Unlock()

	msgs := s.take()
	if len(msgs) == 0 {
		return nil
	}

	s.seq++
	cycle := &Cycle{
		Seq:      s.seq,
		Messages: make([]string, len(msgs)),
		From:     s.history.Current(),
	}
	for i, m := range msgs {
		cycle.Messages[i] = m.kind()
	}

	ran := false
	next := func() error {
		ran = true
		return s.run(cycle, msgs)
	}
	for i := len(s.middleware) - 1; i >= 0; i-- {
		mw, inner := s.middleware[i], next
		next = func() error { return mw.Handle(cycle, inner) }
	}

	err := next()
	if !ran {
		s.logger.Warn("middleware skipped the cycle; applying messages", "seq", cycle.Seq)
		err = errors.Join(err, s.run(cycle, msgs))
	}
	if err != nil {
		s.report(err)
	}
	return err
}

// run applies msgs, settles and notifies.
func (s *Service) run(cycle *Cycle, msgs []Message) error {
	var errs []error
	for _, m := range msgs {
		if err := m.apply(s); err != nil {
			errs = append(errs, err)
		}
	}

	state, redirects, err := s.resolve()
	if err != nil {
		errs = append(errs, err)
	}
	s.store.publish(state)
	cycle.State = state
	cycle.Redirects = redirects

	s.logger.Debug("navigation settled",
		"seq", cycle.Seq,
		"messages", len(msgs),
		"path", state.Path,
		"matched", state.Matched,
		"redirects", redirects)

	s.notify()
	return errors.Join(errs...)
}

// resolve matches the provider's current path, applying redirects as
// replaces until a state is reached or the redirect limit is exceeded.
func (s *Service) resolve() (*router.RouterState, int, error) {
	var opts []router.MatchOption
	if s.fallback != nil {
		opts = append(opts, router.WithFallback(s.fallback))
	}
	tree := s.tree.Load()

	redirects := 0
	for {
		current := s.history.Current()
		path, query := routepath.SplitPathAndQuery(current)
		res := router.Resolve(tree, path, query, opts...)
		if res.Redirect == nil {
			return s.finish(res.State), redirects, nil
		}

		if redirects >= s.maxRedirects {
			s.logger.Error("redirect loop", "path", current, "redirects", redirects)
			return s.finish(unmatched(path, query)), redirects,
				fmt.Errorf("%w: %d redirects ending at %s", ErrRedirectLoop, redirects, current)
		}

		if ext, ok := res.Redirect.(router.ExternalTarget); ok {
			err := s.external(string(ext))
			return s.finish(unmatched(path, query)), redirects, err
		}

		next, err := router.ResolveTarget(tree, current, res.Redirect)
		if err != nil {
			return s.finish(unmatched(path, query)), redirects, fmt.Errorf("redirect from %s: %w", current, err)
		}
		s.logger.Debug("redirect", "from", current, "to", next)
		s.history.Replace(next)
		redirects++
	}
}

// finish copies the provider capabilities into st.
func (s *Service) finish(st *router.RouterState) *router.RouterState {
	st.Prefix = history.Prefix(s.history)
	st.CanGoBack = s.history.CanGoBack()
	st.CanGoForward = s.history.CanGoForward()
	st.CanExternal = history.CanExternal(s.history)
	return st
}

// unmatched is the state published when a path cannot settle.
func unmatched(path string, query *string) *router.RouterState {
	segments, _ := routepath.Segments(path)
	st := &router.RouterState{
		Path:      routepath.Join(segments...),
		Names:     router.NameSet{},
		Remainder: segments,
	}
	if query != nil {
		q := *query
		st.Query = &q
	}
	return st
}

// notify calls every live subscriber once, deduplicated by id, and drops
// dead and duplicate entries.
func (s *Service) notify() {
	seen := make(map[SubscriberID]struct{}, len(s.subscribers))
	live := s.subscribers[:0]
	for _, sub := range s.subscribers {
		if !sub.Alive() {
			continue
		}
		id := sub.SubscriberID()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		live = append(live, sub)

		if s.updater != nil {
			s.updater(id)
		}
		if u, ok := sub.(Updatable); ok {
			u.Update(id)
		}
	}
	clear(s.subscribers[len(live):])
	s.subscribers = live
}

// Subscribers returns the number of registered subscribers, including any
// that died since the last notification.
func (s *Service) Subscribers() int {
	s.writer.Lock()
	defer s.writer.Unlock()
	return len(s.subscribers)
}

// Run drains whenever messages arrive until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	for {
		_ = s.Drain()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wake:
		}
	}
}

func (s *Service) report(err error) {
	s.logger.Warn("navigation failed", "error", err)
	if s.onError != nil {
		s.onError(err)
	}
}
