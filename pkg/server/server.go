package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/waypoint/pkg/history"
	"github.com/vango-dev/waypoint/pkg/middleware"
	"github.com/vango-dev/waypoint/pkg/navigation"
	"github.com/vango-dev/waypoint/pkg/router"
)

// Server serves host connections and a small JSON API over one route tree.
type Server struct {
	config   *Config
	tree     atomic.Pointer[router.Segment]
	upgrader websocket.Upgrader
	handler  http.Handler
	logger   *slog.Logger

	mu    sync.Mutex
	hosts map[string]*hostConn
}

type hostConn struct {
	host *HostHistory
	svc  *navigation.Service
}

// New creates a Server over tree. A nil config uses DefaultConfig.
func New(tree *router.Segment, config *Config) *Server {
	config = config.withDefaults()
	if tree == nil {
		tree = router.NewSegment()
	}

	s := &Server{
		config: config,
		upgrader: websocket.Upgrader{
			CheckOrigin: config.CheckOrigin,
		},
		logger: config.Logger.With("component", "server"),
		hosts:  make(map[string]*hostConn),
	}
	s.tree.Store(tree)
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get(s.config.WSPath, s.HandleWebSocket)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/resolve", s.handleResolve)
		r.Get("/hosts", s.handleHosts)
		r.Get("/hosts/{id}", s.handleHost)
	})
	if s.config.MetricsPath != "" {
		r.Handle(s.config.MetricsPath, promhttp.Handler())
	}
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Routes returns the current route tree.
func (s *Server) Routes() *router.Segment {
	return s.tree.Load()
}

// SetRoutes swaps the route tree for new connections and queues the swap
// on every connected host.
func (s *Server) SetRoutes(tree *router.Segment) {
	if tree == nil {
		tree = router.NewSegment()
	}
	s.tree.Store(tree)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, hc := range s.hosts {
		hc.svc.Submit(navigation.SetRoutes{Tree: tree})
	}
	s.logger.Info("routes updated", "hosts", len(s.hosts))
}

// Hosts returns the number of connected hosts.
func (s *Server) Hosts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hosts)
}

// HandleWebSocket upgrades the request and serves one host until it
// disconnects.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		middleware.RecordWebSocketError("upgrade")
		return
	}

	host, err := AcceptHost(conn, HostOptions{
		Prefix:           s.config.Prefix,
		HandshakeTimeout: s.config.HandshakeTimeout,
		ReadTimeout:      s.config.ReadTimeout,
		WriteTimeout:     s.config.WriteTimeout,
		MaxMessageSize:   s.config.MaxMessageSize,
		Limiter:          s.config.limiter(),
		Logger:           s.logger,
	})
	if err != nil {
		s.logger.Warn("handshake failed", "remote", r.RemoteAddr, "error", err)
		middleware.RecordWebSocketError("handshake")
		conn.SetWriteDeadline(time.Now().Add(time.Second))
		conn.WriteJSON(Command{Type: CmdError, Error: err.Error()})
		conn.Close()
		return
	}
	defer host.Close()

	logger := s.logger.With("host", host.ID())
	if err := host.Send(Command{Type: CmdReady, ID: host.ID()}); err != nil {
		logger.Warn("ready failed", "error", err)
		return
	}

	opts := []navigation.Option{
		navigation.WithLogger(logger),
		navigation.WithMaxRedirects(s.config.MaxRedirects),
		navigation.WithMiddleware(s.config.Middleware...),
		navigation.WithErrorHandler(func(err error) {
			host.Send(Command{Type: CmdError, Error: err.Error()})
		}),
	}
	if s.config.Fallback != nil {
		opts = append(opts, navigation.WithFallback(s.config.Fallback))
	}
	tree := s.Routes()
	svc := navigation.NewService(tree, host, opts...)

	sub := navigation.NewSubscription(func(navigation.SubscriberID) {
		host.Send(Command{Type: CmdState, State: svc.State()})
	})
	defer sub.Close()
	svc.Submit(navigation.Subscribe{Subscriber: sub})

	s.add(host, svc, tree)
	defer s.remove(host.ID())
	middleware.RecordHostConnect()
	defer middleware.RecordHostDisconnect()
	logger.Info("host connected", "path", host.Current(), "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		svc.Run(ctx)
	}()

	nav := svc.Navigator()
	err = host.ReadLoop(ctx, func(msg HostMessage) {
		switch msg.Type {
		case MsgNavigate:
			var opts []navigation.NavigateOption
			if msg.Replace {
				opts = append(opts, navigation.WithReplace())
			}
			if err := nav.NavigateTo(msg.Path, opts...); err != nil {
				host.Send(Command{Type: CmdError, Error: err.Error()})
			}
		case MsgBack:
			nav.Back()
		case MsgForward:
			nav.Forward()
		}
	})

	cancel()
	<-runDone
	logger.Info("host disconnected", "reason", err)
}

// add registers a host whose service was built over tree. A SetRoutes that
// stored a newer tree before the host was registered is replayed to it.
func (s *Server) add(host *HostHistory, svc *navigation.Service, tree *router.Segment) {
	s.mu.Lock()
	s.hosts[host.ID()] = &hostConn{host: host, svc: svc}
	current := s.tree.Load()
	s.mu.Unlock()

	if current != tree {
		svc.Submit(navigation.SetRoutes{Tree: current})
	}
}

func (s *Server) remove(id string) {
	s.mu.Lock()
	delete(s.hosts, id)
	s.mu.Unlock()
}

// resolveResponse is the body of GET /api/resolve.
type resolveResponse struct {
	State    *router.RouterState `json:"state,omitempty"`
	Names    []string            `json:"names,omitempty"`
	Redirect string              `json:"redirect,omitempty"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing url parameter"))
		return
	}

	var opts []router.MatchOption
	if s.config.Fallback != nil {
		opts = append(opts, router.WithFallback(s.config.Fallback))
	}
	res := router.ResolveURL(s.Routes(), raw, opts...)

	var resp resolveResponse
	if res.Redirect != nil {
		resp.Redirect = res.Redirect.String()
	} else {
		resp.State = res.State
		resp.Names = res.State.Names.Sorted()
	}
	writeJSON(w, http.StatusOK, resp)
}

// hostInfo is an entry of GET /api/hosts.
type hostInfo struct {
	ID    string              `json:"id"`
	Stack history.Stack       `json:"stack"`
	State *router.RouterState `json:"state,omitempty"`
}

func (s *Server) snapshot(hc *hostConn) hostInfo {
	return hostInfo{
		ID:    hc.host.ID(),
		Stack: hc.host.Snapshot(),
		State: hc.svc.State(),
	}
}

func (s *Server) handleHosts(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	infos := make([]hostInfo, 0, len(s.hosts))
	for _, hc := range s.hosts {
		infos = append(infos, s.snapshot(hc))
	}
	s.mu.Unlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleHost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	hc, ok := s.hosts[id]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("host not found"))
		return
	}
	writeJSON(w, http.StatusOK, s.snapshot(hc))
}

// Run listens on the configured address until ctx is done, then shuts down
// gracefully and closes every host connection.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Address,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", s.config.Address, "ws", s.config.WSPath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	// Hijacked connections are not tracked by Shutdown.
	s.mu.Lock()
	for _, hc := range s.hosts {
		hc.host.Close()
	}
	s.mu.Unlock()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
