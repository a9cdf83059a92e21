package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/vango-dev/waypoint/pkg/history"
	"github.com/vango-dev/waypoint/pkg/middleware"
	"github.com/vango-dev/waypoint/pkg/routepath"
)

// Errors returned by the host connection.
var (
	ErrHandshake   = errors.New("host handshake failed")
	ErrHostClosed  = errors.New("host connection closed")
	ErrRateLimited = errors.New("rate limited")
)

// HostOptions configures a HostHistory.
type HostOptions struct {
	Prefix           string
	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	MaxMessageSize   int64
	Limiter          *rate.Limiter
	Logger           *slog.Logger
}

// HostHistory is a history.Provider backed by a host page over a WebSocket.
//
// The stacks are mirrored locally, so Current and the Can* queries never
// touch the network. Mutations update the mirror and send the matching
// command to the host. A popstate from the host updates the mirror and
// fires the foreign navigation callback.
type HostHistory struct {
	id     string
	conn   *websocket.Conn
	mirror *history.Memory
	opts   HostOptions
	logger *slog.Logger

	wmu sync.Mutex // serializes writes to conn

	fmu     sync.Mutex
	foreign func()

	closed atomic.Bool
}

var (
	_ history.Provider          = (*HostHistory)(nil)
	_ history.ExternalNavigator = (*HostHistory)(nil)
	_ history.Prefixer          = (*HostHistory)(nil)
	_ history.ForeignNotifier   = (*HostHistory)(nil)
)

// AcceptHost waits for the hello message on conn and returns a provider
// whose current path is the host's location with the prefix removed.
func AcceptHost(conn *websocket.Conn, opts HostOptions) (*HostHistory, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	opts.Prefix = strings.TrimSuffix(opts.Prefix, "/")
	if opts.MaxMessageSize > 0 {
		conn.SetReadLimit(opts.MaxMessageSize)
	}

	h := &HostHistory{
		id:   uuid.NewString(),
		conn: conn,
		opts: opts,
	}
	h.logger = opts.Logger.With("host", h.id)

	if opts.HandshakeTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(opts.HandshakeTimeout))
	}
	var hello HostMessage
	if err := conn.ReadJSON(&hello); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	if hello.Type != MsgHello {
		return nil, fmt.Errorf("%w: expected %q, got %q", ErrHandshake, MsgHello, hello.Type)
	}
	initial, err := h.fromHost(hello.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	conn.SetReadDeadline(time.Time{})

	h.mirror = history.NewMemory(initial)
	return h, nil
}

// ID returns the connection id.
func (h *HostHistory) ID() string { return h.id }

// Current implements history.Provider.
func (h *HostHistory) Current() string { return h.mirror.Current() }

// CanGoBack implements history.Provider.
func (h *HostHistory) CanGoBack() bool { return h.mirror.CanGoBack() }

// CanGoForward implements history.Provider.
func (h *HostHistory) CanGoForward() bool { return h.mirror.CanGoForward() }

// Push implements history.Provider.
func (h *HostHistory) Push(path string) {
	if !h.accept(path) {
		return
	}
	h.mirror.Push(path)
	h.send(Command{Type: CmdPush, Path: h.toHost(path)})
}

// Replace implements history.Provider.
func (h *HostHistory) Replace(path string) {
	if !h.accept(path) {
		return
	}
	h.mirror.Replace(path)
	h.send(Command{Type: CmdReplace, Path: h.toHost(path)})
}

// GoBack implements history.Provider.
func (h *HostHistory) GoBack() {
	if !h.mirror.CanGoBack() {
		return
	}
	h.mirror.GoBack()
	h.send(Command{Type: CmdBack})
}

// GoForward implements history.Provider.
func (h *HostHistory) GoForward() {
	if !h.mirror.CanGoForward() {
		return
	}
	h.mirror.GoForward()
	h.send(Command{Type: CmdForward})
}

// CanExternal reports whether the host is still connected.
func (h *HostHistory) CanExternal() bool { return !h.closed.Load() }

// External asks the host to leave for url.
func (h *HostHistory) External(url string) error {
	if h.closed.Load() {
		return history.ErrExternalUnsupported
	}
	return h.write(Command{Type: CmdExternal, URL: url})
}

// Prefix implements history.Prefixer.
func (h *HostHistory) Prefix() string { return h.opts.Prefix }

// OnForeignNavigation implements history.ForeignNotifier.
func (h *HostHistory) OnForeignNavigation(fn func()) {
	h.fmu.Lock()
	h.foreign = fn
	h.fmu.Unlock()
}

// Snapshot returns a copy of the mirrored stacks.
func (h *HostHistory) Snapshot() history.Stack { return h.mirror.Snapshot() }

// Send writes cmd to the host.
func (h *HostHistory) Send(cmd Command) error { return h.write(cmd) }

// ReadLoop reads host messages until the connection fails or ctx is done.
// Popstate messages are applied to the mirror; navigate, back and forward
// messages are passed to onRequest.
func (h *HostHistory) ReadLoop(ctx context.Context, onRequest func(HostMessage)) error {
	stop := context.AfterFunc(ctx, func() { h.Close() })
	defer stop()

	for {
		if h.opts.ReadTimeout > 0 {
			h.conn.SetReadDeadline(time.Now().Add(h.opts.ReadTimeout))
		}

		var msg HostMessage
		if err := h.conn.ReadJSON(&msg); err != nil {
			if h.closed.Load() || ctx.Err() != nil {
				return ErrHostClosed
			}
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				h.logger.Error("read error", "error", err)
				middleware.RecordWebSocketError("read")
			}
			return err
		}
		middleware.RecordHostMessage(msg.Type)

		if h.opts.Limiter != nil && !h.opts.Limiter.Allow() {
			h.logger.Warn("host message dropped", "type", msg.Type, "error", ErrRateLimited)
			middleware.RecordWebSocketError("rate_limited")
			h.sendError(ErrRateLimited.Error())
			continue
		}

		switch msg.Type {
		case MsgPopState:
			h.popState(msg.Path)
		case MsgNavigate:
			path, err := h.fromHostTarget(msg.Path)
			if err != nil {
				h.logger.Warn("navigate rejected", "path", msg.Path, "error", err)
				h.sendError(fmt.Sprintf("invalid path %q", msg.Path))
				continue
			}
			msg.Path = path
			onRequest(msg)
		case MsgBack, MsgForward:
			onRequest(msg)
		default:
			h.logger.Warn("unknown host message", "type", msg.Type)
			h.sendError(fmt.Sprintf("unknown message type %q", msg.Type))
		}
	}
}

// Close closes the connection. It is safe to call more than once.
func (h *HostHistory) Close() error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	h.wmu.Lock()
	h.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	h.wmu.Unlock()
	return h.conn.Close()
}

// popState syncs the mirror with a location the host moved to on its own.
func (h *HostHistory) popState(hostPath string) {
	path, err := h.fromHost(hostPath)
	if err != nil {
		h.logger.Warn("popstate rejected", "path", hostPath, "error", err)
		return
	}
	if !h.mirror.Sync(path) {
		return
	}

	h.fmu.Lock()
	fn := h.foreign
	h.fmu.Unlock()
	if fn != nil {
		fn()
	}
}

// accept rejects protocol-relative paths before they reach the host.
func (h *HostHistory) accept(path string) bool {
	if strings.HasPrefix(path, "//") {
		h.logger.Error("refusing protocol-relative path", "path", path)
		return false
	}
	return true
}

// fromHost strips the prefix from a host location and validates it.
func (h *HostHistory) fromHost(location string) (string, error) {
	path, query := routepath.SplitPathAndQuery(location)
	if p := h.opts.Prefix; p != "" {
		if path != p && !strings.HasPrefix(path, p+"/") {
			return "", fmt.Errorf("path %q is outside prefix %q", location, p)
		}
		path = strings.TrimPrefix(path, p)
		if path == "" {
			path = "/"
		}
	}
	path, err := routepath.ValidateNavPath(path)
	if err != nil {
		return "", err
	}
	if query != nil {
		path += "?" + *query
	}
	return path, nil
}

// fromHostTarget is fromHost for navigate requests, which may also carry
// relative and named targets.
func (h *HostHistory) fromHostTarget(target string) (string, error) {
	if strings.HasPrefix(target, "/") {
		return h.fromHost(target)
	}
	if target == "" || strings.Contains(target, "://") {
		return "", routepath.ErrInvalidPath
	}
	return target, nil
}

func (h *HostHistory) toHost(path string) string {
	if h.opts.Prefix == "" {
		return path
	}
	if path == "/" {
		return h.opts.Prefix
	}
	if strings.HasPrefix(path, "/?") {
		return h.opts.Prefix + path[1:]
	}
	return h.opts.Prefix + path
}

func (h *HostHistory) send(cmd Command) {
	if err := h.write(cmd); err != nil && !errors.Is(err, ErrHostClosed) {
		h.logger.Warn("host write failed", "type", cmd.Type, "error", err)
	}
}

func (h *HostHistory) sendError(msg string) {
	h.send(Command{Type: CmdError, Error: msg})
}

func (h *HostHistory) write(cmd Command) error {
	if h.closed.Load() {
		return ErrHostClosed
	}
	h.wmu.Lock()
	defer h.wmu.Unlock()

	if h.opts.WriteTimeout > 0 {
		h.conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
	}
	if err := h.conn.WriteJSON(cmd); err != nil {
		middleware.RecordWebSocketError("write")
		return err
	}
	return nil
}
