package server

import "github.com/vango-dev/waypoint/pkg/router"

// Message types sent by the host.
const (
	MsgHello    = "hello"
	MsgNavigate = "navigate"
	MsgPopState = "popstate"
	MsgBack     = "back"
	MsgForward  = "forward"
)

// Command types sent to the host.
const (
	CmdReady    = "ready"
	CmdPush     = "push"
	CmdReplace  = "replace"
	CmdBack     = "back"
	CmdForward  = "forward"
	CmdExternal = "external"
	CmdState    = "state"
	CmdError    = "error"
)

// HostMessage is a message received from the host page.
type HostMessage struct {
	Type    string `json:"type"`
	Path    string `json:"path,omitempty"`
	Replace bool   `json:"replace,omitempty"`
}

// Command is a message sent to the host page.
type Command struct {
	Type  string              `json:"type"`
	ID    string              `json:"id,omitempty"`
	Path  string              `json:"path,omitempty"`
	URL   string              `json:"url,omitempty"`
	State *router.RouterState `json:"state,omitempty"`
	Error string              `json:"error,omitempty"`
}
