// Package server exposes navigation over HTTP and WebSocket.
//
// A host page (usually a browser tab running a small script) connects to
// the WebSocket endpoint and says hello with its current location. The
// server gives every connection its own navigation.Service driving a
// HostHistory: a history.Provider that mirrors the page's stacks and sends
// push, replace, back, forward and external commands back to it. The page
// reports user navigation (link clicks, back button) and receives a state
// message each time navigation settles.
//
// Wire protocol, one JSON object per WebSocket text message.
//
// Host to server:
//
//	{"type":"hello","path":"/app/blog?page=2"}
//	{"type":"navigate","path":"/app/about","replace":false}
//	{"type":"popstate","path":"/app/blog"}
//	{"type":"back"}
//	{"type":"forward"}
//
// Server to host:
//
//	{"type":"ready","id":"..."}
//	{"type":"push","path":"/app/about"}
//	{"type":"replace","path":"/app/blog"}
//	{"type":"back"}
//	{"type":"forward"}
//	{"type":"external","url":"https://example.com"}
//	{"type":"state","state":{...}}
//	{"type":"error","error":"..."}
//
// Paths exchanged with the host carry the configured prefix; the route tree
// never sees it.
package server
