// Package server hosts weft trees over websockets.
//
// Each connected client gets a Session: an engine instance, a remote
// renderer that mirrors the client's tree, and a history ring of the ops
// frames already sent. The session runs a single goroutine that owns the
// engine; engine slices, client events, and internal tasks all arrive
// through that loop, which is what lets the engine stay lock-free.
//
// Sessions outlive their sockets. When a connection drops the session
// detaches and keeps committing; a client that reconnects within the
// resume window presents its session ID and last applied sequence, and
// the server replays the frames it missed. If the history ring no longer
// covers the gap the server rebuilds the client tree from the renderer's
// mirror under FlagReset.
//
// The HTTP surface is a chi router: the demo index page, the embedded
// thin client at /client.js, the websocket endpoint at /live, a health
// probe, and Prometheus metrics.
package server
