package clientdist

import _ "embed"

// WeftJS is the thin client JavaScript bundle.
//
// It is served by the framework at "/client.js". The client decodes ops
// frames from the live websocket, applies them to the DOM, and reports
// user events back.
//
//go:embed weft.js
var WeftJS []byte
