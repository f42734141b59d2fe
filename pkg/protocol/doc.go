// Package protocol implements the binary wire protocol between a weft
// server and its thin client.
//
// The protocol carries renderer operations from server to client and user
// events from client to server over a WebSocket connection. It is optimized
// for minimal bandwidth and allocation-safe decoding of untrusted input.
//
// # Wire Format
//
// All messages are framed with a 4-byte header:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (2 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// # Frame Types
//
//   - FrameHello (0x00): Client → Server connection setup
//   - FrameWelcome (0x01): Server → Client handshake reply
//   - FrameOps (0x02): Server → Client renderer operations
//   - FrameEvent (0x03): Client → Server user events
//   - FrameControl (0x04): Control messages (ping, resync, close)
//   - FrameError (0x05): Error report, either direction
//
// # Encoding
//
// The protocol uses several encoding strategies:
//
//   - Varint: Compact encoding for handles, sequence numbers, and counts
//   - ZigZag: Signed integers encoded as unsigned varints
//   - Length-prefixed: Strings and byte arrays prefixed with varint length
//   - Big-endian: Fixed-width integers (uint16, uint32, uint64)
//
// Decoding never trusts a length prefix: strings are capped at MaxStringLen
// and collection counts at MaxCollectionCount, so a hostile peer cannot
// force a large allocation. Every malformed input yields an error, never a
// panic.
//
// # Renderer Operations
//
// Each commit on the server produces one batch of operations, sent as a
// FrameOps payload with a sequence number. Nodes are identified by uint64
// handles allocated by the server; handle 0 is reserved and marks the
// absent anchor on insert.
//
//   - OpCreate (0x01): Create a node with a tag
//   - OpInsert (0x02): Attach a node under a parent, before an anchor
//   - OpRemove (0x03): Detach a node from its parent
//   - OpSetAttr (0x04): Set an attribute
//   - OpClearAttr (0x05): Remove an attribute
//   - OpListen (0x06): Subscribe a node to an event
//   - OpUnlisten (0x07): Unsubscribe a node from an event
//
// # Events
//
// Events flow from client to server when the user interacts with a node
// that holds a listener. Each event carries a client sequence number, the
// node handle, the event name, and an optional string payload such as the
// current value of an input control.
//
// Example click event encoding:
//
//	[Seq: varint][Node: varint][Name: len-prefixed][Value: len-prefixed]
//	Total: ~10 bytes for a click on handle 42
//
// # Handshake
//
// Connection establishment uses ClientHello and ServerHello messages:
//
//	Client                          Server
//	  │                                │
//	  │──── ClientHello ─────────────>│
//	  │     (version, session, seq)   │
//	  │                                │
//	  │<──── ServerHello ─────────────│
//	  │     (status, session, seq)    │
//	  │                                │
//
// A client that reconnects presents its previous session ID and the last
// ops sequence it applied. The server either replays the missed batches
// (FrameOps with FlagReplay) or, when history no longer covers the gap,
// rebuilds the tree from scratch (FrameOps with FlagReset).
//
// # Control Messages
//
//   - Ping/Pong: Heartbeat for connection health
//   - ResyncRequest: Client asks for ops it missed after a reconnect
//   - Close: Graceful session termination with a reason
//
// # Usage Example
//
//	// Encode a batch of operations
//	of := &OpsFrame{
//	    Seq: 7,
//	    Ops: []Op{
//	        NewCreateOp(3, "li"),
//	        NewSetAttrOp(3, "text", "three"),
//	        NewInsertOp(3, 1, 0),
//	    },
//	}
//	frame := NewFrame(FrameOps, EncodeOps(of))
//	data, err := frame.Encode()
//
//	// Decode an event
//	ev, err := DecodeEvent(payload)
//	if err != nil {
//	    // Handle error
//	}
package protocol
