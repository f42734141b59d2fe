package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/weft-ui/weft/pkg/protocol"
	"github.com/weft-ui/weft/pkg/vdom"
)

func TestSplitOps(t *testing.T) {
	tests := []struct {
		name    string
		ops     []protocol.Op
		batches int
	}{
		{"empty", nil, 0},
		{"one", []protocol.Op{protocol.NewCreateOp(1, "div")}, 1},
		{"small batch", manyOps(100, 10), 1},
		{"needs split", manyOps(2000, 100), 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batches, err := splitOps(tt.ops)
			if err != nil {
				t.Fatalf("splitOps: %v", err)
			}
			if len(batches) != tt.batches {
				t.Fatalf("splitOps produced %d batches, want %d", len(batches), tt.batches)
			}
			total := 0
			for _, b := range batches {
				size := 0
				for _, op := range b {
					size += op.EncodedLen()
				}
				if size > protocol.MaxPayloadSize {
					t.Errorf("batch of %d bytes exceeds MaxPayloadSize", size)
				}
				total += len(b)
			}
			if total != len(tt.ops) {
				t.Errorf("batches hold %d ops, want %d", total, len(tt.ops))
			}
		})
	}
}

func TestSplitOpsOversizeOp(t *testing.T) {
	// An attribute value near the frame cap yields a single op no split
	// can fit; it must be rejected, not passed through to a frame whose
	// length field would wrap.
	huge := protocol.NewSetAttrOp(2, "data", strings.Repeat("x", protocol.MaxPayloadSize+100))
	ops := []protocol.Op{protocol.NewCreateOp(2, "div"), huge}

	if _, err := splitOps(ops); !errors.Is(err, ErrOpTooLarge) {
		t.Fatalf("splitOps error = %v, want ErrOpTooLarge", err)
	}
}

// manyOps builds n SetAttr ops with values of the given size.
func manyOps(n, valueLen int) []protocol.Op {
	ops := make([]protocol.Op, n)
	value := strings.Repeat("x", valueLen)
	for i := range ops {
		ops[i] = protocol.NewSetAttrOp(uint64(i+2), "data", value)
	}
	return ops
}

// counterApp is the root component used by the end-to-end tests: a button
// whose label tracks a state cell.
func counterApp(h vdom.Hooks, props vdom.Props) *vdom.VNode {
	count, setCount := h.UseState(0)
	return vdom.H(vdom.Host("button"), vdom.Props{
		"text": fmt.Sprintf("count: %d", count.(int)),
		"onClick": func() {
			setCount(func(prev any) any { return prev.(int) + 1 })
		},
	})
}

// testClient is a minimal wire client: it mirrors attrs and listeners the
// way the JavaScript thin client does.
type testClient struct {
	t       *testing.T
	conn    *websocket.Conn
	lastSeq uint64

	attrs     map[uint64]map[string]string
	listeners map[uint64]map[string]bool
}

func dialTestClient(t *testing.T, wsURL string, hello *protocol.ClientHello) *testClient {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	c := &testClient{
		t:         t,
		conn:      conn,
		lastSeq:   hello.LastSeq,
		attrs:     make(map[uint64]map[string]string),
		listeners: make(map[uint64]map[string]bool),
	}
	c.write(protocol.NewFrame(protocol.FrameHello, protocol.EncodeClientHello(hello)))
	return c
}

func (c *testClient) write(f *protocol.Frame) {
	c.t.Helper()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	data, err := f.Encode()
	if err != nil {
		c.t.Fatalf("encode %s frame: %v", f.Type, err)
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		c.t.Fatalf("write %s frame: %v", f.Type, err)
	}
}

func (c *testClient) read() *protocol.Frame {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := c.conn.ReadMessage()
	if err != nil {
		c.t.Fatalf("read: %v", err)
	}
	frame, err := protocol.DecodeFrame(msg)
	if err != nil {
		c.t.Fatalf("decode frame: %v", err)
	}
	return frame
}

// welcome reads the handshake reply.
func (c *testClient) welcome() *protocol.ServerHello {
	c.t.Helper()
	f := c.read()
	if f.Type != protocol.FrameWelcome {
		c.t.Fatalf("first frame is %s, want Welcome", f.Type)
	}
	sh, err := protocol.DecodeServerHello(f.Payload)
	if err != nil {
		c.t.Fatalf("decode ServerHello: %v", err)
	}
	return sh
}

// applyOps reads frames until an ops frame arrives and folds it into the
// mirror. Control frames (pings) are skipped.
func (c *testClient) applyOps() {
	c.t.Helper()
	for {
		f := c.read()
		if f.Type == protocol.FrameControl {
			continue
		}
		if f.Type != protocol.FrameOps {
			c.t.Fatalf("got %s frame, want Ops", f.Type)
		}
		of, err := protocol.DecodeOps(f.Payload)
		if err != nil {
			c.t.Fatalf("decode ops: %v", err)
		}
		if f.Flags.Has(protocol.FlagReset) {
			c.attrs = make(map[uint64]map[string]string)
			c.listeners = make(map[uint64]map[string]bool)
		}
		for _, op := range of.Ops {
			c.apply(op)
		}
		c.lastSeq = of.Seq
		return
	}
}

func (c *testClient) apply(op protocol.Op) {
	switch op.Code {
	case protocol.OpCreate:
		c.attrs[op.Node] = make(map[string]string)
	case protocol.OpSetAttr:
		c.attrs[op.Node][op.Key] = op.Value
	case protocol.OpClearAttr:
		delete(c.attrs[op.Node], op.Key)
	case protocol.OpListen:
		if c.listeners[op.Node] == nil {
			c.listeners[op.Node] = make(map[string]bool)
		}
		c.listeners[op.Node][op.Event] = true
	case protocol.OpUnlisten:
		delete(c.listeners[op.Node], op.Event)
	case protocol.OpRemove:
		delete(c.attrs, op.Node)
		delete(c.listeners, op.Node)
	}
}

// nodeWithListener returns a node handle holding the given listener.
func (c *testClient) nodeWithListener(event string) (uint64, bool) {
	for node, evs := range c.listeners {
		if evs[event] {
			return node, true
		}
	}
	return 0, false
}

// attrOf returns an attribute from the mirror.
func (c *testClient) attrOf(node uint64, key string) string {
	if m, ok := c.attrs[node]; ok {
		return m[key]
	}
	return ""
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	srv, err := New(Config{
		Root:   counterApp,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		// Keep pings out of the frame stream for the 5s test reads.
		PingInterval: time.Minute,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, "ws" + strings.TrimPrefix(ts.URL, "http") + "/live"
}

func TestSessionLifecycle(t *testing.T) {
	_, wsURL := newTestServer(t)

	c := dialTestClient(t, wsURL, protocol.NewClientHello())
	sh := c.welcome()
	if sh.Status != protocol.HandshakeOK {
		t.Fatalf("handshake status = %s, want OK", sh.Status)
	}
	if sh.SessionID == "" {
		t.Fatal("handshake returned empty session ID")
	}

	// The mount commit arrives as the first ops frame.
	c.applyOps()
	node, ok := c.nodeWithListener("click")
	if !ok {
		t.Fatal("no node with a click listener after mount")
	}
	if got := c.attrOf(node, "text"); got != "count: 0" {
		t.Fatalf("button text = %q, want %q", got, "count: 0")
	}

	// Click. The state write triggers a re-render; the commit's ops frame
	// updates the label.
	c.write(protocol.NewFrame(protocol.FrameEvent, protocol.EncodeEvent(&protocol.Event{
		Seq:  1,
		Node: node,
		Name: "click",
	})))
	c.applyOps()
	if got := c.attrOf(node, "text"); got != "count: 1" {
		t.Fatalf("button text after click = %q, want %q", got, "count: 1")
	}
}

func TestSessionResumeReplay(t *testing.T) {
	_, wsURL := newTestServer(t)

	c := dialTestClient(t, wsURL, protocol.NewClientHello())
	sh := c.welcome()
	c.applyOps()
	node, _ := c.nodeWithListener("click")

	// Drop the connection without closing the session.
	c.conn.Close()

	// Reconnect claiming seq 0: history covers the gap, so the mount frame
	// is replayed.
	c2 := dialTestClient(t, wsURL, protocol.NewResumeHello(sh.SessionID, 0))
	sh2 := c2.welcome()
	if sh2.Status != protocol.HandshakeOK {
		t.Fatalf("resume status = %s, want OK", sh2.Status)
	}
	if sh2.SessionID != sh.SessionID {
		t.Fatalf("resume returned session %q, want %q", sh2.SessionID, sh.SessionID)
	}

	c2.applyOps()
	if got := c2.attrOf(node, "text"); got != "count: 0" {
		t.Fatalf("replayed button text = %q, want %q", got, "count: 0")
	}
}

func TestSessionReloadRebuildsTree(t *testing.T) {
	_, wsURL := newTestServer(t)

	c := dialTestClient(t, wsURL, protocol.NewClientHello())
	sh := c.welcome()
	c.applyOps()
	node, _ := c.nodeWithListener("click")

	// Advance the state so the session holds more than the mount frame.
	c.write(protocol.NewFrame(protocol.FrameEvent, protocol.EncodeEvent(&protocol.Event{
		Seq:  1,
		Node: node,
		Name: "click",
	})))
	c.applyOps()
	c.conn.Close()

	// A reloaded page resumes the session id but holds no tree, so its
	// hello claims seq 0 regardless of what it had applied. The replay
	// must deliver every frame and leave the fresh mirror at the live
	// state, not just the frames past the old position.
	c2 := dialTestClient(t, wsURL, protocol.NewResumeHello(sh.SessionID, 0))
	if sh2 := c2.welcome(); sh2.Status != protocol.HandshakeOK {
		t.Fatalf("resume status = %s, want OK", sh2.Status)
	}
	c2.applyOps()
	c2.applyOps()

	node2, ok := c2.nodeWithListener("click")
	if !ok {
		t.Fatal("no click listener after reload replay")
	}
	if got := c2.attrOf(node2, "text"); got != "count: 1" {
		t.Fatalf("button text after reload = %q, want %q", got, "count: 1")
	}
	if c2.lastSeq != c.lastSeq {
		t.Fatalf("replayed through seq %d, want %d", c2.lastSeq, c.lastSeq)
	}
}

func TestSessionResumeCurrentClient(t *testing.T) {
	_, wsURL := newTestServer(t)

	c := dialTestClient(t, wsURL, protocol.NewClientHello())
	sh := c.welcome()
	c.applyOps()
	node, _ := c.nodeWithListener("click")
	c.conn.Close()

	// Reconnect already current: no replay, and events still work.
	c2 := dialTestClient(t, wsURL, protocol.NewResumeHello(sh.SessionID, c.lastSeq))
	c2.welcome()
	c2.attrs = c.attrs
	c2.listeners = c.listeners

	c2.write(protocol.NewFrame(protocol.FrameEvent, protocol.EncodeEvent(&protocol.Event{
		Seq:  1,
		Node: node,
		Name: "click",
	})))
	c2.applyOps()
	if got := c2.attrOf(node, "text"); got != "count: 1" {
		t.Fatalf("button text after resumed click = %q, want %q", got, "count: 1")
	}
}

func TestSessionResumeUnknownSession(t *testing.T) {
	_, wsURL := newTestServer(t)

	c := dialTestClient(t, wsURL, protocol.NewResumeHello("deadbeef", 4))
	sh := c.welcome()
	if sh.Status != protocol.HandshakeSessionExpired {
		t.Fatalf("status = %s, want SessionExpired", sh.Status)
	}
}

func TestSessionVersionMismatch(t *testing.T) {
	_, wsURL := newTestServer(t)

	hello := protocol.NewClientHello()
	hello.Version.Major = 99
	c := dialTestClient(t, wsURL, hello)
	sh := c.welcome()
	if sh.Status != protocol.HandshakeVersionMismatch {
		t.Fatalf("status = %s, want VersionMismatch", sh.Status)
	}
}

func TestSessionResyncReset(t *testing.T) {
	srv, wsURL := newTestServer(t)

	c := dialTestClient(t, wsURL, protocol.NewClientHello())
	sh := c.welcome()
	c.applyOps()

	sess, err := srv.Sessions().Get(sh.SessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	// Empty the history so the resync cannot replay.
	sess.history.Clear()

	c.write(protocol.NewFrame(protocol.FrameControl,
		protocol.EncodeControl(protocol.NewResyncRequest(0))))

	// The reset frame rebuilds the tree from the mirror.
	c.applyOps()
	node, ok := c.nodeWithListener("click")
	if !ok {
		t.Fatal("no click listener after reset")
	}
	if got := c.attrOf(node, "text"); got != "count: 0" {
		t.Fatalf("button text after reset = %q, want %q", got, "count: 0")
	}
}
