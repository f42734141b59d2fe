package protocol

import (
	"errors"
	"fmt"
)

// OpCode is the type of renderer operation.
type OpCode uint8

// Renderer operation codes. The server emits these during commit; the thin
// client applies them to the live DOM in order.
const (
	OpCreate    OpCode = 0x01 // Create a node with a tag
	OpInsert    OpCode = 0x02 // Attach a node under a parent
	OpRemove    OpCode = 0x03 // Detach a node from its parent
	OpSetAttr   OpCode = 0x04 // Set an attribute
	OpClearAttr OpCode = 0x05 // Remove an attribute
	OpListen    OpCode = 0x06 // Subscribe a node to an event
	OpUnlisten  OpCode = 0x07 // Unsubscribe a node from an event
)

// String returns the string representation of the op code.
func (oc OpCode) String() string {
	switch oc {
	case OpCreate:
		return "Create"
	case OpInsert:
		return "Insert"
	case OpRemove:
		return "Remove"
	case OpSetAttr:
		return "SetAttr"
	case OpClearAttr:
		return "ClearAttr"
	case OpListen:
		return "Listen"
	case OpUnlisten:
		return "Unlisten"
	default:
		return "Unknown"
	}
}

// ErrUnknownOp is returned when decoding an unrecognized op code. Ops have
// no self-describing length, so an unknown code cannot be skipped; the
// whole batch is rejected.
var ErrUnknownOp = errors.New("protocol: unknown op code")

// Op represents a single renderer operation.
//
// Nodes are identified by uint64 handles allocated by the server. Handle 0
// is never a valid node; it marks the absent anchor on OpInsert, meaning
// append at the end of the parent's children.
type Op struct {
	Code   OpCode
	Node   uint64 // target node handle
	Parent uint64 // Insert, Remove
	Anchor uint64 // Insert; 0 appends
	Tag    string // Create
	Key    string // SetAttr, ClearAttr
	Value  string // SetAttr
	Event  string // Listen, Unlisten
}

// OpsFrame represents a batch of renderer operations with a sequence
// number. One commit produces one batch; the client applies batches in
// sequence order and reports the last applied sequence when resuming.
type OpsFrame struct {
	Seq uint64
	Ops []Op
}

// EncodeOps encodes an ops frame to bytes.
func EncodeOps(of *OpsFrame) []byte {
	e := NewEncoder()
	EncodeOpsTo(e, of)
	return e.Bytes()
}

// EncodeOpsTo encodes an ops frame using the provided encoder.
func EncodeOpsTo(e *Encoder, of *OpsFrame) {
	e.WriteUvarint(of.Seq)
	e.WriteUvarint(uint64(len(of.Ops)))

	for i := range of.Ops {
		encodeOp(e, &of.Ops[i])
	}
}

// encodeOp encodes a single operation.
func encodeOp(e *Encoder, op *Op) {
	e.WriteByte(byte(op.Code))
	e.WriteUvarint(op.Node)

	switch op.Code {
	case OpCreate:
		e.WriteString(op.Tag)

	case OpInsert:
		e.WriteUvarint(op.Parent)
		e.WriteUvarint(op.Anchor)

	case OpRemove:
		e.WriteUvarint(op.Parent)

	case OpSetAttr:
		e.WriteString(op.Key)
		e.WriteString(op.Value)

	case OpClearAttr:
		e.WriteString(op.Key)

	case OpListen, OpUnlisten:
		e.WriteString(op.Event)
	}
}

// EncodedLen returns the exact number of bytes the op occupies inside an
// encoded batch. Senders use it to split large commits across frames
// without encoding twice.
func (op Op) EncodedLen() int {
	n := 1 + UvarintLen(op.Node)

	switch op.Code {
	case OpCreate:
		n += UvarintLen(uint64(len(op.Tag))) + len(op.Tag)

	case OpInsert:
		n += UvarintLen(op.Parent) + UvarintLen(op.Anchor)

	case OpRemove:
		n += UvarintLen(op.Parent)

	case OpSetAttr:
		n += UvarintLen(uint64(len(op.Key))) + len(op.Key)
		n += UvarintLen(uint64(len(op.Value))) + len(op.Value)

	case OpClearAttr:
		n += UvarintLen(uint64(len(op.Key))) + len(op.Key)

	case OpListen, OpUnlisten:
		n += UvarintLen(uint64(len(op.Event))) + len(op.Event)
	}

	return n
}

// DecodeOps decodes an ops frame from bytes.
func DecodeOps(data []byte) (*OpsFrame, error) {
	d := NewDecoder(data)
	return DecodeOpsFrom(d)
}

// DecodeOpsFrom decodes an ops frame from a decoder.
func DecodeOpsFrom(d *Decoder) (*OpsFrame, error) {
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}

	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}

	ops := make([]Op, count)
	for i := 0; i < count; i++ {
		if err := decodeOp(d, &ops[i]); err != nil {
			return nil, err
		}
	}

	return &OpsFrame{
		Seq: seq,
		Ops: ops,
	}, nil
}

// decodeOp decodes a single operation.
func decodeOp(d *Decoder, op *Op) error {
	codeByte, err := d.ReadByte()
	if err != nil {
		return err
	}
	op.Code = OpCode(codeByte)

	op.Node, err = d.ReadUvarint()
	if err != nil {
		return err
	}

	switch op.Code {
	case OpCreate:
		op.Tag, err = d.ReadString()

	case OpInsert:
		op.Parent, err = d.ReadUvarint()
		if err != nil {
			return err
		}
		op.Anchor, err = d.ReadUvarint()

	case OpRemove:
		op.Parent, err = d.ReadUvarint()

	case OpSetAttr:
		op.Key, err = d.ReadString()
		if err != nil {
			return err
		}
		op.Value, err = d.ReadString()

	case OpClearAttr:
		op.Key, err = d.ReadString()

	case OpListen, OpUnlisten:
		op.Event, err = d.ReadString()

	default:
		return fmt.Errorf("%w: 0x%02x", ErrUnknownOp, codeByte)
	}

	return err
}

// NewCreateOp creates a Create operation.
func NewCreateOp(node uint64, tag string) Op {
	return Op{Code: OpCreate, Node: node, Tag: tag}
}

// NewInsertOp creates an Insert operation. Anchor 0 appends the node at
// the end of the parent's children.
func NewInsertOp(node, parent, anchor uint64) Op {
	return Op{Code: OpInsert, Node: node, Parent: parent, Anchor: anchor}
}

// NewRemoveOp creates a Remove operation.
func NewRemoveOp(node, parent uint64) Op {
	return Op{Code: OpRemove, Node: node, Parent: parent}
}

// NewSetAttrOp creates a SetAttr operation.
func NewSetAttrOp(node uint64, key, value string) Op {
	return Op{Code: OpSetAttr, Node: node, Key: key, Value: value}
}

// NewClearAttrOp creates a ClearAttr operation.
func NewClearAttrOp(node uint64, key string) Op {
	return Op{Code: OpClearAttr, Node: node, Key: key}
}

// NewListenOp creates a Listen operation.
func NewListenOp(node uint64, event string) Op {
	return Op{Code: OpListen, Node: node, Event: event}
}

// NewUnlistenOp creates an Unlisten operation.
func NewUnlistenOp(node uint64, event string) Op {
	return Op{Code: OpUnlisten, Node: node, Event: event}
}
