package protocol

import (
	"errors"
	"io"
	"testing"
)

func TestOpRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		op   Op
	}{
		{"create", NewCreateOp(1, "div")},
		{"create_empty_tag", NewCreateOp(2, "")},
		{"insert_append", NewInsertOp(3, 1, 0)},
		{"insert_anchored", NewInsertOp(4, 1, 3)},
		{"remove", NewRemoveOp(3, 1)},
		{"set_attr", NewSetAttrOp(2, "class", "active")},
		{"set_attr_empty_value", NewSetAttrOp(2, "disabled", "")},
		{"clear_attr", NewClearAttrOp(2, "class")},
		{"listen", NewListenOp(5, "click")},
		{"unlisten", NewUnlistenOp(5, "click")},
		{"large_handle", NewCreateOp(1<<40, "span")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			of := &OpsFrame{Seq: 9, Ops: []Op{tc.op}}

			decoded, err := DecodeOps(EncodeOps(of))
			if err != nil {
				t.Fatalf("DecodeOps() error = %v", err)
			}
			if decoded.Seq != 9 {
				t.Errorf("Seq = %d, want 9", decoded.Seq)
			}
			if len(decoded.Ops) != 1 {
				t.Fatalf("len(Ops) = %d, want 1", len(decoded.Ops))
			}
			if decoded.Ops[0] != tc.op {
				t.Errorf("Op = %+v, want %+v", decoded.Ops[0], tc.op)
			}
		})
	}
}

func TestOpEncodedLen(t *testing.T) {
	ops := []Op{
		NewCreateOp(1, "div"),
		NewCreateOp(1<<40, "input"),
		NewInsertOp(3, 1, 0),
		NewInsertOp(4, 1<<20, 1<<30),
		NewRemoveOp(3, 1),
		NewSetAttrOp(2, "class", "active"),
		NewSetAttrOp(2, "disabled", ""),
		NewClearAttrOp(2, "class"),
		NewListenOp(5, "click"),
		NewUnlistenOp(5, "click"),
	}

	for _, op := range ops {
		t.Run(op.Code.String(), func(t *testing.T) {
			e := NewEncoder()
			encodeOp(e, &op)
			if got := op.EncodedLen(); got != e.Len() {
				t.Errorf("EncodedLen() = %d, encoded size = %d", got, e.Len())
			}
		})
	}
}

func TestOpsFrameBatch(t *testing.T) {
	// A typical commit: create a list item, fill it in, attach it
	of := &OpsFrame{
		Seq: 3,
		Ops: []Op{
			NewCreateOp(7, "li"),
			NewSetAttrOp(7, "text", "three"),
			NewListenOp(7, "click"),
			NewInsertOp(7, 2, 0),
			NewClearAttrOp(4, "class"),
			NewRemoveOp(5, 2),
		},
	}

	decoded, err := DecodeOps(EncodeOps(of))
	if err != nil {
		t.Fatalf("DecodeOps() error = %v", err)
	}

	if decoded.Seq != of.Seq {
		t.Errorf("Seq = %d, want %d", decoded.Seq, of.Seq)
	}
	if len(decoded.Ops) != len(of.Ops) {
		t.Fatalf("len(Ops) = %d, want %d", len(decoded.Ops), len(of.Ops))
	}
	for i := range of.Ops {
		if decoded.Ops[i] != of.Ops[i] {
			t.Errorf("Ops[%d] = %+v, want %+v", i, decoded.Ops[i], of.Ops[i])
		}
	}
}

func TestOpsFrameEmpty(t *testing.T) {
	of := &OpsFrame{Seq: 12}

	decoded, err := DecodeOps(EncodeOps(of))
	if err != nil {
		t.Fatalf("DecodeOps() error = %v", err)
	}
	if decoded.Seq != 12 {
		t.Errorf("Seq = %d, want 12", decoded.Seq)
	}
	if len(decoded.Ops) != 0 {
		t.Errorf("len(Ops) = %d, want 0", len(decoded.Ops))
	}
}

func TestDecodeOpsUnknownCode(t *testing.T) {
	e := NewEncoder()
	e.WriteUvarint(1) // seq
	e.WriteUvarint(1) // count
	e.WriteByte(0x7F) // bogus op code
	e.WriteUvarint(3) // node

	_, err := DecodeOps(e.Bytes())
	if !errors.Is(err, ErrUnknownOp) {
		t.Errorf("DecodeOps() = %v, want ErrUnknownOp", err)
	}
}

func TestDecodeOpsTruncated(t *testing.T) {
	of := &OpsFrame{
		Seq: 1,
		Ops: []Op{
			NewCreateOp(1, "div"),
			NewSetAttrOp(1, "class", "box"),
		},
	}
	data := EncodeOps(of)

	// Every proper prefix must error, never panic
	for n := 0; n < len(data); n++ {
		if _, err := DecodeOps(data[:n]); err == nil {
			t.Errorf("DecodeOps(data[:%d]) = nil error, want failure", n)
		}
	}
}

func TestDecodeOpsCountBeyondBuffer(t *testing.T) {
	e := NewEncoder()
	e.WriteUvarint(1)    // seq
	e.WriteUvarint(5000) // claims 5000 ops, provides none

	_, err := DecodeOps(e.Bytes())
	if err != io.ErrUnexpectedEOF {
		t.Errorf("DecodeOps() = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestOpCodeString(t *testing.T) {
	tests := []struct {
		code OpCode
		want string
	}{
		{OpCreate, "Create"},
		{OpInsert, "Insert"},
		{OpRemove, "Remove"},
		{OpSetAttr, "SetAttr"},
		{OpClearAttr, "ClearAttr"},
		{OpListen, "Listen"},
		{OpUnlisten, "Unlisten"},
		{OpCode(0xEE), "Unknown"},
	}

	for _, tc := range tests {
		if got := tc.code.String(); got != tc.want {
			t.Errorf("OpCode(%d).String() = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestOpsFrameInsideFrame(t *testing.T) {
	of := &OpsFrame{
		Seq: 1,
		Ops: []Op{
			NewCreateOp(2, "ul"),
			NewInsertOp(2, 1, 0),
		},
	}

	frame := NewFrameWithFlags(FrameOps, FlagReset, EncodeOps(of))
	data, err := frame.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	decodedFrame, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame() error = %v", err)
	}
	if decodedFrame.Type != FrameOps {
		t.Errorf("Type = %v, want FrameOps", decodedFrame.Type)
	}
	if !decodedFrame.Flags.Has(FlagReset) {
		t.Error("FlagReset lost in transit")
	}

	decoded, err := DecodeOps(decodedFrame.Payload)
	if err != nil {
		t.Fatalf("DecodeOps() error = %v", err)
	}
	if len(decoded.Ops) != 2 || decoded.Ops[0].Tag != "ul" {
		t.Errorf("ops did not survive framing: %+v", decoded.Ops)
	}
}

func BenchmarkEncodeOps(b *testing.B) {
	of := &OpsFrame{
		Seq: 1,
		Ops: []Op{
			NewCreateOp(7, "li"),
			NewSetAttrOp(7, "text", "item"),
			NewListenOp(7, "click"),
			NewInsertOp(7, 2, 0),
		},
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = EncodeOps(of)
	}
}

func BenchmarkDecodeOps(b *testing.B) {
	of := &OpsFrame{
		Seq: 1,
		Ops: []Op{
			NewCreateOp(7, "li"),
			NewSetAttrOp(7, "text", "item"),
			NewListenOp(7, "click"),
			NewInsertOp(7, 2, 0),
		},
	}
	data := EncodeOps(of)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = DecodeOps(data)
	}
}

func BenchmarkDecodeOpsLargeBatch(b *testing.B) {
	of := &OpsFrame{Seq: 1}
	for i := uint64(0); i < 100; i++ {
		of.Ops = append(of.Ops,
			NewCreateOp(i+2, "li"),
			NewSetAttrOp(i+2, "text", "item"),
			NewInsertOp(i+2, 1, 0),
		)
	}
	data := EncodeOps(of)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = DecodeOps(data)
	}
}
