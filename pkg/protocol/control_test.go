package protocol

import (
	"errors"
	"testing"
)

func TestControlPingPong(t *testing.T) {
	ct, payload := NewPing(1702000000000)
	data := EncodeControl(ct, payload)

	gotType, gotPayload, err := DecodeControl(data)
	if err != nil {
		t.Fatalf("DecodeControl() error = %v", err)
	}
	if gotType != ControlPing {
		t.Errorf("type = %v, want ControlPing", gotType)
	}
	pp, ok := gotPayload.(*PingPong)
	if !ok {
		t.Fatalf("payload type = %T, want *PingPong", gotPayload)
	}
	if pp.Timestamp != 1702000000000 {
		t.Errorf("Timestamp = %d, want 1702000000000", pp.Timestamp)
	}

	// Pong mirrors the timestamp back
	ct, pong := NewPong(pp.Timestamp)
	gotType, gotPayload, err = DecodeControl(EncodeControl(ct, pong))
	if err != nil {
		t.Fatalf("DecodeControl(pong) error = %v", err)
	}
	if gotType != ControlPong {
		t.Errorf("type = %v, want ControlPong", gotType)
	}
	if gotPayload.(*PingPong).Timestamp != pp.Timestamp {
		t.Error("pong timestamp mismatch")
	}
}

func TestControlResyncRequest(t *testing.T) {
	ct, payload := NewResyncRequest(37)

	gotType, gotPayload, err := DecodeControl(EncodeControl(ct, payload))
	if err != nil {
		t.Fatalf("DecodeControl() error = %v", err)
	}
	if gotType != ControlResyncRequest {
		t.Errorf("type = %v, want ControlResyncRequest", gotType)
	}
	rr, ok := gotPayload.(*ResyncRequest)
	if !ok {
		t.Fatalf("payload type = %T, want *ResyncRequest", gotPayload)
	}
	if rr.LastSeq != 37 {
		t.Errorf("LastSeq = %d, want 37", rr.LastSeq)
	}
}

func TestControlClose(t *testing.T) {
	tests := []struct {
		name    string
		reason  CloseReason
		message string
	}{
		{"normal", CloseNormal, ""},
		{"shutdown", CloseServerShutdown, "server restarting"},
		{"expired", CloseSessionExpired, "idle too long"},
		{"error", CloseError, "render failed"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ct, payload := NewClose(tc.reason, tc.message)

			gotType, gotPayload, err := DecodeControl(EncodeControl(ct, payload))
			if err != nil {
				t.Fatalf("DecodeControl() error = %v", err)
			}
			if gotType != ControlClose {
				t.Errorf("type = %v, want ControlClose", gotType)
			}
			cm, ok := gotPayload.(*CloseMessage)
			if !ok {
				t.Fatalf("payload type = %T, want *CloseMessage", gotPayload)
			}
			if cm.Reason != tc.reason {
				t.Errorf("Reason = %v, want %v", cm.Reason, tc.reason)
			}
			if cm.Message != tc.message {
				t.Errorf("Message = %q, want %q", cm.Message, tc.message)
			}
		})
	}
}

func TestControlNilPayloads(t *testing.T) {
	// Encoding with a nil payload falls back to zero values instead of panicking
	for _, ct := range []ControlType{ControlPing, ControlPong, ControlResyncRequest, ControlClose} {
		data := EncodeControl(ct, nil)
		gotType, _, err := DecodeControl(data)
		if err != nil {
			t.Errorf("DecodeControl(%v with nil payload) error = %v", ct, err)
		}
		if gotType != ct {
			t.Errorf("type = %v, want %v", gotType, ct)
		}
	}
}

func TestDecodeControlUnknown(t *testing.T) {
	_, _, err := DecodeControl([]byte{0x77})
	if !errors.Is(err, ErrUnknownControl) {
		t.Errorf("DecodeControl(unknown) = %v, want ErrUnknownControl", err)
	}
}

func TestControlTypeString(t *testing.T) {
	tests := []struct {
		ct   ControlType
		want string
	}{
		{ControlPing, "Ping"},
		{ControlPong, "Pong"},
		{ControlResyncRequest, "ResyncRequest"},
		{ControlClose, "Close"},
		{ControlType(0xEE), "Unknown"},
	}

	for _, tc := range tests {
		if got := tc.ct.String(); got != tc.want {
			t.Errorf("ControlType(%d).String() = %q, want %q", tc.ct, got, tc.want)
		}
	}
}

func TestCloseReasonString(t *testing.T) {
	tests := []struct {
		cr   CloseReason
		want string
	}{
		{CloseNormal, "Normal"},
		{CloseGoingAway, "GoingAway"},
		{CloseSessionExpired, "SessionExpired"},
		{CloseServerShutdown, "ServerShutdown"},
		{CloseError, "Error"},
		{CloseReason(0x99), "Unknown"},
	}

	for _, tc := range tests {
		if got := tc.cr.String(); got != tc.want {
			t.Errorf("CloseReason(%d).String() = %q, want %q", tc.cr, got, tc.want)
		}
	}
}
