package protocol

import (
	"testing"
)

func TestErrorMessageRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		em   ErrorMessage
	}{
		{"non_fatal", ErrorMessage{Code: CodeBadEvent, Message: "unreadable event"}},
		{"fatal", ErrorMessage{Code: CodeServerError, Message: "boom", Fatal: true}},
		{"empty_message", ErrorMessage{Code: CodeUnknownNode}},
		{"session_expired", ErrorMessage{Code: CodeSessionExpired, Message: "gone", Fatal: true}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decoded, err := DecodeErrorMessage(EncodeErrorMessage(&tc.em))
			if err != nil {
				t.Fatalf("DecodeErrorMessage() error = %v", err)
			}
			if *decoded != tc.em {
				t.Errorf("DecodeErrorMessage() = %+v, want %+v", *decoded, tc.em)
			}
		})
	}
}

func TestErrorMessageConstructors(t *testing.T) {
	em := NewError(CodeBadFrame, "short header")
	if em.Fatal {
		t.Error("NewError should not be fatal")
	}
	if em.IsFatal() {
		t.Error("IsFatal() = true for non-fatal error")
	}

	fe := NewFatalError(CodeServerError, "render failed")
	if !fe.Fatal || !fe.IsFatal() {
		t.Error("NewFatalError should be fatal")
	}
}

func TestErrorMessageErrorString(t *testing.T) {
	em := NewError(CodeBadEvent, "bad payload")
	if got := em.Error(); got != "BadEvent: bad payload" {
		t.Errorf("Error() = %q", got)
	}

	fe := NewFatalError(CodeServerError, "boom")
	if got := fe.Error(); got != "fatal: ServerError: boom" {
		t.Errorf("Error() = %q", got)
	}
}

func TestErrorCodeString(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{CodeUnknown, "Unknown"},
		{CodeBadFrame, "BadFrame"},
		{CodeBadEvent, "BadEvent"},
		{CodeUnknownNode, "UnknownNode"},
		{CodeSessionExpired, "SessionExpired"},
		{CodeServerError, "ServerError"},
		{ErrorCode(0xEEEE), "Unknown"},
	}

	for _, tc := range tests {
		if got := tc.code.String(); got != tc.want {
			t.Errorf("ErrorCode(%d).String() = %q, want %q", tc.code, got, tc.want)
		}
	}
}
