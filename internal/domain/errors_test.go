package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidationError_NamesField(t *testing.T) {
	err := &ValidationError{Field: "scale", Reason: "must be between 0.1 and 2"}
	if !strings.Contains(err.Error(), "scale") {
		t.Fatalf("expected field name in message, got %q", err.Error())
	}
}

func TestAcquisitionError_WrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := &AcquisitionError{Err: cause}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be unwrappable")
	}
	if !strings.Contains(err.Error(), "engine-unavailable") {
		t.Fatalf("expected engine-unavailable in message, got %q", err.Error())
	}
}

func TestRenderError_KindAndUnwrap(t *testing.T) {
	cause := errors.New("target closed")
	tests := []struct {
		kind RenderErrorKind
		want string
	}{
		{KindEngineFailure, "engine-failure"},
		{KindTimeout, "timeout"},
	}
	for _, tc := range tests {
		err := &RenderError{Kind: tc.kind, Err: cause}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("expected %q in message, got %q", tc.want, err.Error())
		}
		if !errors.Is(err, cause) {
			t.Fatalf("expected cause to be unwrappable")
		}
	}
	bare := &RenderError{Kind: KindTimeout}
	if bare.Error() != "timeout" {
		t.Fatalf("expected bare kind message, got %q", bare.Error())
	}
}
