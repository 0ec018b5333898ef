package quaddle

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorKindMatching(t *testing.T) {
	err := NewError(KindAuth, "invalid credentials")
	if !IsAuth(err) {
		t.Fatalf("IsAuth = false")
	}
	if IsTransport(err) || IsProtocol(err) || IsValidation(err) || IsClosed(err) {
		t.Fatalf("kind predicates overlap")
	}
	if !errors.Is(err, NewError(KindAuth, "different message")) {
		t.Fatalf("errors.Is should match by kind")
	}
	if errors.Is(err, NewError(KindTransport, "invalid credentials")) {
		t.Fatalf("errors.Is matched across kinds")
	}
}

func TestErrorWrapping(t *testing.T) {
	cause := context.Canceled
	err := WrapError(KindTransport, "reconnect wait canceled", cause)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("wrapped cause not reachable")
	}
	if !IsTransport(err) {
		t.Fatalf("IsTransport = false")
	}

	// Predicates see through foreign wrapping too.
	outer := fmt.Errorf("while connecting: %w", err)
	if !IsTransport(outer) {
		t.Fatalf("IsTransport through fmt wrap = false")
	}
}

func TestErrorMessage(t *testing.T) {
	err := NewError(KindValidation, "empty message content")
	if got := err.Error(); got != "validation: empty message content" {
		t.Fatalf("Error() = %q", got)
	}
}
