package xerrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestHasCodeMatchesConstructedError(t *testing.T) {
	err := InvalidStateTransition("Key", "Revoked", "Active")
	if !HasCode(err, CodeInvalidStateTransition) {
		t.Fatal("expected HasCode to match")
	}
	if HasCode(err, CodeAggregateNotFound) {
		t.Fatal("expected HasCode not to match a different code")
	}
}

func TestHasCodeUnwrapsWrappedError(t *testing.T) {
	base := InvalidStateTransition("Key", "Revoked", "Active")
	wrapped := fmt.Errorf("handling command: %w", base)
	if !HasCode(wrapped, CodeInvalidStateTransition) {
		t.Fatal("expected HasCode to see through fmt.Errorf wrapping")
	}
}

func TestCryptoFailureWrapsUnderlyingError(t *testing.T) {
	cause := errors.New("boom")
	err := CryptoFailure("sign", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to find the wrapped cause")
	}
}

func TestWithDetailAttachesDiagnostics(t *testing.T) {
	err := AggregateNotFound("Certificate", "abc").WithDetail("extra", 42)
	if err.Details["aggregate_type"] != "Certificate" {
		t.Fatalf("expected aggregate_type detail, got %v", err.Details)
	}
	if err.Details["extra"] != 42 {
		t.Fatalf("expected extra detail, got %v", err.Details)
	}
}
