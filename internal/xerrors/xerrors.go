// Package xerrors provides the typed error taxonomy shared by the aggregate,
// the signing engines and the projection writer. Every recoverable failure in
// the core surfaces one of these kinds rather than an ad-hoc error string, so
// callers can branch on Code without parsing messages.
package xerrors

import (
	"errors"
	"fmt"
)

// Code identifies a class of domain failure.
type Code string

const (
	CodeInvalidStateTransition Code = "INVALID_STATE_TRANSITION"
	CodeAggregateNotFound      Code = "AGGREGATE_NOT_FOUND"
	CodeInvariantViolated      Code = "INVARIANT_VIOLATED"
	CodeAccountabilityViolation Code = "ACCOUNTABILITY_VIOLATION"
	CodeCryptoFailure          Code = "CRYPTO_FAILURE"
	CodeHardwareError          Code = "HARDWARE_ERROR"
	CodeAttestationFailed      Code = "ATTESTATION_FAILED"
	CodeIoFailure              Code = "IO_FAILURE"
	CodeIntegrityFailure       Code = "INTEGRITY_FAILURE"
)

// DomainError is a structured, typed error carrying a code, a human message,
// optional details for diagnostics, and the underlying cause if any.
type DomainError struct {
	Code    Code
	Message string
	Details map[string]any
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithDetail attaches a diagnostic key/value pair and returns the receiver.
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Is reports whether target carries the same Code, satisfying errors.Is.
func (e *DomainError) Is(target error) bool {
	other, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

func new_(code Code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

func wrap(code Code, message string, err error) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

// InvalidStateTransition reports an illegal aggregate state transition.
func InvalidStateTransition(aggregateType, from, to string) *DomainError {
	return new_(CodeInvalidStateTransition, fmt.Sprintf("%s cannot transition from %s to %s", aggregateType, from, to)).
		WithDetail("aggregate_type", aggregateType).
		WithDetail("from", from).
		WithDetail("to", to)
}

// AggregateNotFound reports a reference to a nonexistent entity.
func AggregateNotFound(aggregateType, id string) *DomainError {
	return new_(CodeAggregateNotFound, fmt.Sprintf("%s %s not found", aggregateType, id)).
		WithDetail("aggregate_type", aggregateType).
		WithDetail("id", id)
}

// InvariantViolated reports that a domain invariant would be broken.
func InvariantViolated(message string) *DomainError {
	return new_(CodeInvariantViolated, message)
}

// AccountabilityViolation reports an automated identity lacking a responsible person.
func AccountabilityViolation(entityType, id string) *DomainError {
	return new_(CodeAccountabilityViolation, fmt.Sprintf("%s %s has no responsible person", entityType, id)).
		WithDetail("entity_type", entityType).
		WithDetail("id", id)
}

// CryptoFailure reports a signing, verification or keygen failure at the primitive layer.
func CryptoFailure(operation string, err error) *DomainError {
	return wrap(CodeCryptoFailure, fmt.Sprintf("cryptographic operation %q failed", operation), err).
		WithDetail("operation", operation)
}

// HardwareError reports a smartcard I/O failure. Retryable unless noted otherwise by the caller.
func HardwareError(operation string, err error) *DomainError {
	return wrap(CodeHardwareError, fmt.Sprintf("smartcard operation %q failed", operation), err).
		WithDetail("operation", operation)
}

// AttestationFailed reports that a smartcard-produced key could not be proven on-device.
// Non-retryable: the slot remains un-provisioned.
func AttestationFailed(reason string) *DomainError {
	return new_(CodeAttestationFailed, fmt.Sprintf("attestation failed: %s", reason))
}

// IoFailure reports a filesystem write failure. Fatal to the command in flight.
func IoFailure(path string, err error) *DomainError {
	return wrap(CodeIoFailure, fmt.Sprintf("filesystem write to %q failed", path), err).
		WithDetail("path", path)
}

// IntegrityFailure reports a content-ID mismatch on load; the projection must be treated as corrupt.
func IntegrityFailure(want, got string) *DomainError {
	return new_(CodeIntegrityFailure, "content ID mismatch on load").
		WithDetail("want", want).
		WithDetail("got", got)
}

// HasCode reports whether err carries the given code, unwrapping as needed.
func HasCode(err error, code Code) bool {
	var de *DomainError
	if !errors.As(err, &de) {
		return false
	}
	return de.Code == code
}
