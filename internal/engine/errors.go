package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind is the normalized classification of a remote failure.
type ErrorKind string

// Error kinds reported in Failed results.
const (
	KindAccessDenied         ErrorKind = "AccessDenied"
	KindAlreadyExists        ErrorKind = "AlreadyExists"
	KindResourceConflict     ErrorKind = "ResourceConflict"
	KindNotFound             ErrorKind = "NotFound"
	KindInvalidRequest       ErrorKind = "InvalidRequest"
	KindServiceLimitExceeded ErrorKind = "ServiceLimitExceeded"
	KindThrottled            ErrorKind = "Throttled"
	KindInternalFailure      ErrorKind = "InternalFailure"
	KindNotStabilized        ErrorKind = "NotStabilized"
	KindUnknown              ErrorKind = "Unknown"
)

// IsInternalFailure reports whether the kind belongs to the internal-failure
// class, which covers unrecognized errors.
func (k ErrorKind) IsInternalFailure() bool {
	return k == KindInternalFailure || k == KindUnknown
}

// HandlerError is a classified remote failure. It carries enough context to
// render a message naming the resource and the operation that failed.
type HandlerError struct {
	// Kind is the classification of the failure.
	Kind ErrorKind
	// ResourceType is the type name of the resource (e.g. "AWS::DataZone::Domain").
	ResourceType string
	// Identity names the resource instance, if it is known.
	Identity string
	// Operation is the verb that failed.
	Operation Operation
	// Code is the raw remote error code, if the failure came from the API.
	Code string
	// Message is the primary error description.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Operation, e.ResourceType)
	if e.Identity != "" {
		fmt.Fprintf(&b, " %q", e.Identity)
	}
	fmt.Fprintf(&b, " failed [%s]", e.Kind)
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	return b.String()
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *HandlerError) Unwrap() error {
	return e.Cause
}

// AsHandlerError returns the HandlerError if err is (or wraps) one.
func AsHandlerError(err error) *HandlerError {
	var he *HandlerError
	if errors.As(err, &he) {
		return he
	}
	return nil
}

// ErrUnknownStatus is the sentinel wrapped by UnknownStatusError.
var ErrUnknownStatus = errors.New("remote status outside every declared status set")

// UnknownStatusError is returned when a read observes a status that none of
// the configured sets declare. It is a defect signal (configuration and remote
// API disagree) and is never retried or turned into a Failed result.
type UnknownStatusError struct {
	ResourceType string
	Identity     string
	Operation    Operation
	Status       string
}

// Error implements the error interface.
func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("%s %s %q: status %q: %v",
		e.Operation, e.ResourceType, e.Identity, e.Status, ErrUnknownStatus)
}

// Unwrap returns ErrUnknownStatus.
func (e *UnknownStatusError) Unwrap() error {
	return ErrUnknownStatus
}

// IsFatal reports whether err is a defect that the host must not retry.
func IsFatal(err error) bool {
	return errors.Is(err, ErrUnknownStatus) || errors.Is(err, ErrNoResumePoint)
}
