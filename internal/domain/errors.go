package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is returned before any remote call when the session
	// carries no usable credential.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrInvalidTransition matches every *InvalidTransitionError via errors.Is.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrMutationInFlight is returned when a view already has a write outstanding
	// for the same resource.
	ErrMutationInFlight = errors.New("mutation already in flight")
)

type InvalidTransitionError struct {
	From   BookingStatus
	To     BookingStatus
	Reason string
	// Remote is set when the remote service rejected a transition the client
	// considered legal.
	Remote bool
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("cannot change booking status from %s to %s", e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// RemoteRejectedError is a structured error payload returned by the remote
// service. Message is kept verbatim.
type RemoteRejectedError struct {
	Operation      string
	Message        string
	Classification string
}

func (e *RemoteRejectedError) Error() string {
	if e.Classification == "" {
		return fmt.Sprintf("%s rejected: %s", e.Operation, e.Message)
	}
	return fmt.Sprintf("%s rejected (%s): %s", e.Operation, e.Classification, e.Message)
}

func (e *RemoteRejectedError) NotFound() bool {
	return e.Classification == "NOT_FOUND"
}

// TransportError wraps network and infrastructure failures. The caller decides
// whether to retry.
type TransportError struct {
	Operation string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %v", e.Operation, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Retryable() bool { return true }
