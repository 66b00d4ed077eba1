package domain

import (
	"errors"
	"fmt"
)

// ErrConfiguration is returned when a block parameter is missing or malformed.
var ErrConfiguration = errors.New("configuration error")

// ErrConnection is returned when the external source refuses the connection or a registration.
var ErrConnection = errors.New("connection error")

// ErrSignalResolution is returned when an output signal handle cannot be resolved during a step.
var ErrSignalResolution = errors.New("signal resolution error")

// ErrNoPendingRecord is returned by a connection when its dispatch queue is empty.
var ErrNoPendingRecord = errors.New("no pending record")

// ErrInvalidTransition is returned when a lifecycle call is not valid in the current phase.
var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// ErrNotConnected is returned when a step is requested on a block that is not connected.
var ErrNotConnected = errors.New("block not connected")

// ParameterError represents a single parameter failure.
type ParameterError struct {
	Name   string // Parameter name
	Reason string // Human-readable reason for failure
	Value  any    // The value that failed, if any
}

func (e *ParameterError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("parameter %q: %s", e.Name, e.Reason)
	}
	return fmt.Sprintf("parameter %q: %s (got %T)", e.Name, e.Reason, e.Value)
}

func (e *ParameterError) Unwrap() error { return ErrConfiguration }

// RegistrationError reports a failed sub-registration against the external source.
type RegistrationError struct {
	Op      string // "map", "group" or "priority"
	EventID EventID
	Name    string
	Err     error
}

func (e *RegistrationError) Error() string {
	if e.Op == "priority" {
		return fmt.Sprintf("set group priority: %v", e.Err)
	}
	return fmt.Sprintf("%s event %d (%s): %v", e.Op, e.EventID, e.Name, e.Err)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// Is makes every registration failure match ErrConnection.
func (e *RegistrationError) Is(target error) bool { return target == ErrConnection }

// SignalError reports an output channel that could not be resolved.
type SignalError struct {
	Index int
}

func (e *SignalError) Error() string {
	return fmt.Sprintf("output signal %d not valid", e.Index)
}

func (e *SignalError) Unwrap() error { return ErrSignalResolution }
