package supervisor

import (
	"errors"
	"fmt"
)

// Sentinel errors for the four failure kinds. Match with errors.Is.
var (
	ErrLinkFailure        = errors.New("link failure")
	ErrSessionFailure     = errors.New("session failure")
	ErrMeasurementFailure = errors.New("measurement failure")
	ErrDiscoveryFailure   = errors.New("discovery failure")
)

// FailureKind classifies a cycle failure.
type FailureKind int

// Failure kinds.
const (
	FailureNone FailureKind = iota
	FailureLink
	FailureSession
	FailureMeasurement
	FailureDiscovery
)

// String returns the snake_case name used in logs and the journal.
func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "ok"
	case FailureLink:
		return "link_failure"
	case FailureSession:
		return "session_failure"
	case FailureMeasurement:
		return "measurement_failure"
	case FailureDiscovery:
		return "discovery_failure"
	default:
		return fmt.Sprintf("failure(%d)", int(k))
	}
}

// Escalates reports whether the kind aborts the cycle.
func (k FailureKind) Escalates() bool {
	return k == FailureLink || k == FailureSession
}

func (k FailureKind) sentinel() error {
	switch k {
	case FailureLink:
		return ErrLinkFailure
	case FailureSession:
		return ErrSessionFailure
	case FailureMeasurement:
		return ErrMeasurementFailure
	case FailureDiscovery:
		return ErrDiscoveryFailure
	default:
		return nil
	}
}

// CycleError is a classified failure raised during a cycle.
type CycleError struct {
	Kind  FailureKind
	State State
	Err   error
}

func newCycleError(kind FailureKind, state State, err error) *CycleError {
	return &CycleError{Kind: kind, State: state, Err: err}
}

// Error implements error.
func (e *CycleError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s in %s", e.Kind, e.State)
	}
	return fmt.Sprintf("%s in %s: %v", e.Kind, e.State, e.Err)
}

// Unwrap exposes both the kind's sentinel and the cause to errors.Is.
func (e *CycleError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf returns the failure kind carried by err, or FailureNone.
func KindOf(err error) FailureKind {
	var ce *CycleError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return FailureNone
}
