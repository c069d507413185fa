package supervisor

import (
	"time"

	"github.com/nerrad567/gray-logic-sensornode/internal/sensor"
)

// CycleReport describes how one cycle went.
type CycleReport struct {
	Cycle      uint64
	StartedAt  time.Time
	FinishedAt time.Time

	// State is the last state the cycle entered.
	State State

	// Err is the escalated failure that aborted the cycle, if any.
	Err *CycleError

	// Degraded holds absorbed discovery and measurement failures.
	Degraded []*CycleError

	LinkAddr  string
	Announced bool
	Published bool

	// Reading is set when a reading was published.
	Reading *sensor.Reading
}

// Kind returns the escalated failure kind, else the first absorbed one,
// else FailureNone.
func (r CycleReport) Kind() FailureKind {
	if r.Err != nil {
		return r.Err.Kind
	}
	if len(r.Degraded) > 0 {
		return r.Degraded[0].Kind
	}
	return FailureNone
}

// Outcome is Kind as a string, used as the restart reason.
func (r CycleReport) Outcome() string {
	return r.Kind().String()
}

// Detail joins the failure messages, or returns "".
func (r CycleReport) Detail() string {
	var s string
	if r.Err != nil {
		s = r.Err.Error()
	}
	for _, d := range r.Degraded {
		if s != "" {
			s += "; "
		}
		s += d.Error()
	}
	return s
}
