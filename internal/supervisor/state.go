package supervisor

// State is a step of the telemetry cycle.
type State int

// Cycle states, in order.
const (
	StateAcquireLink State = iota
	StateAcquireSession
	StateDiscover
	StateMeasure
	StateEndOfCycle
)

func (s State) String() string {
	switch s {
	case StateAcquireLink:
		return "acquire_link"
	case StateAcquireSession:
		return "acquire_session"
	case StateDiscover:
		return "discover"
	case StateMeasure:
		return "measure"
	case StateEndOfCycle:
		return "end_of_cycle"
	default:
		return "unknown"
	}
}
