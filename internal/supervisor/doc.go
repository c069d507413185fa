// Package supervisor runs the node's telemetry cycle.
//
// Each cycle walks a fixed sequence of states:
//
//	AcquireLink -> AcquireSession -> Discover -> Measure -> EndOfCycle
//
// Link and session failures abort the cycle: after a cooldown the loop
// either restarts the node (restart mode) or begins a new cycle
// (continuous mode). Discovery and measurement failures are logged and the
// cycle carries on to EndOfCycle. Nothing is retried within a cycle; the
// next cycle is the retry.
//
// Every external effect (link, broker session, sensor, LED, pauses and
// the restart itself) is injected, so the state machine runs in tests
// without hardware or real time.
package supervisor
