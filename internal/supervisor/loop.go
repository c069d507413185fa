package supervisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-sensornode/internal/discovery"
	"github.com/nerrad567/gray-logic-sensornode/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-sensornode/internal/sensor"
)

// Link is an acquired network link.
type Link interface {
	Connected(ctx context.Context) bool
	Addr() string
	Disconnect(ctx context.Context) error
}

// LinkProvider starts link association. Connect must be idempotent and
// return without waiting for the link to come up.
type LinkProvider interface {
	Connect(ctx context.Context, ssid, password string) (Link, error)
}

// Session is an open broker session.
type Session interface {
	Publish(ctx context.Context, topic string, payload []byte, qos byte, retained bool) error
	Close() error
}

// SessionDialer opens a broker session with the node's credentials.
type SessionDialer interface {
	Dial(ctx context.Context) (Session, error)
}

// Sensor performs one blocking measurement.
type Sensor interface {
	Measure(ctx context.Context) (sensor.Reading, error)
}

// Announcer publishes the discovery messages on a session.
type Announcer interface {
	Announce(ctx context.Context, pub discovery.Publisher) error
}

// Indicator is the status LED.
type Indicator interface {
	Toggle() error
}

// Restarter restarts the node. Restart does not return on success in
// production; test doubles return nil to simulate a fresh process.
type Restarter interface {
	Restart(reason string) error
}

// ReadingSink receives every successfully published reading.
type ReadingSink interface {
	RecordReading(ctx context.Context, r sensor.Reading)
}

// Recorder receives the report of every finished cycle, before the
// end-of-cycle pause.
type Recorder interface {
	RecordCycle(ctx context.Context, report CycleReport)
}

// Logger is the logging interface used by the loop.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type noopIndicator struct{}

func (noopIndicator) Toggle() error { return nil }

// Config holds the loop's timing and policy.
type Config struct {
	SSID         string
	WiFiPassword string

	Topic string
	QoS   byte

	// RestartPerCycle selects restart mode; false is continuous mode.
	RestartPerCycle bool

	// DiscoveryPerSession resets the announced flag whenever a session is
	// closed, so every session announces before its first reading.
	DiscoveryPerSession bool

	Sleep            time.Duration
	LinkPollAttempts int
	LinkPollInterval time.Duration
	FailureCooldown  time.Duration
}

// ConfigFromRuntime extracts the loop settings from a resolved config.
func ConfigFromRuntime(rc config.RuntimeConfig) Config {
	return Config{
		SSID:                rc.SSID,
		WiFiPassword:        rc.WiFiPassword,
		Topic:               rc.Topic,
		QoS:                 rc.QoS,
		RestartPerCycle:     rc.RestartPerCycle(),
		DiscoveryPerSession: rc.DiscoveryPerSession,
		Sleep:               rc.Sleep,
		LinkPollAttempts:    rc.LinkPollAttempts,
		LinkPollInterval:    rc.LinkPollInterval,
		FailureCooldown:     rc.FailureCooldown,
	}
}

// Deps are the loop's collaborators. Links, Sessions, Sensor and
// Announcer are required; Restarter is required in restart mode.
type Deps struct {
	Links     LinkProvider
	Sessions  SessionDialer
	Sensor    Sensor
	Announcer Announcer
	Indicator Indicator
	Restarter Restarter
	Sleeper   Sleeper
	Sink      ReadingSink
	Recorder  Recorder
	Logger    Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Loop is the supervisory state machine. It is not safe for concurrent use.
type Loop struct {
	cfg  Config
	deps Deps

	// link is the handle from the last successful acquisition. In
	// continuous mode it stays up across cycles.
	link Link

	// announced reports whether discovery has been sent; see Config.DiscoveryPerSession.
	announced bool

	cycles uint64
}

// New validates deps and returns a loop.
func New(cfg Config, deps Deps) (*Loop, error) {
	var missing []string
	if deps.Links == nil {
		missing = append(missing, "link provider")
	}
	if deps.Sessions == nil {
		missing = append(missing, "session dialer")
	}
	if deps.Sensor == nil {
		missing = append(missing, "sensor")
	}
	if deps.Announcer == nil {
		missing = append(missing, "announcer")
	}
	if cfg.RestartPerCycle && deps.Restarter == nil {
		missing = append(missing, "restarter")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("supervisor: missing %v", missing)
	}
	if cfg.LinkPollAttempts < 1 {
		return nil, errors.New("supervisor: link poll attempts must be at least 1")
	}

	if deps.Indicator == nil {
		deps.Indicator = noopIndicator{}
	}
	if deps.Sleeper == nil {
		deps.Sleeper = TimerSleeper{}
	}
	if deps.Logger == nil {
		deps.Logger = noopLogger{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &Loop{cfg: cfg, deps: deps}, nil
}

// Announced reports whether discovery is currently considered sent.
func (l *Loop) Announced() bool {
	return l.announced
}

// Run executes cycles until ctx is cancelled or a restart fails.
//
// Returns:
//   - error: ctx.Err() on shutdown, or the restart error
func (l *Loop) Run(ctx context.Context) error {
	for {
		if _, err := l.Step(ctx); err != nil {
			return err
		}
	}
}

// Step runs one cycle followed by its pause and, in restart mode, the
// restart. A failed cycle pauses for the cooldown instead of the
// configured sleep.
func (l *Loop) Step(ctx context.Context) (CycleReport, error) {
	report := l.RunCycle(ctx)

	if l.deps.Recorder != nil {
		l.deps.Recorder.RecordCycle(ctx, report)
	}

	pause := l.cfg.Sleep
	if report.Err != nil {
		pause = l.cfg.FailureCooldown
		l.deps.Logger.Info("cooling down after failure", "kind", report.Err.Kind.String(), "pause", pause)
	} else if l.cfg.RestartPerCycle {
		l.deps.Logger.Info("sleeping before restart", "pause", pause)
	} else {
		l.deps.Logger.Debug("waiting for next cycle", "pause", pause)
	}

	if err := l.deps.Sleeper.Sleep(ctx, pause); err != nil {
		return report, err
	}

	if !l.cfg.RestartPerCycle {
		return report, nil
	}

	if err := l.deps.Restarter.Restart(report.Outcome()); err != nil {
		return report, fmt.Errorf("supervisor: restart: %w", err)
	}

	// Only reached when the restarter is a test double: behave like a
	// freshly started process.
	l.link = nil
	l.announced = false
	return report, nil
}

// RunCycle performs one cycle up to and including EndOfCycle teardown.
// It does not pause or restart.
func (l *Loop) RunCycle(ctx context.Context) CycleReport {
	l.cycles++
	r := CycleReport{Cycle: l.cycles, StartedAt: l.deps.Now()}
	log := l.deps.Logger

	finish := func() CycleReport {
		r.FinishedAt = l.deps.Now()
		return r
	}

	r.State = StateAcquireLink
	lk, err := l.acquireLink(ctx)
	if err != nil {
		r.Err = newCycleError(FailureLink, r.State, err)
		log.Error("link failure", "cycle", r.Cycle, "error", err)
		return finish()
	}
	l.link = lk
	r.LinkAddr = lk.Addr()
	log.Info("link up", "cycle", r.Cycle, "addr", r.LinkAddr)

	r.State = StateAcquireSession
	sess, err := l.deps.Sessions.Dial(ctx)
	if err != nil {
		r.Err = newCycleError(FailureSession, r.State, err)
		log.Error("session failure", "cycle", r.Cycle, "error", err)
		return finish()
	}
	log.Debug("session open", "cycle", r.Cycle)

	if !l.announced {
		r.State = StateDiscover
		if err := l.deps.Announcer.Announce(ctx, sess); err != nil {
			ce := newCycleError(FailureDiscovery, r.State, err)
			r.Degraded = append(r.Degraded, ce)
			log.Warn("discovery failure", "cycle", r.Cycle, "error", err)
		} else {
			r.Announced = true
			log.Info("discovery sent", "cycle", r.Cycle)
		}
		// A failed announcement is not repeated every cycle.
		l.announced = true
	}

	r.State = StateMeasure
	reading, err := l.measureAndPublish(ctx, sess)
	if err != nil {
		ce := newCycleError(FailureMeasurement, r.State, err)
		r.Degraded = append(r.Degraded, ce)
		log.Warn("measurement failure", "cycle", r.Cycle, "error", err)
	} else {
		r.Reading = &reading
		r.Published = true
		log.Info("reading published",
			"cycle", r.Cycle,
			"temperature", reading.Temperature,
			"humidity", reading.Humidity,
		)
		if l.deps.Sink != nil {
			l.deps.Sink.RecordReading(ctx, reading)
		}
	}

	r.State = StateEndOfCycle
	l.endCycle(ctx, sess)

	return finish()
}

// acquireLink requests the link and polls its status up to
// LinkPollAttempts times, LinkPollInterval apart. Running out of polls is
// not an error here; the final status check classifies it.
func (l *Loop) acquireLink(ctx context.Context) (Link, error) {
	lk, err := l.deps.Links.Connect(ctx, l.cfg.SSID, l.cfg.WiFiPassword)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= l.cfg.LinkPollAttempts; attempt++ {
		if lk.Connected(ctx) {
			return lk, nil
		}
		l.deps.Logger.Debug("waiting for link", "attempt", attempt, "of", l.cfg.LinkPollAttempts)
		if err := l.deps.Sleeper.Sleep(ctx, l.cfg.LinkPollInterval); err != nil {
			return nil, err
		}
	}

	if lk.Connected(ctx) {
		return lk, nil
	}
	return nil, fmt.Errorf("not connected after %d polls", l.cfg.LinkPollAttempts)
}

// measureAndPublish toggles the indicator, reads the sensor, publishes
// the payload and toggles the indicator back. On error the second toggle
// is skipped, leaving the LED in its "busy" state until the next cycle.
func (l *Loop) measureAndPublish(ctx context.Context, sess Session) (sensor.Reading, error) {
	l.toggle()

	reading, err := l.deps.Sensor.Measure(ctx)
	if err != nil {
		return sensor.Reading{}, err
	}

	payload, err := reading.Payload()
	if err != nil {
		return sensor.Reading{}, err
	}

	if err := sess.Publish(ctx, l.cfg.Topic, payload, l.cfg.QoS, false); err != nil {
		return sensor.Reading{}, err
	}

	l.toggle()
	return reading, nil
}

func (l *Loop) toggle() {
	if err := l.deps.Indicator.Toggle(); err != nil {
		l.deps.Logger.Debug("indicator toggle failed", "error", err)
	}
}

// endCycle releases the session, and in restart mode the link as well.
// Release errors are logged, never returned.
func (l *Loop) endCycle(ctx context.Context, sess Session) {
	if err := sess.Close(); err != nil {
		l.deps.Logger.Warn("closing session", "error", err)
	}
	if l.cfg.DiscoveryPerSession {
		l.announced = false
	}

	if !l.cfg.RestartPerCycle {
		return
	}

	if l.link != nil {
		if err := l.link.Disconnect(ctx); err != nil {
			l.deps.Logger.Warn("disconnecting link", "error", err)
		}
		l.link = nil
	}
	l.announced = false
}
