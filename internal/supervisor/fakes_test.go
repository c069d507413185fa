package supervisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-sensornode/internal/discovery"
	"github.com/nerrad567/gray-logic-sensornode/internal/identity"
	"github.com/nerrad567/gray-logic-sensornode/internal/sensor"
)

const (
	telemetryTopic = "szenzor/dht22"
	humidityTopic  = "homeassistant/sensor/pico_client/humidity/config"
	tempTopic      = "homeassistant/sensor/pico_client/temperature/config"
)

// never is a linkUpAfter value for a link that never comes up.
const never = 1 << 30

// world fakes every collaborator of the loop and logs what happens, in
// order, as short strings such as "dial", "publish szenzor/dht22" or "sleep 5s".
type world struct {
	t      *testing.T
	events []string

	// linkUpAfter is the number of failed status polls before the link
	// reports connected.
	linkUpAfter int
	polls       int
	linkUp      bool
	connectErr  error

	dialErr    error
	session    *fakeSession
	closeErr   error
	publishErr map[string]error

	reading    sensor.Reading
	measureErr error

	restartErr error
	restarts   []string

	// cancelAfterSleeps cancels cancel once this many sleeps have happened.
	cancelAfterSleeps int
	sleeps            int
	cancel            context.CancelFunc

	readings []sensor.Reading
	reports  []CycleReport
}

func newWorld(t *testing.T) *world {
	return &world{
		t:          t,
		reading:    sensor.Reading{Temperature: 23.456, Humidity: 55.04},
		publishErr: map[string]error{},
	}
}

func (w *world) log(format string, args ...any) {
	w.events = append(w.events, fmt.Sprintf(format, args...))
}

// count returns how many events start with prefix.
func (w *world) count(prefix string) int {
	n := 0
	for _, e := range w.events {
		if strings.HasPrefix(e, prefix) {
			n++
		}
	}
	return n
}

// index returns the position of the first event equal to e, or -1.
func (w *world) index(e string) int {
	for i, got := range w.events {
		if got == e {
			return i
		}
	}
	return -1
}

// LinkProvider

func (w *world) Connect(_ context.Context, ssid, _ string) (Link, error) {
	w.log("link.connect %s", ssid)
	if w.connectErr != nil {
		return nil, w.connectErr
	}
	return &fakeLink{w: w}, nil
}

type fakeLink struct{ w *world }

func (l *fakeLink) Connected(context.Context) bool {
	w := l.w
	if w.linkUp {
		return true
	}
	if w.polls >= w.linkUpAfter {
		w.linkUp = true
		return true
	}
	w.polls++
	return false
}

func (l *fakeLink) Addr() string { return "192.168.1.50" }

func (l *fakeLink) Disconnect(context.Context) error {
	l.w.log("link.disconnect")
	l.w.linkUp = false
	l.w.polls = 0
	return nil
}

// SessionDialer

func (w *world) Dial(context.Context) (Session, error) {
	w.log("dial")
	if w.dialErr != nil {
		return nil, w.dialErr
	}
	w.session = &fakeSession{w: w, open: true}
	return w.session, nil
}

type fakeSession struct {
	w    *world
	open bool
}

func (s *fakeSession) Publish(_ context.Context, topic string, _ []byte, _ byte, retained bool) error {
	w := s.w
	if !s.open || !w.linkUp {
		w.t.Errorf("publish on %s with session open=%v link up=%v", topic, s.open, w.linkUp)
	}
	if topic == telemetryTopic && retained {
		w.t.Errorf("telemetry published retained")
	}
	w.log("publish %s", topic)
	return w.publishErr[topic]
}

func (s *fakeSession) Close() error {
	s.w.log("close")
	s.open = false
	return s.w.closeErr
}

// Sensor

func (w *world) Measure(context.Context) (sensor.Reading, error) {
	w.log("measure")
	return w.reading, w.measureErr
}

// Indicator

func (w *world) Toggle() error {
	w.log("toggle")
	return nil
}

// Restarter

func (w *world) Restart(reason string) error {
	w.log("restart %s", reason)
	w.restarts = append(w.restarts, reason)
	return w.restartErr
}

// Sleeper

func (w *world) Sleep(ctx context.Context, d time.Duration) error {
	w.log("sleep %s", d)
	w.sleeps++
	if w.cancel != nil && w.sleeps >= w.cancelAfterSleeps {
		w.cancel()
	}
	return ctx.Err()
}

// ReadingSink

func (w *world) RecordReading(_ context.Context, r sensor.Reading) {
	w.readings = append(w.readings, r)
}

// Recorder

func (w *world) RecordCycle(_ context.Context, report CycleReport) {
	w.reports = append(w.reports, report)
}

// testConfig returns the default timings: 10 polls x 1s, 5s cooldown, 5s sleep.
func testConfig(restart bool) Config {
	return Config{
		SSID:             "home-ap",
		WiFiPassword:     "secret",
		Topic:            telemetryTopic,
		RestartPerCycle:  restart,
		Sleep:            5 * time.Second,
		LinkPollAttempts: 10,
		LinkPollInterval: time.Second,
		FailureCooldown:  5 * time.Second,
	}
}

func newTestLoop(t *testing.T, w *world, cfg Config) *Loop {
	t.Helper()

	announcer := discovery.NewAnnouncer(discovery.Config{
		Identity: identity.Identity{
			ClientID:     "pico_client",
			UniqueID:     "pico_dht22_001",
			Name:         "Pico DHT22",
			Model:        "Raspberry Pi Pico WH",
			Manufacturer: "Custom",
		},
		Prefix:     "homeassistant",
		StateTopic: telemetryTopic,
	}, w)

	loop, err := New(cfg, Deps{
		Links:     w,
		Sessions:  w,
		Sensor:    w,
		Announcer: announcer,
		Indicator: w,
		Restarter: w,
		Sleeper:   w,
		Sink:      w,
		Recorder:  w,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return loop
}

var errBroker = errors.New("connection refused")
