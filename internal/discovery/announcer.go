package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-sensornode/internal/identity"
	"github.com/nerrad567/gray-logic-sensornode/internal/infrastructure/mqtt"
)

// DefaultGap is the pause between the two discovery messages.
const DefaultGap = 2 * time.Second

// ErrAnnounceFailed indicates a discovery message could not be published.
var ErrAnnounceFailed = errors.New("discovery: announce failed")

// Publisher sends one MQTT message on an open session.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte, qos byte, retained bool) error
}

// Sleeper pauses for d or until ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// Config configures an Announcer.
type Config struct {
	Identity   identity.Identity
	Prefix     string
	StateTopic string
	QoS        byte
	Gap        time.Duration
}

// message is one pending discovery publish.
type message struct {
	object  string
	topic   string
	payload SensorConfig
}

// Announcer publishes the discovery messages.
type Announcer struct {
	cfg     Config
	topics  mqtt.Topics
	sleeper Sleeper
}

// NewAnnouncer creates an Announcer. A Gap of zero or less uses DefaultGap.
func NewAnnouncer(cfg Config, sleeper Sleeper) *Announcer {
	if cfg.Gap <= 0 {
		cfg.Gap = DefaultGap
	}
	return &Announcer{
		cfg:     cfg,
		topics:  mqtt.Topics{Prefix: cfg.Prefix},
		sleeper: sleeper,
	}
}

// messages returns the discovery messages in publish order.
func (a *Announcer) messages() []message {
	node := a.cfg.Identity.ClientID
	return []message{
		{
			object:  ObjectHumidity,
			topic:   a.topics.SensorConfig(node, ObjectHumidity),
			payload: HumidityConfig(a.cfg.Identity, a.cfg.StateTopic),
		},
		{
			object:  ObjectTemperature,
			topic:   a.topics.SensorConfig(node, ObjectTemperature),
			payload: TemperatureConfig(a.cfg.Identity, a.cfg.StateTopic),
		},
	}
}

// Announce publishes humidity, pauses for the configured gap, then
// publishes temperature. Both messages are retained. The first failure
// stops the announcement.
//
// Returns:
//   - error: Wrapping ErrAnnounceFailed, or the sleeper's error when ctx ends
func (a *Announcer) Announce(ctx context.Context, pub Publisher) error {
	for i, m := range a.messages() {
		if i > 0 {
			if err := a.sleeper.Sleep(ctx, a.cfg.Gap); err != nil {
				return err
			}
		}

		payload, err := json.Marshal(m.payload)
		if err != nil {
			return fmt.Errorf("%w: encoding %s: %w", ErrAnnounceFailed, m.object, err)
		}

		if err := pub.Publish(ctx, m.topic, payload, a.cfg.QoS, true); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrAnnounceFailed, m.object, err)
		}
	}
	return nil
}
