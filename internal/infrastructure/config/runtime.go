package config

import "time"

const (
	// defaultBrokerPort is the plain MQTT port used when a location omits one.
	defaultBrokerPort = 1883

	// defaultBrokerUsername is the account the node logs in with when none is configured.
	defaultBrokerUsername = "ha"
)

// RuntimeConfig is the fully resolved configuration for one deployment
// location. It is built once at startup by [Config.Resolve] and passed by
// value to the supervisory loop; nothing mutates it afterwards.
type RuntimeConfig struct {
	Location string
	Mode     string

	// Link credentials.
	SSID         string
	WiFiPassword string

	// Broker session.
	BrokerHost string
	BrokerPort int
	BrokerTLS  bool
	BrokerMDNS bool
	Username   string
	Password   string
	ClientID   string

	// Publishing.
	Topic               string
	QoS                 byte
	DiscoveryPrefix     string
	DiscoveryPerSession bool

	// Timing.
	Sleep            time.Duration
	LinkPollAttempts int
	LinkPollInterval time.Duration
	FailureCooldown  time.Duration
	DiscoveryGap     time.Duration
}

// RestartPerCycle reports whether the node restarts after every cycle.
func (r RuntimeConfig) RestartPerCycle() bool {
	return r.Mode == ModeRestart
}
