package mqtt

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/gray-logic-sensornode/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time to wait for the CONNACK.
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout is the maximum time to wait for publish completion.
	defaultPublishTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 250 // milliseconds

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 60 * time.Second

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// Options describes a single broker session.
type Options struct {
	Host     string
	Port     int
	TLS      bool
	ClientID string
	Username string
	Password string

	// ConnectTimeout bounds the CONNECT/CONNACK exchange. Zero uses the default.
	ConnectTimeout time.Duration

	// PublishTimeout bounds each publish. Zero uses the default.
	PublishTimeout time.Duration
}

// OptionsFromRuntime builds session options from the resolved runtime config.
func OptionsFromRuntime(rc config.RuntimeConfig) Options {
	return Options{
		Host:     rc.BrokerHost,
		Port:     rc.BrokerPort,
		TLS:      rc.BrokerTLS,
		ClientID: rc.ClientID,
		Username: rc.Username,
		Password: rc.Password,
	}
}

// BrokerURL returns the paho broker URL for these options.
func (o Options) BrokerURL() string {
	scheme := "tcp"
	if o.TLS {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, o.Host, o.Port)
}

// validate checks the options needed to open a session.
func (o Options) validate() error {
	if o.Host == "" {
		return fmt.Errorf("%w: broker host is empty", ErrInvalidOptions)
	}
	if o.Port < 1 || o.Port > 65535 {
		return fmt.Errorf("%w: broker port %d out of range", ErrInvalidOptions, o.Port)
	}
	if o.ClientID == "" {
		return fmt.Errorf("%w: client id is empty", ErrInvalidOptions)
	}
	return nil
}

func (o Options) connectTimeout() time.Duration {
	if o.ConnectTimeout > 0 {
		return o.ConnectTimeout
	}
	return defaultConnectTimeout
}

func (o Options) publishTimeout() time.Duration {
	if o.PublishTimeout > 0 {
		return o.PublishTimeout
	}
	return defaultPublishTimeout
}

// buildClientOptions creates paho MQTT options for a one-cycle session.
//
// This configures:
//   - Broker URL (tcp:// or ssl:// based on TLS setting)
//   - Client ID and credentials
//   - Clean session, no auto-reconnect and no connect retry
//   - TLS configuration (if enabled)
func buildClientOptions(o Options) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	opts.AddBroker(o.BrokerURL())
	opts.SetClientID(o.ClientID)

	if o.Username != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}

	opts.SetCleanSession(true)

	// The supervisory loop owns retries; paho must fail fast.
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)

	opts.SetConnectTimeout(o.connectTimeout())
	opts.SetWriteTimeout(o.publishTimeout())
	opts.SetKeepAlive(defaultKeepAlive)

	if o.TLS {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tlsMinVersion,
		})
	}

	return opts
}
