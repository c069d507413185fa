package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Client is one broker session.
//
// A Client is created by [Connect], used for the publishes of a single
// telemetry cycle and released with [Client.Close]. It is never reused
// after Close.
//
// Thread Safety:
//   - All methods are safe for concurrent use, though the node only uses
//     a session from its supervisory goroutine.
type Client struct {
	client pahomqtt.Client
	opts   Options

	connected bool
	closed    bool
	mu        sync.RWMutex

	logger Logger
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Connect opens a broker session.
//
// It performs the following setup:
//  1. Validates the options
//  2. Builds paho options with auto-reconnect disabled
//  3. Sends CONNECT and waits for the CONNACK, the timeout or ctx
//
// Parameters:
//   - ctx: Context for cancellation
//   - o: Session options (see [OptionsFromRuntime])
//
// Returns:
//   - *Client: Connected session ready for publishing
//   - error: Wrapping ErrConnectionFailed or ErrInvalidOptions
func Connect(ctx context.Context, o Options) (*Client, error) {
	if err := o.validate(); err != nil {
		return nil, err
	}

	c := &Client{
		opts:   o,
		logger: noopLogger{},
	}

	opts := buildClientOptions(o)
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleConnectionLost(err)
	})

	c.client = pahomqtt.NewClient(opts)
	if err := waitToken(ctx, c.client.Connect(), o.connectTimeout()); err != nil {
		// Disconnect waits for an in-flight connect attempt; don't block the caller on it.
		go c.client.Disconnect(0)
		return nil, fmt.Errorf("%w: %s: %w", ErrConnectionFailed, o.BrokerURL(), err)
	}

	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	return c, nil
}

// waitToken blocks until tok completes, timeout elapses or ctx is done.
func waitToken(ctx context.Context, tok pahomqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-tok.Done():
		return tok.Error()
	case <-timer.C:
		return fmt.Errorf("%w after %v", ErrTimeout, timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// handleConnectionLost is called by paho when the broker drops the session.
func (c *Client) handleConnectionLost(err error) {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	c.getLogger().Warn("MQTT session lost", "broker", c.opts.BrokerURL(), "error", err)
}

// Close disconnects from the broker.
//
// Close is idempotent; calling it on a closed or never-connected client
// returns nil.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	c.mu.Unlock()

	c.client.Disconnect(defaultDisconnectQuiesce)
	c.getLogger().Debug("MQTT session closed", "broker", c.opts.BrokerURL())

	return nil
}

// IsConnected returns the current connection state.
func (c *Client) IsConnected() bool {
	if c == nil || c.client == nil {
		return false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && !c.closed && c.client.IsConnected()
}

// Broker returns the broker URL of this session.
func (c *Client) Broker() string {
	return c.opts.BrokerURL()
}

// SetLogger sets a logger for session events.
func (c *Client) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	c.mu.Lock()
	c.logger = logger
	c.mu.Unlock()
}

func (c *Client) getLogger() Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.logger
}
