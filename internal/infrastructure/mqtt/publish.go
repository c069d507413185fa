package mqtt

import (
	"context"
	"fmt"
)

// Maximum payload size accepted for publishing (64KB).
// Telemetry and discovery payloads are a few hundred bytes; anything larger is a bug.
const maxPayloadSize = 64 << 10

// Publish sends a message to the specified MQTT topic.
//
// Parameters:
//   - ctx: Cancels the wait for the broker's acknowledgement
//   - topic: The topic to publish to (e.g., "szenzor/dht22")
//   - payload: The message payload (JSON, max 64KB)
//   - qos: Quality of Service level (0, 1, or 2)
//   - retained: Whether the broker should retain the message for new subscribers
//
// Retained Messages:
//   - Discovery config payloads are retained so Home Assistant picks them
//     up even if it was offline when they were sent
//   - Telemetry readings are not retained
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
func (c *Client) Publish(ctx context.Context, topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if err := waitToken(ctx, token, c.opts.publishTimeout()); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, topic, err)
	}

	c.getLogger().Debug("MQTT message published", "topic", topic, "bytes", len(payload), "retained", retained)
	return nil
}

// PublishRetained publishes a retained message.
func (c *Client) PublishRetained(ctx context.Context, topic string, payload []byte, qos byte) error {
	return c.Publish(ctx, topic, payload, qos, true)
}
