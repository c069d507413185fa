//go:build integration

package mqtt

import (
	"context"
	"sync"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Integration tests against a real broker.
// These tests require a running MQTT broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/mqtt/...

func integrationOptions(clientID string) Options {
	return Options{
		Host:           "127.0.0.1",
		Port:           1883,
		ClientID:       clientID,
		ConnectTimeout: 5 * time.Second,
	}
}

// subscribeRaw subscribes with a plain paho client so the session under test
// stays publish-only.
func subscribeRaw(t *testing.T, topic string) (<-chan []byte, func()) {
	t.Helper()

	opts := pahomqtt.NewClientOptions().
		AddBroker("tcp://127.0.0.1:1883").
		SetClientID("sensornode-it-sub").
		SetCleanSession(true)
	sub := pahomqtt.NewClient(opts)
	if tok := sub.Connect(); !tok.WaitTimeout(5*time.Second) || tok.Error() != nil {
		t.Fatalf("subscriber connect failed: %v", tok.Error())
	}

	msgs := make(chan []byte, 8)
	tok := sub.Subscribe(topic, 1, func(_ pahomqtt.Client, m pahomqtt.Message) {
		msgs <- m.Payload()
	})
	if !tok.WaitTimeout(5*time.Second) || tok.Error() != nil {
		t.Fatalf("subscribe failed: %v", tok.Error())
	}

	return msgs, func() { sub.Disconnect(100) }
}

func TestIntegration_ConnectPublishClose(t *testing.T) {
	topic := "sensornode/it/" + time.Now().Format("150405.000000")
	msgs, stop := subscribeRaw(t, topic)
	defer stop()

	client, err := Connect(context.Background(), integrationOptions("sensornode-it-pub"))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	payload := []byte(`{"temperature": 21.4, "humidity": 48.0}`)
	if err := client.Publish(context.Background(), topic, payload, 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case got := <-msgs:
		if string(got) != string(payload) {
			t.Errorf("received %q, want %q", got, payload)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for published message")
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close")
	}
	if err := client.Publish(context.Background(), topic, payload, 0, false); err == nil {
		t.Error("Publish() after Close should fail")
	}
}

func TestIntegration_RetainedDeliveredToLateSubscriber(t *testing.T) {
	topic := Topics{Prefix: "sensornode-it"}.SensorConfig("node", time.Now().Format("150405"))

	client, err := Connect(context.Background(), integrationOptions("sensornode-it-retain"))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := client.PublishRetained(context.Background(), topic, []byte(`{"name":"x"}`), 1); err != nil {
		t.Fatalf("PublishRetained() error = %v", err)
	}
	client.Close()

	msgs, stop := subscribeRaw(t, topic)
	defer stop()

	select {
	case <-msgs:
	case <-time.After(5 * time.Second):
		t.Fatal("retained message not delivered to late subscriber")
	}

	// Clear the retained message.
	cleaner, err := Connect(context.Background(), integrationOptions("sensornode-it-clean"))
	if err == nil {
		cleaner.PublishRetained(context.Background(), topic, nil, 1)
		cleaner.Close()
	}
}

func TestIntegration_SequentialSessions(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		client, err := Connect(context.Background(), integrationOptions("sensornode-it-seq"))
		if err != nil {
			t.Fatalf("cycle %d: Connect() error = %v", i, err)
		}
		if err := client.Publish(context.Background(), "sensornode/it/seq", []byte("x"), 0, false); err != nil {
			t.Errorf("cycle %d: Publish() error = %v", i, err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			client.Close()
		}()
		wg.Wait()
	}
}
