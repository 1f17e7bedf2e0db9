// Package notify publishes attendance events to external systems.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"campusface/recognition"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// PublishTimeout bounds one publish; an unreachable broker must not hold the caller.
const PublishTimeout = 2 * time.Second

// MQTT publishes one JSON message per recorded attendance.
type MQTT struct {
	client  mqtt.Client
	topic   string
	timeout time.Duration
}

// NewMQTT starts connecting to broker (e.g. tcp://localhost:1883) and returns
// without waiting; ConnectRetry keeps trying in the background.
func NewMQTT(broker, clientID, topic string) (*MQTT, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		slog.Info("mqtt connected", "broker", broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		slog.Warn("mqtt connection lost", "broker", broker, "error", err)
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	// Option errors fail at once; a down broker leaves the token pending.
	if token.WaitTimeout(100*time.Millisecond) && token.Error() != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", broker, token.Error())
	}
	return newMQTT(client, topic, PublishTimeout), nil
}

func newMQTT(client mqtt.Client, topic string, timeout time.Duration) *MQTT {
	return &MQTT{client: client, topic: topic, timeout: timeout}
}

func (m *MQTT) AttendanceRecorded(ctx context.Context, ev recognition.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	token := m.client.Publish(m.topic, 1, false, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return fmt.Errorf("publish to %s: %w", m.topic, ctx.Err())
	}
}

func (m *MQTT) Close() {
	m.client.Disconnect(250)
}
