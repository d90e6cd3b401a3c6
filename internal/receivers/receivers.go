// Package receivers holds the background event receivers handed to the SDK at initialization.
package receivers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roam-ai/whileusing-batch-listener/internal/models"
	"github.com/roam-ai/whileusing-batch-listener/internal/observability"
	"github.com/roam-ai/whileusing-batch-listener/pkg/mqtt"
	"github.com/roam-ai/whileusing-batch-listener/pkg/sdk"
	"github.com/rs/zerolog"
)

// LogReceiver logs every background event.
type LogReceiver struct {
	logger zerolog.Logger
}

// NewLogReceiver creates a LogReceiver.
func NewLogReceiver(logger zerolog.Logger) *LogReceiver {
	return &LogReceiver{logger: logger}
}

// OnEvent logs the event, at error level for error events.
func (l *LogReceiver) OnEvent(event models.Event) {
	observability.BackgroundEvents.WithLabelValues(string(event.Type)).Inc()

	if event.Type == models.EventError {
		l.logger.Error().Str("type", string(event.Type)).Str("error", event.Error).Msg("SDK background error")
		return
	}
	l.logger.Debug().Str("type", string(event.Type)).Time("timestamp", event.Timestamp).Msg("SDK background event")
}

// MQTTReceiver publishes background events as JSON to a topic.
type MQTTReceiver struct {
	client  mqtt.MQTTClient
	topic   string
	qos     byte
	timeout time.Duration
	logger  zerolog.Logger
}

// NewMQTTReceiver creates an MQTTReceiver.
func NewMQTTReceiver(client mqtt.MQTTClient, topic string, qos int, timeout time.Duration, logger zerolog.Logger) *MQTTReceiver {
	return &MQTTReceiver{client: client, topic: topic, qos: byte(qos), timeout: timeout, logger: logger}
}

// OnEvent publishes the event. Failures are logged and dropped.
func (m *MQTTReceiver) OnEvent(event models.Event) {
	if err := m.publish(event); err != nil {
		m.logger.Error().Err(err).Str("topic", m.topic).Msg("Failed to publish background event")
	}
}

func (m *MQTTReceiver) publish(event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	token := m.client.Publish(m.topic, m.qos, false, payload)
	if !token.WaitTimeout(m.timeout) {
		return fmt.Errorf("timed out publishing to %s", m.topic)
	}
	return token.Error()
}

// MultiReceiver fans events out to several receivers in order.
type MultiReceiver []sdk.Receiver

// OnEvent forwards event to every receiver.
func (m MultiReceiver) OnEvent(event models.Event) {
	for _, r := range m {
		r.OnEvent(event)
	}
}
