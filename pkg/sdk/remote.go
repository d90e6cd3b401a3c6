package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/roam-ai/whileusing-batch-listener/internal/models"
	"github.com/roam-ai/whileusing-batch-listener/pkg/mqtt"
	"github.com/rs/zerolog"
)

// RemoteVersion is the command protocol version spoken by RemoteSDK.
const RemoteVersion = "1.0.0"

// Commands published by RemoteSDK.
const (
	CommandInitialize             = "initialize"
	CommandStartListener          = "start_listener"
	CommandStopListener           = "stop_listener"
	CommandBatchProcess           = "batch_process"
	CommandForegroundNotification = "set_foreground_notification"
	CommandAllowMockLocation      = "allow_mock_location"
	CommandStartTracking          = "start_tracking"
	CommandStopTracking           = "stop_tracking"
)

type remoteCommand struct {
	Command   string    `json:"command"`
	Args      any       `json:"args,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RemoteSDK drives an SDK daemon over MQTT. Commands go to <prefix>/commands,
// channel payloads arrive on <prefix>/<channel> and background events on <prefix>/events.
type RemoteSDK struct {
	client  mqtt.MQTTClient
	prefix  string
	qos     byte
	timeout time.Duration
	logger  zerolog.Logger

	mu          sync.Mutex
	initialized bool
	receiver    Receiver
}

// NewRemoteSDK creates a RemoteSDK on an already connected client.
func NewRemoteSDK(client mqtt.MQTTClient, topicPrefix string, qos int, timeout time.Duration, logger zerolog.Logger) *RemoteSDK {
	return &RemoteSDK{
		client:  client,
		prefix:  topicPrefix,
		qos:     byte(qos),
		timeout: timeout,
		logger:  logger,
	}
}

func (r *RemoteSDK) topic(name string) string {
	return r.prefix + "/" + name
}

// Initialize subscribes to background events and sends the license key to the daemon.
func (r *RemoteSDK) Initialize(ctx context.Context, licenseKey string, receiver Receiver) error {
	if licenseKey == "" {
		return errors.New("license key is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.initialized {
		return ErrAlreadyInitialized
	}

	if receiver != nil {
		if err := r.wait(r.client.Subscribe(r.topic("events"), r.qos, r.eventHandler(receiver))); err != nil {
			return fmt.Errorf("subscribe to events: %w", err)
		}
	}

	if err := r.publish(CommandInitialize, map[string]string{"license_key": licenseKey}); err != nil {
		return err
	}

	r.initialized = true
	r.receiver = receiver
	r.logger.Info().Str("prefix", r.prefix).Msg("Remote SDK initialized")
	return nil
}

func (r *RemoteSDK) eventHandler(receiver Receiver) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		var event models.Event
		if err := json.Unmarshal(msg.Payload(), &event); err != nil {
			r.logger.Warn().Err(err).Str("topic", msg.Topic()).Msg("Dropping malformed SDK event")
			return
		}
		receiver.OnEvent(event)
	}
}

func (r *RemoteSDK) checkInitialized() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.initialized {
		return ErrNotInitialized
	}
	return nil
}

// StartListener subscribes callback to the channel topic. Payloads are decoded
// from JSON and handed over as-is.
func (r *RemoteSDK) StartListener(channel string, callback Callback) error {
	if err := r.checkInitialized(); err != nil {
		return err
	}

	handler := func(_ paho.Client, msg paho.Message) {
		var payload any
		if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
			r.logger.Warn().Err(err).Str("topic", msg.Topic()).Msg("Dropping malformed payload")
			return
		}
		callback(payload)
	}

	if err := r.wait(r.client.Subscribe(r.topic(channel), r.qos, handler)); err != nil {
		return fmt.Errorf("subscribe to %s: %w", channel, err)
	}
	return r.publish(CommandStartListener, map[string]string{"channel": channel})
}

// StopListener unsubscribes from the channel topic.
func (r *RemoteSDK) StopListener(channel string) error {
	if err := r.checkInitialized(); err != nil {
		return err
	}
	if err := r.wait(r.client.Unsubscribe(r.topic(channel))); err != nil {
		return fmt.Errorf("unsubscribe from %s: %w", channel, err)
	}
	return r.publish(CommandStopListener, map[string]string{"channel": channel})
}

// BatchProcess forwards the batching mode.
func (r *RemoteSDK) BatchProcess(enabled bool, interval time.Duration) error {
	if err := r.checkInitialized(); err != nil {
		return err
	}
	return r.publish(CommandBatchProcess, map[string]any{
		"enabled":          enabled,
		"interval_seconds": int(interval / time.Second),
	})
}

// SetForegroundNotification forwards the notification settings.
func (r *RemoteSDK) SetForegroundNotification(notification ForegroundNotification) error {
	if err := r.checkInitialized(); err != nil {
		return err
	}
	return r.publish(CommandForegroundNotification, notification)
}

// AllowMockLocation forwards the mock-location switch.
func (r *RemoteSDK) AllowMockLocation(enabled bool) error {
	if err := r.checkInitialized(); err != nil {
		return err
	}
	return r.publish(CommandAllowMockLocation, map[string]bool{"enabled": enabled})
}

// StartTracking asks the daemon to start tracking.
func (r *RemoteSDK) StartTracking() error {
	if err := r.checkInitialized(); err != nil {
		return err
	}
	return r.publish(CommandStartTracking, nil)
}

// StopTracking asks the daemon to stop tracking.
func (r *RemoteSDK) StopTracking() error {
	if err := r.checkInitialized(); err != nil {
		return err
	}
	return r.publish(CommandStopTracking, nil)
}

// Version returns the command protocol version.
func (r *RemoteSDK) Version() string {
	return RemoteVersion
}

// Close drops the event subscription and disconnects from the broker.
func (r *RemoteSDK) Close() error {
	r.mu.Lock()
	receiver := r.receiver
	r.mu.Unlock()

	var err error
	if receiver != nil {
		err = r.wait(r.client.Unsubscribe(r.topic("events")))
	}
	r.client.Disconnect(250)
	return err
}

func (r *RemoteSDK) publish(command string, args any) error {
	payload, err := json.Marshal(remoteCommand{Command: command, Args: args, Timestamp: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal %s command: %w", command, err)
	}

	if err := r.wait(r.client.Publish(r.topic("commands"), r.qos, false, payload)); err != nil {
		r.logger.Error().Err(err).Str("command", command).Msg("Failed to publish SDK command")
		return fmt.Errorf("publish %s: %w", command, err)
	}

	r.logger.Debug().Str("command", command).Msg("SDK command published")
	return nil
}

func (r *RemoteSDK) wait(token paho.Token) error {
	if !token.WaitTimeout(r.timeout) {
		return errors.New("timed out waiting for broker")
	}
	return token.Error()
}
