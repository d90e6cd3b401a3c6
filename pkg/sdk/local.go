package sdk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/roam-ai/whileusing-batch-listener/internal/models"
	"github.com/roam-ai/whileusing-batch-listener/pkg/location"
	"github.com/rs/zerolog"
)

// ChannelLocation is the channel on which LocalSDK delivers readings.
const ChannelLocation = "location"

// LocalVersion is the binding version reported by LocalSDK.
const LocalVersion = "1.2.0"

// DeviceInfoSource supplies device fields merged into every reading.
type DeviceInfoSource interface {
	Collect(ctx context.Context) map[string]any
}

// LocalSDK drives tracking in-process from a location.Provider.
type LocalSDK struct {
	provider     location.Provider
	deviceInfo   DeviceInfoSource
	deviceID     string
	pollInterval time.Duration
	logger       zerolog.Logger

	listeners cmap.ConcurrentMap[string, Callback]

	mu            sync.Mutex
	initialized   bool
	receiver      Receiver
	batchEnabled  bool
	batchInterval time.Duration
	allowMock     bool
	notification  ForegroundNotification
	buffer        []any

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewLocalSDK creates a LocalSDK. deviceInfo may be nil.
func NewLocalSDK(provider location.Provider, deviceInfo DeviceInfoSource, deviceID string,
	pollInterval time.Duration, logger zerolog.Logger) *LocalSDK {
	return &LocalSDK{
		provider:     provider,
		deviceInfo:   deviceInfo,
		deviceID:     deviceID,
		pollInterval: pollInterval,
		logger:       logger,
		listeners:    cmap.New[Callback](),
	}
}

// Initialize configures the SDK once with its license key and background receiver.
func (l *LocalSDK) Initialize(ctx context.Context, licenseKey string, receiver Receiver) error {
	if licenseKey == "" {
		return errors.New("license key is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.initialized {
		return ErrAlreadyInitialized
	}
	l.initialized = true
	l.receiver = receiver

	l.logger.Info().Str("version", LocalVersion).Msg("Local SDK initialized")
	return nil
}

func (l *LocalSDK) checkInitialized() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.initialized {
		return ErrNotInitialized
	}
	return nil
}

// StartListener registers callback for channel, replacing any previous one.
func (l *LocalSDK) StartListener(channel string, callback Callback) error {
	if err := l.checkInitialized(); err != nil {
		return err
	}
	l.listeners.Set(channel, callback)
	l.logger.Debug().Str("channel", channel).Msg("Listener started")
	return nil
}

// StopListener removes the callback for channel. Unknown channels are ignored.
func (l *LocalSDK) StopListener(channel string) error {
	if err := l.checkInitialized(); err != nil {
		return err
	}
	l.listeners.Remove(channel)
	l.logger.Debug().Str("channel", channel).Msg("Listener stopped")
	return nil
}

// BatchProcess switches batched delivery. With a zero interval every reading is
// delivered immediately as a one-element batch.
func (l *LocalSDK) BatchProcess(enabled bool, interval time.Duration) error {
	if interval < 0 {
		return fmt.Errorf("batch interval must not be negative, got %s", interval)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.initialized {
		return ErrNotInitialized
	}
	l.batchEnabled = enabled
	l.batchInterval = interval

	l.logger.Info().Bool("enabled", enabled).Dur("interval", interval).Msg("Batch processing configured")
	return nil
}

// SetForegroundNotification records the notification. There is no OS
// foreground service outside mobile platforms, so it is only logged.
func (l *LocalSDK) SetForegroundNotification(notification ForegroundNotification) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.initialized {
		return ErrNotInitialized
	}
	l.notification = notification

	l.logger.Info().
		Bool("enabled", notification.Enabled).
		Str("title", notification.Title).
		Str("service", notification.ServiceClass).
		Msg("Foreground notification configured")
	return nil
}

// AllowMockLocation controls whether mock fixes are delivered.
func (l *LocalSDK) AllowMockLocation(enabled bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.initialized {
		return ErrNotInitialized
	}
	l.allowMock = enabled
	return nil
}

// StartTracking starts the sampling loop.
func (l *LocalSDK) StartTracking() error {
	l.mu.Lock()
	if !l.initialized {
		l.mu.Unlock()
		return ErrNotInitialized
	}
	if l.ctx != nil {
		l.mu.Unlock()
		return ErrTrackingActive
	}
	l.ctx, l.cancel = context.WithCancel(context.Background())
	ctx := l.ctx
	flushEvery := time.Duration(0)
	if l.batchEnabled {
		flushEvery = l.batchInterval
	}
	l.mu.Unlock()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.runTrackingLoop(ctx, flushEvery)
	}()

	l.emit(models.Event{Type: models.EventTrackingStarted})
	l.logger.Info().Dur("poll_interval", l.pollInterval).Msg("Tracking started")
	return nil
}

// StopTracking stops the sampling loop and flushes any buffered batch.
// Stopping while idle is a no-op.
func (l *LocalSDK) StopTracking() error {
	l.mu.Lock()
	if !l.initialized {
		l.mu.Unlock()
		return ErrNotInitialized
	}
	if l.ctx == nil {
		l.mu.Unlock()
		return nil
	}
	cancel := l.cancel
	l.mu.Unlock()

	cancel()
	l.wg.Wait()

	l.mu.Lock()
	l.ctx, l.cancel = nil, nil
	l.mu.Unlock()

	l.flush()
	l.emit(models.Event{Type: models.EventTrackingStopped})
	l.logger.Info().Msg("Tracking stopped")
	return nil
}

// Tracking reports whether the sampling loop is running.
func (l *LocalSDK) Tracking() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ctx != nil
}

// Version returns the binding version.
func (l *LocalSDK) Version() string {
	return LocalVersion
}

// Close stops tracking and releases the provider.
func (l *LocalSDK) Close() error {
	if err := l.StopTracking(); err != nil && !errors.Is(err, ErrNotInitialized) {
		return err
	}
	if closer, ok := l.provider.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (l *LocalSDK) runTrackingLoop(ctx context.Context, flushEvery time.Duration) {
	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	var flushC <-chan time.Time
	if flushEvery > 0 {
		flushTicker := time.NewTicker(flushEvery)
		defer flushTicker.Stop()
		flushC = flushTicker.C
	}

	l.sample(ctx)
	for {
		select {
		case <-ticker.C:
			l.sample(ctx)
		case <-flushC:
			l.flush()
		case <-ctx.Done():
			return
		}
	}
}

func (l *LocalSDK) sample(ctx context.Context) {
	fix, err := l.provider.GetLocation(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		l.logger.Error().Err(err).Msg("Failed to get location from provider")
		l.emit(models.Event{Type: models.EventError, Error: err.Error()})
		return
	}

	l.mu.Lock()
	allowMock := l.allowMock
	l.mu.Unlock()
	if fix.Mock && !allowMock {
		l.logger.Debug().Str("source", fix.Source).Msg("Mock location dropped")
		return
	}

	reading := l.buildReading(ctx, fix)
	l.emit(models.Event{Type: models.EventLocation, Payload: reading})
	l.deliver(reading)
}

func (l *LocalSDK) buildReading(ctx context.Context, fix location.Fix) map[string]any {
	reading := map[string]any{
		models.LocationKey: map[string]any{
			"latitude":  fix.Latitude,
			"longitude": fix.Longitude,
			"accuracy":  fix.Accuracy,
			"altitude":  fix.Altitude,
			"source":    fix.Source,
		},
		"device_id":   l.deviceID,
		"recorded_at": fix.Time.Format(time.RFC3339),
		"mock":        fix.Mock,
	}

	if l.deviceInfo != nil {
		for k, v := range l.deviceInfo.Collect(ctx) {
			if _, exists := reading[k]; !exists {
				reading[k] = v
			}
		}
	}
	return reading
}

func (l *LocalSDK) deliver(reading map[string]any) {
	l.mu.Lock()
	switch {
	case !l.batchEnabled:
		l.mu.Unlock()
		l.dispatch(reading)
	case l.batchInterval == 0:
		l.mu.Unlock()
		l.dispatch([]any{reading})
	default:
		l.buffer = append(l.buffer, reading)
		l.mu.Unlock()
	}
}

func (l *LocalSDK) flush() {
	l.mu.Lock()
	batch := l.buffer
	l.buffer = nil
	l.mu.Unlock()

	if len(batch) > 0 {
		l.dispatch(batch)
	}
}

func (l *LocalSDK) dispatch(payload any) {
	callback, ok := l.listeners.Get(ChannelLocation)
	if !ok {
		return
	}
	callback(payload)
}

func (l *LocalSDK) emit(event models.Event) {
	l.mu.Lock()
	receiver := l.receiver
	l.mu.Unlock()

	if receiver == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	receiver.OnEvent(event)
}
