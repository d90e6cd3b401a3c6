package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/roam-ai/whileusing-batch-listener/internal/constants"
	"github.com/roam-ai/whileusing-batch-listener/internal/observability"
	"github.com/roam-ai/whileusing-batch-listener/internal/permissions"
	"github.com/roam-ai/whileusing-batch-listener/internal/state_managers"
	"github.com/roam-ai/whileusing-batch-listener/internal/utils"
	"github.com/roam-ai/whileusing-batch-listener/pkg/sdk"
	"github.com/rs/zerolog"
)

// ErrPermissionDenied is returned by StartTracking when a required grant is missing.
var ErrPermissionDenied = errors.New("phone state permission denied")

// TrackingOptions configures the calls StartTracking makes into the SDK.
type TrackingOptions struct {
	BatchEnabled      bool
	BatchInterval     time.Duration
	AllowMockLocation bool
	Notification      sdk.ForegroundNotification
	RequireGrant      bool   // Abort when the phone state permission is denied
	Platform          string // GOOS value; the foreground notification is Android-only
}

// TrackingService forwards the shell's start and stop actions to the SDK.
type TrackingService struct {
	sdk       sdk.SDK
	requester permissions.Requester
	listener  *LocationListenerService
	store     *state_managers.ReadingStateManager
	queue     *utils.WorkerPool
	opts      TrackingOptions
	logger    zerolog.Logger

	mu    sync.Mutex
	state constants.TrackingState
}

// NewTrackingService creates an idle TrackingService.
func NewTrackingService(binding sdk.SDK, requester permissions.Requester, listener *LocationListenerService,
	store *state_managers.ReadingStateManager, queue *utils.WorkerPool, opts TrackingOptions, logger zerolog.Logger) *TrackingService {
	return &TrackingService{
		sdk:       binding,
		requester: requester,
		listener:  listener,
		store:     store,
		queue:     queue,
		opts:      opts,
		logger:    logger,
		state:     constants.StateIdle,
	}
}

// RequestLocationPermission asks for fine location access. The result is only logged.
func (t *TrackingService) RequestLocationPermission(ctx context.Context) permissions.Status {
	status, err := t.requester.Request(ctx, permissions.FineLocation, permissions.FineLocationRationale)
	if err != nil {
		t.logger.Warn().Err(err).Msg("Location permission request failed")
	}
	return status
}

// StartTracking requests the phone state permission, configures batching, the
// foreground notification and mock locations, then starts the SDK. A failing
// step is logged and does not stop the following ones.
func (t *TrackingService) StartTracking(ctx context.Context) error {
	observability.TrackingStarts.Inc()

	// A previous stop detaches the listener; re-attach so readings render again.
	if !t.listener.Mounted() {
		if err := t.listener.Mount(); err != nil {
			t.logger.Warn().Err(err).Msg("Continuing without location listener")
		}
	}

	status, err := t.requester.Request(ctx, permissions.PhoneState, permissions.PhoneStateRationale)
	if err != nil {
		t.logger.Warn().Err(err).Msg("Phone state permission request failed")
	}
	if t.opts.RequireGrant && status != permissions.Granted {
		t.logger.Warn().Str("status", string(status)).Msg("Tracking not started without phone state permission")
		return ErrPermissionDenied
	}

	t.check("batch_process", t.sdk.BatchProcess(t.opts.BatchEnabled, t.opts.BatchInterval))

	if t.opts.Platform == constants.PlatformAndroid {
		t.check("set_foreground_notification", t.sdk.SetForegroundNotification(t.opts.Notification))
	} else {
		t.logger.Debug().Str("platform", t.opts.Platform).Msg("Foreground notification skipped on this platform")
	}

	t.check("allow_mock_location", t.sdk.AllowMockLocation(t.opts.AllowMockLocation))
	t.check("start_tracking", t.sdk.StartTracking())

	t.setState(constants.StateTracking)
	t.logger.Info().Msg("Tracking started")
	return nil
}

// StopTracking stops the SDK, detaches the listener and clears the held reading.
// Stopping while idle is tolerated.
func (t *TrackingService) StopTracking(ctx context.Context) error {
	observability.TrackingStops.Inc()

	t.check("stop_tracking", t.sdk.StopTracking())
	t.check("stop_listener", t.listener.Detach())

	// Clear behind any reading already queued by the listener.
	if !t.queue.Submit(t.store.Clear) {
		t.store.Clear()
	}

	t.setState(constants.StateIdle)
	t.logger.Info().Msg("Tracking stopped")
	return nil
}

// State returns the current tracking state.
func (t *TrackingService) State() constants.TrackingState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *TrackingService) setState(state constants.TrackingState) {
	t.mu.Lock()
	t.state = state
	t.mu.Unlock()
}

func (t *TrackingService) check(operation string, err error) {
	if err == nil {
		return
	}
	observability.SDKCallErrors.WithLabelValues(operation).Inc()
	t.logger.Error().Err(err).Str("operation", operation).Msg("SDK call failed")
}
