package sdk_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/roam-ai/whileusing-batch-listener/internal/mocks"
	"github.com/roam-ai/whileusing-batch-listener/internal/models"
	"github.com/roam-ai/whileusing-batch-listener/pkg/location"
	"github.com/roam-ai/whileusing-batch-listener/pkg/sdk"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	fix   location.Fix
	err   error
	calls atomic.Int32
}

func (s *stubProvider) GetLocation(ctx context.Context) (location.Fix, error) {
	s.calls.Add(1)
	return s.fix, s.err
}

type staticInfo map[string]any

func (s staticInfo) Collect(context.Context) map[string]any { return s }

func newLocal(t *testing.T, provider location.Provider) (*sdk.LocalSDK, *mocks.MockReceiver) {
	t.Helper()
	receiver := &mocks.MockReceiver{}
	l := sdk.NewLocalSDK(provider, staticInfo{"hostname": "test-host", "device_id": "ignored"},
		"device-1", 10*time.Millisecond, zerolog.Nop())
	require.NoError(t, l.Initialize(context.Background(), "license", receiver))
	t.Cleanup(func() { _ = l.Close() })
	return l, receiver
}

func collect(t *testing.T, l *sdk.LocalSDK) chan any {
	t.Helper()
	payloads := make(chan any, 64)
	require.NoError(t, l.StartListener(sdk.ChannelLocation, func(p any) {
		select {
		case payloads <- p:
		default:
		}
	}))
	return payloads
}

func next(t *testing.T, payloads chan any) any {
	t.Helper()
	select {
	case p := <-payloads:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("no payload delivered")
		return nil
	}
}

func TestLocalSDK_RequiresInitialize(t *testing.T) {
	l := sdk.NewLocalSDK(&stubProvider{}, nil, "d", time.Second, zerolog.Nop())

	assert.ErrorIs(t, l.StartListener("location", func(any) {}), sdk.ErrNotInitialized)
	assert.ErrorIs(t, l.BatchProcess(true, 0), sdk.ErrNotInitialized)
	assert.ErrorIs(t, l.StartTracking(), sdk.ErrNotInitialized)
	assert.ErrorIs(t, l.StopTracking(), sdk.ErrNotInitialized)

	assert.Error(t, l.Initialize(context.Background(), "", nil))
	require.NoError(t, l.Initialize(context.Background(), "key", nil))
	assert.ErrorIs(t, l.Initialize(context.Background(), "key", nil), sdk.ErrAlreadyInitialized)
}

func TestLocalSDK_UnbatchedDeliversObject(t *testing.T) {
	l, receiver := newLocal(t, &stubProvider{fix: location.Fix{Latitude: 1, Longitude: 2, Source: "gps"}})
	payloads := collect(t, l)
	require.NoError(t, l.BatchProcess(false, 0))

	require.NoError(t, l.StartTracking())
	assert.ErrorIs(t, l.StartTracking(), sdk.ErrTrackingActive)

	reading, ok := next(t, payloads).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "device-1", reading["device_id"])
	assert.Equal(t, "test-host", reading["hostname"])
	loc := reading[models.LocationKey].(map[string]any)
	assert.Equal(t, 1.0, loc["latitude"])
	assert.Equal(t, 2.0, loc["longitude"])

	require.NoError(t, l.StopTracking())
	assert.False(t, l.Tracking())
	require.NoError(t, l.StopTracking())

	types := receiver.Types()
	require.NotEmpty(t, types)
	assert.Equal(t, models.EventTrackingStarted, types[0])
	assert.Contains(t, types, models.EventLocation)
	assert.Equal(t, models.EventTrackingStopped, types[len(types)-1])
}

func TestLocalSDK_ZeroIntervalBatchDeliversSingleElementArray(t *testing.T) {
	l, _ := newLocal(t, &stubProvider{fix: location.Fix{Latitude: 1}})
	payloads := collect(t, l)
	require.NoError(t, l.BatchProcess(true, 0))
	require.NoError(t, l.StartTracking())

	batch, ok := next(t, payloads).([]any)
	require.True(t, ok)
	assert.Len(t, batch, 1)
}

func TestLocalSDK_IntervalBatchBuffers(t *testing.T) {
	l, _ := newLocal(t, &stubProvider{fix: location.Fix{Latitude: 1}})
	payloads := collect(t, l)
	require.NoError(t, l.BatchProcess(true, 60*time.Millisecond))
	require.NoError(t, l.StartTracking())

	batch, ok := next(t, payloads).([]any)
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(batch), 2)
}

func TestLocalSDK_MockFixes(t *testing.T) {
	provider := &stubProvider{fix: location.Fix{Latitude: 1, Mock: true, Source: location.SourceMock}}
	l, _ := newLocal(t, provider)
	payloads := collect(t, l)
	require.NoError(t, l.BatchProcess(false, 0))
	require.NoError(t, l.AllowMockLocation(false))
	require.NoError(t, l.StartTracking())

	assert.Eventually(t, func() bool { return provider.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, payloads)

	require.NoError(t, l.AllowMockLocation(true))
	reading := next(t, payloads).(map[string]any)
	assert.Equal(t, true, reading["mock"])
}

func TestLocalSDK_ProviderErrorReported(t *testing.T) {
	l, receiver := newLocal(t, &stubProvider{err: errors.New("no fix")})
	require.NoError(t, l.StartTracking())

	assert.Eventually(t, func() bool {
		for _, e := range receiver.Events() {
			if e.Type == models.EventError && e.Error == "no fix" {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestLocalSDK_StopListener(t *testing.T) {
	l, _ := newLocal(t, &stubProvider{fix: location.Fix{Latitude: 1}})
	payloads := collect(t, l)
	require.NoError(t, l.StopListener(sdk.ChannelLocation))
	require.NoError(t, l.BatchProcess(false, 0))
	require.NoError(t, l.StartTracking())

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, payloads)
}

func TestLocalSDK_ForegroundNotification(t *testing.T) {
	l, _ := newLocal(t, &stubProvider{})
	assert.NoError(t, l.SetForegroundNotification(sdk.ForegroundNotification{Enabled: true, Title: "Tracking Active"}))
	assert.Error(t, l.BatchProcess(true, -time.Second))
	assert.Equal(t, sdk.LocalVersion, l.Version())
}
