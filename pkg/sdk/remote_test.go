package sdk_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/roam-ai/whileusing-batch-listener/internal/mocks"
	"github.com/roam-ai/whileusing-batch-listener/internal/models"
	"github.com/roam-ai/whileusing-batch-listener/pkg/sdk"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func commandMatcher(name string) interface{} {
	return mock.MatchedBy(func(payload interface{}) bool {
		b, ok := payload.([]byte)
		if !ok {
			return false
		}
		var cmd struct {
			Command string `json:"command"`
		}
		return json.Unmarshal(b, &cmd) == nil && cmd.Command == name
	})
}

func newRemote(t *testing.T) (*sdk.RemoteSDK, *mocks.MockMQTTClient, *mocks.MockReceiver) {
	t.Helper()
	client := new(mocks.MockMQTTClient)
	receiver := &mocks.MockReceiver{}
	ok := mocks.NewCompletedToken(nil)

	client.On("Subscribe", "fleet/events", byte(1), mock.Anything).Return(ok).Once()
	client.On("Publish", "fleet/commands", byte(1), false, commandMatcher(sdk.CommandInitialize)).Return(ok).Once()

	r := sdk.NewRemoteSDK(client, "fleet", 1, time.Second, zerolog.Nop())
	require.NoError(t, r.Initialize(context.Background(), "license", receiver))
	return r, client, receiver
}

func TestRemoteSDK_RequiresInitialize(t *testing.T) {
	r := sdk.NewRemoteSDK(new(mocks.MockMQTTClient), "fleet", 1, time.Second, zerolog.Nop())
	assert.ErrorIs(t, r.StartTracking(), sdk.ErrNotInitialized)
	assert.ErrorIs(t, r.StartListener("location", func(any) {}), sdk.ErrNotInitialized)
	assert.Error(t, r.Initialize(context.Background(), "", nil))
}

func TestRemoteSDK_InitializeTwice(t *testing.T) {
	r, _, _ := newRemote(t)
	assert.ErrorIs(t, r.Initialize(context.Background(), "license", nil), sdk.ErrAlreadyInitialized)
}

func TestRemoteSDK_ForwardsEventsToReceiver(t *testing.T) {
	_, client, receiver := newRemote(t)

	handler := client.Calls[0].Arguments.Get(2).(paho.MessageHandler)
	handler(nil, mocks.NewMockMessage("fleet/events", []byte(`{"type":"tracking_started"}`)))
	handler(nil, mocks.NewMockMessage("fleet/events", []byte(`not json`)))

	assert.Equal(t, []models.EventType{models.EventTrackingStarted}, receiver.Types())
}

func TestRemoteSDK_ListenerDecodesPayloads(t *testing.T) {
	r, client, _ := newRemote(t)
	ok := mocks.NewCompletedToken(nil)
	client.On("Subscribe", "fleet/location", byte(1), mock.Anything).Return(ok).Once()
	client.On("Publish", "fleet/commands", byte(1), false, commandMatcher(sdk.CommandStartListener)).Return(ok).Once()
	client.On("Unsubscribe", []string{"fleet/location"}).Return(ok).Once()
	client.On("Publish", "fleet/commands", byte(1), false, commandMatcher(sdk.CommandStopListener)).Return(ok).Once()

	var got []any
	require.NoError(t, r.StartListener("location", func(p any) { got = append(got, p) }))

	var handler paho.MessageHandler
	for _, c := range client.Calls {
		if c.Method == "Subscribe" && c.Arguments.String(0) == "fleet/location" {
			handler = c.Arguments.Get(2).(paho.MessageHandler)
		}
	}
	require.NotNil(t, handler)

	handler(nil, mocks.NewMockMessage("fleet/location", []byte(`[{"location":{"lat":1}}]`)))
	handler(nil, mocks.NewMockMessage("fleet/location", []byte(`{broken`)))
	require.Len(t, got, 1)
	assert.Equal(t, []any{map[string]any{"location": map[string]any{"lat": float64(1)}}}, got[0])

	require.NoError(t, r.StopListener("location"))
	client.AssertExpectations(t)
}

func TestRemoteSDK_TrackingCommands(t *testing.T) {
	r, client, _ := newRemote(t)
	ok := mocks.NewCompletedToken(nil)
	for _, name := range []string{
		sdk.CommandBatchProcess,
		sdk.CommandForegroundNotification,
		sdk.CommandAllowMockLocation,
		sdk.CommandStartTracking,
		sdk.CommandStopTracking,
	} {
		client.On("Publish", "fleet/commands", byte(1), false, commandMatcher(name)).Return(ok).Once()
	}

	assert.NoError(t, r.BatchProcess(true, 0))
	assert.NoError(t, r.SetForegroundNotification(sdk.ForegroundNotification{Enabled: true}))
	assert.NoError(t, r.AllowMockLocation(true))
	assert.NoError(t, r.StartTracking())
	assert.NoError(t, r.StopTracking())
	client.AssertExpectations(t)
}

func TestRemoteSDK_PublishFailure(t *testing.T) {
	r, client, _ := newRemote(t)
	client.On("Publish", "fleet/commands", byte(1), false, commandMatcher(sdk.CommandStartTracking)).
		Return(mocks.NewCompletedToken(errors.New("broker down"))).Once()

	err := r.StartTracking()
	assert.ErrorContains(t, err, "broker down")
}

func TestRemoteSDK_Close(t *testing.T) {
	r, client, _ := newRemote(t)
	client.On("Unsubscribe", []string{"fleet/events"}).Return(mocks.NewCompletedToken(nil)).Once()
	client.On("Disconnect", uint(250)).Return().Once()

	assert.NoError(t, r.Close())
	client.AssertExpectations(t)
}
