package receivers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/roam-ai/whileusing-batch-listener/internal/mocks"
	"github.com/roam-ai/whileusing-batch-listener/internal/models"
	"github.com/roam-ai/whileusing-batch-listener/internal/receivers"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestLogReceiver_LogsErrors(t *testing.T) {
	var buf bytes.Buffer
	r := receivers.NewLogReceiver(zerolog.New(&buf))

	r.OnEvent(models.Event{Type: models.EventError, Error: "gps lost"})
	assert.Contains(t, buf.String(), "gps lost")
	assert.Contains(t, buf.String(), `"level":"error"`)
}

func TestMQTTReceiver_PublishesJSON(t *testing.T) {
	client := new(mocks.MockMQTTClient)
	client.On("Publish", "tracker/receiver", byte(1), false, mock.MatchedBy(func(p interface{}) bool {
		var e models.Event
		return json.Unmarshal(p.([]byte), &e) == nil && e.Type == models.EventTrackingStarted
	})).Return(mocks.NewCompletedToken(nil)).Once()

	r := receivers.NewMQTTReceiver(client, "tracker/receiver", 1, time.Second, zerolog.Nop())
	r.OnEvent(models.Event{Type: models.EventTrackingStarted, Timestamp: time.Now()})

	client.AssertExpectations(t)
}

func TestMQTTReceiver_PublishErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	client := new(mocks.MockMQTTClient)
	client.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(mocks.NewCompletedToken(errors.New("offline")))

	r := receivers.NewMQTTReceiver(client, "t", 0, time.Second, zerolog.New(&buf))
	r.OnEvent(models.Event{Type: models.EventLocation})

	assert.Contains(t, buf.String(), "offline")
}

func TestMultiReceiver_FansOut(t *testing.T) {
	a, b := &mocks.MockReceiver{}, &mocks.MockReceiver{}
	receivers.MultiReceiver{a, b}.OnEvent(models.Event{Type: models.EventTrackingStopped})

	assert.Equal(t, []models.EventType{models.EventTrackingStopped}, a.Types())
	assert.Equal(t, []models.EventType{models.EventTrackingStopped}, b.Types())
}
