package services

import (
	"testing"

	"github.com/roam-ai/whileusing-batch-listener/internal/constants"
	"github.com/roam-ai/whileusing-batch-listener/internal/mocks"
	"github.com/roam-ai/whileusing-batch-listener/internal/models"
	"github.com/roam-ai/whileusing-batch-listener/internal/state_managers"
	"github.com/roam-ai/whileusing-batch-listener/internal/utils"
	"github.com/roam-ai/whileusing-batch-listener/pkg/sdk"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func drain(queue *utils.WorkerPool) {
	done := make(chan struct{})
	queue.Submit(func() { close(done) })
	<-done
}

// TestLocationListener_LateDeliveryAfterStopIsDiscarded covers a callback that
// started before the detach but reaches the queue after the clear.
func TestLocationListener_LateDeliveryAfterStopIsDiscarded(t *testing.T) {
	// Setup
	logger := zerolog.Nop()
	binding := new(mocks.MockSDK)
	binding.On("StartListener", constants.LocationChannel, mock.Anything).Return(nil)
	binding.On("StopListener", constants.LocationChannel).Return(nil)
	store := state_managers.NewReadingStateManager(logger)
	queue := utils.NewWorkerPool(1, 8)
	t.Cleanup(queue.Shutdown)
	l := NewLocationListenerService(constants.LocationChannel, sdk.NewSubscriber(binding), store, queue, logger)
	require.NoError(t, l.Mount())

	// The delivery reads the generation, then the stop detaches and clears.
	gen := l.generation()
	require.NoError(t, l.Detach())
	queue.Submit(store.Clear)

	// Execute
	queue.Submit(l.storeTask(gen, models.Reading{"battery": 90}))
	drain(queue)

	// Assert
	_, ok := store.Current()
	assert.False(t, ok)
}

// TestLocationListener_RemountDiscardsOldGeneration checks a delivery from a
// previous mount is not written after a stop and restart.
func TestLocationListener_RemountDiscardsOldGeneration(t *testing.T) {
	logger := zerolog.Nop()
	binding := new(mocks.MockSDK)
	binding.On("StartListener", constants.LocationChannel, mock.Anything).Return(nil)
	binding.On("StopListener", constants.LocationChannel).Return(nil)
	store := state_managers.NewReadingStateManager(logger)
	queue := utils.NewWorkerPool(1, 8)
	t.Cleanup(queue.Shutdown)
	l := NewLocationListenerService(constants.LocationChannel, sdk.NewSubscriber(binding), store, queue, logger)
	require.NoError(t, l.Mount())

	stale := l.generation()
	require.NoError(t, l.Detach())
	require.NoError(t, l.Mount())

	queue.Submit(l.storeTask(stale, models.Reading{"seq": 1}))
	queue.Submit(l.storeTask(l.generation(), models.Reading{"seq": 2}))
	drain(queue)

	reading, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, 2, reading["seq"])
}
