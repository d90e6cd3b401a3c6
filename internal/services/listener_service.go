package services

import (
	"sync"

	"github.com/roam-ai/whileusing-batch-listener/internal/models"
	"github.com/roam-ai/whileusing-batch-listener/internal/observability"
	"github.com/roam-ai/whileusing-batch-listener/internal/state_managers"
	"github.com/roam-ai/whileusing-batch-listener/internal/utils"
	"github.com/roam-ai/whileusing-batch-listener/pkg/sdk"
	"github.com/rs/zerolog"
)

// LocationListenerService keeps one SDK subscription on the location channel
// while mounted and writes every delivered reading into the state slot.
type LocationListenerService struct {
	channel    string
	subscriber *sdk.Subscriber
	store      *state_managers.ReadingStateManager
	queue      *utils.WorkerPool
	logger     zerolog.Logger

	mu  sync.Mutex
	sub *sdk.Subscription
	gen uint64 // bumped on every unmount
}

// NewLocationListenerService creates an unmounted listener. Store writes are
// submitted to queue so they apply in delivery order.
func NewLocationListenerService(channel string, subscriber *sdk.Subscriber, store *state_managers.ReadingStateManager,
	queue *utils.WorkerPool, logger zerolog.Logger) *LocationListenerService {
	return &LocationListenerService{
		channel:    channel,
		subscriber: subscriber,
		store:      store,
		queue:      queue,
		logger:     logger,
	}
}

// Start mounts the listener.
func (l *LocationListenerService) Start() error {
	return l.Mount()
}

// Stop unmounts the listener.
func (l *LocationListenerService) Stop() error {
	return l.Unmount()
}

// Mount registers the callback. Mounting an already mounted listener is a no-op.
func (l *LocationListenerService) Mount() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sub != nil {
		l.logger.Debug().Str("channel", l.channel).Msg("Location listener already mounted")
		return nil
	}

	sub, err := l.subscriber.Subscribe(l.channel, l.onPayload)
	if err != nil {
		l.logger.Error().Err(err).Str("channel", l.channel).Msg("Failed to mount location listener")
		return err
	}
	l.sub = sub

	l.logger.Info().Str("channel", l.channel).Msg("Location listener mounted")
	return nil
}

// Unmount deregisters the callback. Unmounting an unmounted listener is a no-op.
func (l *LocationListenerService) Unmount() error {
	l.mu.Lock()
	sub := l.sub
	l.sub = nil
	if sub != nil {
		l.gen++
	}
	l.mu.Unlock()

	if sub == nil {
		return nil
	}

	if err := sub.Unsubscribe(); err != nil {
		l.logger.Error().Err(err).Str("channel", l.channel).Msg("Failed to unmount location listener")
		return err
	}

	l.logger.Info().Str("channel", l.channel).Msg("Location listener unmounted")
	return nil
}

// Detach drops the subscription so no further readings are stored until the
// next Mount.
func (l *LocationListenerService) Detach() error {
	return l.Unmount()
}

// Mounted reports whether the listener currently holds a subscription.
func (l *LocationListenerService) Mounted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sub != nil
}

func (l *LocationListenerService) onPayload(payload any) {
	gen := l.generation()

	reading, err := models.NormalizePayload(payload)
	if err != nil {
		observability.ReadingsRejected.Inc()
		l.logger.Warn().Err(err).Msg("Dropping location payload")
		return
	}

	if !l.queue.Submit(l.storeTask(gen, reading)) {
		l.logger.Debug().Msg("Event queue closed, reading dropped")
		return
	}

	observability.ReadingsReceived.Inc()
	l.logger.Info().Interface("location", reading).Msg("Location received")
}

func (l *LocationListenerService) generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen
}

// storeTask writes reading unless the listener was unmounted after the
// delivery began. A late write would otherwise land behind the stop's clear.
func (l *LocationListenerService) storeTask(gen uint64, reading models.Reading) func() {
	return func() {
		l.mu.Lock()
		current := l.sub != nil && l.gen == gen
		l.mu.Unlock()

		if !current {
			l.logger.Debug().Msg("Discarding reading delivered before unmount")
			return
		}
		l.store.Set(reading)
	}
}
