package state_managers

import (
	"sync"

	"github.com/roam-ai/whileusing-batch-listener/internal/models"
	"github.com/rs/zerolog"
)

// ReadingStateManager holds the most recent reading. It is the only mutable
// state shared between the listener, the controller and the shells.
type ReadingStateManager struct {
	logger zerolog.Logger

	mu        sync.RWMutex
	reading   models.Reading
	present   bool
	observers []func()
}

// NewReadingStateManager creates an empty ReadingStateManager.
func NewReadingStateManager(logger zerolog.Logger) *ReadingStateManager {
	return &ReadingStateManager{logger: logger}
}

// Set overwrites the held reading.
func (sm *ReadingStateManager) Set(reading models.Reading) {
	sm.mu.Lock()
	sm.reading = reading
	sm.present = true
	observers := sm.observers
	sm.mu.Unlock()

	sm.logger.Debug().Int("fields", len(reading)).Msg("Reading updated")
	notify(observers)
}

// Clear discards the held reading.
func (sm *ReadingStateManager) Clear() {
	sm.mu.Lock()
	sm.reading = nil
	sm.present = false
	observers := sm.observers
	sm.mu.Unlock()

	sm.logger.Debug().Msg("Reading cleared")
	notify(observers)
}

// Current returns the held reading and whether one is present.
func (sm *ReadingStateManager) Current() (models.Reading, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.reading, sm.present
}

// OnChange registers fn to be called after every Set or Clear.
func (sm *ReadingStateManager) OnChange(fn func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.observers = append(sm.observers, fn)
}

func notify(observers []func()) {
	for _, fn := range observers {
		fn()
	}
}
