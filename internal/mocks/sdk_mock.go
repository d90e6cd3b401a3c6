package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/roam-ai/whileusing-batch-listener/internal/models"
	"github.com/roam-ai/whileusing-batch-listener/pkg/sdk"
	"github.com/stretchr/testify/mock"
)

// MockSDK is a mock implementation of the sdk.SDK interface. Registered
// callbacks are kept so tests can deliver payloads with Emit.
type MockSDK struct {
	mock.Mock

	mu        sync.Mutex
	callbacks map[string]sdk.Callback
}

func (m *MockSDK) Initialize(ctx context.Context, licenseKey string, receiver sdk.Receiver) error {
	args := m.Called(ctx, licenseKey, receiver)
	return args.Error(0)
}

func (m *MockSDK) StartListener(channel string, callback sdk.Callback) error {
	args := m.Called(channel, callback)
	if args.Error(0) == nil {
		m.mu.Lock()
		if m.callbacks == nil {
			m.callbacks = make(map[string]sdk.Callback)
		}
		m.callbacks[channel] = callback
		m.mu.Unlock()
	}
	return args.Error(0)
}

func (m *MockSDK) StopListener(channel string) error {
	args := m.Called(channel)
	m.mu.Lock()
	delete(m.callbacks, channel)
	m.mu.Unlock()
	return args.Error(0)
}

func (m *MockSDK) BatchProcess(enabled bool, interval time.Duration) error {
	args := m.Called(enabled, interval)
	return args.Error(0)
}

func (m *MockSDK) SetForegroundNotification(notification sdk.ForegroundNotification) error {
	args := m.Called(notification)
	return args.Error(0)
}

func (m *MockSDK) AllowMockLocation(enabled bool) error {
	args := m.Called(enabled)
	return args.Error(0)
}

func (m *MockSDK) StartTracking() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSDK) StopTracking() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSDK) Version() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockSDK) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Emit delivers payload to the callback registered on channel, if any.
func (m *MockSDK) Emit(channel string, payload any) bool {
	m.mu.Lock()
	callback, ok := m.callbacks[channel]
	m.mu.Unlock()
	if ok {
		callback(payload)
	}
	return ok
}

// MockReceiver records background events.
type MockReceiver struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *MockReceiver) OnEvent(event models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events.
func (r *MockReceiver) Events() []models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Event(nil), r.events...)
}

// Types returns the recorded event types in order.
func (r *MockReceiver) Types() []models.EventType {
	var types []models.EventType
	for _, e := range r.Events() {
		types = append(types, e.Type)
	}
	return types
}
