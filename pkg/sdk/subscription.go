package sdk

import (
	"sync"
	"sync/atomic"
)

// Subscriber turns the SDK's listener calls into subscriptions.
type Subscriber struct {
	sdk SDK
}

// NewSubscriber wraps an SDK binding.
func NewSubscriber(binding SDK) *Subscriber {
	return &Subscriber{sdk: binding}
}

// Subscription is an active listener registration.
type Subscription struct {
	channel string
	active  atomic.Bool
	once    sync.Once
	stop    func(channel string) error
	err     error
}

// Subscribe registers callback on channel. The callback stops receiving as soon
// as Unsubscribe is called, even if the SDK still has deliveries in flight.
func (s *Subscriber) Subscribe(channel string, callback Callback) (*Subscription, error) {
	sub := &Subscription{channel: channel, stop: s.sdk.StopListener}
	sub.active.Store(true)

	err := s.sdk.StartListener(channel, func(payload any) {
		if sub.active.Load() {
			callback(payload)
		}
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Channel returns the subscribed channel name.
func (s *Subscription) Channel() string {
	return s.channel
}

// Active reports whether the subscription still forwards payloads.
func (s *Subscription) Active() bool {
	return s.active.Load()
}

// Unsubscribe deregisters the listener. Only the first call reaches the SDK;
// later calls return the first call's result.
func (s *Subscription) Unsubscribe() error {
	s.once.Do(func() {
		s.active.Store(false)
		s.err = s.stop(s.channel)
	})
	return s.err
}
