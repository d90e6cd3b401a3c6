// Package sdk is the binding layer between the tracker and a location-tracking SDK.
//
// The SDK is a process-wide singleton: Initialize is called once at startup with
// the license key and a Receiver, before any other call. Location updates are
// delivered to callbacks registered per event channel; their payload shape is
// owned by the SDK (an object, or an array of objects when batching).
package sdk

import (
	"context"
	"errors"
	"time"

	"github.com/roam-ai/whileusing-batch-listener/internal/models"
)

var (
	// ErrNotInitialized is returned by every call made before Initialize.
	ErrNotInitialized = errors.New("sdk is not initialized")
	// ErrAlreadyInitialized is returned by a second Initialize.
	ErrAlreadyInitialized = errors.New("sdk is already initialized")
	// ErrTrackingActive is returned by StartTracking while tracking.
	ErrTrackingActive = errors.New("tracking is already active")
)

// Callback receives one payload delivered on a listener channel.
type Callback func(payload any)

// Receiver gets background events outside the listener channels.
type Receiver interface {
	OnEvent(event models.Event)
}

// ForegroundNotification describes the persistent notification that keeps
// background tracking alive on platforms that require one.
type ForegroundNotification struct {
	Enabled      bool   `json:"enabled"`
	Title        string `json:"title"`
	Body         string `json:"body"`
	Icon         string `json:"icon"`
	PackageID    string `json:"package_id"`
	ServiceClass string `json:"service_class"`
}

// SDK is the surface of the tracking SDK used by the application.
type SDK interface {
	Initialize(ctx context.Context, licenseKey string, receiver Receiver) error
	StartListener(channel string, callback Callback) error
	StopListener(channel string) error
	BatchProcess(enabled bool, interval time.Duration) error
	SetForegroundNotification(notification ForegroundNotification) error
	AllowMockLocation(enabled bool) error
	StartTracking() error
	StopTracking() error
	Version() string
	Close() error
}
