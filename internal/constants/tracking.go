package constants

import "time"

// LocationChannel is the SDK event channel carrying location updates.
const LocationChannel = "location"

// Platforms with platform-specific tracking behaviour.
const (
	PlatformAndroid = "android"
)

// Batching defaults applied by the tracking controller.
const (
	DefaultBatchEnabled  = true
	DefaultBatchInterval = 0 * time.Second
)

// Foreground notification defaults.
const (
	DefaultNotificationTitle   = "Tracking Active"
	DefaultNotificationBody    = "Tap to open app"
	DefaultNotificationIcon    = "mipmap/ic_launcher"
	DefaultNotificationPackage = "com.sampleandroidwhileusingbatchlistener"
	DefaultNotificationService = "com.roam.reactnative.LocationService"
)

// TrackingState is the controller's coarse lifecycle state.
type TrackingState string

const (
	StateIdle     TrackingState = "idle"
	StateTracking TrackingState = "tracking"
)
