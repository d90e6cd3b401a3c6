package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReadingsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracker_readings_received_total",
		Help: "Readings delivered by the SDK and stored",
	})
	ReadingsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracker_readings_rejected_total",
		Help: "Payloads that could not be normalized into a reading",
	})
	TrackingStarts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracker_tracking_starts_total",
		Help: "StartTracking invocations",
	})
	TrackingStops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracker_tracking_stops_total",
		Help: "StopTracking invocations",
	})
	SDKCallErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_sdk_call_errors_total",
		Help: "Failed SDK calls by operation",
	}, []string{"operation"})
	PermissionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_permission_requests_total",
		Help: "Permission requests by permission and outcome",
	}, []string{"permission", "status"})
	BackgroundEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_background_events_total",
		Help: "Background SDK events by type",
	}, []string{"type"})
)
