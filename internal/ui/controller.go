package ui

import (
	"context"

	"github.com/roam-ai/whileusing-batch-listener/internal/constants"
	"github.com/roam-ai/whileusing-batch-listener/internal/permissions"
)

// Controller is what the shells drive. services.TrackingService implements it.
type Controller interface {
	RequestLocationPermission(ctx context.Context) permissions.Status
	StartTracking(ctx context.Context) error
	StopTracking(ctx context.Context) error
	State() constants.TrackingState
}
