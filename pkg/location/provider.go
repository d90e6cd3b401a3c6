package location

import "context"

// Provider interface defines the methods for location providers
type Provider interface {
	GetLocation(ctx context.Context) (Fix, error)
}
