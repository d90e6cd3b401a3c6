package location

import (
	"context"
	"time"
)

// SourceMock marks fixes produced by MockProvider.
const SourceMock = "mock"

// MockProvider returns a fixed position flagged as a mock location.
type MockProvider struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
}

// NewMockProvider creates a MockProvider for the given coordinates.
func NewMockProvider(lat, lng, accuracy float64) *MockProvider {
	return &MockProvider{Latitude: lat, Longitude: lng, Accuracy: accuracy}
}

// GetLocation returns the configured position.
func (m *MockProvider) GetLocation(ctx context.Context) (Fix, error) {
	if err := ctx.Err(); err != nil {
		return Fix{}, err
	}
	return Fix{
		Latitude:  m.Latitude,
		Longitude: m.Longitude,
		Accuracy:  m.Accuracy,
		Source:    SourceMock,
		Mock:      true,
		Time:      time.Now().UTC(),
	}, nil
}
