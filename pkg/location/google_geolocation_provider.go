package location

import (
	"context"
	"fmt"
	"time"

	"googlemaps.github.io/maps"
)

// SourceNetwork marks fixes resolved through the Google Geolocation API.
const SourceNetwork = "network"

// GoogleGeolocationProvider uses the Google Maps API to get location data.
type GoogleGeolocationProvider struct {
	client     *maps.Client // Maps API client for making geolocation requests
	modemIndex int          // ModemManager index queried for the serving cell
	timeout    time.Duration
}

// NewGoogleGeolocationProvider creates a new GoogleGeolocationProvider instance.
func NewGoogleGeolocationProvider(apiKey string, modemIndex int) (*GoogleGeolocationProvider, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &GoogleGeolocationProvider{
		client:     c,
		modemIndex: modemIndex,
		timeout:    10 * time.Second,
	}, nil
}

// GetLocation resolves the device position from nearby Wi-Fi access points and the serving cell.
// Missing radio data is tolerated; the API then falls back to the caller's IP.
func (g *GoogleGeolocationProvider) GetLocation(ctx context.Context) (Fix, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := &maps.GeolocationRequest{ConsiderIP: true}

	if wifiAPs, err := getWiFiAccessPoints(ctx); err == nil {
		req.WiFiAccessPoints = wifiAPs
	}
	if cellTowers, err := getCellTowers(ctx, g.modemIndex); err == nil {
		req.CellTowers = cellTowers
	}

	resp, err := g.client.Geolocate(ctx, req)
	if err != nil {
		return Fix{}, fmt.Errorf("geolocate: %w", err)
	}

	return Fix{
		Latitude:  resp.Location.Lat,
		Longitude: resp.Location.Lng,
		Accuracy:  resp.Accuracy,
		Source:    SourceNetwork,
		Time:      time.Now().UTC(),
	}, nil
}
