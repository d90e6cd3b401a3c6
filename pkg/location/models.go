package location

import "time"

// Fix represents a single position sample produced by a Provider.
type Fix struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
	Altitude  float64
	Source    string
	Mock      bool
	Time      time.Time
}
