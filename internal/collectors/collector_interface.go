package collectors

import "context"

// DeviceInfoCollector contributes device fields to every locally produced reading.
type DeviceInfoCollector interface {
	Name() string                            // Key used when Collect returns a scalar
	Collect(ctx context.Context) interface{} // Scalar value, map of fields, or nil when unavailable
	Description() string
}
