package collectors

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
)

// Registry runs the registered collectors and merges their output.
type Registry struct {
	collectors map[string]DeviceInfoCollector
	logger     zerolog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		collectors: make(map[string]DeviceInfoCollector),
		logger:     logger,
	}
}

// NewDefaultRegistry registers the host, memory and CPU collectors.
func NewDefaultRegistry(logger zerolog.Logger) *Registry {
	r := NewRegistry(logger)
	r.Register(&HostCollector{Logger: logger})
	r.Register(&MemoryCollector{Logger: logger})
	r.Register(&CPUCollector{Logger: logger})
	return r
}

// Register adds a collector, replacing one with the same name.
func (r *Registry) Register(collector DeviceInfoCollector) {
	r.collectors[collector.Name()] = collector
}

// Names returns the registered collector names in order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.collectors))
	for name := range r.collectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Collect runs every collector. Map results are merged field by field, scalars
// are stored under the collector name and nil results are skipped.
func (r *Registry) Collect(ctx context.Context) map[string]any {
	fields := make(map[string]any)
	for _, name := range r.Names() {
		switch v := r.collectors[name].Collect(ctx).(type) {
		case nil:
			r.logger.Debug().Str("collector", name).Msg("Collector returned no data")
		case map[string]any:
			for k, fv := range v {
				fields[k] = fv
			}
		default:
			fields[name] = v
		}
	}
	return fields
}
