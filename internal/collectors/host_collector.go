package collectors

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/host"
)

// HostCollector reports host identity and uptime.
type HostCollector struct {
	Logger zerolog.Logger
}

func (h *HostCollector) Name() string {
	return "host"
}

func (h *HostCollector) Collect(ctx context.Context) interface{} {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		h.Logger.Error().Err(err).Msg("Failed to get host info")
		return nil
	}

	return map[string]any{
		"hostname":       info.Hostname,
		"os":             info.OS,
		"platform":       info.Platform,
		"uptime_seconds": info.Uptime,
	}
}

func (h *HostCollector) Description() string {
	return "Hostname, operating system, platform and uptime."
}
