package collectors

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/cpu"
)

// CPUCollector reports CPU utilization since the previous call.
type CPUCollector struct {
	Logger zerolog.Logger
}

func (c *CPUCollector) Name() string {
	return "cpu_percent"
}

func (c *CPUCollector) Collect(ctx context.Context) interface{} {
	cpuPercentages, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		c.Logger.Error().Err(err).Msg("Failed to get CPU usage")
		return nil
	}
	if len(cpuPercentages) == 0 {
		c.Logger.Warn().Msg("CPU usage data is empty")
		return nil
	}
	return cpuPercentages[0]
}

func (c *CPUCollector) Description() string {
	return "Percentage of CPU utilization across all cores."
}
