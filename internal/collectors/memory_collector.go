package collectors

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/mem"
)

// MemoryCollector reports the percentage of used virtual memory.
type MemoryCollector struct {
	Logger zerolog.Logger
}

func (m *MemoryCollector) Name() string {
	return "memory_used_percent"
}

func (m *MemoryCollector) Collect(ctx context.Context) interface{} {
	memStats, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		m.Logger.Error().Err(err).Msg("Failed to retrieve memory statistics")
		return nil
	}
	return memStats.UsedPercent
}

func (m *MemoryCollector) Description() string {
	return "Percentage of used virtual memory."
}
