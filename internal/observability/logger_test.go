package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("warn", &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Str("k", "v").Msg("shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "tracker", entry["app"])
	assert.Equal(t, "v", entry["k"])
}

func TestNewLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, NewLogger("loud", &bytes.Buffer{}).GetLevel())
	assert.Equal(t, zerolog.InfoLevel, NewLogger("", &bytes.Buffer{}).GetLevel())
	assert.Equal(t, zerolog.DebugLevel, NewLogger("debug", &bytes.Buffer{}).GetLevel())
}
