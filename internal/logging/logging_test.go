package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_WriterAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New().FromWriter(&buf).Level(zerolog.InfoLevel).Make()
	require.NoError(t, err)
	defer logger.Close()

	logger.Debug().Msg("hidden")
	logger.Info().Str("workspace", "demo-workspace").Msg("connected")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "connected", entry["message"])
	assert.Equal(t, "demo-workspace", entry["workspace"])
	assert.Contains(t, entry, "time")
}

func TestBuilder_FromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blockpad.log")
	logger, err := New().FromPath(path).Level(zerolog.DebugLevel).Make()
	require.NoError(t, err)

	logger.Warn().Msg("first")
	logger.Warn().Msg("second")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestBuilder_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New().FromWriter(&buf).Console(true).Make()
	require.NoError(t, err)

	logger.Warn().Msg("plain text")
	assert.Contains(t, buf.String(), "plain text")
	assert.False(t, strings.HasPrefix(buf.String(), "{"), "console output should not be JSON")
}
