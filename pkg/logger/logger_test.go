package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&Config{Level: "warn", Output: &buf})

	log.Debug("hidden")
	log.Info("hidden")
	log.Warn("shown")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "warn", entry["level"])
}

func TestContextFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(&Config{Level: "debug", Output: &buf}).With().Str("party", "p1").Int("round", 2).Logger()

	log.InfoEvent().Str("sid", Fingerprint([]byte("run-42"))).Msg("step")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "p1", entry["party"])
	assert.EqualValues(t, 2, entry["round"])
	assert.Len(t, entry["sid"], 12)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.Disabled, ParseLevel("disabled"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
}

func TestNop(t *testing.T) {
	// must not panic
	Nop().ErrorEvent().Str("k", "v").Msg("dropped")
}
