package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewLogger_RoleField verifies that entries carry the role field.
func TestNewLogger_RoleField(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger("viewer", Options{Level: "debug", Out: &buf})

	l.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "viewer", entry["role"])
	assert.Contains(t, entry, "time")
	assert.Contains(t, entry, "func")
}

// TestNewLogger_Level verifies that entries below the configured level are dropped.
func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger("viewer", Options{Level: "warn", Out: &buf})

	l.Info().Msg("dropped")
	assert.Empty(t, buf.String())

	l.Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")

	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

// TestNewLogger_Console verifies that the console format is not JSON.
func TestNewLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger("sim", Options{Level: "info", Format: "console", Out: &buf})

	l.Info().Msg("listening")

	assert.Contains(t, buf.String(), "listening")
	assert.False(t, json.Valid(buf.Bytes()))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.Disabled, ParseLevel("off"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
}

// TestNop_DiscardsOutput verifies that a Nop logger produces no output.
func TestNop_DiscardsOutput(t *testing.T) {
	var buf bytes.Buffer
	l := Nop()
	l.Logger = l.Output(&buf)

	l.Info().Msg("should be discarded")

	assert.Empty(t, buf.String())
}

// TestWith_AddsField verifies that child loggers inherit and extend fields.
func TestWith_AddsField(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLogger("viewer", Options{Level: "debug", Out: &buf})

	parent.With("run_id", "abc").Info().Msg("child")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "viewer", entry["role"])
	assert.Equal(t, "abc", entry["run_id"])
}

// TestFromContext_ReturnsAttachedLogger verifies that FromContext returns the
// logger previously attached to the context.
func TestFromContext_ReturnsAttachedLogger(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf).With().Str("ctx-key", "ctx-value").Logger()
	ctx := zl.WithContext(context.Background())

	l := FromContext(ctx)
	require.NotNil(t, l)
	l.Info().Msg("from context")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ctx-value", entry["ctx-key"])
}
