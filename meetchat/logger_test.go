package meetchat

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlogLogger_WritesFieldsAsAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

	l.Debug("hidden", nil)
	l.Warn("publish failed", map[string]any{"meeting": "m-1", "attempt": 1})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "WARN", line["level"])
	require.Equal(t, "publish failed", line["msg"])
	require.Equal(t, "m-1", line["meeting"])
	require.EqualValues(t, 1, line["attempt"])
}

func TestNopLogger(t *testing.T) {
	l := NopLogger()
	l.Error("ignored", map[string]any{"k": "v"})
	require.NotNil(t, NewSlogLogger(nil))
}
