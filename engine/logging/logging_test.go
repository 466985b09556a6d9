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

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{" warn ", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"trace", zerolog.NoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, closer, err := New(Config{Level: "loud"})
	require.Error(t, err)
	assert.NotNil(t, closer)
}

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "eduren.log")
	logger, closer, err := New(Config{Level: "info", File: path})
	require.NoError(t, err)

	logger.Debug().Msg("hidden")
	child := logger.With().Str("component", "camera").Logger()
	child.Info().Msg("moved")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "eduren", entry["app"])
	assert.Equal(t, "camera", entry["component"])
	assert.Equal(t, "moved", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestConsoleWriter(t *testing.T) {
	var out bytes.Buffer
	logger, _, err := newLogger(Config{Level: "debug", Console: true}, &out)
	require.NoError(t, err)

	logger.Debug().Str("component", "engine").Msg("frame")
	assert.Contains(t, out.String(), "frame")
	assert.Contains(t, out.String(), "engine")
}

func TestNoWritersIsNop(t *testing.T) {
	logger, closer, err := New(Config{Level: "info"})
	require.NoError(t, err)
	assert.Equal(t, zerolog.Disabled, logger.GetLevel())
	assert.NoError(t, closer.Close())
}
