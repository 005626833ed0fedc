package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{" warn ", zerolog.WarnLevel},
		{"Error", zerolog.ErrorLevel},
		{"trace", zerolog.TraceLevel},
		{"verbose", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var console bytes.Buffer
	log := New("warn", &console, nil)

	log.Info().Msg("hidden")
	log.Warn().Str("image", "fixed").Msg("shown")

	out := console.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "image=")
}

func TestNewWritesFileWithoutColor(t *testing.T) {
	var console, file bytes.Buffer
	log := New("info", &console, &file)

	log.Info().Int("row", 2).Msg("stored")

	assert.Contains(t, console.String(), "stored")
	assert.Contains(t, file.String(), "row=2")
	assert.NotContains(t, file.String(), "\x1b[")
}

func TestOpenFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "picker.log")

	for _, msg := range []string{"first run", "second run"} {
		f, err := OpenFile(path)
		require.NoError(t, err)
		var console bytes.Buffer
		logger := New("info", &console, f)
		logger.Info().Msg(msg)
		require.NoError(t, f.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "first run")
	assert.Contains(t, string(data), "second run")
}
