// SPDX-License-Identifier: Unlicense OR MIT

package log

import (
	"bytes"
	"encoding/json"
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
		{"", zerolog.InfoLevel},
		{"trace", zerolog.TraceLevel},
		{" Debug ", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"off", zerolog.Disabled},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	l := Component(New(&buf, "debug"), "storage")
	l.Debug().Str("path", "app.yaml").Msg("loading")
	l.Trace().Msg("dropped")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "storage", line["component"])
	assert.Equal(t, "app.yaml", line["path"])
	assert.Equal(t, "loading", line["message"])
}

func TestSetDefault(t *testing.T) {
	old := Default()
	defer SetDefault(old)

	var buf bytes.Buffer
	SetDefault(New(&buf, "info"))
	l := Default()
	l.Info().Msg("hello")
	assert.Contains(t, buf.String(), `"hello"`)
}
