package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		logDebug  bool
		wantLines int
	}{
		{name: "info level drops debug", level: "info", logDebug: true, wantLines: 1},
		{name: "debug level keeps debug", level: "debug", logDebug: true, wantLines: 2},
		{name: "unknown level falls back to info", level: "loud", logDebug: true, wantLines: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Config{Level: tt.level, Output: &buf})

			log.Info().Msg("hello")
			if tt.logDebug {
				log.Debug().Msg("details")
			}

			lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
			assert.Len(t, lines, tt.wantLines)

			var entry map[string]interface{}
			require.NoError(t, json.Unmarshal(lines[0], &entry))
			assert.Equal(t, "circlepay", entry["service"])
			assert.Equal(t, "hello", entry["message"])
		})
	}
}
