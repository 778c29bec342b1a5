package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/cleancare/ccadmin/pkg/contextkeys"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := NewLogger("warn", buf)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.WithField("zone_id", 4).Warn("kept")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, float64(4), entry["zone_id"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    logrus.Level
		wantErr bool
	}{
		{"", logrus.InfoLevel, false},
		{"debug", logrus.DebugLevel, false},
		{"warning", logrus.WarnLevel, false},
		{"error", logrus.ErrorLevel, false},
		{"loud", logrus.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := NewLogger("info", buf)
	require.NoError(t, err)

	t.Run("builds entry from ids", func(t *testing.T) {
		buf.Reset()
		ctx := contextkeys.WithRequestID(context.Background(), "req-9")
		ctx = contextkeys.WithUserID(ctx, 77)

		FromContext(ctx, logger).Info("hello")

		assert.Contains(t, buf.String(), `"request_id":"req-9"`)
		assert.Contains(t, buf.String(), `"user_id":77`)
	})

	t.Run("prefers stored entry", func(t *testing.T) {
		buf.Reset()
		ctx := contextkeys.WithLogger(context.Background(), logger.WithField("component", "scope"))

		FromContext(ctx, logger).Info("hello")

		assert.Contains(t, buf.String(), `"component":"scope"`)
	})
}
