package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	got := sanitizeKVs([]interface{}{"owner_id", "u1", "token", "abc.def.ghi", "Authorization", "Bearer x", "dangling"})
	assert.Equal(t, []interface{}{"owner_id", "u1", "token", "[REDACTED]", "Authorization", "[REDACTED]", "dangling"}, got)
}

func TestWarnWritesStructuredFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("component", "test").Warn("projection drift", "op", "CreateProblem", "jwt_secret", "s3cr3t")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "projection drift", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "test", fields["component"])
	assert.Equal(t, "CreateProblem", fields["op"])
	assert.Equal(t, "[REDACTED]", fields["jwt_secret"])
}

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"dev", "prod", "nop"} {
		l, err := New(mode)
		require.NoError(t, err, mode)
		require.NotNil(t, l)
	}
}
