package logger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "ctx.log")
	log := New(Config{Level: "info", Output: logFile, Format: "text"}).With("request_id", "req-1")

	ctx := WithContext(context.Background(), log)
	FromContext(ctx).Info("handled")

	data, err := os.ReadFile(logFile) // nolint:gosec
	require.NoError(t, err)
	assert.Contains(t, string(data), "request_id=req-1")
}

func TestFromContextWithoutLogger(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
	//nolint:staticcheck // a nil context must not panic
	assert.NotNil(t, FromContext(nil))
}

func TestRedactsSecrets(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "secret.log")
	log := New(Config{Level: "info", Output: logFile, Format: "text"})

	log.Info("config loaded",
		"token", "123:ABC",
		"database_url", "postgres://u:p@host/db",
		"driver", "postgres")

	data, err := os.ReadFile(logFile) // nolint:gosec
	require.NoError(t, err)

	content := string(data)
	assert.False(t, strings.Contains(content, "123:ABC"))
	assert.False(t, strings.Contains(content, "u:p@host"))
	assert.Contains(t, content, "driver=postgres")
	assert.Equal(t, 2, strings.Count(content, "[REDACTED]"))
}
