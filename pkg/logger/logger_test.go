package logger

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readLog returns the contents of a log file written by a test.
func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path) // nolint:gosec
	require.NoError(t, err)
	return string(data)
}

func TestNew(t *testing.T) {
	for _, cfg := range []Config{
		{Level: "info", Output: "stderr", Format: "text"},
		{Level: "debug", Output: "stdout", Format: "json"},
		{},
	} {
		assert.NotNil(t, New(cfg))
	}
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level   string
		present []string
		absent  []string
	}{
		{level: "debug", present: []string{"debug push", "info push", "warn push", "error push"}},
		{level: "info", present: []string{"info push", "error push"}, absent: []string{"debug push"}},
		{level: "warning", present: []string{"warn push"}, absent: []string{"info push"}},
		{level: "error", present: []string{"error push"}, absent: []string{"warn push", "info push"}},
		{level: "verbose", present: []string{"info push"}, absent: []string{"debug push"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "ysdb.log")
			log := New(Config{Level: tt.level, Output: path, Format: "text"})

			log.Debug("debug push")
			log.Info("info push")
			log.Warn("warn push")
			log.Error("error push")

			content := readLog(t, path)
			for _, msg := range tt.present {
				assert.Contains(t, content, msg)
			}
			for _, msg := range tt.absent {
				assert.NotContains(t, content, msg)
			}
		})
	}
}

func TestJSONFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ysdb.log")
	log := New(Config{Level: "info", Output: path, Format: "json"})

	log.With("chat_id", int64(-100)).Info("contribution recorded", "amount", 190)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(readLog(t, path))), &entry))
	assert.Equal(t, "contribution recorded", entry["msg"])
	assert.Equal(t, float64(190), entry["amount"])
	assert.Equal(t, float64(-100), entry["chat_id"])
}

func TestVersionOnEveryRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ysdb.log")
	log := New(Config{Output: path, Format: "text", Version: "1.4.0"})

	log.Info("bot started")
	log.With("command", "push").Warn("slow storage")

	lines := strings.Split(strings.TrimSpace(readLog(t, path)), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.Contains(t, line, "version=1.4.0")
	}
}

func TestSecretsAreRedacted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ysdb.log")
	log := New(Config{Output: path, Format: "json"})

	log.Info("config loaded", "token", "123:abc", "Database_URL", "postgres://bot:pw@db/ysdb", "driver", "postgres")

	content := readLog(t, path)
	assert.NotContains(t, content, "123:abc")
	assert.NotContains(t, content, "bot:pw")
	assert.Contains(t, content, `"token":"[REDACTED]"`)
	assert.Contains(t, content, `"driver":"postgres"`)
}

func TestWithKeepsParentClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ysdb.log")
	parent := New(Config{Level: "info", Output: path, Format: "text"})

	parent.With("request_id", "req-9").Info("child")
	parent.Info("parent")

	lines := strings.Split(strings.TrimSpace(readLog(t, path)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "request_id=req-9")
	assert.NotContains(t, lines[1], "request_id")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestGetWriter(t *testing.T) {
	w, err := getWriter("stdout")
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, w)

	w, err = getWriter("")
	require.NoError(t, err)
	assert.Equal(t, os.Stderr, w)

	_, err = getWriter(filepath.Join(t.TempDir(), "missing", "dir", "ysdb.log"))
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	log := Noop()
	log.Error("dropped", "error", "boom")
	assert.NotNil(t, log.With("k", "v"))
	assert.NotNil(t, Default())
}
