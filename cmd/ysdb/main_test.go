package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/ysdb/pkg/config"
	"github.com/0xmhha/ysdb/pkg/ledger"
	"github.com/0xmhha/ysdb/pkg/logger"
	"github.com/0xmhha/ysdb/pkg/report"
)

// isolate points HOME at an empty directory and clears YSDB_* variables.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{
		config.EnvConfig, config.EnvBotToken, config.EnvDatabaseURL,
		config.EnvDBPath, config.EnvStorageDriver, config.EnvLogLevel,
	} {
		t.Setenv(key, "")
	}
}

func TestRun(t *testing.T) {
	isolate(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "usage", args: nil},
		{name: "version flag", args: []string{"-version"}},
		{name: "version command", args: []string{"version"}},
		{name: "unknown command", args: []string{"bogus"}, wantErr: "unknown command: bogus"},
		{name: "unknown config subcommand", args: []string{"config", "bogus"}, wantErr: "unknown config subcommand"},
		{name: "migrate needs postgres", args: []string{"migrate"}, wantErr: "postgres driver"},
		{name: "serve needs a token", args: []string{"serve"}, wantErr: "telegram.token is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(tt.args)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseServeFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    serveCommand
		wantErr bool
	}{
		{
			name: "defaults",
			args: []string{},
			want: serveCommand{configPath: "/test/config.yaml"},
		},
		{
			name: "all flags",
			args: []string{"-bot-token", "123:abc", "-host", "db", "-port", "6432", "-db", "ysdb", "-user", "bot", "-password", "secret"},
			want: serveCommand{
				configPath: "/test/config.yaml",
				botToken:   "123:abc",
				postgres: config.PostgresParams{
					Host: "db", Port: 6432, Database: "ysdb", User: "bot", Password: "secret",
				},
			},
		},
		{
			name:    "unknown flag",
			args:    []string{"-verbose"},
			wantErr: true,
		},
		{
			name:    "bad port",
			args:    []string{"-port", "http"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := parseServeFlags("/test/config.yaml", tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *cmd)
		})
	}
}

func TestServeConfigure(t *testing.T) {
	isolate(t)

	cmd, err := parseServeFlags("", []string{"-bot-token", "123:abc", "-host", "db", "-db", "ysdb", "-user", "bot"})
	require.NoError(t, err)

	cfg, err := cmd.configure()
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "postgres://bot@db:5432/ysdb", cfg.Storage.DatabaseURL)

	// Without connection flags the configured bolt store is kept.
	cmd, err = parseServeFlags("", []string{"-bot-token", "123:abc"})
	require.NoError(t, err)
	cfg, err = cmd.configure()
	require.NoError(t, err)
	assert.Equal(t, "bolt", cfg.Storage.Driver)
}

func TestParseConsoleFlags(t *testing.T) {
	cmd, err := parseConsoleFlags("", []string{"-driver", "memory", "-user-id", "7", "-chat-id", "-100", "-name", "Ops", "-format", "json"})
	require.NoError(t, err)
	assert.Equal(t, consoleCommand{
		driver: "memory",
		userID: 7,
		chatID: -100,
		name:   "Ops",
		format: "json",
	}, *cmd)

	_, err = parseConsoleFlags("", []string{"-format", "xml"})
	assert.Error(t, err)
}

func newConsoleService(t *testing.T, format report.Format) (*consoleCommand, func(string, bool) string) {
	t.Helper()

	cfg := config.Default()
	cfg.Storage.Driver = "memory"
	l := ledger.NewMemory(ledger.Config{}, logger.Noop())
	svc := newService(cfg, l, serviceOptions{format: format}, logger.Noop())

	cmd := &consoleCommand{userID: 1, chatID: 1, name: "Tester", format: string(format)}
	drive := func(input string, interactive bool) string {
		var out bytes.Buffer
		require.NoError(t, cmd.loop(context.Background(), svc, strings.NewReader(input), &out, interactive))
		return out.String()
	}
	return cmd, drive
}

func TestConsoleLoop(t *testing.T) {
	_, drive := newConsoleService(t, report.FormatText)

	out := drive("push 100\n\n/mystat\nnonsense\nquit\n/push 5\n", false)

	assert.Contains(t, out, "✅ +100 recorded")
	assert.Contains(t, out, "📒 Tester")
	assert.Contains(t, out, "(no reply)")
	assert.NotContains(t, out, "+5 recorded")
	assert.NotContains(t, out, consolePrompt)

	out = drive("/push 0\n", true)
	assert.True(t, strings.HasPrefix(out, consolePrompt))
	assert.Contains(t, out, "⚠️ amount must be between 1 and 80000")
}

func TestConsoleJSON(t *testing.T) {
	_, drive := newConsoleService(t, report.FormatJSON)

	out := drive("/push 250\n", false)
	assert.Contains(t, out, `"type": "push"`)
	assert.Contains(t, out, `"amount": 250`)
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "telegram:\n  token: secret-token\nstorage:\n  driver: postgres\n  database_url: postgres://bot:pw@db/ysdb\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	for _, format := range []string{"yaml", "json"} {
		t.Run(format, func(t *testing.T) {
			var out bytes.Buffer
			cmd := &configCommand{configPath: path, out: &out}
			require.NoError(t, cmd.Execute([]string{"show", "-format", format}))

			assert.NotContains(t, out.String(), "secret-token")
			assert.NotContains(t, out.String(), "pw@db")
			assert.Contains(t, out.String(), "postgres")
		})
	}

	var out bytes.Buffer
	cmd := &configCommand{configPath: path, out: &out}
	assert.Error(t, cmd.Execute([]string{"show", "-format", "toml"}))
}

func TestConfigInit(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "ysdb", "config.yaml")

	var out bytes.Buffer
	cmd := &configCommand{out: &out}
	require.NoError(t, cmd.Execute([]string{"init", "-output", path}))
	assert.Contains(t, out.String(), "Default configuration written to")

	loaded, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Rules, loaded.Rules)

	require.NoError(t, os.WriteFile(path, []byte("rules:\n  max_days: 90\n"), 0600))

	out.Reset()
	cmd = &configCommand{out: &out, in: strings.NewReader("n\n")}
	require.NoError(t, cmd.Execute([]string{"init", "-output", path}))
	assert.Contains(t, out.String(), "Init cancelled.")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "rules:\n  max_days: 90\n", string(data))

	out.Reset()
	cmd = &configCommand{out: &out, in: strings.NewReader("yes\n")}
	require.NoError(t, cmd.Execute([]string{"init", "-output", path}))
	loaded, err = config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 180, loaded.Rules.MaxDays)
}

func TestConfigPath(t *testing.T) {
	isolate(t)

	var out bytes.Buffer
	cmd := &configCommand{out: &out}
	require.NoError(t, cmd.Execute([]string{"path"}))
	assert.Contains(t, out.String(), config.DefaultConfigPath())
	assert.Contains(t, out.String(), "defaults (no config file found)")
}
