package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(body), 0o600))

	return dir
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, 4000, cfg.Host.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, int64(50), cfg.Upload.MaxSize)
	assert.Equal(t, int64(50<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, "memory", cfg.Cache.Type)
	assert.False(t, cfg.Mail.Enabled())
}

func TestLoadFile(t *testing.T) {
	dir := writeConfig(t, `
[app]
log_level = "debug"

[host]
port = 8080
cors_origins = ["https://storagify.example"]

[jwt]
secret = "file-secret"
expiry = "1h"

[storage]
type = "s3"

[aws]
region = "eu-central-1"
bucket = "uploads"

[upload]
max_size = 10

[mail]
host = "smtp.example.com"
username = "bot@example.com"
password = "hunter2"
`)

	t.Setenv("HOST_PORT", "9090")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, 9090, cfg.Host.Port)
	assert.Equal(t, []string{"https://storagify.example"}, cfg.Host.CORSOrigins)
	assert.Equal(t, "file-secret", cfg.JWT.Secret)
	assert.Equal(t, time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, "uploads", cfg.AWS.Bucket)
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxBytes)
	assert.True(t, cfg.Mail.Enabled())
	assert.Equal(t, "bot@example.com", cfg.Mail.Sender)
	assert.Equal(t, 587, cfg.Mail.Port)
}

func TestLoadMissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, ErrNoJWTSecret)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"log level", "[app]\nlog_level = \"loud\""},
		{"storage type", "[storage]\ntype = \"floppy\""},
		{"s3 without bucket", "[storage]\ntype = \"s3\"\n[aws]\nregion = \"eu-central-1\""},
		{"r2 without public url", "[storage]\ntype = \"r2\"\n[cloudflare]\naccount_id = \"a\"\naccess_key_id = \"b\"\nsecret_access_key = \"c\"\nbucket = \"d\""},
		{"database driver", "[database]\ndriver = \"mysql\""},
		{"upload size", "[upload]\nmax_size = 0"},
		{"redis without addr", "[cache]\ntype = \"redis\""},
		{"ssl without cert", "[host.ssl]\nenabled = true"},
		{"turnstile without secret", "[security.turnstile]\nenabled = true"},
		{"rate limit", "[security]\nrate_limit = 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "secret")

			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadBrokenFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load(writeConfig(t, "this is = = not toml"))
	assert.Error(t, err)
}

func TestLoadLogsThroughGlobalLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	t.Cleanup(zap.ReplaceGlobals(zap.New(core)))
	t.Setenv("JWT_SECRET", "from-env")

	_, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("No config.toml found, using defaults and environment").Len())

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "Mail configuration missing")
}
