package bale

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
token: "123:abc"
base_url: http://localhost:8081
database_name: offsets.db
persist_offset: true
auto_log_start_message: true
log_level: warn
poll_timeout: 15
poll_limit: 20
shutdown_grace: 2
max_concurrent_handlers: 8
proxy: socks5://127.0.0.1:1080
`), 0o600))

	c, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "123:abc", c.Token)
	assert.Equal(t, "http://localhost:8081", c.BaseURL)
	assert.Equal(t, "offsets.db", c.DatabaseName)
	assert.True(t, c.PersistOffset)
	assert.True(t, c.AutoLogStartMessage)
	assert.Equal(t, LogWarn, c.LogLevel)
	assert.Equal(t, 15*time.Second, c.PollTimeout)
	assert.Equal(t, 20, c.PollLimit)
	assert.Equal(t, 2*time.Second, c.ShutdownGrace)
	assert.Equal(t, 8, c.MaxConcurrentHandlers)
	require.NotNil(t, c.Proxy)
	assert.Equal(t, "socks5", c.Proxy.Scheme)
}

func TestLoadConfigFile_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: from-file\nlog_level: info\n"), 0o600))
	t.Setenv(EnvToken, "from-env")
	t.Setenv(EnvDebug, "true")

	c, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.Token)
	assert.True(t, c.Debug)
	assert.Equal(t, LogInfo, c.LogLevel)
}

func TestLoadConfigFile_Errors(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tokn: typo\n"), 0o600))
	_, err = LoadConfigFile(path)
	assert.Error(t, err, "unknown keys are rejected")

	require.NoError(t, os.WriteFile(path, []byte("proxy: \"http://\"\n"), 0o600))
	_, err = LoadConfigFile(path)
	assert.Error(t, err)
}

func TestConfigFromEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "bot.env")
	require.NoError(t, os.WriteFile(envFile, []byte("BALE_DATABASE_NAME=from-dotenv.db\nBALE_LOG_LEVEL=debug\n"), 0o600))
	for _, k := range []string{EnvDatabaseName, EnvLogLevel} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	t.Setenv(EnvToken, "42:env")
	t.Setenv(EnvAutoLogStart, "1")

	c, err := ConfigFromEnv(envFile)
	require.NoError(t, err)
	assert.Equal(t, "42:env", c.Token)
	assert.Equal(t, "from-dotenv.db", c.DatabaseName)
	assert.Equal(t, LogDebug, c.LogLevel)
	assert.True(t, c.AutoLogStartMessage)

	_, err = ConfigFromEnv(filepath.Join(dir, "absent.env"))
	assert.NoError(t, err)
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient(ClientConfig{Token: testToken, LogLevel: LogDisable})
	require.NoError(t, err)
	cfg := c.Config()
	assert.Equal(t, "https://tapi.bale.ai", cfg.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.PollTimeout)
	assert.Equal(t, 100, cfg.PollLimit)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Second, cfg.ShutdownGrace)
	assert.Equal(t, StateIdle, c.State())
	assert.Nil(t, c.Me())
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	assert.Error(t, err)
	_, err = NewClient(ClientConfig{Token: testToken, PersistOffset: true})
	assert.Error(t, err)
	_, err = NewClient(ClientConfig{Token: testToken, MaxConcurrentHandlers: -1})
	assert.Error(t, err)
}

func TestLogger_Prefixes(t *testing.T) {
	buf := &syncBuffer{}
	log := NewLoggerTo(buf, LogDebug)
	log.WithPrefix("balegram.updates").Debug("polled %d updates", 3)
	log.SetLevel(LogWarn)
	log.Info("hidden")
	log.Warnf("shown %s", "warning")

	out := buf.String()
	assert.Contains(t, out, "balegram.updates")
	assert.Contains(t, out, "polled 3 updates")
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown warning")
}
