package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sampleConfig = `
server:
  host: 127.0.0.1
  port: "9090"
log:
  level: debug
timing:
  text_min_delay: 100ms
  text_max_delay: 200ms
  upload_delay: 50ms
  generate_delay: 1s
placeholder:
  base_url: https://img.example.com
  width: 256
  height: 128
history:
  driver: memory
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	tmp, err := os.CreateTemp(t.TempDir(), "cfg-*.yaml")
	require.NoError(t, err)
	_, err = tmp.WriteString(body)
	require.NoError(t, err)
	require.NoError(t, tmp.Close())
	return tmp.Name()
}

// TestLoad_File verifies that Load unmarshals every section of the yaml file.
func TestLoad_File(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, sampleConfig))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1", cfg.Server.Host)
	require.Equal(t, "9090", cfg.Server.Port)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, 100*time.Millisecond, cfg.Timing.TextMinDelay)
	require.Equal(t, 200*time.Millisecond, cfg.Timing.TextMaxDelay)
	require.Equal(t, 50*time.Millisecond, cfg.Timing.UploadDelay)
	require.Equal(t, time.Second, cfg.Timing.GenerateDelay)
	require.Equal(t, "https://img.example.com", cfg.Placeholder.BaseURL)
	require.Equal(t, 256, cfg.Placeholder.Width)
	require.Equal(t, 128, cfg.Placeholder.Height)
	require.Equal(t, HistoryDriverMemory, cfg.History.Driver)
	// Unset keys keep their defaults.
	require.Equal(t, int64(10<<20), cfg.Upload.MaxBytes)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, sampleConfig))
	t.Setenv("CHATSIM_TIMING_UPLOAD_DELAY", "750ms")
	t.Setenv("CHATSIM_SERVER_PORT", "7000")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 750*time.Millisecond, cfg.Timing.UploadDelay)
	require.Equal(t, "7000", cfg.Server.Port)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/chatsim.yaml")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_InvalidDelays(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, `
timing:
  text_min_delay: 3s
  text_max_delay: 1s
`))
	_, err := Load()
	require.ErrorContains(t, err, "exceeds text_max_delay")
}

func TestDefault(t *testing.T) {
	require.NotPanics(t, func() { Default() })
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, DefaultTextMinDelay, cfg.Timing.TextMinDelay)
	require.Equal(t, DefaultTextMaxDelay, cfg.Timing.TextMaxDelay)
	require.Equal(t, DefaultUploadDelay, cfg.Timing.UploadDelay)
	require.Equal(t, DefaultGenerateDelay, cfg.Timing.GenerateDelay)
	require.Equal(t, 512, cfg.Placeholder.Width)
	require.Equal(t, HistoryDriverSQLite, cfg.History.Driver)
}
