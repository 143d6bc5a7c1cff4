package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WIDGETD_CONFIG", "")
	chdir(t, t.TempDir())

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, 10*time.Second, c.Server.ReadHeaderTimeout)
	assert.Equal(t, 5*time.Second, c.Server.ShutdownTimeout)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "text", c.Log.Format)
	assert.Equal(t, 10, c.API.DefaultPageSize)
	assert.Equal(t, 500, c.API.MaxPageSize)
	assert.Equal(t, []string{"*"}, c.CORS.AllowedOrigins)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "widgetd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: 127.0.0.1:9000
  shutdown_timeout: 2s
log:
  format: json
api:
  default_page_size: 25
cors:
  allowed_origins: [https://board.example]
`), 0o644))

	t.Setenv("WIDGETD_LOG_LEVEL", "debug")
	t.Setenv("WIDGETD_API_MAX_PAGE_SIZE", "100")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", c.Server.Addr)
	assert.Equal(t, 2*time.Second, c.Server.ShutdownTimeout)
	assert.Equal(t, "json", c.Log.Format)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, 25, c.API.DefaultPageSize)
	assert.Equal(t, 100, c.API.MaxPageSize)
	assert.Equal(t, []string{"https://board.example"}, c.CORS.AllowedOrigins)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsBadValues(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("WIDGETD_CONFIG", "")

	t.Setenv("WIDGETD_LOG_FORMAT", "xml")
	_, err := Load("")
	require.ErrorContains(t, err, "log.format")

	t.Setenv("WIDGETD_LOG_FORMAT", "text")
	t.Setenv("WIDGETD_API_DEFAULT_PAGE_SIZE", "0")
	_, err = Load("")
	require.ErrorContains(t, err, "default_page_size")

	t.Setenv("WIDGETD_API_DEFAULT_PAGE_SIZE", "10")
	t.Setenv("WIDGETD_LOG_LEVEL", "loud")
	_, err = Load("")
	require.ErrorContains(t, err, "log.level")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l, err := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	require.NoError(t, err)

	l.Info("dropped")
	l.Warn("kept", slog.Int("z", 3))
	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, `"msg":"kept"`)
	assert.Contains(t, out, `"z":3`)
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
