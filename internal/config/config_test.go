package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

// clearEnv blanks every override so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "REQUEST_TIMEOUT_SEC", "APP_VERSION", "BINANCE_BASE_URL", "BINANCE_ENABLED",
		"YAHOO_ENABLED", "CONNECT_TIMEOUT_SEC", "PROBE_TIMEOUT_SEC", "SYNTHETIC_CONNECTION_DELAY_MS",
		"SYNTHETIC_API_DELAY_MS", "LOG_LEVEL", "LOG_FORMAT", "LOG_OUTPUT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, 5, cfg.Probe.ConnectTimeoutSec)
	require.Equal(t, 10, cfg.Probe.ProbeTimeoutSec)
	require.Equal(t, "1.0.0", cfg.Server.Version)
}

func TestLoad_JSONAndYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	jsonPath := writeFile(t, dir, "c.json", `{"server":{"port":"9090"},"binance":{"enabled":false},"synthetic":{"api_delay_ms":250}}`)
	cfg, err := Load(jsonPath)
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Server.Port)
	require.False(t, cfg.Binance.Enabled)
	require.Equal(t, 250, cfg.Synthetic.APIDelayMs)
	// untouched sections keep defaults
	require.True(t, cfg.Yahoo.Enabled)

	yamlPath := writeFile(t, dir, "c.yaml", "probe:\n  connect_timeout_sec: 2\nlog:\n  format: text\nyahoo:\n  headers:\n    Accept-Language: en-US\n")
	cfg, err = Load(yamlPath)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Probe.ConnectTimeoutSec)
	require.Equal(t, 10, cfg.Probe.ProbeTimeoutSec)
	require.Equal(t, "text", cfg.Log.Format)
	require.Equal(t, map[string]string{"Accept-Language": "en-US"}, cfg.Yahoo.Headers)
	require.Equal(t, "marketprobe/1.0", cfg.Yahoo.UserAgent)
}

func TestLoad_BadFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	_, err := Load(writeFile(t, dir, "c.json", `{"server":`))
	require.ErrorContains(t, err, "parse config")

	_, err = Load(writeFile(t, dir, "neg.json", `{"synthetic":{"connection_delay_ms":-1}}`))
	require.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "7000")
	t.Setenv("BINANCE_BASE_URL", "http://127.0.0.1:9")
	t.Setenv("YAHOO_ENABLED", "no")
	t.Setenv("CONNECT_TIMEOUT_SEC", "1")
	t.Setenv("PROBE_TIMEOUT_SEC", "bogus")
	t.Setenv("SYNTHETIC_CONNECTION_DELAY_MS", "1000")
	t.Setenv("APP_VERSION", "2.3.4")
	t.Setenv("LOG_OUTPUT", "stderr")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "7000", cfg.Server.Port)
	require.Equal(t, "http://127.0.0.1:9", cfg.Binance.BaseURL)
	require.False(t, cfg.Yahoo.Enabled)
	require.Equal(t, 1, cfg.Probe.ConnectTimeoutSec)
	require.Equal(t, 10, cfg.Probe.ProbeTimeoutSec)
	require.Equal(t, 1000, cfg.Synthetic.ConnectionDelayMs)
	require.Equal(t, "2.3.4", cfg.Server.Version)
	require.Equal(t, "stderr", cfg.Log.Output)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, ".env", "PORT=6123\n")
	// t.Setenv restores the variable godotenv sets
	t.Setenv("PORT", "")
	require.NoError(t, os.Unsetenv("PORT"))

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "6123", cfg.Server.Port)
}
