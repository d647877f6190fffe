package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marketprobe/internal/config"
	"marketprobe/internal/provider"
)

type printedEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func offline(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("BINANCE_ENABLED", "false")
	t.Setenv("YAHOO_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_OUTPUT", "stderr")
	t.Setenv("CONFIG_FILE", "")
}

func runCLI(t *testing.T, args ...string) (printedEnvelope, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	var env printedEnvelope
	require.NoError(t, json.Unmarshal(out.Bytes(), &env), out.String())
	return env, err
}

func TestProbeCmd_Sample(t *testing.T) {
	offline(t)

	env, err := runCLI(t, "probe", "--kind", "sample", "--source", "acme", "--symbol", "ETHUSDT", "--limit", "2")
	require.NoError(t, err)
	require.True(t, env.Success)
	var rows []provider.OhlcvRecord
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	require.Len(t, rows, 2)
	require.Equal(t, "ETHUSDT", rows[0].Symbol)
}

func TestProbeCmd_HistoricalDefaults(t *testing.T) {
	offline(t)

	env, err := runCLI(t, "probe", "--kind", "api", "--api-type", "historical")
	require.NoError(t, err)
	var s provider.HistoricalSeries
	require.NoError(t, json.Unmarshal(env.Data, &s))
	require.Equal(t, "BTCUSDT", s.Symbol)
	require.Equal(t, "1h", s.Interval)
	require.Equal(t, 10, s.Count)
}

func TestProbeCmd_DisabledBinanceReportsDisconnected(t *testing.T) {
	offline(t)

	env, err := runCLI(t, "probe", "--source", "binance")
	require.NoError(t, err)
	require.True(t, env.Success)
	var res provider.ConnectionResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.False(t, res.Connected)
	require.Equal(t, "binance", res.Source)
}

func TestProbeCmd_BadLimitFails(t *testing.T) {
	offline(t)

	env, err := runCLI(t, "probe", "--kind", "sample", "--limit", "0")
	require.Error(t, err)
	require.False(t, env.Success)
	require.Equal(t, "Failed to get sample data", env.Message)
}

func TestProvidersFollowConfig(t *testing.T) {
	a := &app{cfg: config.Default()}
	got := a.providers()
	require.Contains(t, got, provider.SourceBinance)
	require.Contains(t, got, provider.SourceYahoo)

	a.cfg.Yahoo.Enabled = false
	got = a.providers()
	require.Len(t, got, 1)
	require.Equal(t, "binance", got[provider.SourceBinance].Name())
}

func TestYahooHTTPCarriesConfiguredHeaders(t *testing.T) {
	t.Parallel()

	// Arrange
	got := make(chan http.Header, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Header.Clone()
	}))
	t.Cleanup(srv.Close)
	cfg := config.Default()
	cfg.Yahoo.UserAgent = "dashboard/2"
	cfg.Yahoo.Headers = map[string]string{"Accept-Language": "en-US"}
	a := &app{cfg: cfg}

	// Act
	resp, err := a.yahooHTTP(time.Second).HTTP.Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	// Assert
	h := <-got
	require.Equal(t, "dashboard/2", h.Get("User-Agent"))
	require.Equal(t, "en-US", h.Get("Accept-Language"))
}
