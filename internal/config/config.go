package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Server struct {
	Port              string `json:"port" yaml:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec" yaml:"request_timeout_sec"`
	Version           string `json:"version" yaml:"version"`
}

type Binance struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	BaseURL string `json:"base_url" yaml:"base_url"`
}

// Headers are added to every Yahoo request that does not already set them.
type Yahoo struct {
	Enabled   bool              `json:"enabled" yaml:"enabled"`
	UserAgent string            `json:"user_agent" yaml:"user_agent"`
	Headers   map[string]string `json:"headers" yaml:"headers"`
}

type Probe struct {
	ConnectTimeoutSec int `json:"connect_timeout_sec" yaml:"connect_timeout_sec"`
	ProbeTimeoutSec   int `json:"probe_timeout_sec" yaml:"probe_timeout_sec"`
}

// Synthetic delays are simulated latency for sources without an adapter.
type Synthetic struct {
	ConnectionDelayMs int `json:"connection_delay_ms" yaml:"connection_delay_ms"`
	APIDelayMs        int `json:"api_delay_ms" yaml:"api_delay_ms"`
}

type Log struct {
	Level      string `json:"level" yaml:"level"`
	Format     string `json:"format" yaml:"format"`
	Output     string `json:"output" yaml:"output"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days"`
}

type Config struct {
	Server    Server    `json:"server" yaml:"server"`
	Binance   Binance   `json:"binance" yaml:"binance"`
	Yahoo     Yahoo     `json:"yahoo" yaml:"yahoo"`
	Probe     Probe     `json:"probe" yaml:"probe"`
	Synthetic Synthetic `json:"synthetic" yaml:"synthetic"`
	Log       Log       `json:"log" yaml:"log"`
}

func Default() Config {
	return Config{
		Server:  Server{Port: "8080", RequestTimeoutSec: 10, Version: "1.0.0"},
		Binance: Binance{Enabled: true, BaseURL: "https://api.binance.com"},
		Yahoo:   Yahoo{Enabled: true, UserAgent: "marketprobe/1.0"},
		Probe:   Probe{ConnectTimeoutSec: 5, ProbeTimeoutSec: 10},
		Log:     Log{Level: "info", Format: "json", Output: "stdout"},
	}
}

// Load reads config from path, JSON or YAML by extension. With an empty path
// it looks for config.json, then config.yaml, in the working directory; a
// missing file means defaults. A .env file, when present, is loaded into the
// environment before overrides are applied.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		for _, candidate := range []string{"config.json", "config.yaml", "config.yml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := decode(path, b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	applyEnv(&cfg)
	return cfg, cfg.validate()
}

func decode(path string, b []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, cfg)
	default:
		return json.Unmarshal(b, cfg)
	}
}

func (c Config) validate() error {
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if c.Probe.ConnectTimeoutSec <= 0 || c.Probe.ProbeTimeoutSec <= 0 {
		return errors.New("probe timeouts must be positive")
	}
	if c.Synthetic.ConnectionDelayMs < 0 || c.Synthetic.APIDelayMs < 0 {
		return errors.New("synthetic delays cannot be negative")
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if x, ok := envInt("REQUEST_TIMEOUT_SEC"); ok && x > 0 {
		cfg.Server.RequestTimeoutSec = x
	}
	if v := os.Getenv("APP_VERSION"); v != "" {
		cfg.Server.Version = v
	}

	if v := os.Getenv("BINANCE_BASE_URL"); v != "" {
		cfg.Binance.BaseURL = v
	}
	if b, ok := envBool("BINANCE_ENABLED"); ok {
		cfg.Binance.Enabled = b
	}
	if b, ok := envBool("YAHOO_ENABLED"); ok {
		cfg.Yahoo.Enabled = b
	}

	if x, ok := envInt("CONNECT_TIMEOUT_SEC"); ok && x > 0 {
		cfg.Probe.ConnectTimeoutSec = x
	}
	if x, ok := envInt("PROBE_TIMEOUT_SEC"); ok && x > 0 {
		cfg.Probe.ProbeTimeoutSec = x
	}
	if x, ok := envInt("SYNTHETIC_CONNECTION_DELAY_MS"); ok && x >= 0 {
		cfg.Synthetic.ConnectionDelayMs = x
	}
	if x, ok := envInt("SYNTHETIC_API_DELAY_MS"); ok && x >= 0 {
		cfg.Synthetic.APIDelayMs = x
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("LOG_OUTPUT"); v != "" {
		cfg.Log.Output = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	var x int
	if _, err := fmt.Sscanf(v, "%d", &x); err != nil {
		return 0, false
	}
	return x, true
}

func envBool(key string) (bool, bool) {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "y":
		return true, true
	case "0", "false", "no", "n":
		return false, true
	}
	return false, false
}
