package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"marketprobe/internal/config"
	"marketprobe/internal/httpx"
	"marketprobe/internal/logger"
	"marketprobe/internal/probe"
	"marketprobe/internal/provider"
	"marketprobe/internal/provider/binance"
	"marketprobe/internal/provider/synthetic"
	"marketprobe/internal/provider/yahoo"
	"marketprobe/internal/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	cfg config.Config
	log *logger.Log
}

func newRootCmd() *cobra.Command {
	rt := &app{}
	var cfgPath string

	root := &cobra.Command{
		Use:          "marketprobe",
		Short:        "Probe market-data providers with synthetic fallback",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgPath == "" {
				cfgPath = os.Getenv("CONFIG_FILE")
			}
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			log := logger.Default()
			if err := log.Configure(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.MaxAgeDays); err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			rt.cfg, rt.log = cfg, log
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.serve(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (.json, .yaml); defaults to CONFIG_FILE")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.serve(cmd.Context())
		},
	})
	root.AddCommand(newProbeCmd(rt))
	return root
}

func newProbeCmd(rt *app) *cobra.Command {
	var kind, source, symbol, apiType, interval string
	var limit int

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Run one probe and print the response envelope",
		Example: `  marketprobe probe --kind connection --source binance
  marketprobe probe --kind sample --source yahoo --symbol BTCUSDT --limit 3
  marketprobe probe --kind api --source binance --api-type historical --interval 5m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var op server.Op
			body := map[string]any{}
			set := func(key, val string) {
				if val != "" {
					body[key] = val
				}
			}
			set("source", source)
			set("symbol", symbol)
			switch kind {
			case "connection":
				op = server.OpConnection
			case "sample":
				op = server.OpSample
				if cmd.Flags().Changed("limit") {
					body["limit"] = limit
				}
			case "api":
				op = server.OpAPI
				set("apiType", apiType)
				set("interval", interval)
			default:
				return fmt.Errorf("unknown --kind %q (connection, sample, api)", kind)
			}
			raw, err := json.Marshal(body)
			if err != nil {
				return err
			}

			srv := server.New(rt.service(), server.Options{Version: rt.cfg.Server.Version, Log: rt.log})
			status, env := srv.Dispatch(cmd.Context(), op, bytes.NewReader(raw))
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(env); err != nil {
				return err
			}
			if status != http.StatusOK {
				return fmt.Errorf("probe failed: %s", env.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "connection", "connection, sample or api")
	cmd.Flags().StringVar(&source, "source", "", "provider: binance, yahoo, anything else is generic")
	cmd.Flags().StringVar(&symbol, "symbol", "", "instrument symbol (default BTCUSDT)")
	cmd.Flags().IntVar(&limit, "limit", 5, "sample rows, 1-1000")
	cmd.Flags().StringVar(&apiType, "api-type", "", "market, historical or realtime")
	cmd.Flags().StringVar(&interval, "interval", "", "historical bar interval (default 1h)")
	return cmd
}

// providers builds the enabled adapters. The HTTP timeout backs up the
// per-call context deadlines the probe service sets.
func (rt *app) providers() map[provider.Source]provider.Provider {
	timeout := time.Duration(rt.cfg.Probe.ProbeTimeoutSec) * time.Second
	out := map[provider.Source]provider.Provider{}
	if rt.cfg.Binance.Enabled {
		hc := httpx.New(timeout)
		out[provider.SourceBinance] = binance.New(binance.Config{BaseURL: rt.cfg.Binance.BaseURL}, hc.HTTP)
	}
	if rt.cfg.Yahoo.Enabled {
		out[provider.SourceYahoo] = yahoo.New(yahoo.Config{}, yahoo.NewClient(rt.yahooHTTP(timeout).HTTP))
	}
	return out
}

func (rt *app) yahooHTTP(timeout time.Duration) *httpx.Client {
	hc := httpx.New(timeout)
	if rt.cfg.Yahoo.UserAgent != "" {
		hc.UserAgent = rt.cfg.Yahoo.UserAgent
	}
	hc.Headers = rt.cfg.Yahoo.Headers
	return hc
}

func (rt *app) service() *probe.Service {
	return probe.New(probe.Config{
		ConnectTimeout:  time.Duration(rt.cfg.Probe.ConnectTimeoutSec) * time.Second,
		ProbeTimeout:    time.Duration(rt.cfg.Probe.ProbeTimeoutSec) * time.Second,
		ConnectionDelay: time.Duration(rt.cfg.Synthetic.ConnectionDelayMs) * time.Millisecond,
		APIDelay:        time.Duration(rt.cfg.Synthetic.APIDelayMs) * time.Millisecond,
	}, rt.providers(), synthetic.New(), rt.log)
}

func (rt *app) serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	log := rt.log.WithComponent("main")
	srv := &http.Server{
		Addr: ":" + rt.cfg.Server.Port,
		Handler: server.New(rt.service(), server.Options{
			Version:        rt.cfg.Server.Version,
			RequestTimeout: time.Duration(rt.cfg.Server.RequestTimeoutSec) * time.Second,
			Log:            rt.log,
		}).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.WithFields(logger.Fields{"port": rt.cfg.Server.Port, "binance": rt.cfg.Binance.Enabled, "yahoo": rt.cfg.Yahoo.Enabled}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	select {
	case err, ok := <-errc:
		if ok {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
