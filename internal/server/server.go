// Package server exposes the probe operations over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	pkgerrors "github.com/pkg/errors"

	"marketprobe/internal/logger"
	"marketprobe/internal/probe"
	"marketprobe/internal/provider"
)

const (
	defaultSource   = "generic"
	defaultType     = "rest"
	defaultSymbol   = "BTCUSDT"
	defaultLimit    = 5
	defaultAPIType  = "market"
	defaultInterval = "1h"
	maxLimit        = 1000
)

// Prober is the orchestrator the handlers call into.
type Prober interface {
	TestConnection(ctx context.Context, source string) provider.Connection
	Sample(ctx context.Context, source, symbol string, limit int) probe.Outcome
	TestAPI(ctx context.Context, source, apiType, symbol, interval string) probe.Outcome
}

// Op names one of the three probe operations.
type Op int

const (
	OpConnection Op = iota
	OpSample
	OpAPI
)

// Envelope is the body of every probe response. Failed envelopes carry only
// Message and Error.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

type Options struct {
	Version        string
	RequestTimeout time.Duration // 0 means no limit beyond the probe timeouts
	Clock          func() time.Time
	Log            *logger.Log
}

type Server struct {
	prober Prober
	opts   Options
	log    *logger.Entry
	router *mux.Router
}

func New(prober Prober, opts Options) *Server {
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Log == nil {
		opts.Log = logger.Default()
	}
	s := &Server{prober: prober, opts: opts, log: opts.Log.WithComponent("server")}
	s.router = mux.NewRouter()
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/data-test/test-connection", s.handleOp(OpConnection)).Methods(http.MethodPost)
	s.router.HandleFunc("/data-test/sample", s.handleOp(OpSample)).Methods(http.MethodPost)
	s.router.HandleFunc("/data-test/test-api", s.handleOp(OpAPI)).Methods(http.MethodPost)
	return s
}

// Handler returns the router wrapped in the full middleware chain.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = limitBody(h)
	h = recoverPanic(s.log)(h)
	h = withGzip(h)
	h = withJSONHeaders(h)
	h = withAccessLog(s.log)(h)
	h = withRequestID(h)
	return withCORS(h)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Health{Status: "ok", Timestamp: provider.Timestamp(s.opts.Clock()), Version: s.opts.Version})
}

func (s *Server) handleOp(op Op) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.opts.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
			defer cancel()
		}
		status, env := s.Dispatch(ctx, op, r.Body)
		writeJSON(w, status, env)
	}
}

// Dispatch decodes body as the request for op, runs it and shapes the
// envelope. Only a malformed request fails; provider trouble never does.
func (s *Server) Dispatch(ctx context.Context, op Op, body io.Reader) (int, Envelope) {
	switch op {
	case OpConnection:
		var req connectionRequest
		if err := decode(body, &req); err != nil {
			return s.failure(ctx, "Connection test failed", err)
		}
		req.defaults()
		start := time.Now()
		conn := s.prober.TestConnection(ctx, req.Source)
		latency := time.Since(start).Milliseconds()
		return http.StatusOK, Envelope{
			Success: true,
			Message: conn.Message,
			Data: provider.ConnectionResult{
				Source:    req.Source,
				Type:      req.Type,
				Connected: conn.Connected,
				LatencyMs: latency,
				Timestamp: provider.Timestamp(s.opts.Clock()),
			},
		}

	case OpSample:
		var req sampleRequest
		if err := decode(body, &req); err != nil {
			return s.failure(ctx, "Failed to get sample data", err)
		}
		limit, err := req.limit()
		if err != nil {
			return s.failure(ctx, "Failed to get sample data", err)
		}
		req.defaults()
		out := s.prober.Sample(ctx, req.Source, req.Symbol, limit)
		return http.StatusOK, Envelope{Success: true, Message: withFallback("Sample data retrieved successfully", out), Data: out.Data}

	case OpAPI:
		var req apiRequest
		if err := decode(body, &req); err != nil {
			return s.failure(ctx, "API test failed", err)
		}
		req.defaults()
		out := s.prober.TestAPI(ctx, req.Source, req.APIType, req.Symbol, req.Interval)
		return http.StatusOK, Envelope{Success: true, Message: withFallback("API test successful", out), Data: out.Data}

	default:
		return s.failure(ctx, "Unknown operation", pkgerrors.Errorf("unknown op %d", op))
	}
}

func (s *Server) failure(ctx context.Context, message string, err error) (int, Envelope) {
	s.log.WithFields(logger.Fields{"request_id": RequestID(ctx)}).WithError(err).Warn(message)
	return http.StatusInternalServerError, Envelope{Message: message, Error: err.Error()}
}

func withFallback(message string, out probe.Outcome) string {
	if out.Fallback {
		return message + " (fallback)"
	}
	return message
}

type connectionRequest struct {
	Source string `json:"source"`
	Type   string `json:"type"`
}

func (r *connectionRequest) defaults() {
	if r.Source == "" {
		r.Source = defaultSource
	}
	if r.Type == "" {
		r.Type = defaultType
	}
}

type sampleRequest struct {
	Source string `json:"source"`
	Symbol string `json:"symbol"`
	Limit  *int   `json:"limit"`
}

func (r *sampleRequest) defaults() {
	if r.Source == "" {
		r.Source = defaultSource
	}
	if r.Symbol == "" {
		r.Symbol = defaultSymbol
	}
}

func (r *sampleRequest) limit() (int, error) {
	if r.Limit == nil {
		return defaultLimit, nil
	}
	if n := *r.Limit; n < 1 || n > maxLimit {
		return 0, pkgerrors.Errorf("limit must be between 1 and %d, got %d", maxLimit, n)
	}
	return *r.Limit, nil
}

type apiRequest struct {
	Source   string `json:"source"`
	APIType  string `json:"apiType"`
	Symbol   string `json:"symbol"`
	Interval string `json:"interval"`
}

func (r *apiRequest) defaults() {
	if r.Source == "" {
		r.Source = defaultSource
	}
	if r.APIType == "" {
		r.APIType = defaultAPIType
	}
	if r.Symbol == "" {
		r.Symbol = defaultSymbol
	}
	if r.Interval == "" {
		r.Interval = defaultInterval
	}
}

// decode reads one JSON object into v. An absent body leaves v at its zero
// value so every field takes its default.
func decode(body io.Reader, v any) error {
	if body == nil {
		return nil
	}
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return pkgerrors.Wrap(err, "invalid JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
