// Package probe runs provider calls and substitutes synthetic data whenever a
// call fails, times out, comes back empty, or the source has no adapter.
package probe

import (
	"context"
	"fmt"
	"time"

	"marketprobe/internal/logger"
	"marketprobe/internal/provider"
	"marketprobe/internal/provider/synthetic"
)

type Config struct {
	ConnectTimeout  time.Duration // default 5s
	ProbeTimeout    time.Duration // sample and api calls, default 10s
	ConnectionDelay time.Duration // simulated latency for sources without an adapter
	APIDelay        time.Duration
}

// Outcome is the data a probe produced. Fallback is set when a registered
// adapter failed and synthetic data stands in; Err is that adapter's error.
type Outcome struct {
	Data     any
	Fallback bool
	Err      error
}

type Service struct {
	cfg       Config
	providers map[provider.Source]provider.Provider
	gen       *synthetic.Generator
	log       *logger.Entry
}

// New registers the given adapters by source. Sources missing from the map
// are served by gen.
func New(cfg Config, providers map[provider.Source]provider.Provider, gen *synthetic.Generator, log *logger.Log) *Service {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 10 * time.Second
	}
	if gen == nil {
		gen = synthetic.New()
	}
	if log == nil {
		log = logger.Default()
	}
	if providers == nil {
		providers = map[provider.Source]provider.Provider{}
	}
	return &Service{cfg: cfg, providers: providers, gen: gen, log: log.WithComponent("probe")}
}

// TestConnection checks liveness of source. A registered adapter is always
// asked for real; its failure is reported as disconnected, never simulated.
func (s *Service) TestConnection(ctx context.Context, source string) provider.Connection {
	src := provider.ParseSource(source)
	p, ok := s.providers[src]
	if !ok {
		if src != provider.SourceGeneric {
			return provider.Connection{Message: fmt.Sprintf("%s adapter is disabled", src)}
		}
		if err := sleep(ctx, s.cfg.ConnectionDelay); err != nil {
			return provider.Connection{Message: fmt.Sprintf("%s connection timeout", source)}
		}
		return s.gen.Connection(source)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()
	start := time.Now()
	conn, err := p.ProbeConnection(ctx)
	s.timed(p.Name(), "connection", start, err != nil)
	if err != nil {
		s.failed(p.Name(), "connection", err)
		conn.Connected = false
		if conn.Message == "" {
			conn.Message = err.Error()
		}
	}
	return conn
}

// Sample returns up to limit bars for symbol. A partial result from an
// adapter stands; an empty one falls back.
func (s *Service) Sample(ctx context.Context, source, symbol string, limit int) Outcome {
	src := provider.ParseSource(source)
	style := synthetic.StyleFor(src)
	p, ok := s.providers[src]
	if !ok {
		return Outcome{Data: s.gen.Series(symbol, limit, style)}
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ProbeTimeout)
	defer cancel()
	start := time.Now()
	rows, err := p.FetchSample(ctx, symbol, limit)
	if err == nil && len(rows) == 0 {
		err = provider.NewError(p.Name(), "sample", provider.KindEmpty, nil)
	}
	s.timed(p.Name(), "sample", start, err != nil)
	if err != nil {
		s.failed(p.Name(), "sample", err)
		return Outcome{Data: s.gen.Series(symbol, limit, style), Fallback: true, Err: err}
	}
	return Outcome{Data: rows}
}

// TestAPI probes one API category. An unrecognised apiType yields a single
// generic sample row regardless of source.
func (s *Service) TestAPI(ctx context.Context, source, apiType, symbol, interval string) Outcome {
	kind := provider.ParseAPIType(apiType)
	if kind == provider.APIUnknown {
		return Outcome{Data: s.gen.Series(symbol, 1, synthetic.StyleGeneric)}
	}

	p, ok := s.providers[provider.ParseSource(source)]
	if !ok {
		// a cancelled delay still produces data; generation cannot fail
		_ = sleep(ctx, s.cfg.APIDelay)
		return Outcome{Data: s.synthesize(kind, symbol, interval)}
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ProbeTimeout)
	defer cancel()
	start := time.Now()
	data, err := p.ProbeAPI(ctx, kind, symbol, interval)
	if err == nil && data == nil {
		err = provider.NewError(p.Name(), kind.String(), provider.KindEmpty, nil)
	}
	s.timed(p.Name(), kind.String(), start, err != nil)
	if err != nil {
		s.failed(p.Name(), kind.String(), err)
		return Outcome{Data: s.synthesize(kind, symbol, interval), Fallback: true, Err: err}
	}
	return Outcome{Data: data}
}

func (s *Service) synthesize(kind provider.APIType, symbol, interval string) any {
	switch kind {
	case provider.APIHistorical:
		return s.gen.Historical(symbol, interval)
	case provider.APIRealtime:
		return s.gen.Realtime(symbol)
	default:
		return s.gen.Snapshot(symbol)
	}
}

// timed records the duration of one adapter call at debug level.
func (s *Service) timed(name, op string, start time.Time, fallback bool) {
	logger.LogDuration(s.log, op, time.Since(start), logger.Fields{"provider": name, "fallback": fallback})
}

// failed logs an adapter failure at a level matching its kind.
func (s *Service) failed(name, op string, err error) {
	kind := provider.KindOf(err)
	e := s.log.WithFields(logger.Fields{"provider": name, "op": op, "kind": kind.String()}).WithError(err)
	switch kind {
	case provider.KindEmpty, provider.KindUnsupported:
		e.Info("adapter returned no data, using synthetic")
	default:
		e.Warn("adapter failed, using synthetic")
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
