package provider

import (
	"context"
	"strings"
	"time"
)

// OhlcvRecord is the normalized bar shape returned by all providers and the
// synthetic generator. Historical series leave Symbol and Source empty.
type OhlcvRecord struct {
	Symbol       string   `json:"symbol,omitempty"`
	Timestamp    string   `json:"timestamp"`
	Open         float64  `json:"open"`
	High         float64  `json:"high"`
	Low          float64  `json:"low"`
	Close        float64  `json:"close"`
	Volume       float64  `json:"volume"`
	Source       string   `json:"source,omitempty"`
	QualityScore *float64 `json:"qualityScore,omitempty"`
}

type MarketSnapshot struct {
	Symbol           string   `json:"symbol"`
	Price            float64  `json:"price"`
	Change24h        float64  `json:"change24h"`
	ChangePercent24h *float64 `json:"changePercent24h,omitempty"`
	Volume24h        float64  `json:"volume24h"`
	High24h          float64  `json:"high24h"`
	Low24h           float64  `json:"low24h"`
	Timestamp        string   `json:"timestamp"`
	Source           string   `json:"source"`
}

type HistoricalSeries struct {
	Symbol   string        `json:"symbol"`
	Interval string        `json:"interval"`
	Data     []OhlcvRecord `json:"data"`
	Count    int           `json:"count"`
}

// RealtimeQuote is a current price; bid/ask/lastSize are set only when known.
type RealtimeQuote struct {
	Symbol    string   `json:"symbol"`
	Price     float64  `json:"price"`
	Bid       *float64 `json:"bid,omitempty"`
	Ask       *float64 `json:"ask,omitempty"`
	LastSize  *int64   `json:"lastSize,omitempty"`
	Timestamp string   `json:"timestamp"`
	Source    string   `json:"source"`
}

type ConnectionResult struct {
	Source    string `json:"source"`
	Type      string `json:"type"`
	Connected bool   `json:"connected"`
	LatencyMs int64  `json:"latencyMs"`
	Timestamp string `json:"timestamp"`
}

// Connection is what an adapter reports from its liveness probe.
type Connection struct {
	Connected bool
	Message   string
}

// Provider is the capability every upstream adapter implements. Adapters
// never fall back on their own: any failure comes back as *Error.
//
//go:generate mockgen -package=probe_test -destination=../probe/mock_provider_test.go -source=provider.go Provider
type Provider interface {
	Name() string
	ProbeConnection(ctx context.Context) (Connection, error)
	FetchSample(ctx context.Context, symbol string, limit int) ([]OhlcvRecord, error)
	ProbeAPI(ctx context.Context, apiType APIType, symbol, interval string) (any, error)
}

// Source identifies a supported upstream. Anything unrecognised is
// SourceGeneric, which has no adapter and is served synthetically.
type Source int

const (
	SourceGeneric Source = iota
	SourceBinance
	SourceYahoo
)

func ParseSource(s string) Source {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "binance":
		return SourceBinance
	case "yahoo":
		return SourceYahoo
	default:
		return SourceGeneric
	}
}

func (s Source) String() string {
	switch s {
	case SourceBinance:
		return "binance"
	case SourceYahoo:
		return "yahoo"
	default:
		return "generic"
	}
}

type APIType int

const (
	APIUnknown APIType = iota
	APIMarket
	APIHistorical
	APIRealtime
)

func ParseAPIType(s string) APIType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "market":
		return APIMarket
	case "historical":
		return APIHistorical
	case "realtime":
		return APIRealtime
	default:
		return APIUnknown
	}
}

func (t APIType) String() string {
	switch t {
	case APIMarket:
		return "market"
	case APIHistorical:
		return "historical"
	case APIRealtime:
		return "realtime"
	default:
		return "unknown"
	}
}

// Timestamp formats t the way every record in this service carries it.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Float returns a pointer to v, for optional JSON fields.
func Float(v float64) *float64 { return &v }
