// Package synthetic produces plausible market data when no upstream can be used.
// Values are random but the shape of every result is fixed.
package synthetic

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"marketprobe/internal/provider"
)

// Style selects the provenance a generated series is tagged with.
type Style int

const (
	StyleGeneric Style = iota
	StyleExchange
	StyleYahoo
)

// StyleFor maps a requested source onto the series style used when it falls back.
func StyleFor(src provider.Source) Style {
	switch src {
	case provider.SourceBinance:
		return StyleExchange
	case provider.SourceYahoo:
		return StyleYahoo
	default:
		return StyleGeneric
	}
}

func (s Style) source() string {
	switch s {
	case StyleExchange:
		return "exchange"
	case StyleYahoo:
		return "yahoo"
	default:
		return "generic"
	}
}

// YahooQualityScore is attached to every row tagged as Yahoo data.
const YahooQualityScore = 0.95

const historicalBars = 10

// Generator draws from Float (uniform in [0,1)) and stamps rows with Clock.
// The zero value is not usable; use New or NewSeeded.
type Generator struct {
	Clock func() time.Time
	Float func() float64
}

// New returns a generator that is safe for concurrent use.
func New() *Generator {
	return &Generator{Clock: time.Now, Float: rand.Float64}
}

// NewSeeded returns a reproducible generator. It is not safe for concurrent use.
func NewSeeded(seed uint64, clock func() time.Time) *Generator {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	if clock == nil {
		clock = time.Now
	}
	return &Generator{Clock: clock, Float: r.Float64}
}

// BasePrice is the price level synthetic data clusters around.
func BasePrice(symbol string) float64 {
	s := strings.ToUpper(symbol)
	switch {
	case strings.Contains(s, "BTC"):
		return 45000
	case strings.Contains(s, "ETH"):
		return 3000
	default:
		return 100
	}
}

// IntervalDuration is the bar spacing used for a historical interval token.
func IntervalDuration(interval string) time.Duration {
	switch interval {
	case "1m":
		return time.Minute
	case "5m":
		return 5 * time.Minute
	case "1h":
		return time.Hour
	default:
		return 24 * time.Hour
	}
}

// Series returns count bars, newest first, one minute apart.
func (g *Generator) Series(symbol string, count int, style Style) []provider.OhlcvRecord {
	if count < 0 {
		count = 0
	}
	now := g.Clock()
	base := BasePrice(symbol)
	out := make([]provider.OhlcvRecord, 0, count)
	for i := 0; i < count; i++ {
		rec := g.bar(base, false)
		rec.Symbol = symbol
		rec.Timestamp = provider.Timestamp(now.Add(-time.Duration(i) * time.Minute))
		rec.Source = style.source()
		if style == StyleYahoo {
			rec.QualityScore = provider.Float(YahooQualityScore)
		}
		out = append(out, rec)
	}
	return out
}

// Historical always returns ten bars spaced by the interval, regardless of
// any limit the caller asked for.
func (g *Generator) Historical(symbol, interval string) provider.HistoricalSeries {
	now := g.Clock()
	base := BasePrice(symbol)
	step := IntervalDuration(interval)
	data := make([]provider.OhlcvRecord, 0, historicalBars)
	for i := 0; i < historicalBars; i++ {
		rec := g.bar(base, true)
		rec.Timestamp = provider.Timestamp(now.Add(-time.Duration(i) * step))
		data = append(data, rec)
	}
	return provider.HistoricalSeries{Symbol: symbol, Interval: interval, Data: data, Count: len(data)}
}

func (g *Generator) Snapshot(symbol string) provider.MarketSnapshot {
	price := g.jitter(BasePrice(symbol), 0.02)
	return provider.MarketSnapshot{
		Symbol:    symbol,
		Price:     round2(price),
		Change24h: round2((g.Float() - 0.5) * 10),
		Volume24h: float64(g.intn(1_000_000_000, 5_000_000_000)),
		High24h:   round2(price * 1.02),
		Low24h:    round2(price * 0.98),
		Timestamp: provider.Timestamp(g.Clock()),
		Source:    "market-api",
	}
}

// Realtime jitters a tenth as wide as the other shapes; bid and ask sit a
// fixed half unit either side of the price.
func (g *Generator) Realtime(symbol string) provider.RealtimeQuote {
	price := decimal.NewFromFloat(g.jitter(BasePrice(symbol), 0.001)).Round(2)
	half := decimal.NewFromFloat(0.5)
	lastSize := g.intn(1, 1001)
	return provider.RealtimeQuote{
		Symbol:    symbol,
		Price:     price.InexactFloat64(),
		Bid:       provider.Float(price.Sub(half).Round(2).InexactFloat64()),
		Ask:       provider.Float(price.Add(half).Round(2).InexactFloat64()),
		LastSize:  &lastSize,
		Timestamp: provider.Timestamp(g.Clock()),
		Source:    "realtime-api",
	}
}

// Connection simulates a liveness probe against a source with no adapter.
func (g *Generator) Connection(source string) provider.Connection {
	if g.Float() > 0.2 {
		return provider.Connection{Connected: true, Message: fmt.Sprintf("%s connection test successful", source)}
	}
	return provider.Connection{Connected: false, Message: fmt.Sprintf("%s connection timeout", source)}
}

func (g *Generator) bar(base float64, rounded bool) provider.OhlcvRecord {
	price := g.jitter(base, 0.02)
	rec := provider.OhlcvRecord{
		Open:   price * (1 - g.Float()*0.01),
		High:   price * (1 + g.Float()*0.015),
		Low:    price * (1 - g.Float()*0.015),
		Close:  price,
		Volume: float64(g.intn(1_000_000, 5_000_000)),
	}
	if rounded {
		rec.Open, rec.High, rec.Low, rec.Close = round2(rec.Open), round2(rec.High), round2(rec.Low), round2(rec.Close)
	}
	return rec
}

// jitter spreads base symmetrically by width (0.02 means +/-1%).
func (g *Generator) jitter(base, width float64) float64 {
	return base + (g.Float()-0.5)*base*width
}

// intn draws an integer in [lo, hi).
func (g *Generator) intn(lo, hi int64) int64 {
	return lo + int64(g.Float()*float64(hi-lo))
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
