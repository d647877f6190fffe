// Package yahoo adapts Yahoo Finance, through finance-go, to provider.Provider.
package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	pkgerrors "github.com/pkg/errors"

	"marketprobe/internal/provider"
)

// QualityScore is attached to every sample row relayed from Yahoo.
const QualityScore = 0.95

// LivenessSymbol is a liquid listing whose quote must carry a price for the
// connection probe to pass.
const LivenessSymbol = "AAPL"

const historyBars = 10

// Client is the slice of finance-go the adapter uses.
//
//go:generate mockgen -package=yahoo_test -destination=mock_client_test.go -source=yahoo.go Client
type Client interface {
	Quote(ctx context.Context, symbol string) (*finance.Quote, error)
	Chart(ctx context.Context, params *chart.Params) ([]*finance.ChartBar, error)
}

type Config struct {
	Name  string           // provenance name, default: yahoo
	Clock func() time.Time // default: time.Now
}

type Provider struct {
	cfg    Config
	client Client
}

func New(cfg Config, client Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "yahoo"
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Provider{cfg: cfg, client: client}
}

func (p *Provider) Name() string { return p.cfg.Name }

// LookupSymbol rewrites exchange pairs quoted in USDT to Yahoo's -USD form.
func LookupSymbol(symbol string) string {
	if strings.HasSuffix(symbol, "USDT") {
		return strings.TrimSuffix(symbol, "USDT") + "-USD"
	}
	return symbol
}

func (p *Provider) ProbeConnection(ctx context.Context) (provider.Connection, error) {
	q, err := p.client.Quote(ctx, LivenessSymbol)
	if err != nil {
		return provider.Connection{Message: fmt.Sprintf("Yahoo Finance connection failed: %v", err)}, p.fail("quote", err)
	}
	if q == nil || q.RegularMarketPrice <= 0 {
		return provider.Connection{Message: "Yahoo Finance returned invalid data"},
			provider.NewError(p.cfg.Name, "quote", provider.KindMalformed, pkgerrors.New("regularMarketPrice missing"))
	}
	return provider.Connection{Connected: true, Message: "Yahoo Finance connection successful"}, nil
}

func (p *Provider) FetchSample(ctx context.Context, symbol string, limit int) ([]provider.OhlcvRecord, error) {
	end := p.cfg.Clock()
	start := end.AddDate(0, 0, -limit)
	bars, err := p.client.Chart(ctx, &chart.Params{
		Symbol:   LookupSymbol(symbol),
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	})
	if err != nil {
		return nil, p.fail("chart", err)
	}
	rows := recent(toRecords(bars), limit)
	if len(rows) == 0 {
		return nil, provider.NewError(p.cfg.Name, "chart", provider.KindEmpty, nil)
	}
	for i := range rows {
		rows[i].Symbol = symbol
		rows[i].Source = p.cfg.Name
		rows[i].QualityScore = provider.Float(QualityScore)
	}
	return rows, nil
}

func (p *Provider) ProbeAPI(ctx context.Context, apiType provider.APIType, symbol, interval string) (any, error) {
	switch apiType {
	case provider.APIMarket:
		return p.market(ctx, symbol)
	case provider.APIHistorical:
		return p.historical(ctx, symbol, interval)
	case provider.APIRealtime:
		return p.realtime(ctx, symbol)
	default:
		return nil, provider.NewError(p.cfg.Name, apiType.String(), provider.KindUnsupported, nil)
	}
}

func (p *Provider) market(ctx context.Context, symbol string) (provider.MarketSnapshot, error) {
	q, err := p.quote(ctx, symbol)
	if err != nil {
		return provider.MarketSnapshot{}, err
	}
	return provider.MarketSnapshot{
		Symbol:           symbol,
		Price:            q.RegularMarketPrice,
		Change24h:        q.RegularMarketChange,
		ChangePercent24h: provider.Float(q.RegularMarketChangePercent),
		Volume24h:        float64(q.RegularMarketVolume),
		High24h:          q.RegularMarketDayHigh,
		Low24h:           q.RegularMarketDayLow,
		Timestamp:        provider.Timestamp(p.cfg.Clock()),
		Source:           "yahoo-finance-api",
	}, nil
}

func (p *Provider) historical(ctx context.Context, symbol, interval string) (provider.HistoricalSeries, error) {
	yi, step := chartInterval(interval)
	end := p.cfg.Clock()
	// Markets close; look back well past ten bars and keep the newest.
	start := end.Add(-3 * historyBars * step)
	bars, err := p.client.Chart(ctx, &chart.Params{
		Symbol:   LookupSymbol(symbol),
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: yi,
	})
	if err != nil {
		return provider.HistoricalSeries{}, p.fail("chart", err)
	}
	data := recent(toRecords(bars), historyBars)
	if len(data) == 0 {
		return provider.HistoricalSeries{}, provider.NewError(p.cfg.Name, "chart", provider.KindEmpty, nil)
	}
	return provider.HistoricalSeries{Symbol: symbol, Interval: interval, Data: data, Count: len(data)}, nil
}

func (p *Provider) realtime(ctx context.Context, symbol string) (provider.RealtimeQuote, error) {
	q, err := p.quote(ctx, symbol)
	if err != nil {
		return provider.RealtimeQuote{}, err
	}
	out := provider.RealtimeQuote{
		Symbol:    symbol,
		Price:     q.RegularMarketPrice,
		Timestamp: provider.Timestamp(p.cfg.Clock()),
		Source:    "yahoo-finance-api",
	}
	if q.Bid > 0 {
		out.Bid = provider.Float(q.Bid)
	}
	if q.Ask > 0 {
		out.Ask = provider.Float(q.Ask)
	}
	return out, nil
}

func (p *Provider) quote(ctx context.Context, symbol string) (*finance.Quote, error) {
	q, err := p.client.Quote(ctx, LookupSymbol(symbol))
	if err != nil {
		return nil, p.fail("quote", err)
	}
	if q == nil {
		return nil, provider.NewError(p.cfg.Name, "quote", provider.KindEmpty, nil)
	}
	if q.RegularMarketPrice <= 0 {
		return nil, provider.NewError(p.cfg.Name, "quote", provider.KindMalformed, pkgerrors.New("regularMarketPrice missing"))
	}
	return q, nil
}

// fail wraps a finance-go error. The SDK does not expose the HTTP status, so
// every failure is treated as the upstream being unavailable.
func (p *Provider) fail(op string, err error) error {
	return provider.NewError(p.cfg.Name, op, provider.KindUnavailable, pkgerrors.Wrap(err, op))
}

// chartInterval maps a caller interval token onto Yahoo's set and the
// duration of one bar.
func chartInterval(interval string) (datetime.Interval, time.Duration) {
	switch interval {
	case "1m":
		return datetime.Interval("1m"), time.Minute
	case "5m":
		return datetime.Interval("5m"), 5 * time.Minute
	case "15m":
		return datetime.Interval("15m"), 15 * time.Minute
	case "30m":
		return datetime.Interval("30m"), 30 * time.Minute
	case "1h", "4h":
		return datetime.Interval("1h"), time.Hour
	case "1w":
		return datetime.Interval("1wk"), 7 * 24 * time.Hour
	case "1M":
		return datetime.Interval("1mo"), 31 * 24 * time.Hour
	default:
		return datetime.OneDay, 24 * time.Hour
	}
}

func toRecords(bars []*finance.ChartBar) []provider.OhlcvRecord {
	out := make([]provider.OhlcvRecord, 0, len(bars))
	for _, b := range bars {
		if b == nil {
			continue
		}
		out = append(out, provider.OhlcvRecord{
			Timestamp: provider.Timestamp(time.Unix(int64(b.Timestamp), 0)),
			Open:      b.Open.InexactFloat64(),
			High:      b.High.InexactFloat64(),
			Low:       b.Low.InexactFloat64(),
			Close:     b.Close.InexactFloat64(),
			Volume:    float64(b.Volume),
		})
	}
	return out
}

// recent keeps at most n of the newest rows, preserving upstream order.
func recent(rows []provider.OhlcvRecord, n int) []provider.OhlcvRecord {
	if n > 0 && len(rows) > n {
		return rows[len(rows)-n:]
	}
	return rows
}

// financeClient calls the finance-go package functions. They take no context,
// so each call runs in its own goroutine and the caller stops waiting when
// ctx is done; the HTTP client's own timeout bounds the abandoned call.
type financeClient struct{}

// NewClient returns the finance-go backed Client. A non-nil hc replaces the
// SDK's process-wide HTTP client.
func NewClient(hc *http.Client) Client {
	if hc != nil {
		finance.SetHTTPClient(hc)
	}
	return financeClient{}
}

func (financeClient) Quote(ctx context.Context, symbol string) (*finance.Quote, error) {
	return await(ctx, func() (*finance.Quote, error) { return quote.Get(symbol) })
}

func (financeClient) Chart(ctx context.Context, params *chart.Params) ([]*finance.ChartBar, error) {
	return await(ctx, func() ([]*finance.ChartBar, error) {
		iter := chart.Get(params)
		var bars []*finance.ChartBar
		for iter.Next() {
			bars = append(bars, iter.Bar())
		}
		return bars, iter.Err()
	})
}

func await[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()
	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
