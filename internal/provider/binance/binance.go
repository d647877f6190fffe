// Package binance adapts the Binance spot REST API to provider.Provider.
package binance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gobinance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"marketprobe/internal/provider"
)

const (
	DefaultBaseURL = "https://api.binance.com"
	sampleInterval = "1d"
	historyBars    = 10
)

// historyIntervals are the interval tokens passed through to klines; anything
// else is requested as 1h.
var historyIntervals = map[string]string{"1m": "1m", "5m": "5m", "1h": "1h", "1d": "1d"}

type Config struct {
	Name    string // provenance name, default: binance
	BaseURL string // default: DefaultBaseURL
}

type Provider struct {
	cfg    Config
	client *gobinance.Client
	now    func() time.Time
}

// New builds an unauthenticated spot client. hc may be nil to use the SDK default.
func New(cfg Config, hc *http.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "binance"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	c := gobinance.NewClient("", "")
	c.BaseURL = cfg.BaseURL
	if hc != nil {
		c.HTTPClient = hc
	}
	return &Provider{cfg: cfg, client: c, now: time.Now}
}

func (p *Provider) Name() string { return p.cfg.Name }

func (p *Provider) ProbeConnection(ctx context.Context) (provider.Connection, error) {
	if err := p.client.NewPingService().Do(ctx); err != nil {
		perr := p.fail("ping", err)
		return provider.Connection{Message: fmt.Sprintf("Binance API connection failed: %v", err)}, perr
	}
	return provider.Connection{Connected: true, Message: "Binance API connection successful"}, nil
}

func (p *Provider) FetchSample(ctx context.Context, symbol string, limit int) ([]provider.OhlcvRecord, error) {
	klines, err := p.client.NewKlinesService().Symbol(symbol).Interval(sampleInterval).Limit(limit).Do(ctx)
	if err != nil {
		return nil, p.fail("klines", err)
	}
	if len(klines) == 0 {
		return nil, provider.NewError(p.cfg.Name, "klines", provider.KindEmpty, nil)
	}
	rows, err := p.bars(klines)
	if err != nil {
		return nil, provider.NewError(p.cfg.Name, "klines", provider.KindMalformed, err)
	}
	for i := range rows {
		rows[i].Symbol = symbol
		rows[i].Source = p.cfg.Name
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
	stats, err := p.client.NewListPriceChangeStatsService().Symbol(symbol).Do(ctx)
	if err != nil {
		return provider.MarketSnapshot{}, p.fail("ticker/24hr", err)
	}
	if len(stats) == 0 || stats[0] == nil {
		return provider.MarketSnapshot{}, provider.NewError(p.cfg.Name, "ticker/24hr", provider.KindEmpty, nil)
	}
	st := stats[0]
	var ps numParser
	snap := provider.MarketSnapshot{
		Symbol:           symbol,
		Price:            ps.parse("lastPrice", st.LastPrice),
		Change24h:        ps.parse("priceChange", st.PriceChange),
		ChangePercent24h: provider.Float(ps.parse("priceChangePercent", st.PriceChangePercent)),
		Volume24h:        ps.parse("volume", st.Volume),
		High24h:          ps.parse("highPrice", st.HighPrice),
		Low24h:           ps.parse("lowPrice", st.LowPrice),
		Timestamp:        provider.Timestamp(p.now()),
		Source:           p.cfg.Name + "-api",
	}
	if ps.err != nil {
		return provider.MarketSnapshot{}, provider.NewError(p.cfg.Name, "ticker/24hr", provider.KindMalformed, ps.err)
	}
	return snap, nil
}

func (p *Provider) historical(ctx context.Context, symbol, interval string) (provider.HistoricalSeries, error) {
	bi, ok := historyIntervals[interval]
	if !ok {
		bi = "1h"
	}
	klines, err := p.client.NewKlinesService().Symbol(symbol).Interval(bi).Limit(historyBars).Do(ctx)
	if err != nil {
		return provider.HistoricalSeries{}, p.fail("klines", err)
	}
	if len(klines) == 0 {
		return provider.HistoricalSeries{}, provider.NewError(p.cfg.Name, "klines", provider.KindEmpty, nil)
	}
	data, err := p.bars(klines)
	if err != nil {
		return provider.HistoricalSeries{}, provider.NewError(p.cfg.Name, "klines", provider.KindMalformed, err)
	}
	return provider.HistoricalSeries{Symbol: symbol, Interval: interval, Data: data, Count: len(data)}, nil
}

func (p *Provider) realtime(ctx context.Context, symbol string) (provider.RealtimeQuote, error) {
	prices, err := p.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return provider.RealtimeQuote{}, p.fail("ticker/price", err)
	}
	if len(prices) == 0 || prices[0] == nil {
		return provider.RealtimeQuote{}, provider.NewError(p.cfg.Name, "ticker/price", provider.KindEmpty, nil)
	}
	var ps numParser
	price := ps.parse("price", prices[0].Price)
	if ps.err != nil {
		return provider.RealtimeQuote{}, provider.NewError(p.cfg.Name, "ticker/price", provider.KindMalformed, ps.err)
	}
	return provider.RealtimeQuote{
		Symbol:    symbol,
		Price:     price,
		Timestamp: provider.Timestamp(p.now()),
		Source:    p.cfg.Name + "-api",
	}, nil
}

// bars converts klines in upstream order; provider data is relayed as-is.
func (p *Provider) bars(klines []*gobinance.Kline) ([]provider.OhlcvRecord, error) {
	out := make([]provider.OhlcvRecord, 0, len(klines))
	var ps numParser
	for _, k := range klines {
		if k == nil {
			continue
		}
		out = append(out, provider.OhlcvRecord{
			Timestamp: provider.Timestamp(time.UnixMilli(k.OpenTime)),
			Open:      ps.parse("open", k.Open),
			High:      ps.parse("high", k.High),
			Low:       ps.parse("low", k.Low),
			Close:     ps.parse("close", k.Close),
			Volume:    ps.parse("volume", k.Volume),
		})
	}
	return out, ps.err
}

// fail classifies an SDK error. The SDK reports every HTTP status >= 400 as
// *common.APIError; everything else is transport level.
func (p *Provider) fail(op string, err error) error {
	kind := provider.KindUnavailable
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		kind = provider.KindStatus
	}
	return provider.NewError(p.cfg.Name, op, kind, pkgerrors.Wrapf(err, "GET %s", op))
}

// numParser keeps the first parse failure so a whole struct can be read
// before checking.
type numParser struct{ err error }

func (ps *numParser) parse(field, s string) float64 {
	if ps.err != nil {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		ps.err = pkgerrors.Wrapf(err, "field %s", field)
		return 0
	}
	return d.InexactFloat64()
}
