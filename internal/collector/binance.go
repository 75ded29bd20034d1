package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"PeakWatch/internal/metrics"
	"PeakWatch/internal/model"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	defaultBinanceURL = "https://api.binance.com"
	// Binance rejects kline requests above this limit.
	maxKlineLimit = 1000
)

// BinanceOptions configures a BinanceClient. Zero values fall back to defaults.
type BinanceOptions struct {
	BaseURL           string
	Proxy             string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxRetryElapsed   time.Duration
	RetryInitial      time.Duration
	Metrics           *metrics.Registry
}

// BinanceClient implements Exchange using the Binance spot REST API.
type BinanceClient struct {
	BaseURL string
	Client  *http.Client

	limiter         *rate.Limiter
	breaker         *gobreaker.CircuitBreaker
	maxRetryElapsed time.Duration
	retryInitial    time.Duration
	metrics         *metrics.Registry
	logger          zerolog.Logger
}

// NewBinanceClient creates a rate limited client with optional proxy support.
func NewBinanceClient(opts BinanceOptions) *BinanceClient {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBinanceURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.RetryInitial <= 0 {
		opts.RetryInitial = 500 * time.Millisecond
	}

	transport := &http.Transport{}
	if opts.Proxy != "" {
		if u, err := url.Parse(opts.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}

	return &BinanceClient{
		BaseURL: strings.TrimRight(opts.BaseURL, "/"),
		Client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		limiter:         rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		breaker:         newBreaker("binance"),
		maxRetryElapsed: opts.MaxRetryElapsed,
		retryInitial:    opts.RetryInitial,
		metrics:         opts.Metrics,
		logger:          log.With().Str("component", "binance").Logger(),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Unknown symbols and cancelled runs say nothing about exchange health.
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var statusErr *HTTPStatusError
			return errors.As(err, &statusErr) && !statusErr.Retryable()
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
}

func (c *BinanceClient) Name() string { return "binance" }

type binanceExchangeInfo struct {
	Symbols []struct {
		Symbol     string `json:"symbol"`
		Status     string `json:"status"`
		BaseAsset  string `json:"baseAsset"`
		QuoteAsset string `json:"quoteAsset"`
	} `json:"symbols"`
}

// ListMarkets returns every spot symbol listed in exchangeInfo.
func (c *BinanceClient) ListMarkets(ctx context.Context) ([]model.Market, error) {
	var info binanceExchangeInfo
	if err := c.get(ctx, "/api/v3/exchangeInfo", nil, &info); err != nil {
		return nil, fmt.Errorf("list markets: %w", err)
	}
	markets := make([]model.Market, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		markets = append(markets, model.Market{
			Symbol:     s.Symbol,
			BaseAsset:  s.BaseAsset,
			QuoteAsset: s.QuoteAsset,
			Active:     s.Status == "TRADING",
		})
	}
	c.logger.Debug().Int("count", len(markets)).Msg("fetched markets")
	return markets, nil
}

// FetchCandles returns klines for symbol at the given interval, oldest first.
func (c *BinanceClient) FetchCandles(ctx context.Context, symbol, timeframe string, limit int) ([]model.Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", timeframe)
	if limit > 0 {
		if limit > maxKlineLimit {
			limit = maxKlineLimit
		}
		q.Set("limit", strconv.Itoa(limit))
	}

	var rows [][]any
	if err := c.get(ctx, "/api/v3/klines", q, &rows); err != nil {
		return nil, fmt.Errorf("fetch candles %s: %w", symbol, err)
	}
	candles := make([]model.Candle, 0, len(rows))
	for i, row := range rows {
		candle, err := parseKline(row)
		if err != nil {
			return nil, fmt.Errorf("fetch candles %s: row %d: %w", symbol, i, err)
		}
		candles = append(candles, candle)
	}
	// Ensure chronological order
	sort.Slice(candles, func(i, j int) bool { return candles[i].OpenTime.Before(candles[j].OpenTime) })
	return candles, nil
}

// parseKline decodes [openTime, open, high, low, close, volume, ...]; prices arrive as strings.
func parseKline(row []any) (model.Candle, error) {
	if len(row) < 6 {
		return model.Candle{}, fmt.Errorf("kline has %d fields, want at least 6", len(row))
	}
	ms, ok := row[0].(float64)
	if !ok {
		return model.Candle{}, fmt.Errorf("kline open time %v is not a number", row[0])
	}
	var vals [5]float64
	for i := range vals {
		v, err := toFloat(row[i+1])
		if err != nil {
			return model.Candle{}, fmt.Errorf("kline field %d: %w", i+1, err)
		}
		vals[i] = v
	}
	return model.Candle{
		OpenTime: time.UnixMilli(int64(ms)).UTC(),
		Open:     vals[0],
		High:     vals[1],
		Low:      vals[2],
		Close:    vals[3],
		Volume:   vals[4],
	}, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case string:
		return strconv.ParseFloat(n, 64)
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}

// get performs a rate limited GET through the circuit breaker and decodes the JSON body into out.
func (c *BinanceClient) get(ctx context.Context, path string, q url.Values, out any) error {
	endpoint := c.BaseURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.getWithRetry(ctx, path, endpoint, out)
	})
	return err
}

func (c *BinanceClient) getWithRetry(ctx context.Context, path, endpoint string, out any) error {
	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("rate limiter: %w", err))
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		started := time.Now()
		resp, err := c.Client.Do(req)
		c.metrics.ObserveFetch(path, started)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("request %s: %w", path, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			statusErr := &HTTPStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
			if statusErr.Retryable() {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode %s: %w", path, err))
		}
		return nil
	}

	var policy backoff.BackOff = &backoff.StopBackOff{}
	if c.maxRetryElapsed > 0 {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = c.retryInitial
		b.MaxElapsedTime = c.maxRetryElapsed
		policy = b
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Debug().Err(err).Str("path", path).Dur("wait", wait).Msg("retrying request")
	}
	return backoff.RetryNotify(operation, backoff.WithContext(policy, ctx), notify)
}
