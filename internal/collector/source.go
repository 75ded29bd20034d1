package collector

import (
	"context"
	"fmt"

	"PeakWatch/internal/model"
)

// CandleSource returns OHLCV candles for a symbol, oldest first.
// A limit <= 0 leaves the candle count to the exchange default.
type CandleSource interface {
	FetchCandles(ctx context.Context, symbol, timeframe string, limit int) ([]model.Candle, error)
}

// MarketCatalog lists the markets tradable on an exchange.
type MarketCatalog interface {
	ListMarkets(ctx context.Context) ([]model.Market, error)
}

// Exchange is a named catalog that also serves candles.
type Exchange interface {
	CandleSource
	MarketCatalog
	Name() string
}

// HTTPStatusError is returned for non-200 exchange responses.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed if sent again.
func (e *HTTPStatusError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
