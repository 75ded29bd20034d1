package collector

import (
	"context"
	"sync"
	"time"

	"PeakWatch/internal/model"
)

// MockExchange returns controllable fixed data for development and testing.
type MockExchange struct {
	Markets    []model.Market
	Candles    map[string][]model.Candle
	Errors     map[string]error
	CatalogErr error

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockExchange) Name() string { return "mock" }

func (m *MockExchange) ListMarkets(_ context.Context) ([]model.Market, error) {
	if m.CatalogErr != nil {
		return nil, m.CatalogErr
	}
	return m.Markets, nil
}

func (m *MockExchange) FetchCandles(ctx context.Context, symbol, _ string, limit int) ([]model.Candle, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[symbol]++
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.Errors[symbol]; ok {
		return nil, err
	}
	candles := m.Candles[symbol]
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

// Calls returns how many times candles were requested for symbol.
func (m *MockExchange) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

// WeeklyCandles builds one candle per week starting at start with the given closes.
func WeeklyCandles(start time.Time, closes ...float64) []model.Candle {
	candles := make([]model.Candle, len(closes))
	for i, c := range closes {
		candles[i] = model.Candle{
			OpenTime: start.AddDate(0, 0, 7*i),
			Open:     c * 0.99,
			High:     c * 1.02,
			Low:      c * 0.97,
			Close:    c,
			Volume:   1000000,
		}
	}
	return candles
}
