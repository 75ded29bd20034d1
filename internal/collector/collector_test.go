package collector

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"PeakWatch/internal/calculator"
	"PeakWatch/internal/filter"
	"PeakWatch/internal/model"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC)

func usdt(base string) model.Market {
	return model.Market{Symbol: base + "USDT", BaseAsset: base, QuoteAsset: "USDT", Active: true}
}

func newMock() *MockExchange {
	return &MockExchange{
		Markets: []model.Market{
			usdt("BTC"), usdt("ETH"), usdt("SOL"), usdt("ADA"),
			usdt("DOGE"), usdt("XYZ"), usdt("BUSD"),
			{Symbol: "ETHBTC", BaseAsset: "ETH", QuoteAsset: "BTC", Active: true},
		},
		Candles: map[string][]model.Candle{
			"BTCUSDT": WeeklyCandles(start, 10, 20, 5, 15),
			"ETHUSDT": WeeklyCandles(start, 100, 200, 150, 181),
			"SOLUSDT": WeeklyCandles(start, 10, 20, 18),
			"ADAUSDT": WeeklyCandles(start, 1, 2),
		},
		Errors: map[string]error{
			"DOGEUSDT": errors.New("connection reset"),
		},
	}
}

func symbols(records []*model.MetricsRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Symbol
	}
	return out
}

func TestAssemble_ViewsAndSkips(t *testing.T) {
	for _, workers := range []int{1, 4} {
		ex := newMock()
		c := NewCollector(ex, ex, filter.New(filter.DefaultConfig()), Options{Workers: workers})

		report := c.Assemble(context.Background(), ex.Markets)

		assert.NotEmpty(t, report.RunID)
		assert.Equal(t, 8, report.MarketsTotal)
		assert.Equal(t, 6, report.Eligible)
		assert.Equal(t, []string{"ADAUSDT", "SOLUSDT", "ETHUSDT", "BTCUSDT"}, symbols(report.ByATLPct))
		// Numeric order: 9.50% sorts before 10.00%.
		assert.Equal(t, []string{"ADAUSDT", "ETHUSDT", "SOLUSDT", "BTCUSDT"}, symbols(report.ByNowPct))
		assert.Equal(t, []string{"ADAUSDT", "ETHUSDT", "BTCUSDT"}, symbols(report.WatchlistByNowPct))

		require.Len(t, report.Skipped, 2)
		assert.Equal(t, "DOGEUSDT", report.Skipped[0].Symbol)
		assert.Equal(t, ReasonFetch, report.Skipped[0].Reason)
		assert.Equal(t, "XYZUSDT", report.Skipped[1].Symbol)
		assert.Equal(t, ReasonNoData, report.Skipped[1].Reason)
		assert.ErrorIs(t, report.Skipped[1].Err, calculator.ErrInsufficientData)

		assert.Zero(t, ex.Calls("BUSDUSDT"))
		assert.Zero(t, ex.Calls("ETHBTC"))
		assert.Equal(t, 1, ex.Calls("BTCUSDT"))
	}
}

func TestAssemble_RecordValues(t *testing.T) {
	ex := newMock()
	c := NewCollector(ex, ex, filter.New(filter.DefaultConfig()), Options{})

	report := c.Assemble(context.Background(), ex.Markets)

	var btc *model.MetricsRecord
	for _, r := range report.ByATLPct {
		if r.Symbol == "BTCUSDT" {
			btc = r
		}
	}
	require.NotNil(t, btc)
	assert.Equal(t, "BTC", btc.Token)
	assert.Equal(t, 20.0, btc.ATH)
	assert.Equal(t, 5.0, btc.ATL)
	assert.Equal(t, 15.0, btc.Now)
	assert.Equal(t, start.AddDate(0, 0, 7), btc.ATHTime)
	assert.Equal(t, start.AddDate(0, 0, 14), btc.ATLTime)
}

func TestAssemble_LimitPassedToSource(t *testing.T) {
	ex := newMock()
	c := NewCollector(ex, ex, filter.New(filter.DefaultConfig()), Options{Limit: 2})

	report := c.Assemble(context.Background(), []model.Market{usdt("BTC")})

	require.Len(t, report.ByNowPct, 1)
	// Only the last two closes (5, 15) are visible.
	assert.Equal(t, 15.0, report.ByNowPct[0].ATH)
	assert.Equal(t, 15.0, report.ByNowPct[0].Now)
}

func TestAssemble_WarnsWhenHistoryHitsLimit(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = prev }()

	ex := newMock()
	c := NewCollector(ex, ex, filter.New(filter.DefaultConfig()), Options{Limit: 3})
	c.Assemble(context.Background(), []model.Market{usdt("BTC"), usdt("ADA")})

	// BTC has four candles and fills the page; ADA has two.
	assert.Equal(t, 1, strings.Count(buf.String(), "candle history hit the request limit"))
	assert.Contains(t, buf.String(), `"symbol":"BTCUSDT"`)
}

func TestAssemble_Cancelled(t *testing.T) {
	ex := newMock()
	c := NewCollector(ex, ex, filter.New(filter.DefaultConfig()), Options{Workers: 2})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := c.Assemble(ctx, ex.Markets)

	assert.Empty(t, report.ByNowPct)
	require.Len(t, report.Skipped, 6)
	for _, s := range report.Skipped {
		assert.Equal(t, ReasonCancelled, s.Reason)
	}
}

func TestCollect_CatalogError(t *testing.T) {
	ex := newMock()
	ex.CatalogErr = errors.New("exchange down")
	c := NewCollector(ex, ex, filter.New(filter.DefaultConfig()), Options{})

	report, err := c.Collect(context.Background())
	assert.Nil(t, report)
	assert.ErrorContains(t, err, "exchange down")
}

func TestCollect_UsesCatalog(t *testing.T) {
	ex := newMock()
	c := NewCollector(ex, ex, filter.New(filter.DefaultConfig()), Options{})

	report, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.ByNowPct, 4)
}

func TestSortByNowPct_TieBreaks(t *testing.T) {
	records := []*model.MetricsRecord{
		{Symbol: "C", NowPct: 0.1, ATLPct: 0.5},
		{Symbol: "B", NowPct: 0.1, ATLPct: 0.2},
		{Symbol: "A", NowPct: 0.1, ATLPct: 0.5},
	}
	sorted := SortByNowPct(records)
	assert.Equal(t, []string{"B", "A", "C"}, symbols(sorted))
	assert.Equal(t, "C", records[0].Symbol, "input must not be reordered")
}
