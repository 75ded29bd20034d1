package collector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"PeakWatch/internal/calculator"
	"PeakWatch/internal/filter"
	"PeakWatch/internal/metrics"
	"PeakWatch/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Skip reasons reported in model.SkippedMarket and metrics.
const (
	ReasonNoData    = "no_data"
	ReasonFetch     = "fetch_error"
	ReasonCancelled = "cancelled"
)

// Options tunes a Collector.
type Options struct {
	Timeframe string
	Limit     int
	Workers   int
	Metrics   *metrics.Registry
}

// Collector builds reports: filter, fetch, analyze, sort.
type Collector struct {
	Catalog MarketCatalog
	Source  CandleSource
	Filter  *filter.Filter

	opts   Options
	logger zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(catalog MarketCatalog, source CandleSource, f *filter.Filter, opts Options) *Collector {
	if opts.Timeframe == "" {
		opts.Timeframe = "1w"
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Collector{
		Catalog: catalog,
		Source:  source,
		Filter:  f,
		opts:    opts,
		logger:  log.With().Str("component", "collector").Logger(),
	}
}

// Collect lists the catalog and assembles a report from it. A catalog
// failure is returned since no report can be built without it.
func (c *Collector) Collect(ctx context.Context) (*model.Report, error) {
	markets, err := c.Catalog.ListMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	c.logger.Info().Int("markets", len(markets)).Msg("catalog loaded")
	return c.Assemble(ctx, markets), nil
}

type outcome struct {
	record  *model.MetricsRecord
	watched bool
	skip    *model.SkippedMarket
}

// Assemble analyzes every eligible market. Markets that fail are skipped
// and listed in Report.Skipped; they never abort the run.
func (c *Collector) Assemble(ctx context.Context, markets []model.Market) *model.Report {
	report := &model.Report{
		RunID:        uuid.NewString(),
		GeneratedAt:  time.Now().UTC(),
		MarketsTotal: len(markets),
	}

	var eligible []model.Market
	for _, m := range markets {
		if c.Filter.IsEligible(m) {
			eligible = append(eligible, m)
		}
	}
	report.Eligible = len(eligible)
	logger := c.logger.With().Str("run_id", report.RunID).Logger()
	logger.Info().Int("eligible", len(eligible)).Int("workers", c.opts.Workers).Msg("analyzing markets")

	results := make([]outcome, len(eligible))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < c.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = c.analyzeMarket(ctx, logger, eligible[i])
			}
		}()
	}
	for i := range eligible {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var all, watched []*model.MetricsRecord
	for _, res := range results {
		if res.skip != nil {
			report.Skipped = append(report.Skipped, *res.skip)
			continue
		}
		all = append(all, res.record)
		if res.watched {
			watched = append(watched, res.record)
		}
	}

	report.ByATLPct = SortByATLPct(all)
	report.ByNowPct = SortByNowPct(all)
	report.WatchlistByNowPct = SortByNowPct(watched)

	logger.Info().
		Int("analyzed", len(all)).
		Int("watchlist", len(watched)).
		Int("skipped", len(report.Skipped)).
		Msg("markets analyzed")
	return report
}

func (c *Collector) analyzeMarket(ctx context.Context, logger zerolog.Logger, m model.Market) outcome {
	if err := ctx.Err(); err != nil {
		return c.skip(logger, m, ReasonCancelled, err)
	}
	candles, err := c.Source.FetchCandles(ctx, m.Symbol, c.opts.Timeframe, c.opts.Limit)
	if err != nil {
		reason := ReasonFetch
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			reason = ReasonCancelled
		}
		return c.skip(logger, m, reason, err)
	}
	if c.opts.Limit > 0 && len(candles) >= c.opts.Limit {
		logger.Warn().Str("symbol", m.Symbol).Int("candles", len(candles)).Msg("candle history hit the request limit, ATH may predate the window")
	}
	rec, err := calculator.Analyze(m.BaseAsset, m.Symbol, candles)
	if err != nil {
		return c.skip(logger, m, ReasonNoData, err)
	}
	return outcome{record: rec, watched: c.Filter.IsWatchlisted(m)}
}

func (c *Collector) skip(logger zerolog.Logger, m model.Market, reason string, err error) outcome {
	logger.Warn().Err(err).Str("symbol", m.Symbol).Str("reason", reason).Msg("market skipped")
	c.opts.Metrics.MarketSkipped(reason)
	return outcome{skip: &model.SkippedMarket{Symbol: m.Symbol, Reason: reason, Err: err}}
}

// SortByATLPct returns a copy of records ordered by ATLPct ascending, ties by symbol.
func SortByATLPct(records []*model.MetricsRecord) []*model.MetricsRecord {
	out := append([]*model.MetricsRecord(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ATLPct != out[j].ATLPct {
			return out[i].ATLPct < out[j].ATLPct
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// SortByNowPct returns a copy of records ordered by NowPct ascending, ties by ATLPct then symbol.
func SortByNowPct(records []*model.MetricsRecord) []*model.MetricsRecord {
	out := append([]*model.MetricsRecord(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].NowPct != out[j].NowPct {
			return out[i].NowPct < out[j].NowPct
		}
		if out[i].ATLPct != out[j].ATLPct {
			return out[i].ATLPct < out[j].ATLPct
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}
