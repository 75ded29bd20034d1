package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the day-precision layout used in exported reports.
const DateLayout = "2006-01-02"

// MetricsRecord holds the ATH/ATL analysis of one market. It is never
// modified after the analyzer returns it.
type MetricsRecord struct {
	Token         string
	Symbol        string
	ATH           float64
	ATHTime       time.Time
	ATL           float64
	ATLTime       time.Time
	Now           float64
	ATLPct        float64 // (ATH-ATL)/ATH
	NowPct        float64 // (ATH-Now)/ATH
	FivePctTarget float64 // 0.05*ATH
	Highlight     bool    // FivePctTarget >= Now
}

// SkippedMarket records a market that was dropped from a run.
type SkippedMarket struct {
	Symbol string
	Reason string
	Err    error
}

// Report is the outcome of one report run.
type Report struct {
	RunID        string
	GeneratedAt  time.Time
	MarketsTotal int
	Eligible     int

	ByATLPct          []*MetricsRecord
	ByNowPct          []*MetricsRecord
	WatchlistByNowPct []*MetricsRecord

	Skipped []SkippedMarket
}

// HighlightCount returns how many records in the full view are highlighted.
func (r *Report) HighlightCount() int {
	n := 0
	for _, rec := range r.ByNowPct {
		if rec.Highlight {
			n++
		}
	}
	return n
}

// FormatPct renders a fraction as a percentage with two decimals. The value
// is truncated toward zero at the hundredth of a percent, so 0.123456 becomes
// "12.34%".
func FormatPct(fraction float64) string {
	hundredths := math.Trunc(fraction*10000 + copysignEpsilon(fraction))
	return strconv.FormatFloat(hundredths/100, 'f', 2, 64) + "%"
}

// copysignEpsilon absorbs binary representation error such as 0.29*10000 = 2899.9999999999995.
func copysignEpsilon(v float64) float64 {
	return math.Copysign(1e-6, v)
}

// ParsePct is the inverse of FormatPct.
func ParsePct(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "%") {
		return 0, fmt.Errorf("parse pct %q: missing %% suffix", s)
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("parse pct %q: %w", s, err)
	}
	return v / 100, nil
}

// FormatDate renders t as YYYY-MM-DD in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// FormatPrice renders a price with the shortest representation that round-trips.
func FormatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
