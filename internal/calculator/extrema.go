package calculator

import (
	"errors"
	"fmt"

	"PeakWatch/internal/model"
)

// ErrInsufficientData is returned when a market has no usable candles.
var ErrInsufficientData = errors.New("insufficient candle data")

// fivePctRatio is the share of the ATH used for the 5% target column.
const fivePctRatio = 0.05

// Analyze computes the ATH, the lowest close after it and the derived ratios.
// Candles must be ordered by OpenTime ascending.
func Analyze(token, symbol string, candles []model.Candle) (*model.MetricsRecord, error) {
	if len(candles) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrInsufficientData)
	}

	ath, athTime := FindATH(candles)
	if ath <= 0 {
		return nil, fmt.Errorf("%s: non-positive ATH %v: %w", symbol, ath, ErrInsufficientData)
	}
	atl, atlTime := FindATLAfter(candles, ath, athTime)
	now := candles[len(candles)-1].Close

	rec := &model.MetricsRecord{
		Token:         token,
		Symbol:        symbol,
		ATH:           ath,
		ATHTime:       athTime,
		ATL:           atl,
		ATLTime:       atlTime,
		Now:           now,
		ATLPct:        (ath - atl) / ath,
		NowPct:        (ath - now) / ath,
		FivePctTarget: ath * fivePctRatio,
	}
	rec.Highlight = rec.FivePctTarget >= rec.Now
	return rec, nil
}
