package calculator

import (
	"time"

	"PeakWatch/internal/model"
)

// FindATH returns the highest close and its open time. On ties the earliest
// candle wins. Returns zero values for an empty slice.
func FindATH(candles []model.Candle) (high float64, at time.Time) {
	if len(candles) == 0 {
		return 0, time.Time{}
	}
	high = candles[0].Close
	at = candles[0].OpenTime
	for _, c := range candles[1:] {
		if c.Close > high {
			high = c.Close
			at = c.OpenTime
		}
	}
	return high, at
}

// FindATLAfter returns the lowest close among candles opened strictly after
// athTime. Without a lower close it returns (ath, athTime).
func FindATLAfter(candles []model.Candle, ath float64, athTime time.Time) (low float64, at time.Time) {
	low, at = ath, athTime
	for _, c := range candles {
		if !c.OpenTime.After(athTime) {
			continue
		}
		if c.Close < low {
			low = c.Close
			at = c.OpenTime
		}
	}
	return low, at
}
