package model

import "time"

// Candle represents a single OHLCV bar.
type Candle struct {
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// Market is a trading pair as listed by the exchange catalog.
type Market struct {
	Symbol     string
	BaseAsset  string
	QuoteAsset string
	Active     bool
}
