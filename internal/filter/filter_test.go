package filter

import (
	"testing"

	"PeakWatch/internal/model"

	"github.com/stretchr/testify/assert"
)

func market(symbol, base, quote string) model.Market {
	return model.Market{Symbol: symbol, BaseAsset: base, QuoteAsset: quote, Active: true}
}

func TestIsEligible_QuoteAndBlacklist(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Blacklist = []string{"USD", "UP"}
	f := New(cfg)

	markets := []model.Market{
		market("BTCUSDT", "BTC", "USDT"),
		market("BUSDUSDT", "BUSD", "USDT"),
		market("BTCUPUSDT", "BTCUP", "USDT"),
		market("BTCETH", "BTC", "ETH"),
	}
	var eligible []string
	for _, m := range markets {
		if f.IsEligible(m) {
			eligible = append(eligible, m.Symbol)
		}
	}
	assert.Equal(t, []string{"BTCUSDT"}, eligible)
}

func TestIsEligible_Rules(t *testing.T) {
	f := New(DefaultConfig())

	tests := []struct {
		name string
		m    model.Market
		want bool
	}{
		{"plain", market("ETHUSDT", "ETH", "USDT"), true},
		{"lower case assets", market("ethusdt", "eth", "usdt"), true},
		{"blacklisted fiat", market("EURUSDT", "EUR", "USDT"), false},
		{"dollar peg", market("TUSDUSDT", "TUSD", "USDT"), false},
		{"bull token", market("ETHBULLUSDT", "ETHBULL", "USDT"), false},
		{"bear token", market("ETHBEARUSDT", "ETHBEAR", "USDT"), false},
		{"down token", market("BNBDOWNUSDT", "BNBDOWN", "USDT"), false},
		{"wrong quote", market("ETHBTC", "ETH", "BTC"), false},
		{"missing base", market("USDT", "", "USDT"), false},
		{"missing quote", market("ETH", "ETH", ""), false},
		{"inactive", model.Market{Symbol: "LUNAUSDT", BaseAsset: "LUNA", QuoteAsset: "USDT"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.IsEligible(tt.m))
		})
	}
}

func TestIsEligible_InactiveAllowed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TradingOnly = false
	f := New(cfg)

	assert.True(t, f.IsEligible(model.Market{Symbol: "LUNAUSDT", BaseAsset: "LUNA", QuoteAsset: "USDT"}))
}

func TestIsWatchlisted(t *testing.T) {
	f := New(Config{Quote: "USDT", Watchlist: []string{"btc", " ETH "}})

	assert.True(t, f.IsWatchlisted(market("BTCUSDT", "BTC", "USDT")))
	assert.True(t, f.IsWatchlisted(market("ETHBTC", "ETH", "BTC")), "watchlist ignores eligibility")
	assert.False(t, f.IsWatchlisted(market("SOLUSDT", "SOL", "USDT")))
}
