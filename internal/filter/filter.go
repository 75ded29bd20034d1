// Package filter decides which exchange markets take part in a report.
package filter

import (
	"strings"

	"PeakWatch/internal/model"
)

// Config holds the market selection rules.
type Config struct {
	Quote            string   `yaml:"quote"`
	Blacklist        []string `yaml:"blacklist"`
	PegMarker        string   `yaml:"peg_marker"`
	LeveragedMarkers []string `yaml:"leveraged_markers"`
	Watchlist        []string `yaml:"watchlist"`
	TradingOnly      bool     `yaml:"trading_only"`
}

// DefaultConfig returns the USDT selection rules with the stock blacklist and watchlist.
func DefaultConfig() Config {
	return Config{
		Quote:            "USDT",
		Blacklist:        []string{"USD", "DAI", "DOWN", "UP", "BULL", "BEAR", "AUD", "EUR", "GBP", "BKRW"},
		PegMarker:        "USD",
		LeveragedMarkers: []string{"BULL", "BEAR", "DOWN", "UP"},
		Watchlist: []string{
			"BTC", "ETH", "DYDX", "DOGE", "ATOM", "APT", "MATIC", "ADA", "OSMO", "DOT", "LINK", "NEAR",
			"APE", "FLOW", "STG", "UNI", "SUSHI", "FXS", "BAL", "CVX", "AAVE", "COMP",
		},
		TradingOnly: true,
	}
}

// Filter applies a Config to markets. It is safe for concurrent use.
type Filter struct {
	quote     string
	peg       string
	markers   []string
	blacklist map[string]struct{}
	watchlist map[string]struct{}
	trading   bool
}

// New builds a Filter from cfg. Asset names are compared upper-cased.
func New(cfg Config) *Filter {
	f := &Filter{
		quote:     strings.ToUpper(strings.TrimSpace(cfg.Quote)),
		peg:       strings.ToUpper(strings.TrimSpace(cfg.PegMarker)),
		blacklist: toSet(cfg.Blacklist),
		watchlist: toSet(cfg.Watchlist),
		trading:   cfg.TradingOnly,
	}
	for _, m := range cfg.LeveragedMarkers {
		if m = strings.ToUpper(strings.TrimSpace(m)); m != "" {
			f.markers = append(f.markers, m)
		}
	}
	return f
}

// IsEligible reports whether m should be analyzed.
func (f *Filter) IsEligible(m model.Market) bool {
	base := strings.ToUpper(m.BaseAsset)
	quote := strings.ToUpper(m.QuoteAsset)
	if base == "" || quote == "" {
		return false
	}
	if f.trading && !m.Active {
		return false
	}
	if quote != f.quote {
		return false
	}
	if _, ok := f.blacklist[base]; ok {
		return false
	}
	if f.peg != "" && strings.Contains(base, f.peg) {
		return false
	}
	for _, marker := range f.markers {
		if strings.Contains(base, marker) {
			return false
		}
	}
	return true
}

// IsWatchlisted reports whether the base asset of m is on the watchlist.
// It does not imply eligibility.
func (f *Filter) IsWatchlisted(m model.Market) bool {
	_, ok := f.watchlist[strings.ToUpper(m.BaseAsset)]
	return ok
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it = strings.ToUpper(strings.TrimSpace(it)); it != "" {
			set[it] = struct{}{}
		}
	}
	return set
}
