package recorder

import "PeakWatch/internal/model"

// Output file names, one per report view.
const (
	FileByATLPct          = "sort_by_atl_pct.csv"
	FileByNowPct          = "sort_by_now_pct.csv"
	FileWatchlistByNowPct = "watch_by_now_pct.csv"
)

// Columns is the fixed header of every exported view.
var Columns = []string{
	"token", "symbol", "ath", "ath_time", "atl", "atl_time", "now", "atl_pct", "now_pct", "five_pct_target",
}

// Recorder exports the views of a finished report.
type Recorder interface {
	RecordReport(report *model.Report) error
	Close() error
}
