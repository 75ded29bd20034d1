package notifier

import (
	"fmt"
	"html"
	"strings"

	"PeakWatch/internal/model"
)

// maxDigestRows keeps the digest well under the Telegram message size limit.
const maxDigestRows = 30

// FormatDigest formats a finished report into a Telegram HTML message.
func FormatDigest(report *model.Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>PeakWatch</b> | %s\n\n", model.FormatDate(report.GeneratedAt)))
	b.WriteString(fmt.Sprintf("Markets: %d listed, %d eligible, %d analyzed, %d skipped\n",
		report.MarketsTotal, report.Eligible, len(report.ByNowPct), len(report.Skipped)))
	b.WriteString(fmt.Sprintf("At or below 5%% target: %d\n\n", report.HighlightCount()))

	b.WriteString("👀 <b>Watchlist by NOW PCT</b>\n")
	if len(report.WatchlistByNowPct) == 0 {
		b.WriteString("  (empty)\n")
	}
	for i, rec := range report.WatchlistByNowPct {
		if i == maxDigestRows {
			b.WriteString(fmt.Sprintf("  … %d more\n", len(report.WatchlistByNowPct)-maxDigestRows))
			break
		}
		b.WriteString(formatDigestRow(rec))
	}
	return b.String()
}

func formatDigestRow(rec *model.MetricsRecord) string {
	marker := "  "
	if rec.Highlight {
		marker = "🟢"
	}
	return fmt.Sprintf("%s <b>%s</b> %s | -%s from ATH %s (%s)\n",
		marker,
		html.EscapeString(rec.Token),
		model.FormatPrice(rec.Now),
		model.FormatPct(rec.NowPct),
		model.FormatPrice(rec.ATH),
		model.FormatDate(rec.ATHTime),
	)
}
