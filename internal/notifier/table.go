package notifier

import (
	"fmt"
	"io"
	"os"
	"strings"

	"PeakWatch/internal/model"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"
)

// ColorMode selects when the console table uses ANSI colors.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

var tableHeader = table.Row{"Token", "ATH/time", "ATL/time", "NOW", "ATL PCT", "NOW PCT", "5 PCT TARGET"}

// ParseColorMode validates a color mode name.
func ParseColorMode(s string) (ColorMode, error) {
	switch m := ColorMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ColorAuto, ColorAlways, ColorNever:
		return m, nil
	case "":
		return ColorAuto, nil
	default:
		return "", fmt.Errorf("unknown color mode %q (want auto, always or never)", s)
	}
}

// Enabled reports whether colors should be written to w. Auto mode only
// colors terminals.
func (m ColorMode) Enabled(w io.Writer) bool {
	switch m {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func tableRow(rec *model.MetricsRecord, paint func(a ...interface{}) string) table.Row {
	token := rec.Token
	target := model.FormatPrice(rec.FivePctTarget)
	if paint != nil && rec.Highlight {
		token = paint(token)
		target = paint(target)
	}
	return table.Row{
		token,
		fmt.Sprintf("%s(%s)", model.FormatPrice(rec.ATH), model.FormatDate(rec.ATHTime)),
		fmt.Sprintf("%s(%s)", model.FormatPrice(rec.ATL), model.FormatDate(rec.ATLTime)),
		model.FormatPrice(rec.Now),
		model.FormatPct(rec.ATLPct),
		model.FormatPct(rec.NowPct),
		target,
	}
}

// RenderTable writes records as a bordered table. With color on, the token
// and 5% target cells of highlighted records are green.
func RenderTable(w io.Writer, title string, records []*model.MetricsRecord, useColor bool) error {
	var paint func(a ...interface{}) string
	if useColor {
		green := color.New(color.FgGreen)
		green.EnableColor()
		paint = green.Sprint
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleDefault)
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(tableHeader)
	for _, rec := range records {
		t.AppendRow(tableRow(rec, paint))
	}

	var b strings.Builder
	if title != "" {
		b.WriteString(title)
		b.WriteByte('\n')
	}
	b.WriteString(t.Render())
	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())
	return err
}
