package recorder

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"PeakWatch/internal/model"

	"github.com/rs/zerolog/log"
)

// CSVRecorder writes each report view to its own CSV file in Dir,
// replacing the files of the previous run.
type CSVRecorder struct {
	Dir string
	mu  sync.Mutex
}

// NewCSVRecorder creates Dir if needed.
func NewCSVRecorder(dir string) (*CSVRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	log.Info().Str("dir", dir).Msg("csv recorder ready")
	return &CSVRecorder{Dir: dir}, nil
}

func (r *CSVRecorder) RecordReport(report *model.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	views := []struct {
		name    string
		records []*model.MetricsRecord
	}{
		{FileByATLPct, report.ByATLPct},
		{FileByNowPct, report.ByNowPct},
		{FileWatchlistByNowPct, report.WatchlistByNowPct},
	}
	for _, v := range views {
		path := filepath.Join(r.Dir, v.name)
		if err := WriteCSV(path, v.records); err != nil {
			return err
		}
		log.Debug().Str("file", path).Int("rows", len(v.records)).Msg("view exported")
	}
	return nil
}

func (r *CSVRecorder) Close() error { return nil }

// WriteCSV writes records to path. The file is written to a temporary name
// first and renamed, so readers never observe a partial view.
func WriteCSV(path string, records []*model.MetricsRecord) (err error) {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(row(rec)); err != nil {
			return fmt.Errorf("write %s: %w", rec.Symbol, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func row(rec *model.MetricsRecord) []string {
	return []string{
		rec.Token,
		rec.Symbol,
		model.FormatPrice(rec.ATH),
		model.FormatDate(rec.ATHTime),
		model.FormatPrice(rec.ATL),
		model.FormatDate(rec.ATLTime),
		model.FormatPrice(rec.Now),
		model.FormatPct(rec.ATLPct),
		model.FormatPct(rec.NowPct),
		model.FormatPrice(rec.FivePctTarget),
	}
}

// ReadCSV parses a file written by WriteCSV. Percentages come back at the
// precision they were printed with and times at day precision.
func ReadCSV(path string) ([]*model.MetricsRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("read %s: missing header", path)
	}
	if err := checkHeader(rows[0]); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	records := make([]*model.MetricsRecord, 0, len(rows)-1)
	for i, fields := range rows[1:] {
		rec, err := parseRow(fields)
		if err != nil {
			return nil, fmt.Errorf("read %s: line %d: %w", path, i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func checkHeader(header []string) error {
	if len(header) != len(Columns) {
		return fmt.Errorf("header has %d columns, want %d", len(header), len(Columns))
	}
	for i, col := range Columns {
		if header[i] != col {
			return fmt.Errorf("column %d is %q, want %q", i, header[i], col)
		}
	}
	return nil
}

func parseRow(fields []string) (*model.MetricsRecord, error) {
	rec := &model.MetricsRecord{Token: fields[0], Symbol: fields[1]}
	var errs []error
	num := func(s string) float64 {
		v, e := strconv.ParseFloat(s, 64)
		if e != nil {
			errs = append(errs, e)
		}
		return v
	}
	date := func(s string) time.Time {
		t, e := time.Parse(model.DateLayout, s)
		if e != nil {
			errs = append(errs, e)
		}
		return t
	}
	pct := func(s string) float64 {
		v, e := model.ParsePct(s)
		if e != nil {
			errs = append(errs, e)
		}
		return v
	}

	rec.ATH = num(fields[2])
	rec.ATHTime = date(fields[3])
	rec.ATL = num(fields[4])
	rec.ATLTime = date(fields[5])
	rec.Now = num(fields[6])
	rec.ATLPct = pct(fields[7])
	rec.NowPct = pct(fields[8])
	rec.FivePctTarget = num(fields[9])
	rec.Highlight = rec.FivePctTarget >= rec.Now

	return rec, errors.Join(errs...)
}
