package recorder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"PeakWatch/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []*model.MetricsRecord {
	return []*model.MetricsRecord{
		{
			Token: "BTC", Symbol: "BTCUSDT",
			ATH: 68789.63, ATHTime: time.Date(2021, 11, 8, 0, 0, 0, 0, time.UTC),
			ATL: 15476, ATLTime: time.Date(2022, 11, 21, 0, 0, 0, 0, time.UTC),
			Now: 27000.5, ATLPct: 0.775023, NowPct: 0.607492, FivePctTarget: 3439.4815,
		},
		{
			Token: "LUNA", Symbol: "LUNAUSDT",
			ATH: 100, ATHTime: time.Date(2022, 4, 4, 0, 0, 0, 0, time.UTC),
			ATL: 0.0001, ATLTime: time.Date(2022, 5, 9, 0, 0, 0, 0, time.UTC),
			Now: 0.5, ATLPct: 0.999999, NowPct: 0.995, FivePctTarget: 5, Highlight: true,
		},
	}
}

func TestWriteCSV_Layout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view.csv")
	require.NoError(t, WriteCSV(path, sampleRecords()[:1]))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "token,symbol,ath,ath_time,atl,atl_time,now,atl_pct,now_pct,five_pct_target", lines[0])
	assert.Equal(t, "BTC,BTCUSDT,68789.63,2021-11-08,15476,2022-11-21,27000.5,77.50%,60.74%,3439.4815", lines[1])

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestCSV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view.csv")
	in := sampleRecords()
	require.NoError(t, WriteCSV(path, in))

	out, err := ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, out, len(in))
	for i := range in {
		assert.Equal(t, in[i].Token, out[i].Token)
		assert.Equal(t, in[i].Symbol, out[i].Symbol)
		assert.Equal(t, in[i].ATH, out[i].ATH)
		assert.Equal(t, in[i].ATL, out[i].ATL)
		assert.Equal(t, in[i].Now, out[i].Now)
		assert.Equal(t, in[i].FivePctTarget, out[i].FivePctTarget)
		assert.True(t, in[i].ATHTime.Equal(out[i].ATHTime))
		assert.True(t, in[i].ATLTime.Equal(out[i].ATLTime))
		assert.InDelta(t, in[i].ATLPct, out[i].ATLPct, 0.0001)
		assert.InDelta(t, in[i].NowPct, out[i].NowPct, 0.0001)
		assert.Equal(t, in[i].Highlight, out[i].Highlight)
	}
}

func TestReadCSV_BadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("token,symbol\nBTC,BTCUSDT\n"), 0o644))

	_, err := ReadCSV(path)
	assert.ErrorContains(t, err, "header")
}

func TestReadCSV_BadValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	body := strings.Join(Columns, ",") + "\nBTC,BTCUSDT,abc,2021-11-08,1,2022-11-21,2,10.00%,5.00%,3\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := ReadCSV(path)
	assert.ErrorContains(t, err, "line 2")
}

func TestCSVRecorder_RecordReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	rec, err := NewCSVRecorder(dir)
	require.NoError(t, err)
	defer rec.Close()

	records := sampleRecords()
	report := &model.Report{
		ByATLPct:          records,
		ByNowPct:          records,
		WatchlistByNowPct: records[:1],
	}
	require.NoError(t, rec.RecordReport(report))

	for name, want := range map[string]int{FileByATLPct: 2, FileByNowPct: 2, FileWatchlistByNowPct: 1} {
		got, err := ReadCSV(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Len(t, got, want, name)
	}

	// A second run replaces the previous files.
	require.NoError(t, rec.RecordReport(&model.Report{}))
	got, err := ReadCSV(filepath.Join(dir, FileByNowPct))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWriteCSV_FailureRemovesTempFile(t *testing.T) {
	// A non-empty directory at the target path makes the final rename fail.
	path := filepath.Join(t.TempDir(), "view.csv")
	require.NoError(t, os.MkdirAll(filepath.Join(path, "keep"), 0o755))

	err := WriteCSV(path, sampleRecords())
	assert.ErrorContains(t, err, "rename")

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
