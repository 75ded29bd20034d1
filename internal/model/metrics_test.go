package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPct(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00%"},
		{0.75, "75.00%"},
		{0.095, "9.50%"},
		{0.1, "10.00%"},
		{0.29, "29.00%"},
		{0.123456, "12.34%"},
		{0.99999, "99.99%"},
		{1, "100.00%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPct(tt.in), "fraction %v", tt.in)
	}
}

func TestParsePct(t *testing.T) {
	v, err := ParsePct("75.00%")
	require.NoError(t, err)
	assert.InDelta(t, 0.75, v, 1e-12)

	_, err = ParsePct("75.00")
	assert.Error(t, err)
	_, err = ParsePct("abc%")
	assert.Error(t, err)
}

func TestFormatDate(t *testing.T) {
	ts := time.Date(2021, 11, 8, 23, 30, 0, 0, time.FixedZone("X", -5*3600))
	assert.Equal(t, "2021-11-09", FormatDate(ts))
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "68789.63", FormatPrice(68789.63))
	assert.Equal(t, "0.00001234", FormatPrice(0.00001234))
	assert.Equal(t, "20", FormatPrice(20))
}

func TestReport_HighlightCount(t *testing.T) {
	r := &Report{ByNowPct: []*MetricsRecord{{Highlight: true}, {}, {Highlight: true}}}
	assert.Equal(t, 2, r.HighlightCount())
}
