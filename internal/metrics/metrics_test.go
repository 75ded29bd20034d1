package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRunFinished(t *testing.T) {
	r := NewRegistry()
	started := time.Now().Add(-2 * time.Second)

	r.RunFinished(started, 120, 80, 78, 3, nil)
	r.RunFinished(started, 0, 0, 0, 0, errors.New("catalog down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(r.Runs.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Runs.WithLabelValues("error")))
	assert.Equal(t, 120.0, testutil.ToFloat64(r.Markets.WithLabelValues("listed")))
	assert.Equal(t, 78.0, testutil.ToFloat64(r.Markets.WithLabelValues("analyzed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.Highlighted), "failed runs keep the last good gauges")
	assert.Positive(t, testutil.ToFloat64(r.LastRun))
	assert.Equal(t, 1, testutil.CollectAndCount(r.RunDuration))
}

func TestMarketSkipped(t *testing.T) {
	r := NewRegistry()
	r.MarketSkipped("no_data")
	r.MarketSkipped("no_data")
	r.MarketSkipped("fetch_error")
	r.ObserveFetch("klines", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(r.Skipped.WithLabelValues("no_data")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Skipped.WithLabelValues("fetch_error")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.FetchDuration))
}

func TestNilRegistry(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.ObserveFetch("klines", time.Now())
		r.MarketSkipped("no_data")
		r.RunFinished(time.Now(), 1, 1, 1, 0, nil)
	})
}
