package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	end := time.Unix(1_700_000_000, 0)

	m.Observe("order-cleanup", 250*time.Millisecond, end, nil)
	m.Observe("order-cleanup", time.Second, end, errors.New("db down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("order-cleanup", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("order-cleanup", "failure")))
	assert.Equal(t, float64(end.Unix()), testutil.ToFloat64(m.lastSuccess.WithLabelValues("order-cleanup")))

	err := testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP petfood_cron_job_last_success_timestamp_seconds Unix time of the last successful run.
# TYPE petfood_cron_job_last_success_timestamp_seconds gauge
petfood_cron_job_last_success_timestamp_seconds{job="order-cleanup"} 1.7e+09
`), "petfood_cron_job_last_success_timestamp_seconds")
	require.NoError(t, err)
}

func TestNilCronJobMetricsIsNoop(t *testing.T) {
	var m *CronJobMetrics
	assert.NotPanics(t, func() { m.Observe("x", time.Second, time.Now(), nil) })
	assert.Nil(t, NewCronJobMetrics(nil))
}

func TestCronJobMetricsLabelsUnnamedJob(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	m.Observe("", time.Millisecond, time.Now(), nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("unknown", "success")))
	assert.Equal(t, "unknown", normalizeLabel(""))
	assert.Equal(t, "mercadopago", normalizeLabel("mercadopago"))
}
