package parley

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestMetricsCounting(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	metrics.stepStarted()
	metrics.stepStarted()
	metrics.stepResolved(stopSuccess)
	metrics.stepResolved(stopTimeout)
	metrics.stepResolved(stopTimeout)
	metrics.messageSent()
	metrics.seriesFinished("ok")
	metrics.collectFinished(1500 * time.Millisecond)

	assert.Equal(t, 2.0, counterValue(t, metrics.stepsStarted))
	assert.Equal(t, 1.0, counterValue(t, metrics.stepsResolved.WithLabelValues(stopSuccess)))
	assert.Equal(t, 2.0, counterValue(t, metrics.stepsResolved.WithLabelValues(stopTimeout)))
	assert.Equal(t, 1.0, counterValue(t, metrics.messagesSent))
	assert.Equal(t, 1.0, counterValue(t, metrics.seriesFinishedC.WithLabelValues("ok")))

	var hist dto.Metric
	require.NoError(t, metrics.collectSeconds.Write(&hist))
	assert.Equal(t, uint64(1), hist.GetHistogram().GetSampleCount())
}

func TestNilMetricsIsSafe(t *testing.T) {
	var metrics *Metrics
	metrics.stepStarted()
	metrics.stepResolved(stopError)
	metrics.messageSent()
	metrics.seriesFinished("error")
	metrics.collectFinished(time.Second)
}

func TestMetricsFlowThroughStep(t *testing.T) {
	env, _, _, _ := testEnv(t)
	env.Metrics = NewMetrics(prometheus.NewRegistry())

	step := NewStep(env, testReq, WithText("hello"))
	_, err := step.Send(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1.0, counterValue(t, env.Metrics.stepsStarted))
	assert.Equal(t, 1.0, counterValue(t, env.Metrics.messagesSent))
	assert.Equal(t, 1.0, counterValue(t, env.Metrics.stepsResolved.WithLabelValues("display")))
}
