package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordTrial(t *testing.T) {
	RecordTrial("test/trial", 5, false, 10*time.Millisecond)
	RecordTrial("test/trial", 2, true, time.Millisecond)

	complete := trialsCounter.With(prometheus.Labels{"estimator": "test/trial", "outcome": "complete"})
	diverged := trialsCounter.With(prometheus.Labels{"estimator": "test/trial", "outcome": "diverged"})
	assert.Equal(t, 1.0, testutil.ToFloat64(complete))
	assert.Equal(t, 1.0, testutil.ToFloat64(diverged))
	assert.Equal(t, 7.0, testutil.ToFloat64(checkpointsCounter.With(prometheus.Labels{"estimator": "test/trial"})))
}

func TestRecordPhase(t *testing.T) {
	RecordPhase("test/phase", "insert", 4, 1000, 25*time.Nanosecond)
	gauge := opLatencyGauge.With(prometheus.Labels{"estimator": "test/phase", "phase": "insert", "workers": "4"})
	assert.Equal(t, 25.0, testutil.ToFloat64(gauge))
	assert.Equal(t, 1000.0, testutil.ToFloat64(opsCounter.With(prometheus.Labels{"estimator": "test/phase", "phase": "insert"})))
}
