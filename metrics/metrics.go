package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const MetricsPrefix = "hll_eval_"

var trialsCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: MetricsPrefix + "trials_total",
		Help: "Number of completed accuracy trials",
	},
	[]string{"estimator", "outcome"},
)

var trialDurationHist = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    MetricsPrefix + "trial_duration_seconds",
		Help:    "Wall time of one accuracy trial",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 14),
	},
	[]string{"estimator"},
)

var checkpointsCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: MetricsPrefix + "checkpoints_total",
		Help: "Number of error samples recorded across trials",
	},
	[]string{"estimator"},
)

var opLatencyGauge = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: MetricsPrefix + "op_latency_nanoseconds",
		Help: "Mean per-operation latency of the last throughput phase",
	},
	[]string{"estimator", "phase", "workers"},
)

var opsCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: MetricsPrefix + "ops_total",
		Help: "Operations completed by throughput workers",
	},
	[]string{"estimator", "phase"},
)

// RecordTrial records one finished trial.
func RecordTrial(estimator string, checkpoints int, diverged bool, d time.Duration) {
	outcome := "complete"
	if diverged {
		outcome = "diverged"
	}
	trialsCounter.With(prometheus.Labels{"estimator": estimator, "outcome": outcome}).Inc()
	trialDurationHist.With(prometheus.Labels{"estimator": estimator}).Observe(d.Seconds())
	checkpointsCounter.With(prometheus.Labels{"estimator": estimator}).Add(float64(checkpoints))
}

// RecordPhase records one throughput phase.
func RecordPhase(estimator, phase string, workers int, ops uint64, perOp time.Duration) {
	opLatencyGauge.
		With(prometheus.Labels{"estimator": estimator, "phase": phase, "workers": strconv.Itoa(workers)}).
		Set(float64(perOp.Nanoseconds()))
	opsCounter.With(prometheus.Labels{"estimator": estimator, "phase": phase}).Add(float64(ops))
}

// Serve exposes the default registry on addr until the returned func is
// called.
func Serve(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		log.Infof("serving metrics on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("metrics server failed")
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("metrics server shutdown")
		}
	}
}
