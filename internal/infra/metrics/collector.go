package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voice-email/internal/application"
	"voice-email/internal/domain"
)

const namespace = "voicemail"

// Collector records pipeline metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	StageTotal    *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	RunsTotal     *prometheus.CounterVec
}

var _ application.Observer = (*Collector)(nil)

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		StageTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_total",
			Help:      "Stage executions by result (success, error, skipped)",
		}, []string{"stage", "result"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent inside a stage",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}, []string{"stage"}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed pipeline phases by final status",
		}, []string{"phase", "status"}),
	}

	reg.MustRegister(
		c.StageTotal,
		c.StageDuration,
		c.RunsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

func (c *Collector) ObserveStage(stage domain.StageName, result string, elapsed time.Duration) {
	c.StageTotal.WithLabelValues(string(stage), result).Inc()
	if result != application.ResultSkipped {
		c.StageDuration.WithLabelValues(string(stage)).Observe(elapsed.Seconds())
	}
}

func (c *Collector) ObserveRun(phase domain.Phase, status domain.Status) {
	c.RunsTotal.WithLabelValues(string(phase), string(status)).Inc()
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
