package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once         sync.Once
	polls        *prom.CounterVec
	pollDuration prom.Histogram
	sets         *prom.CounterVec
	level        prom.Gauge
	visible      prom.Gauge
}

// NewPrometheusRecorder constructs and registers the brightsync metrics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.polls = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "brightsync",
			Name:      "polls_total",
			Help:      "Poll cycles by outcome",
		}, []string{"outcome"})
		pr.pollDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "brightsync",
			Name:      "poll_duration_seconds",
			Help:      "Duration of the brightness get invocation",
			Buckets:   prom.DefBuckets,
		})
		pr.sets = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "brightsync",
			Name:      "sets_total",
			Help:      "Brightness set invocations by result",
		}, []string{"result"})
		pr.level = prom.NewGauge(prom.GaugeOpts{
			Namespace: "brightsync",
			Name:      "level_percent",
			Help:      "Last reported brightness level",
		})
		pr.visible = prom.NewGauge(prom.GaugeOpts{
			Namespace: "brightsync",
			Name:      "visible",
			Help:      "1 when the brightness tool answered the last poll",
		})
		reg.MustRegister(pr.polls, pr.pollDuration, pr.sets, pr.level, pr.visible)
	})
	return pr
}

func (p *PrometheusRecorder) IncPoll(outcome string) {
	if p == nil || p.polls == nil {
		return
	}
	p.polls.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObservePollDuration(d time.Duration) {
	if p == nil || p.pollDuration == nil {
		return
	}
	p.pollDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetBrightness(level int, visible bool) {
	if p == nil || p.level == nil {
		return
	}
	p.level.Set(float64(level))
	if visible {
		p.visible.Set(1)
	} else {
		p.visible.Set(0)
	}
}

func (p *PrometheusRecorder) IncSet(result string) {
	if p == nil || p.sets == nil {
		return
	}
	p.sets.WithLabelValues(result).Inc()
}
