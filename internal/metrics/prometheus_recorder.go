package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	phaseDuration *prom.HistogramVec
	buildDuration prom.Histogram
	phaseResults  *prom.CounterVec
	buildOutcome  *prom.CounterVec
	generated     *prom.CounterVec
	regenerated   *prom.CounterVec
	writesSkipped *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics against
// the given registry (a nil registry gets a fresh one).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.phaseDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "readmegen",
			Name:      "phase_duration_seconds",
			Help:      "Duration of individual build phases",
			Buckets:   prom.DefBuckets,
		}, []string{"phase"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "readmegen",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.phaseResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "readmegen",
			Name:      "phase_results_total",
			Help:      "Phase result counts by outcome",
		}, []string{"phase", "result"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "readmegen",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.generated = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "readmegen",
			Name:      "readmes_generated_total",
			Help:      "Readmes generated by format and placement",
		}, []string{"format", "placement"})
		pr.regenerated = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "readmegen",
			Name:      "readmes_regenerated_total",
			Help:      "Readmes regenerated after late source mutations",
		}, []string{"format"})
		pr.writesSkipped = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "readmegen",
			Name:      "writes_skipped_total",
			Help:      "Writes skipped because content was unchanged",
		}, []string{"reason"})
		reg.MustRegister(pr.phaseDuration, pr.buildDuration, pr.phaseResults,
			pr.buildOutcome, pr.generated, pr.regenerated, pr.writesSkipped)
	})
	return pr
}

func (p *PrometheusRecorder) ObservePhaseDuration(phase string, d time.Duration) {
	if p == nil || p.phaseDuration == nil {
		return
	}
	p.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPhaseResult(phase string, result ResultLabel) {
	if p == nil || p.phaseResults == nil {
		return
	}
	p.phaseResults.WithLabelValues(phase, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncReadmeGenerated(format, placement string) {
	if p == nil || p.generated == nil {
		return
	}
	p.generated.WithLabelValues(format, placement).Inc()
}

func (p *PrometheusRecorder) IncReadmeRegenerated(format string) {
	if p == nil || p.regenerated == nil {
		return
	}
	p.regenerated.WithLabelValues(format).Inc()
}

func (p *PrometheusRecorder) IncWriteSkipped(reason string) {
	if p == nil || p.writesSkipped == nil {
		return
	}
	p.writesSkipped.WithLabelValues(reason).Inc()
}
