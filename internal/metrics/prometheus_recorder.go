package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "docportal"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration *prom.HistogramVec
	buildDuration prom.Histogram
	stageResults  *prom.CounterVec
	buildOutcome  *prom.CounterVec
	pages         *prom.GaugeVec
	sitemapURLs   prom.Gauge
	excludedURLs  *prom.CounterVec
	brokenLinks   prom.Gauge
}

// NewPrometheusRecorder constructs metrics and registers them with reg. A nil reg
// gets a private registry.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		pages: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "pages",
			Help:      "Pages discovered in the last build by kind",
		}, []string{"kind"}),
		sitemapURLs: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "sitemap_urls",
			Help:      "URLs written to the sitemap in the last build",
		}),
		excludedURLs: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "sitemap_excluded_urls_total",
			Help:      "URLs removed from the sitemap by reason",
		}, []string{"reason"}),
		brokenLinks: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "broken_links",
			Help:      "Broken internal links found on the homepage in the last build",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
		pr.pages, pr.sitemapURLs, pr.excludedURLs, pr.brokenLinks)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) SetPages(kind string, n int) {
	if p == nil {
		return
	}
	p.pages.WithLabelValues(kind).Set(float64(n))
}

func (p *PrometheusRecorder) SetSitemapURLs(n int) {
	if p == nil {
		return
	}
	p.sitemapURLs.Set(float64(n))
}

func (p *PrometheusRecorder) AddExcludedURLs(reason string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.excludedURLs.WithLabelValues(reason).Add(float64(n))
}

func (p *PrometheusRecorder) SetBrokenLinks(n int) {
	if p == nil {
		return
	}
	p.brokenLinks.Set(float64(n))
}
