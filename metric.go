package mandelseed

import (
	"errors"
	"time"

	"github.com/everFinance/mandelseed/schema"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricNameSpace = "mandelseed"
)

var (
	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Name:      "cache_lookups_total",
			Help:      "metadata cache lookups by result",
		},
		[]string{"result"},
	)

	resolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Name:      "resolutions_total",
			Help:      "uncached token resolutions by outcome",
		},
		[]string{"outcome", "reason"},
	)

	renders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Name:      "renders_total",
			Help:      "artifact captures by status",
		},
		[]string{"status"},
	)

	chainReadSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: MetricNameSpace,
			Name:      "chain_read_seconds",
			Help:      "latency of getMetadata eth_call",
			Buckets:   prometheus.DefBuckets,
		},
	)

	cacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: MetricNameSpace,
			Name:      "cache_entries",
			Help:      "metadata documents held in the cache",
		},
	)

	failedRenders = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: MetricNameSpace,
			Name:      "render_ledger_failed",
			Help:      "tokens whose latest capture failed",
		},
	)
)

func init() {
	prometheus.MustRegister(
		cacheLookups,
		resolutions,
		renders,
		chainReadSeconds,
		cacheEntries,
		failedRenders,
	)
}

func metricCacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}

func metricChainRead(elapsed time.Duration) {
	chainReadSeconds.Observe(elapsed.Seconds())
}

func metricResolution(err error) {
	switch {
	case err == nil:
		resolutions.WithLabelValues("served", "").Inc()
	case errors.Is(err, schema.ErrDecode):
		resolutions.WithLabelValues("not_found", "decode").Inc()
	case errors.Is(err, schema.ErrChainCall):
		resolutions.WithLabelValues("not_found", "chain_call").Inc()
	default:
		resolutions.WithLabelValues("not_found", "unknown").Inc()
	}
}

func metricRender(err error) {
	if err != nil {
		renders.WithLabelValues(schema.RenderStatusFailed).Inc()
		return
	}
	renders.WithLabelValues(schema.RenderStatusOk).Inc()
}
