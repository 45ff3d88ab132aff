// Package metrics exposes the crawler's Prometheus instrumentation as a
// passed-in Registry, following the collector-as-value pattern used
// elsewhere in this codebase rather than registering against the global
// default registry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles every counter/histogram the extract, transform, and
// httpx packages report against.
type Metrics struct {
	CollectionsExtracted prometheus.Counter
	RecordsTransformed   prometheus.Counter
	FetchErrors          prometheus.Counter
	ParseErrors          prometheus.Counter
	FetchDuration        prometheus.Histogram
}

// New registers and returns a Metrics bundle against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CollectionsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pdscrawler",
			Name:      "collections_extracted_total",
			Help:      "Number of collection descriptors accepted from the ODE registry query.",
		}),
		RecordsTransformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pdscrawler",
			Name:      "records_transformed_total",
			Help:      "Number of records successfully converted into STAC items.",
		}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pdscrawler",
			Name:      "fetch_errors_total",
			Help:      "Number of HTTP fetches that exhausted their retry budget.",
		}),
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pdscrawler",
			Name:      "parse_errors_total",
			Help:      "Number of ODL or JSON documents that failed to parse.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pdscrawler",
			Name:      "fetch_duration_seconds",
			Help:      "Latency of a single HTTP fetch, including retries.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.CollectionsExtracted, m.RecordsTransformed, m.FetchErrors, m.ParseErrors, m.FetchDuration)
	return m
}
