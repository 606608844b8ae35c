// Package metrics records counters and timings of means and bands runs.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "meansbands"

// Recorder holds the collectors of a run. A nil Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	seriesComputed  *prometheus.CounterVec
	variableFailure *prometheus.CounterVec
	productDuration *prometheus.HistogramVec
}

// NewRecorder registers the collectors on a fresh registry.
func NewRecorder() (*Recorder, error) {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		seriesComputed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "series_computed_total",
				Help:      "Number of series reduced to means and bands.",
			},
			[]string{"product", "class"},
		),
		variableFailure: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "variable_failures_total",
				Help:      "Number of variables that failed to compute.",
			},
			[]string{"product", "class"},
		),
		productDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "product_duration_seconds",
				Help:      "Time spent computing a product.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"product", "class"},
		),
	}
	for _, c := range []prometheus.Collector{r.seriesComputed, r.variableFailure, r.productDuration} {
		if err := r.registry.Register(c); err != nil {
			return nil, fmt.Errorf("unable to register collector, %w", err)
		}
	}
	return r, nil
}

func (r *Recorder) SeriesComputed(product, class string) {
	if r == nil {
		return
	}
	r.seriesComputed.WithLabelValues(product, class).Inc()
}

func (r *Recorder) VariableFailed(product, class string) {
	if r == nil {
		return
	}
	r.variableFailure.WithLabelValues(product, class).Inc()
}

// ObserveProduct records the time since start against a product.
func (r *Recorder) ObserveProduct(product, class string, start time.Time) {
	if r == nil {
		return
	}
	r.productDuration.WithLabelValues(product, class).Observe(time.Since(start).Seconds())
}

// Registry exposes the underlying registry e.g. for an HTTP handler.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// WriteTextfile dumps all collected metrics in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("unable to write metrics to %s, %w", path, err)
	}
	return nil
}
