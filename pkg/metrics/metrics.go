package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"tpcollect/pkg/store"
)

const namespace = "tpcollect"

// Metrics holds the service counters. A nil *Metrics records nothing.
type Metrics struct {
	appends            *prometheus.CounterVec
	reads              *prometheus.CounterVec
	cacheLookups       *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		appends: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appends_total",
			Help:      "Row appends by resource and result.",
		}, []string{"resource", "result"}),
		reads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reads_total",
			Help:      "Full resource reads by resource and result.",
		}, []string{"resource", "result"}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Read cache lookups by result (hit or miss).",
		}, []string{"result"}),
		validationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Form submissions rejected before any remote call.",
		}, []string{"schema"}),
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.cacheLookups.WithLabelValues("hit").Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.cacheLookups.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) ValidationFailed(schema string) {
	if m != nil {
		m.validationFailures.WithLabelValues(schema).Inc()
	}
}

type instrumented struct {
	next store.Store
	m    *Metrics
}

// InstrumentStore counts appends and reads going through s.
func InstrumentStore(s store.Store, m *Metrics) store.Store {
	if m == nil {
		return s
	}
	return &instrumented{next: s, m: m}
}

func (i *instrumented) Append(ctx context.Context, resource string, rec store.Record) error {
	err := i.next.Append(ctx, resource, rec)
	i.m.appends.WithLabelValues(resource, result(err)).Inc()
	return err
}

func (i *instrumented) ReadAll(ctx context.Context, resource string) (store.Table, error) {
	t, err := i.next.ReadAll(ctx, resource)
	i.m.reads.WithLabelValues(resource, result(err)).Inc()
	return t, err
}
