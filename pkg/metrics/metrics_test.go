package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tpcollect/pkg/store"
)

func TestInstrumentStore(t *testing.T) {
	m := New(prometheus.NewRegistry())
	s := InstrumentStore(store.NewMemory(), m)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "url_eau", store.Record{{Name: "a", Value: "1"}}))
	_, err := s.ReadAll(ctx, "url_eau")
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, s.Append(cancelled, "url_eau", store.Record{{Name: "a", Value: "2"}}))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.appends.WithLabelValues("url_eau", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.appends.WithLabelValues("url_eau", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reads.WithLabelValues("url_eau", "ok")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.CacheHit()
	m.CacheMiss()
	m.ValidationFailed("eau")
	s := store.NewMemory()
	assert.Same(t, s, InstrumentStore(s, nil).(*store.Memory))
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.CacheHit()
	m.CacheHit()
	m.CacheMiss()
	m.ValidationFailed("irga")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.validationFailures.WithLabelValues("irga")))
}
