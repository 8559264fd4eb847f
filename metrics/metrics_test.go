package metrics_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mazrean/kizuna"
	"github.com/mazrean/kizuna/metrics"
)

type service struct {
	initErr error
}

func (s *service) IsOptional(string) bool              { return false }
func (s *service) InjectObject(kizuna.Injection) error { return nil }
func (s *service) Init() error                         { return s.initErr }

func TestObserver(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	observer, err := metrics.NewObserver(reg, prometheus.Labels{"manifest": "test"})
	require.NoError(t, err)

	registry := kizuna.New(
		kizuna.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		kizuna.WithObserver(observer),
	)
	require.NoError(t, registry.Register(&service{}, "a"))
	require.NoError(t, registry.Register(&service{}, "b", "a"))
	require.NoError(t, registry.Register(&service{}, "c", "missing"))

	_, err = registry.Activate()
	require.NoError(t, err)

	require.NoError(t, registry.Register(&service{initErr: errors.New("boom")}, "d"))
	_, err = registry.Activate()
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, family := range families {
		names[family.GetName()] = true
	}
	assert.True(t, names["kizuna_services_registered_total"])
	assert.True(t, names["kizuna_service_init_duration_seconds"])

	assert.Equal(t, 5, testutil.CollectAndCount(reg))
	assert.Equal(t, 2, testutil.CollectAndCount(reg, "kizuna_service_init_duration_seconds", "kizuna_services_initialized_total"))
	assert.InDelta(t, 4, counterValue(t, families, "kizuna_services_registered_total"), 0)
	assert.InDelta(t, 2, counterValue(t, families, "kizuna_services_initialized_total"), 0)
	assert.InDelta(t, 1, counterValue(t, families, "kizuna_services_unsatisfied_total"), 0)
	assert.InDelta(t, 1, counterValue(t, families, "kizuna_service_init_failures_total"), 0)
}

func counterValue(t *testing.T, families []*dto.MetricFamily, name string) float64 {
	t.Helper()

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		var total float64
		for _, m := range family.GetMetric() {
			assert.Equal(t, "manifest", m.GetLabel()[0].GetName())
			total += m.GetCounter().GetValue()
		}
		return total
	}
	t.Fatalf("metric family %s not gathered", name)
	return 0
}

func TestObserver_DuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := metrics.NewObserver(reg, nil)
	require.NoError(t, err)

	_, err = metrics.NewObserver(reg, nil)
	assert.Error(t, err)
}
