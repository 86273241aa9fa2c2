package registry

import (
	"fmt"

	"github.com/ValentinKolb/kvbase/lib/db"
	"github.com/VictoriaMetrics/metrics"
)

type registryMetrics struct {
	set           *metrics.Set
	pins          *metrics.Counter
	unpins        *metrics.Counter
	constructions *metrics.Counter
	evictions     *metrics.Counter
	violations    *metrics.Counter
}

func newRegistryMetrics(set *metrics.Set, entries func() float64) *registryMetrics {
	set.NewGauge("kvbase_registry_entries", entries)
	return &registryMetrics{
		set:           set,
		pins:          set.NewCounter("kvbase_registry_pins_total"),
		unpins:        set.NewCounter("kvbase_registry_unpins_total"),
		constructions: set.NewCounter("kvbase_registry_constructions_total"),
		evictions:     set.NewCounter("kvbase_registry_evictions_total"),
		violations:    set.NewCounter("kvbase_registry_contract_violations_total"),
	}
}

func (m *registryMetrics) failure(code db.ErrCode) {
	m.set.GetOrCreateCounter(fmt.Sprintf(`kvbase_registry_open_failures_total{code=%q}`, code.String())).Inc()
}
