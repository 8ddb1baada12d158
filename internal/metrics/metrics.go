// Package metrics exposes engine notifications as Prometheus metrics.
package metrics

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/multivault/internal/events"
)

// Collector is an events.Sink that counts notifications.
type Collector struct {
	registry  *prometheus.Registry
	namespace string

	eventsTotal *prometheus.CounterVec
	lastSeq     prometheus.Gauge
	paused      prometheus.Gauge
	batches     prometheus.Counter
}

// NewCollector returns a collector registered on its own registry.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "multivault"
	}

	c := &Collector{registry: prometheus.NewRegistry(), namespace: namespace}

	c.eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "total",
			Help:      "Notifications published, by kind and vault type (empty for non-vault events)",
		},
		[]string{"kind", "vault_type"},
	)
	c.lastSeq = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "last_seq",
		Help:      "Journal sequence number of the latest published notification",
	})
	c.paused = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "config",
		Name:      "paused",
		Help:      "1 if the last synced configuration paused the engine",
	})
	c.batches = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "operations",
		Name:      "committed_total",
		Help:      "Operations that committed and published notifications",
	})

	c.registry.MustRegister(c.eventsTotal, c.lastSeq, c.paused, c.batches)
	return c
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Totals gathers the event counters and sums them by kind.
func (c *Collector) Totals() (map[string]int, error) {
	families, err := c.registry.Gather()
	if err != nil {
		return nil, errors.Wrap(err, "gather metrics")
	}
	out := make(map[string]int)
	for _, mf := range families {
		if mf.GetName() != c.namespace+"_events_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "kind" {
					out[lp.GetValue()] += int(m.GetCounter().GetValue())
				}
			}
		}
	}
	return out, nil
}

// Publish implements events.Sink.
func (c *Collector) Publish(_ context.Context, batch []events.Event) {
	if len(batch) == 0 {
		return
	}
	c.batches.Inc()
	for _, e := range batch {
		c.eventsTotal.WithLabelValues(string(e.Kind), e.Attr("vaultType")).Inc()
		if e.Kind == events.KindConfigSynced {
			if paused, _ := e.Attrs["paused"].(bool); paused {
				c.paused.Set(1)
			} else {
				c.paused.Set(0)
			}
		}
	}
	c.lastSeq.Set(float64(batch[len(batch)-1].Seq))
}
