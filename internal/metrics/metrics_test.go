package metrics

import (
	"context"
	"testing"

	"cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/roach88/multivault/internal/events"
	"github.com/roach88/multivault/internal/term"
)

func TestCollector_CountsByKindAndVault(t *testing.T) {
	c := NewCollector("")
	atom := term.AtomID([]byte("a"))

	price := events.SharePriceChanged(atom, 1, math.NewInt(1), math.NewInt(1), math.NewInt(1), term.KindAtom)
	price.Seq = 7
	synced := events.ConfigSynced("d", true)
	synced.Seq = 8

	c.Publish(context.Background(), []events.Event{price, synced})
	c.Publish(context.Background(), nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.eventsTotal.WithLabelValues("SharePriceChanged", "atom")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.eventsTotal.WithLabelValues("ConfigSynced", "")))
	assert.Equal(t, 8.0, testutil.ToFloat64(c.lastSeq))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.paused))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.batches), "empty batches are not counted")
}

func TestCollector_RegistryGathers(t *testing.T) {
	c := NewCollector("test")
	c.Publish(context.Background(), []events.Event{events.ConfigSynced("d", false)})

	n, err := testutil.GatherAndCount(c.Registry(), "test_events_total")
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0.0, testutil.ToFloat64(c.paused))
}

func TestCollector_Totals(t *testing.T) {
	c := NewCollector("")
	atom := term.AtomID([]byte("a"))
	one := math.NewInt(1)

	c.Publish(context.Background(), []events.Event{
		events.SharePriceChanged(atom, 1, one, one, one, term.KindAtom),
		events.SharePriceChanged(atom, 1, one, one, one, term.KindTriple),
		events.ConfigSynced("d", false),
	})

	totals, err := c.Totals()
	assert.NoError(t, err)
	assert.Equal(t, map[string]int{"SharePriceChanged": 2, "ConfigSynced": 1}, totals)
}
