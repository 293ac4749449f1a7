package collection

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// LoadsTotal counts collection load attempts by outcome.
	LoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "itemdeck_loads_total",
			Help: "Total number of collection load attempts",
		},
		[]string{"status"},
	)

	// LoadDurationSeconds tracks the duration of the last load.
	LoadDurationSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "itemdeck_load_duration_seconds",
			Help: "Duration of the most recent collection load",
		},
	)

	// EntitiesResolved tracks the entity count of the current collection.
	EntitiesResolved = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "itemdeck_entities_resolved",
			Help: "Number of resolved entities in the loaded collection",
		},
		[]string{"entity_type"},
	)

	// UnresolvedReferencesTotal counts relationship targets that were
	// not found. These degrade the load, they do not fail it.
	UnresolvedReferencesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "itemdeck_unresolved_references_total",
			Help: "Total number of relationship references that failed to resolve",
		},
	)
)

func init() {
	// Register metrics with the default registry
	prometheus.MustRegister(LoadsTotal)
	prometheus.MustRegister(LoadDurationSeconds)
	prometheus.MustRegister(EntitiesResolved)
	prometheus.MustRegister(UnresolvedReferencesTotal)
}

func observeLoad(elapsed time.Duration, col *Collection, err error) {
	LoadDurationSeconds.Set(elapsed.Seconds())
	if err != nil {
		LoadsTotal.WithLabelValues("error").Inc()
		return
	}
	LoadsTotal.WithLabelValues("success").Inc()
	for _, typeName := range col.Graph.TypeNames() {
		EntitiesResolved.WithLabelValues(typeName).Set(float64(col.Graph.Count(typeName)))
	}
	UnresolvedReferencesTotal.Add(float64(len(col.Warnings)))
}
