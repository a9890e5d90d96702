package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collectors are registered on the default registry, which fiberprometheus serves at /metrics.
var (
	BuildingsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "campusgeo_buildings_created_total",
		Help: "Buildings created with their geometry graph",
	})
	BuildingsDeletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "campusgeo_buildings_deleted_total",
		Help: "Buildings deleted with their Object3D subtree",
	})
	GeometryRowsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "campusgeo_geometry_rows_created_total",
		Help: "Inline points, faces and nodes inserted by building creation",
	}, []string{"kind"})
	TransactionsFailedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "campusgeo_transactions_failed_total",
		Help: "Rolled back write transactions by operation",
	}, []string{"operation"})
	RingQueryDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "campusgeo_ring_query_duration_ms",
		Help:    "Map ring query duration in milliseconds, resolution included",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})
	RingQueryResults = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "campusgeo_ring_query_results",
		Help:    "Buildings returned per map ring query",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
	})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "campusgeo_building_cache_hits_total",
		Help: "Resolved building trees served from cache",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "campusgeo_building_cache_misses_total",
		Help: "Resolved building trees read from the database",
	})
)

func init() {
	prometheus.MustRegister(BuildingsCreatedTotal)
	prometheus.MustRegister(BuildingsDeletedTotal)
	prometheus.MustRegister(GeometryRowsCreatedTotal)
	prometheus.MustRegister(TransactionsFailedTotal)
	prometheus.MustRegister(RingQueryDurationMs)
	prometheus.MustRegister(RingQueryResults)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
}

// SinceMs is the elapsed time since start in milliseconds
func SinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
