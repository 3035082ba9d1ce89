// Package metrics expose les compteurs Prometheus du résolveur et du cache.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	resolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "berriz_resolutions_total",
		Help: "Playback resolutions by outcome",
	}, []string{"outcome"}) // outcome=skipped|discarded|stored|failed

	cacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "berriz_playback_cache_entries",
		Help: "Number of entries currently held in the playback cache",
	})

	cacheEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "berriz_playback_cache_evictions_total",
		Help: "Entries evicted because the cache reached capacity",
	})

	navigationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "berriz_navigations_total",
		Help: "Navigation events by terminal state",
	}, []string{"state"})

	extensionActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "berriz_extension_active",
		Help: "Whether the extension is enabled (1) or disabled (0)",
	})
)

func ObserveResolution(outcome string) {
	resolutionsTotal.WithLabelValues(outcome).Inc()
}

func SetCacheEntries(n int) {
	cacheEntries.Set(float64(n))
}

func IncCacheEvictions() {
	cacheEvictionsTotal.Inc()
}

func ObserveNavigation(state string) {
	navigationsTotal.WithLabelValues(state).Inc()
}

func SetExtensionActive(active bool) {
	if active {
		extensionActive.Set(1)
		return
	}
	extensionActive.Set(0)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
