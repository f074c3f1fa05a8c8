// Package metrics exposes Prometheus collectors for the scraper.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scraperDetailFetchesTotal *prometheus.CounterVec
	scraperRosterPagesTotal   prometheus.Counter
	scraperAthletesUpserted   prometheus.Counter
	scraperClubsUpserted      prometheus.Counter
	scraperLicenseConflicts   prometheus.Counter
	scraperActiveWorkers      prometheus.Gauge

	once sync.Once
)

// Init registers the collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		scraperDetailFetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_detail_fetches_total",
				Help: "Detail page fetches, labeled by terminal outcome.",
			},
			[]string{"outcome"},
		)
		scraperRosterPagesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scraper_roster_pages_total",
				Help: "Roster listing pages processed.",
			},
		)
		scraperAthletesUpserted = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scraper_athletes_upserted_total",
				Help: "Athlete rows inserted or updated.",
			},
		)
		scraperClubsUpserted = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scraper_clubs_upserted_total",
				Help: "Club rows inserted or updated.",
			},
		)
		scraperLicenseConflicts = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scraper_license_conflicts_total",
				Help: "Records skipped because their license number was already assigned.",
			},
		)
		scraperActiveWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "scraper_active_workers",
				Help: "Detail fetch workers currently busy.",
			},
		)
	})
}

// DetailFetch counts one terminal detail fetch outcome ("ok" or a failure
// kind).
func DetailFetch(outcome string) {
	Init()
	scraperDetailFetchesTotal.WithLabelValues(outcome).Inc()
}

// RosterPage counts one processed roster page.
func RosterPage() {
	Init()
	scraperRosterPagesTotal.Inc()
}

// AthletesUpserted counts persisted athlete rows.
func AthletesUpserted(n int) {
	Init()
	scraperAthletesUpserted.Add(float64(n))
}

// ClubsUpserted counts persisted club rows.
func ClubsUpserted(n int) {
	Init()
	scraperClubsUpserted.Add(float64(n))
}

// LicenseConflicts counts skipped records.
func LicenseConflicts(n int) {
	Init()
	scraperLicenseConflicts.Add(float64(n))
}

// WorkerStarted marks a worker busy.
func WorkerStarted() {
	Init()
	scraperActiveWorkers.Inc()
}

// WorkerFinished marks a worker idle.
func WorkerFinished() {
	Init()
	scraperActiveWorkers.Dec()
}

// Handler returns the Prometheus scrape endpoint handler.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}
