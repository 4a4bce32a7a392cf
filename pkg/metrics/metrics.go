// Package metrics exposes the Prometheus counters and histograms the
// stratum process reports: share throughput and outcome, block candidates,
// and job lifecycle. Out of the core's in-scope boundary (spec §1 lists
// "administration surfaces" as an external collaborator) but carried as
// ambient stack, the way the teacher's stratum/main.go wires a metrics
// listener alongside the Stratum server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SharesTotal counts process_share outcomes by coin and result kind:
	// "accepted", "block_candidate", "duplicate", "low_difficulty", "other".
	SharesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ngstratum",
		Name:      "shares_total",
		Help:      "Shares processed, partitioned by coin and outcome.",
	}, []string{"coin", "result"})

	// ShareDifficulty records the accepted difficulty of every non-rejected
	// share, letting an operator eyeball vardiff health per coin.
	ShareDifficulty = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ngstratum",
		Name:      "share_difficulty",
		Help:      "Accepted share difficulty.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 12),
	}, []string{"coin"})

	// BlocksFound counts block candidates detected, by coin.
	BlocksFound = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ngstratum",
		Name:      "blocks_found_total",
		Help:      "Block candidates detected by process_share.",
	}, []string{"coin"})

	// JobsBuilt counts successful Job.Init calls, by coin.
	JobsBuilt = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ngstratum",
		Name:      "jobs_built_total",
		Help:      "Jobs built from a new block template.",
	}, []string{"coin"})
)

func init() {
	prometheus.MustRegister(SharesTotal, ShareDifficulty, BlocksFound, JobsBuilt)
}

// Handler returns the Prometheus scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveShare records a completed process_share call's outcome.
func ObserveShare(coin, result string, acceptedDifficulty float64) {
	SharesTotal.WithLabelValues(coin, result).Inc()
	if result == "accepted" || result == "block_candidate" {
		ShareDifficulty.WithLabelValues(coin).Observe(acceptedDifficulty)
	}
	if result == "block_candidate" {
		BlocksFound.WithLabelValues(coin).Inc()
	}
}

// ObserveJobBuilt records a successful Job.Init.
func ObserveJobBuilt(coin string) {
	JobsBuilt.WithLabelValues(coin).Inc()
}
