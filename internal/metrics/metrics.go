// Package metrics exposes process-wide prometheus counters for job and
// payload throughput. Registered once at package init via promauto;
// task loops increment these as a side effect of their normal status
// transitions, exposed for scraping at /metrics (see internal/api).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// JobsProcessed counts Job status transitions made by the sender, getter
// and cleaner, labeled by the resulting status (submitted or a terminal
// status). A 202 "not ready" poll changes nothing and is not counted.
var JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "jobmesh_jobs_processed_total",
	Help: "Total number of Job status transitions processed, by resulting status.",
}, []string{"status"})

// PayloadsProcessed counts Payload status transitions made by the runner
// (out of Prepared) and the payload cleaner (to Cleaned), labeled by the
// resulting terminal status.
var PayloadsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "jobmesh_payloads_processed_total",
	Help: "Total number of Payload status transitions processed, by resulting status.",
}, []string{"status"})
