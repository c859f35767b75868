package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estatedesk_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// PermissionChecks counts permission evaluations and their outcome (allowed|denied|error).
	PermissionChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estatedesk_permission_checks_total",
			Help: "Total number of permission checks",
		},
		[]string{"page", "permission", "result"},
	)

	// ScopeResolutions counts ownership-scope lookups per resource kind.
	ScopeResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estatedesk_scope_resolutions_total",
			Help: "Total number of ownership scope resolutions",
		},
		[]string{"resource", "result"},
	)

	// GrantReplacements counts bulk grant matrix replacements by outcome.
	GrantReplacements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estatedesk_grant_replacements_total",
			Help: "Total number of grant matrix replace operations",
		},
		[]string{"scope", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "estatedesk_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
