// Package metrics exposes the Prometheus vectors scraped from clawguard:
// scan throughput and latency, findings by scanner/severity, policy
// reload outcomes, and audit write failures.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScanRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clawguard_scan_requests_total",
			Help: "Total number of scan requests, by resulting action",
		},
		[]string{"action"},
	)

	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clawguard_scan_duration_seconds",
			Help:    "Scan request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	FindingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clawguard_findings_total",
			Help: "Total number of findings produced, by scanner type and severity",
		},
		[]string{"scanner_type", "severity"},
	)

	PolicyReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clawguard_policy_reloads_total",
			Help: "Total number of policy reload attempts, by result",
		},
		[]string{"result"},
	)

	AuditWriteFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clawguard_audit_write_failures_total",
			Help: "Total number of audit log write failures",
		},
	)

	RateLimitRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clawguard_rate_limit_rejections_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)
)
