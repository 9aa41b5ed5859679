// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "coachgate"

var (
	// StorageOperationsTotal tracks object store calls.
	// Labels:
	//   - operation: get, put, delete, stat, list, copy, presign
	//   - status: success, error
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_operations_total",
			Help:      "Total number of object storage operations",
		},
		[]string{"operation", "status"},
	)

	// CacheOperationsTotal tracks cache operations (get, set, delete).
	// Labels:
	//   - operation: get, set, delete
	//   - status: hit, miss, success, error
	//   - cache_type: redis
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Total number of cache operations",
		},
		[]string{"operation", "status", "cache_type"},
	)

	// AuditAppendsTotal tracks audit log writes.
	// Labels:
	//   - result: appended, queued, failed, archived, archive_failed
	AuditAppendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_appends_total",
			Help:      "Total number of audit log appends by result",
		},
		[]string{"result"},
	)

	// AuthAttemptsTotal tracks logins and token checks.
	// Labels:
	//   - result: success, invalid_credentials, missing, invalid, expired, forbidden
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Total number of authentication and authorization decisions",
		},
		[]string{"result"},
	)

	// SingleflightRequestsTotal tracks singleflight behavior.
	// Labels:
	//   - result: initiated (new execution), shared (reused result)
	SingleflightRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "singleflight_requests_total",
			Help:      "Total number of singleflight requests",
		},
		[]string{"result"},
	)

	// HTTPRequestsTotal tracks served requests by route pattern.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks request latency by route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Generic status constants.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Storage operation constants.
const (
	StorageOpGet     = "get"
	StorageOpPut     = "put"
	StorageOpDelete  = "delete"
	StorageOpStat    = "stat"
	StorageOpList    = "list"
	StorageOpCopy    = "copy"
	StorageOpPresign = "presign"
)

// Cache operation status constants.
const (
	CacheStatusHit     = "hit"
	CacheStatusMiss    = "miss"
	CacheStatusSuccess = "success"
	CacheStatusError   = "error"
)

// Cache operation type constants.
const (
	CacheOpGet    = "get"
	CacheOpSet    = "set"
	CacheOpDelete = "delete"
)

// Cache type constants.
const (
	CacheTypeRedis = "redis"
)

// Audit result constants.
const (
	AuditAppended      = "appended"
	AuditQueued        = "queued"
	AuditFailed        = "failed"
	AuditArchived      = "archived"
	AuditArchiveFailed = "archive_failed"
)

// Auth result constants.
const (
	AuthSuccess            = "success"
	AuthInvalidCredentials = "invalid_credentials"
	AuthMissing            = "missing"
	AuthInvalid            = "invalid"
	AuthExpired            = "expired"
	AuthForbidden          = "forbidden"
)

// Singleflight result constants.
const (
	SingleflightInitiated = "initiated"
	SingleflightShared    = "shared"
)
