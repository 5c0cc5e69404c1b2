package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creatorhub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "creatorhub_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Queue Metrics
	DeadLetterQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "creatorhub_dead_letter_queue_depth",
			Help: "Engagement updates waiting in the dead letter queue",
		},
	)

	// Access Metrics
	AccessDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creatorhub_access_decisions_total",
			Help: "Total number of content access decisions",
		},
		[]string{"visibility", "result"},
	)

	SubscriptionLookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "creatorhub_subscription_lookup_duration_seconds",
			Help:    "Subscription lookup latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 3},
		},
		[]string{"status"},
	)

	MembershipClientRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "creatorhub_membership_client_retries_total",
			Help: "Total number of retried requests to the membership service",
		},
	)

	// Content Metrics
	ContentUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creatorhub_content_uploads_total",
			Help: "Total number of content uploads",
		},
		[]string{"visibility"},
	)

	ContentUploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "creatorhub_content_upload_size_bytes",
			Help:    "Size of uploaded content files in bytes",
			Buckets: prometheus.ExponentialBuckets(1024*1024, 2, 15), // 1MB to 16GB
		},
	)

	ContentQualityScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "creatorhub_content_quality_score",
			Help:    "Quality score assigned to content",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	ContentRescoredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creatorhub_content_rescored_total",
			Help: "Total number of content rescoring operations",
		},
		[]string{"source"},
	)

	// Membership Metrics
	SubscriptionsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "creatorhub_subscriptions_created_total",
			Help: "Total number of subscriptions created",
		},
	)

	PurchasesCompletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "creatorhub_purchases_completed_total",
			Help: "Total number of one-time purchases completed",
		},
	)

	// Payout Metrics
	PayoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creatorhub_payouts_total",
			Help: "Total number of payout requests",
		},
		[]string{"status"},
	)

	PayoutAmount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "creatorhub_payout_amount_dollars",
			Help:    "Smoothed payout amount in dollars",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	RevenueSnapshotsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creatorhub_revenue_snapshots_total",
			Help: "Total number of revenue snapshots recorded",
		},
		[]string{"status"},
	)

	// Event Metrics
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creatorhub_events_published_total",
			Help: "Total number of domain events published",
		},
		[]string{"type", "status"},
	)

	// Storage Metrics
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creatorhub_storage_operations_total",
			Help: "Total number of storage operations",
		},
		[]string{"operation", "status"},
	)

	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "creatorhub_storage_operation_duration_seconds",
			Help:    "Storage operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"operation"},
	)

	StorageBytesTransferred = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creatorhub_storage_bytes_transferred_total",
			Help: "Total bytes transferred to/from storage",
		},
		[]string{"operation"},
	)

	// Database Metrics
	DatabaseOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creatorhub_database_operations_total",
			Help: "Total number of database operations",
		},
		[]string{"operation", "status"},
	)

	DatabaseOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "creatorhub_database_operation_duration_seconds",
			Help:    "Database operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Cache Metrics
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creatorhub_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creatorhub_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creatorhub_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method, endpoint, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordAccessDecision records the result of an access check
func RecordAccessDecision(visibility, result string) {
	AccessDecisionsTotal.WithLabelValues(visibility, result).Inc()
}

// RecordSubscriptionLookup records a subscription lookup
func RecordSubscriptionLookup(err error, duration float64) {
	SubscriptionLookupDuration.WithLabelValues(statusLabel(err)).Observe(duration)
}

// RecordContentUpload records a content upload
func RecordContentUpload(visibility string, size int64, score float64) {
	ContentUploadsTotal.WithLabelValues(visibility).Inc()
	if size > 0 {
		ContentUploadSizeBytes.Observe(float64(size))
	}
	ContentQualityScore.Observe(score)
}

// RecordContentRescored records a rescoring triggered from source (http, queue)
func RecordContentRescored(source string, score float64) {
	ContentRescoredTotal.WithLabelValues(source).Inc()
	ContentQualityScore.Observe(score)
}

// RecordPayout records a payout request
func RecordPayout(status string, amount float64) {
	PayoutsTotal.WithLabelValues(status).Inc()
	if status == "success" {
		PayoutAmount.Observe(amount)
	}
}

// RecordRevenueSnapshot records a snapshot write
func RecordRevenueSnapshot(err error) {
	RevenueSnapshotsTotal.WithLabelValues(statusLabel(err)).Inc()
}

// RecordEventPublished records a published event
func RecordEventPublished(eventType string, err error) {
	EventsPublishedTotal.WithLabelValues(eventType, statusLabel(err)).Inc()
}

// RecordStorageOperation records a storage operation
func RecordStorageOperation(operation, status string, duration float64, bytesTransferred int64) {
	StorageOperationsTotal.WithLabelValues(operation, status).Inc()
	StorageOperationDuration.WithLabelValues(operation).Observe(duration)
	StorageBytesTransferred.WithLabelValues(operation).Add(float64(bytesTransferred))
}

// RecordDatabaseOperation records a database operation
func RecordDatabaseOperation(operation, status string, duration float64) {
	DatabaseOperationsTotal.WithLabelValues(operation, status).Inc()
	DatabaseOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordCacheAccess records cache hit or miss
func RecordCacheAccess(cacheType string, hit bool) {
	if hit {
		CacheHitsTotal.WithLabelValues(cacheType).Inc()
	} else {
		CacheMissesTotal.WithLabelValues(cacheType).Inc()
	}
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// SetDeadLetterQueueDepth records the last sampled DLQ depth
func SetDeadLetterQueueDepth(depth int) {
	DeadLetterQueueDepth.Set(float64(depth))
}
