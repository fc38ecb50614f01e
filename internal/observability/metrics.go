package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chirp_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// CacheResults counts cache lookups by cache name and hit/miss.
	CacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_cache_results_total",
		Help: "Cache lookups by cache and result",
	}, []string{"cache", "result"})

	// AuthEvents counts token operations by kind and outcome.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_auth_events_total",
		Help: "Authentication events by operation and outcome",
	}, []string{"operation", "outcome"})

	// TweetsCreated counts created tweets by type.
	TweetsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_tweets_created_total",
		Help: "Total tweets created by type",
	}, []string{"type"})

	// TweetViews counts view increments applied by read paths.
	TweetViews = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_tweet_views_total",
		Help: "Tweet views recorded by read path",
	}, []string{"path"})

	// SessionsPurged counts expired refresh sessions removed by the purge job.
	SessionsPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chirp_sessions_purged_total",
		Help: "Expired refresh sessions physically removed",
	})

	// WebSocketConnections is the gauge of active WebSocket connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chirp_websocket_connections",
		Help: "Number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// RecordCache records one cache lookup.
func RecordCache(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheResults.WithLabelValues(cache, result).Inc()
}
