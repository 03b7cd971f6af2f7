package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	httpRequestsTotal    *prometheus.CounterVec
	httpLatencySeconds   *prometheus.HistogramVec
	httpErrorsTotal      *prometheus.CounterVec
	policyDenialsTotal   *prometheus.CounterVec
	ruleConflictsTotal   *prometheus.CounterVec
	unreadCacheTotal     *prometheus.CounterVec
	eventsPublishedTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edutrack_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "edutrack_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edutrack_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		policyDenialsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edutrack_policy_denials_total",
			Help: "Requests rejected by the access policy.",
		}, []string{"reason"})

		ruleConflictsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edutrack_rule_conflicts_total",
			Help: "Writes rejected by a conflict or uniqueness rule.",
		}, []string{"rule"})

		unreadCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edutrack_unread_cache_total",
			Help: "Unread announcement counter cache lookups.",
		}, []string{"result"})

		eventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edutrack_events_published_total",
			Help: "Domain events handed to the broker.",
		}, []string{"topic", "result"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			policyDenialsTotal,
			ruleConflictsTotal,
			unreadCacheTotal,
			eventsPublishedTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// PolicyDenials counts unauthenticated and forbidden outcomes.
func PolicyDenials() *prometheus.CounterVec {
	RegisterMetrics()
	return policyDenialsTotal
}

// RuleConflicts counts conflict rejections per rule.
func RuleConflicts() *prometheus.CounterVec {
	RegisterMetrics()
	return ruleConflictsTotal
}

// UnreadCache counts cache hits and misses for the unread counter.
func UnreadCache() *prometheus.CounterVec {
	RegisterMetrics()
	return unreadCacheTotal
}

// EventsPublished counts broker publishes per topic.
func EventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return eventsPublishedTotal
}
