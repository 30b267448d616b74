package cms

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики исходящих запросов к CMS. Лейбл path — путь эндпойнта без query,
// кардинальность фиксирована набором эндпойнтов.
var (
	fetchAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "content_gateway",
		Subsystem: "cms",
		Name:      "fetch_attempts_total",
		Help:      "HTTP attempts against the CMS, including retries.",
	}, []string{"path"})

	fetchRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "content_gateway",
		Subsystem: "cms",
		Name:      "fetch_retries_total",
		Help:      "Retries after a failed attempt (bonus 401 retry included).",
	}, []string{"path"})

	fetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "content_gateway",
		Subsystem: "cms",
		Name:      "fetch_failures_total",
		Help:      "Terminal fetch failures by classified reason.",
	}, []string{"path", "reason"})

	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "content_gateway",
		Subsystem: "cms",
		Name:      "fetch_duration_seconds",
		Help:      "Wall time of a whole fetch, retries included.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"path"})
)
