package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ClientMetrics метрики клиента API
type ClientMetrics struct {
	// Запросы к бэкенду
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Кэш GET-запросов
	CacheHits          prometheus.Counter
	CacheMisses        prometheus.Counter
	CacheInvalidations prometheus.Counter

	// Ошибки, приведенные к единому виду
	ErrorsTotal *prometheus.CounterVec
}

// NewClientMetrics регистрирует метрики в переданном реестре
func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	factory := promauto.With(reg)
	return &ClientMetrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "api_requests_total",
				Help: "Количество запросов к API по методу, ресурсу и коду ответа",
			},
			[]string{"method", "resource", "code"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "api_request_duration_seconds",
				Help:    "Длительность запросов к API",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "resource"},
		),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "api_cache_hits_total",
			Help: "Ответы, отданные из кэша",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "api_cache_misses_total",
			Help: "GET-запросы, ушедшие в сеть",
		}),
		CacheInvalidations: factory.NewCounter(prometheus.CounterOpts{
			Name: "api_cache_invalidations_total",
			Help: "Удаленные из кэша ключи",
		}),
		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "api_errors_total",
				Help: "Ошибки API: transport или http",
			},
			[]string{"kind"},
		),
	}
}
