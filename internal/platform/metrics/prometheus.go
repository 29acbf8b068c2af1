package metrics

import (
	"net/http"
	"strings"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsManager holds the service's Prometheus collectors.
type MetricsManager struct {
	Registry               *prometheus.Registry
	ListingsCreatedTotal   prometheus.Counter
	ListingsClosedTotal    prometheus.Counter
	MessagesSentTotal      prometheus.Counter
	ReunionsConfirmedTotal prometheus.Counter
	ImagesUploadedTotal    prometheus.Counter
	APIErrorsTotal         *prometheus.CounterVec
	APIRequestLatency      *prometheus.HistogramVec
}

// NewMetricsManager registers all collectors on a private registry.
func NewMetricsManager(serviceName string) *MetricsManager {
	namespace := strings.ReplaceAll(serviceName, "-", "_")
	registry := prometheus.NewRegistry()

	m := &MetricsManager{
		Registry: registry,
		ListingsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_created_total",
			Help:      "Total number of listings created.",
		}),
		ListingsClosedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_closed_total",
			Help:      "Total number of listings closed, including by reunion.",
		}),
		MessagesSentTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Total number of messages sent to listing owners.",
		}),
		ReunionsConfirmedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reunions_confirmed_total",
			Help:      "Total number of confirmed reunions.",
		}),
		ImagesUploadedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "images_uploaded_total",
			Help:      "Total number of images stored in the media store.",
		}),
		APIErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_errors_total",
			Help:      "Total number of API errors by route and error kind.",
		}, []string{"route", "error_type"}),
		APIRequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_latency_seconds",
			Help:      "Latency of API requests by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	registry.MustRegister(
		m.ListingsCreatedTotal,
		m.ListingsClosedTotal,
		m.MessagesSentTotal,
		m.ReunionsConfirmedTotal,
		m.ImagesUploadedTotal,
		m.APIErrorsTotal,
		m.APIRequestLatency,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return m
}

// Handler exposes the private registry.
func (m *MetricsManager) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// StartMetricsServer blocks serving /metrics on the given port. An empty port disables it.
func StartMetricsServer(port string, appLogger *logger.Logger, m *MetricsManager) error {
	if port == "" {
		appLogger.Info("Prometheus metrics server port not configured, server will not start.")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	appLogger.Info("Prometheus metrics server starting", zap.String("port", port), zap.String("path", "/metrics"))

	server := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}
	return server.ListenAndServe()
}
