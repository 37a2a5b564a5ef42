package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry 服务指标集合，nil 时所有记录方法为空操作
type Registry struct {
	registry           *prometheus.Registry
	Requests           *prometheus.CounterVec
	LatencyMS          *prometheus.HistogramVec
	OrdersCreated      prometheus.Counter
	OrderStatusChanges *prometheus.CounterVec
}

// New 创建并注册指标
func New(namespace string) *Registry {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		namespace = "lumipure"
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"method", "route"})
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "Total number of orders placed.",
	})
	statusChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_status_changes_total",
		Help:      "Total number of order status updates by target status.",
	}, []string{"status"})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		requests, latency, ordersCreated, statusChanges,
	)
	return &Registry{
		registry:           registry,
		Requests:           requests,
		LatencyMS:          latency,
		OrdersCreated:      ordersCreated,
		OrderStatusChanges: statusChanges,
	}
}

// Handler 暴露 /metrics
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveRequest 记录一次 HTTP 请求
func (r *Registry) ObserveRequest(method, route, status string, elapsed time.Duration) {
	if r == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	r.Requests.WithLabelValues(method, route, status).Inc()
	r.LatencyMS.WithLabelValues(method, route).Observe(float64(elapsed.Milliseconds()))
}

// OrderCreated 订单创建计数
func (r *Registry) OrderCreated() {
	if r == nil {
		return
	}
	r.OrdersCreated.Inc()
}

// OrderStatusChanged 订单状态变更计数
func (r *Registry) OrderStatusChanged(status string) {
	if r == nil {
		return
	}
	r.OrderStatusChanges.WithLabelValues(status).Inc()
}
