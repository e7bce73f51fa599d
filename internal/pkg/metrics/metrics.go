// internal/pkg/metrics/metrics.go
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const namespace = "stockledger"

// Metrics holds the application's Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	salesCreated   prometheus.Counter
	salesCancelled prometheus.Counter
	salesRejected  *prometheus.CounterVec
	saleRevenue    prometheus.Counter
	unitsSold      prometheus.Counter
	tasksProcessed *prometheus.CounterVec
	taskDuration   *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		salesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_created_total",
			Help:      "Total number of committed sales",
		}),
		salesCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_cancelled_total",
			Help:      "Total number of cancelled sales",
		}),
		salesRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sales_rejected_total",
				Help:      "Sale requests rejected before commit",
			},
			[]string{"reason"},
		),
		saleRevenue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sale_revenue_total",
			Help:      "Sum of committed sale totals",
		}),
		unitsSold: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_sold_total",
			Help:      "Units sold across committed sales",
		}),
		tasksProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "worker_tasks_total",
				Help:      "Background tasks processed",
			},
			[]string{"type", "status"},
		),
		taskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "worker_task_duration_seconds",
				Help:      "Duration of background tasks in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"type"},
		),
	}

	reg.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.salesCreated,
		m.salesCancelled,
		m.salesRejected,
		m.saleRevenue,
		m.unitsSold,
		m.tasksProcessed,
		m.taskDuration,
	)

	return m
}

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// SaleCreated records a committed sale
func (m *Metrics) SaleCreated(total decimal.Decimal, units int) {
	if m == nil {
		return
	}
	m.salesCreated.Inc()
	m.saleRevenue.Add(total.InexactFloat64())
	m.unitsSold.Add(float64(units))
}

// SaleCancelled records a cancellation
func (m *Metrics) SaleCancelled() {
	if m == nil {
		return
	}
	m.salesCancelled.Inc()
}

// SaleRejected records a sale that failed validation
func (m *Metrics) SaleRejected(reason string) {
	if m == nil {
		return
	}
	m.salesRejected.WithLabelValues(reason).Inc()
}

// TaskProcessed records a background task outcome
func (m *Metrics) TaskProcessed(taskType string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.tasksProcessed.WithLabelValues(taskType, status).Inc()
	m.taskDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
}
