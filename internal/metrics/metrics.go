package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etickets_orders_created_total",
		Help: "Orders placed by customers.",
	})
	OrdersApproved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etickets_orders_approved_total",
		Help: "Orders approved by an admin.",
	})
	OrdersRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etickets_orders_rejected_total",
		Help: "Orders rejected by an admin.",
	})
	TicketsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etickets_tickets_issued_total",
		Help: "Tickets created on approval.",
	})
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "etickets_notifications_total",
		Help: "Emails attempted, by kind and result.",
	}, []string{"kind", "result"})
	HTTPRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "etickets_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request latency labelled with the chi route pattern,
// so path parameters do not explode the label set.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
