package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/frontdesk/internal/metrics"
)

// Metrics records request counts and latency per route pattern.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := record(w)

			next.ServeHTTP(rec, r)

			path := route(r)
			m.Requests.WithLabelValues(path, r.Method, strconv.Itoa(rec.status)).Inc()
			m.Duration.WithLabelValues(path, r.Method).Observe(time.Since(start).Seconds())
		})
	}
}
