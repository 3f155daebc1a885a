package middleware

import (
	"net/http"
	"time"

	"fleet-relay/backend/app/metrics"
	"fleet-relay/backend/global"
)

type statusWriter struct {
	http.ResponseWriter
	status int
	route  string
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) SetRoute(route string) { w.route = route }

// Logging logs every request and records it in the HTTP metrics under the
// route pattern set by WithRoute.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(sw, r)
		duration := time.Since(start)
		metrics.ObserveHTTP(r.Method, sw.route, sw.status, duration)
		ev := global.Logger.Info()
		if sw.status >= 500 {
			ev = global.Logger.Warn()
		}
		ev.Str("ip", r.RemoteAddr).Str("method", r.Method).Str("path", r.URL.Path).Str("route", sw.route).Int("status", sw.status).Dur("duration", duration).Msg("request")
	})
}
