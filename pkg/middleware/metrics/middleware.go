package metrics

import (
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/joeydtaylor/steeze-rpc/pkg/middleware/auth"
)

// Collect records the HTTP request series. Labels are computed after the
// handler returns, so the role comes from auth and the uri from the
// matched route.
func Collect() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSkipPath(r) {
				next.ServeHTTP(w, r)
				return
			}
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() { observeHTTP(r, ww.Status(), time.Since(start)) }()
			next.ServeHTTP(ww, r)
		})
	}
}

func observeHTTP(r *http.Request, status int, took time.Duration) {
	if status == 0 {
		// handler wrote nothing; net/http answers 200
		status = http.StatusOK
	}
	code := strconv.Itoa(status)

	totalHttpRequestsFromRole.WithLabelValues(auth.UserFrom(r.Context()).Role.Name).Inc()
	totalHttpRequestsToUri.WithLabelValues(code, normalizePath(r), r.Method).Inc()
	totalHttpRequests.WithLabelValues(code, r.Method).Inc()
	responseTime.Observe(took.Seconds())
}
