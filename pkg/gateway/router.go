// pkg/gateway/router.go
package gateway

import (
	"context"
	"net/http"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-rpc/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-rpc/pkg/middleware/logger"
	hmetrics "github.com/joeydtaylor/steeze-rpc/pkg/middleware/metrics"
	"github.com/joeydtaylor/steeze-rpc/pkg/sample"
	"github.com/joeydtaylor/steeze-rpc/pkg/transport/httpx"
)

// SampleAPI is the request/reply surface the gateway forwards to.
// *sample.Client implements it.
type SampleAPI interface {
	Create(ctx context.Context, e sample.WantsCreateSampleEvent, timeout time.Duration) (sample.CompletedCreateSampleEvent, error)
	Update(ctx context.Context, e sample.WantsUpdateSampleEvent, timeout time.Duration) (sample.CompletedUpdateSampleEvent, error)
	Delete(ctx context.Context, e sample.WantsDeleteSampleEvent, timeout time.Duration) (sample.CompletedDeleteSampleEvent, error)
	Get(ctx context.Context, e sample.WantsGetSampleEvent, timeout time.Duration) (sample.CompletedGetSampleEvent, error)
	GetAll(ctx context.Context, e sample.WantsGetAllSampleEvent, timeout time.Duration) (sample.CompletedGetAllSampleEvent, error)
}

type Deps struct {
	Samples     SampleAPI
	Auth        *auth.Middleware
	LogMW       *logger.Middleware
	Metrics     http.Handler
	Router      httpx.Router
	Log         *zap.Logger
	Timeout     time.Duration
	RequireAuth bool // guards the mutating routes
}

// BuildRouter mounts the sample routes plus /metrics and /ping.
func BuildRouter(d Deps) http.Handler {
	if d.Router == nil {
		d.Router = httpx.NewChi()
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Timeout <= 0 {
		d.Timeout = 10 * time.Second
	}

	r := d.Router
	r.Use(chimd.RequestID, chimd.Recoverer, chimd.Heartbeat("/ping"))

	if d.Auth != nil {
		r.Use(d.Auth.Middleware())
	}
	if d.LogMW != nil {
		r.Use(d.LogMW.Middleware(d.Auth))
	}
	hmetrics.SetPathNormalizer(httpx.RoutePattern)
	r.Use(hmetrics.Collect())

	if d.Metrics != nil {
		r.Get("/metrics", d.Metrics)
	}

	h := &handlers{api: d.Samples, timeout: d.Timeout, log: d.Log}
	mut := r.With(requireAuth(d.Auth, d.RequireAuth))

	mut.Post("/samples", http.HandlerFunc(h.create))
	r.Get("/samples", http.HandlerFunc(h.list))
	r.Get("/samples/{id}", http.HandlerFunc(h.get))
	mut.Put("/samples/{id}", http.HandlerFunc(h.update))
	mut.Delete("/samples/{id}", http.HandlerFunc(h.delete))

	return r.Mux()
}

// requireAuth guards the mutating routes when on. Without an auth
// middleware every guarded request is anonymous and rejected.
func requireAuth(a *auth.Middleware, on bool) func(http.Handler) http.Handler {
	if !on {
		return func(next http.Handler) http.Handler { return next }
	}
	if a != nil {
		return a.RequireAuth()
	}
	return func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		})
	}
}
