// pkg/middleware/logger/request_logger.go
package logger

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/joeydtaylor/steeze-rpc/pkg/middleware/auth"
)

type Middleware struct {
	access *zap.Logger
}

// NewMiddleware writes access lines to l.
func NewMiddleware(l *zap.Logger) *Middleware { return &Middleware{access: l} }

func ProvideLoggerMiddleware() *Middleware { return NewMiddleware(NewLog("http-access.log")) }
func ProvideLogger() *zap.Logger           { return NewLog("system.log") }

// LogDir is where NewLog writes its rotating files. LOG_DIR overrides it.
func LogDir() string {
	dir := os.Getenv("LOG_DIR")
	if dir == "" {
		dir = "log"
	}
	_ = os.MkdirAll(dir, 0o755)
	return dir
}

// LogLevel is read from LOG_LEVEL (debug, info, warn, error); info otherwise.
func LogLevel() zapcore.Level {
	lvl, err := zapcore.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// NewLog returns a JSON logger that tees to stdout and a rotating file
// named n under LogDir.
func NewLog(n string) *zap.Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder

	file := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(LogDir(), n),
		MaxSize:    50, // MB
		MaxBackups: 3,
		MaxAge:     7, // days
	})
	lvl := zap.NewAtomicLevelAt(LogLevel())

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(enc), file, lvl),
		zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.Lock(os.Stdout), lvl),
	)
	return zap.New(core, zap.AddCaller()).With(zap.String("log", strings.TrimSuffix(n, filepath.Ext(n))))
}

// Middleware writes one access-log line per request. ca may be nil.
func (m *Middleware) Middleware(ca *auth.Middleware) func(next http.Handler) http.Handler {
	l := m.access
	if l == nil {
		l = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimd.NewWrapResponseWriter(w, r.ProtoMajor)

			// Read and RESTORE request body so downstream can consume it
			var body []byte
			if r.Body != nil {
				if b, err := io.ReadAll(r.Body); err == nil {
					body = b
				}
				r.Body.Close()
				r.Body = io.NopCloser(bytes.NewReader(body))
			}

			scheme := "http"
			if r.TLS != nil {
				scheme = "https"
			}

			start := time.Now()
			defer func() {
				lat := time.Since(start)

				// identity is present when auth ran before this middleware
				u := auth.UserFrom(r.Context())
				isAuth := false
				if ca != nil {
					isAuth = ca.IsAuthenticated(r.Context())
				}

				log := l.With(
					zap.String("dateTime", start.UTC().Format(time.RFC1123)),
					zap.String("requestId", chimd.GetReqID(r.Context())),
					zap.String("httpScheme", scheme),
					zap.Bool("isAuthenticated", isAuth),
					zap.String("username", u.Username),
					zap.String("role", u.Role.Name),
					zap.String("authenticationProvider", u.AuthenticationSource.Provider),
					zap.String("httpProto", r.Proto),
					zap.String("httpMethod", r.Method),
					zap.String("remoteAddr", r.RemoteAddr),
					zap.String("uri", r.URL.Path),
					zap.Duration("lat", lat),
					zap.Int("responseSize", ww.BytesWritten()),
					zap.Int("status", ww.Status()),
				)

				// Redact by default; allowlist small JSON bodies only.
				if shouldLogBody(r, body) {
					log.Info("", zap.ByteString("requestData", body))
				} else {
					log.Info("")
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

var Module = fx.Options(
	fx.Provide(ProvideLoggerMiddleware),
	fx.Provide(ProvideLogger),
)
