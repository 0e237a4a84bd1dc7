// pkg/serverfx/serverfx.go
package serverfx

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-rpc/pkg/broker"
	"github.com/joeydtaylor/steeze-rpc/pkg/broker/kafka"
	"github.com/joeydtaylor/steeze-rpc/pkg/broker/memory"
	"github.com/joeydtaylor/steeze-rpc/pkg/gateway"
	"github.com/joeydtaylor/steeze-rpc/pkg/manifest"
	"github.com/joeydtaylor/steeze-rpc/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-rpc/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-rpc/pkg/provision"
	"github.com/joeydtaylor/steeze-rpc/pkg/rpc"
	"github.com/joeydtaylor/steeze-rpc/pkg/sample"
	"github.com/joeydtaylor/steeze-rpc/pkg/transport/httpx"
)

const provisionTimeout = 30 * time.Second

func provideManifest(o Options) (manifest.Config, error) {
	path := envOr(o.ManifestEnv, o.DefaultManifest)
	cfg, err := manifest.Load(path)
	if err != nil {
		return manifest.Config{}, fmt.Errorf("manifest load failed (%s): %w", path, err)
	}
	return cfg, nil
}

// ---- Broker ----

type brokerOut struct {
	fx.Out
	Transport broker.Transport
	Admin     broker.Admin
}

func provideBroker(lc fx.Lifecycle, cfg manifest.Config, log *zap.Logger) (brokerOut, error) {
	if cfg.Kafka.Transport == manifest.TransportMemory {
		log.Warn("using in-process broker; messages are not durable")
		b := memory.New()
		lc.Append(fx.StopHook(b.Close))
		return brokerOut{Transport: b, Admin: b}, nil
	}

	t, err := kafka.New(cfg.KafkaConfig(), log.Named("kafka"))
	if err != nil {
		return brokerOut{}, err
	}
	admin := kafka.NewAdmin(t)
	lc.Append(fx.StopHook(admin.Close))
	log.Info("kafka transport ready", zap.Strings("brokers", cfg.Kafka.Brokers))
	return brokerOut{Transport: t, Admin: admin}, nil
}

// ---- Provisioning ----

// Topics is the set of topics that exist once the graph is built.
type Topics []string

func provideProvisioner(admin broker.Admin, cfg manifest.Config, log *zap.Logger) *provision.Provisioner {
	return provision.New(admin, provision.Config{
		Partitions:        cfg.Topics.Partitions,
		ReplicationFactor: cfg.Topics.ReplicationFactor,
	}, log.Named("provision"))
}

// provideTopics runs before any responder or requestor subscribes; a
// failure aborts startup.
func provideTopics(p *provision.Provisioner, cfg manifest.Config) (Topics, error) {
	names := append(sample.AllTopics(), cfg.Topics.Extra...)
	ctx, cancel := context.WithTimeout(context.Background(), provisionTimeout)
	defer cancel()
	if err := p.EnsureTopics(ctx, names...); err != nil {
		return nil, err
	}
	return Topics(names), nil
}

// ---- RPC endpoints ----

func rpcOptions(cfg manifest.Config, log *zap.Logger) []rpc.Option {
	return []rpc.Option{
		rpc.WithLogger(log),
		rpc.WithErrorReplies(cfg.RPC.ErrorReplies),
		rpc.WithShutdownTimeout(cfg.ShutdownTimeout()),
	}
}

func provideService(lc fx.Lifecycle, tr broker.Transport, _ Topics, cfg manifest.Config, log *zap.Logger) (*sample.Service, error) {
	svc, err := sample.NewService(tr, sample.NewStore(), rpcOptions(cfg, log.Named("responder"))...)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(svc.Shutdown))
	return svc, nil
}

func provideClient(lc fx.Lifecycle, tr broker.Transport, _ Topics, cfg manifest.Config, log *zap.Logger) (*sample.Client, error) {
	opts := append(rpcOptions(cfg, log.Named("requestor")), rpc.WithGroupPrefix(cfg.RPC.RequestorGroupPrefix))
	c, err := sample.NewClient(tr, opts...)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(c.Shutdown))
	return c, nil
}

// ---- Router ----

type routerDeps struct {
	fx.In

	Cfg manifest.Config

	AuthMW *auth.Middleware
	LogMW  *logger.Middleware

	Metrics http.Handler `name:"metrics"`

	Client *sample.Client
	R      httpx.Router
	Log    *zap.Logger
}

func provideRouter(d routerDeps) http.Handler {
	return gateway.BuildRouter(gateway.Deps{
		Samples:     d.Client,
		Auth:        d.AuthMW,
		LogMW:       d.LogMW,
		Metrics:     d.Metrics,
		Router:      d.R,
		Log:         d.Log.Named("gateway"),
		Timeout:     d.Cfg.RPCTimeout(),
		RequireAuth: d.Cfg.Gateway.RequireAuth,
	})
}

// ---- Server lifecycle ----

type serverDeps struct {
	fx.In
	Opts   Options
	Cfg    manifest.Config
	Logger *zap.Logger
	App    http.Handler `name:"app"`
}

func registerHooks(lc fx.Lifecycle, d serverDeps) {
	addr := d.Cfg.Gateway.Listen
	cert := firstNonEmpty(d.Cfg.Gateway.TLSCert, os.Getenv(d.Opts.TLSCertEnv))
	key := firstNonEmpty(d.Cfg.Gateway.TLSKey, os.Getenv(d.Opts.TLSKeyEnv))

	srv := &http.Server{
		Addr:         addr,
		Handler:      d.App,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: d.Cfg.RPCTimeout() + 5*time.Second,
		IdleTimeout:  60 * time.Second,
		TLSConfig:    &tls.Config{MinVersion: tls.VersionTLS13, MaxVersion: tls.VersionTLS13},
	}
	useTLS := fileExists(cert) && fileExists(key)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if useTLS {
				d.Logger.Info("server starting (TLS)",
					zap.String("service", d.Opts.Service),
					zap.String("addr", addr),
					zap.String("cert", cert),
				)
				go func() {
					if err := srv.ListenAndServeTLS(cert, key); err != nil && !errors.Is(err, http.ErrServerClosed) {
						d.Logger.Fatal("server failed", zap.Error(err))
					}
				}()
				return nil
			}
			d.Logger.Info("server starting (PLAINTEXT)",
				zap.String("service", d.Opts.Service),
				zap.String("addr", addr),
			)
			srv.TLSConfig = nil
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					d.Logger.Fatal("server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			d.Logger.Info("server stopping", zap.String("service", d.Opts.Service))
			return srv.Shutdown(ctx)
		},
	})
}

// ---- helpers ----

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
