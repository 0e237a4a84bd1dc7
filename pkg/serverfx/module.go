// pkg/serverfx/module.go
package serverfx

import (
	"go.uber.org/fx"

	"github.com/joeydtaylor/steeze-rpc/pkg/bundlefx"
	"github.com/joeydtaylor/steeze-rpc/pkg/manifest"
	"github.com/joeydtaylor/steeze-rpc/pkg/sample"
	"github.com/joeydtaylor/steeze-rpc/pkg/transport/httpx"
)

// Options allow per-service env keys/defaults without code duplication.
type Options struct {
	Service         string // tags logs only
	ManifestEnv     string // e.g. "RPC_MANIFEST"
	DefaultManifest string // e.g. "manifest.toml"
	TLSCertEnv      string // e.g. "SSL_SERVER_CERTIFICATE"
	TLSKeyEnv       string // e.g. "SSL_SERVER_KEY"
}

type Option func(*Options)

func WithService(s string) Option            { return func(o *Options) { o.Service = s } }
func WithManifestEnv(k string) Option        { return func(o *Options) { o.ManifestEnv = k } }
func WithDefaultManifest(path string) Option { return func(o *Options) { o.DefaultManifest = path } }
func WithTLSCertKeyEnv(cert, key string) Option {
	return func(o *Options) { o.TLSCertEnv, o.TLSKeyEnv = cert, key }
}

func defaultOptions() Options {
	return Options{
		Service:         "steeze-rpc",
		ManifestEnv:     manifest.EnvManifest,
		DefaultManifest: manifest.DefaultManifest,
		TLSCertEnv:      "SSL_SERVER_CERTIFICATE",
		TLSKeyEnv:       "SSL_SERVER_KEY",
	}
}

// Module returns the complete Fx option set: manifest, broker transport,
// topic provisioning, the sample service and client, and the HTTP gateway.
func Module(opts ...Option) fx.Option {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return fx.Options(
		fx.Supply(o),
		fx.Provide(provideManifest),

		// logging, auth, metrics
		bundlefx.Module,

		// broker + provisioning
		fx.Provide(provideBroker),
		fx.Provide(provideProvisioner),
		fx.Provide(provideTopics),

		// rpc endpoints
		fx.Provide(provideService),
		fx.Provide(provideClient),

		// gateway
		fx.Provide(httpx.NewChi),
		fx.Provide(fx.Annotate(provideRouter, fx.ResultTags(`name:"app"`))),

		// responders run even though nothing in the graph consumes them
		fx.Invoke(func(*sample.Service) {}),
		fx.Invoke(registerHooks),
	)
}
