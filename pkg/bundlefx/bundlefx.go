// pkg/bundlefx/bundlefx.go
package bundlefx

import (
	"time"

	"go.uber.org/fx"

	"github.com/joeydtaylor/steeze-rpc/pkg/manifest"
	"github.com/joeydtaylor/steeze-rpc/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-rpc/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-rpc/pkg/middleware/metrics"
)

// AuthConfig maps the gateway's JWT manifest section onto the auth
// middleware config.
func AuthConfig(cfg manifest.Config) auth.Config {
	jwt := cfg.Gateway.JWT
	return auth.Config{
		Secret:   jwt.Secret,
		Issuer:   jwt.Issuer,
		Audience: jwt.Audience,
		Leeway:   time.Duration(jwt.LeewaySeconds) * time.Second,
	}
}

// Module provided to fx. It needs a manifest.Config in the graph.
var Module = fx.Options(
	fx.Provide(AuthConfig),
	auth.Module,
	logger.Module,
	metrics.Module,
)
