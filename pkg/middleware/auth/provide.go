package auth

import (
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/fx"
)

// ProvideAuthentication builds the middleware from cfg, filling the
// admin role, dev bypass and leeway from the environment when unset.
func ProvideAuthentication(cfg Config) *Middleware {
	if cfg.AdminRole == "" {
		cfg.AdminRole = strings.TrimSpace(os.Getenv("ADMIN_ROLE_NAME"))
	}
	if !cfg.DevBypass {
		cfg.DevBypass = os.Getenv("AUTH_DEV_BYPASS") == "true"
	}
	if cfg.Leeway == 0 {
		cfg.Leeway = 60 * time.Second
		if v := strings.TrimSpace(os.Getenv("JWT_LEEWAY_SECONDS")); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				cfg.Leeway = time.Duration(n) * time.Second
			}
		}
	}
	return New(cfg)
}

var Module = fx.Options(
	fx.Provide(ProvideAuthentication),
)
