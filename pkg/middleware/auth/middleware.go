package auth

import "time"

// Config carries bearer-token verification settings.
type Config struct {
	Secret    string
	Issuer    string
	Audience  string
	Leeway    time.Duration
	AdminRole string
	DevBypass bool
}

type Middleware struct {
	secret    []byte
	issuer    string
	audience  string
	leeway    time.Duration
	adminRole string
	devBypass bool
}

// New builds a Middleware. An empty secret disables token verification;
// requests then stay anonymous unless dev bypass injects a user.
func New(cfg Config) *Middleware {
	return &Middleware{
		secret:    []byte(cfg.Secret),
		issuer:    cfg.Issuer,
		audience:  cfg.Audience,
		leeway:    cfg.Leeway,
		adminRole: cfg.AdminRole,
		devBypass: cfg.DevBypass,
	}
}

// Enabled reports whether bearer tokens can be verified.
func (m *Middleware) Enabled() bool { return m != nil && len(m.secret) > 0 }
