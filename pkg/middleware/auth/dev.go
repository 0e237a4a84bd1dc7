package auth

import "net/http"

// devUser builds the caller from X-Dev-* headers. Only consulted when
// AUTH_DEV_BYPASS=true; an empty X-Dev-User falls through to bearer auth.
func (m *Middleware) devUser(r *http.Request) (User, bool) {
	name := r.Header.Get("X-Dev-User")
	if !m.devBypass || name == "" {
		return User{}, false
	}
	return User{
		Username:             name,
		AuthenticationSource: AuthenticationSource{Provider: firstNonEmpty(r.Header.Get("X-Dev-Provider"), "dev")},
		Role:                 Role{Name: r.Header.Get("X-Dev-Role")},
	}, true
}
