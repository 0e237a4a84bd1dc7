package auth

import (
	"errors"
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

type claims struct {
	jwt.RegisteredClaims
	UID   string   `json:"uid"`
	Roles []string `json:"roles"`
	Role  string   `json:"role"`
}

func (m *Middleware) validateToken(raw string) (User, error) {
	if !m.Enabled() {
		return User{}, errors.New("bearer verification not configured")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(m.leeway),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	var c claims
	tok, err := jwt.NewParser(opts...).ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil || !tok.Valid {
		return User{}, errors.New("invalid bearer token")
	}

	if m.audience != "" && !slices.Contains(c.Audience, m.audience) {
		return User{}, errors.New("bad audience")
	}

	username := firstNonEmpty(c.UID, c.Subject)
	if username == "" {
		return User{}, errors.New("missing subject")
	}

	return User{
		Username:             username,
		AuthenticationSource: AuthenticationSource{Provider: "bearer"},
		Role:                 Role{Name: firstNonEmpty(append([]string{c.Role}, c.Roles...)...)},
	}, nil
}

// Sign issues an HS256 token for u. Used by tooling and tests.
func (m *Middleware) Sign(u User, rc jwt.RegisteredClaims) (string, error) {
	if !m.Enabled() {
		return "", errors.New("bearer verification not configured")
	}
	if rc.Subject == "" {
		rc.Subject = u.Username
	}
	if rc.Issuer == "" {
		rc.Issuer = m.issuer
	}
	if m.audience != "" && len(rc.Audience) == 0 {
		rc.Audience = jwt.ClaimStrings{m.audience}
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{RegisteredClaims: rc, UID: u.Username, Role: u.Role.Name})
	return tok.SignedString(m.secret)
}
