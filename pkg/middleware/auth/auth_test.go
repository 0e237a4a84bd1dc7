package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/joeydtaylor/steeze-rpc/pkg/middleware/auth"
)

func serve(m *auth.Middleware, req *http.Request, guard bool) (*httptest.ResponseRecorder, auth.User) {
	var seen auth.User
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.UserFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	if guard {
		h = m.RequireAuth()(h)
	}
	h = m.Middleware()(h)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, seen
}

func TestValidBearerAttachesUser(t *testing.T) {
	m := auth.New(auth.Config{Secret: "s3cret", Issuer: "steeze", Audience: "rpc", Leeway: time.Second})
	tok, err := m.Sign(auth.User{Username: "alice", Role: auth.Role{Name: "admin"}}, jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/samples", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec, u := serve(m, req, true)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if u.Username != "alice" || u.Role.Name != "admin" || u.AuthenticationSource.Provider != "bearer" {
		t.Fatalf("unexpected user %+v", u)
	}
}

func TestBadTokenRejected(t *testing.T) {
	m := auth.New(auth.Config{Secret: "s3cret"})
	other := auth.New(auth.Config{Secret: "different"})
	tok, _ := other.Sign(auth.User{Username: "mallory"}, jwt.RegisteredClaims{})

	req := httptest.NewRequest(http.MethodGet, "/samples", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	if rec, _ := serve(m, req, false); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestWrongAudienceRejected(t *testing.T) {
	m := auth.New(auth.Config{Secret: "s3cret", Audience: "rpc"})
	tok, _ := m.Sign(auth.User{Username: "bob"}, jwt.RegisteredClaims{Audience: jwt.ClaimStrings{"elsewhere"}})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	if rec, _ := serve(m, req, false); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	m := auth.New(auth.Config{Secret: "s3cret"})
	tok, _ := m.Sign(auth.User{Username: "bob"}, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	if rec, _ := serve(m, req, false); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAnonymousPassesUnlessGuarded(t *testing.T) {
	m := auth.New(auth.Config{Secret: "s3cret"})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if rec, u := serve(m, req, false); rec.Code != http.StatusNoContent || u.Username != "" {
		t.Fatalf("anonymous request should pass: %d %+v", rec.Code, u)
	}
	if rec, _ := serve(m, httptest.NewRequest(http.MethodGet, "/", nil), true); rec.Code != http.StatusUnauthorized {
		t.Fatalf("guarded status = %d, want 401", rec.Code)
	}
}

func TestDevBypass(t *testing.T) {
	m := auth.New(auth.Config{DevBypass: true, AdminRole: "root"})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Dev-User", "dev")
	req.Header.Set("X-Dev-Role", "root")

	var admin bool
	h := m.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin = m.IsAdmin(r.Context()) && m.IsRole(r.Context(), auth.Role{Name: "viewer"})
	}))
	h.ServeHTTP(httptest.NewRecorder(), req)
	if !admin {
		t.Fatalf("dev user with admin role should satisfy admin and any role")
	}
}
