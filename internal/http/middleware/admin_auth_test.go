package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func adminClaims(ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    AdminTokenIssuer,
		Subject:   "ops",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
}

func TestAdminJWT(t *testing.T) {
	const secret = "admin-secret"
	var gotClaims bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, gotClaims = AdminClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	protected := AdminJWT(secret)(next)

	serve := func(auth string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/admin/agents/x/booking-settings", nil)
		if auth != "" {
			r.Header.Set("Authorization", auth)
		}
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, r)
		return rec
	}

	if rec := serve("Bearer " + signToken(t, secret, adminClaims(time.Hour))); rec.Code != http.StatusOK {
		t.Fatalf("valid token status = %d", rec.Code)
	}
	if !gotClaims {
		t.Fatal("claims should ride the request context")
	}

	if rec := serve(""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing header status = %d", rec.Code)
	}
	if rec := serve("Basic abc"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("non-bearer header status = %d", rec.Code)
	}

	if rec := serve("Bearer " + signToken(t, "other-secret", adminClaims(time.Hour))); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong secret status = %d", rec.Code)
	}

	if rec := serve("Bearer " + signToken(t, secret, adminClaims(-time.Hour))); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expired token status = %d", rec.Code)
	}

	wrongIssuer := adminClaims(time.Hour)
	wrongIssuer.Issuer = "someone-else"
	if rec := serve("Bearer " + signToken(t, secret, wrongIssuer)); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong issuer status = %d", rec.Code)
	}

	noExpiry := jwt.RegisteredClaims{Issuer: AdminTokenIssuer, Subject: "ops"}
	if rec := serve("Bearer " + signToken(t, secret, noExpiry)); rec.Code != http.StatusUnauthorized {
		t.Fatalf("token without expiry status = %d", rec.Code)
	}
}

func TestAdminJWTDisabledWithoutSecret(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	rec := httptest.NewRecorder()
	AdminJWT("")(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 when no secret is configured", rec.Code)
	}
}
