package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/civicgov/birth-registry/certificate-service/internal/core/domain"
	"github.com/civicgov/birth-registry/certificate-service/internal/core/token"
)

var middlewareSecret = []byte("middleware-test-secret")

func newTestAuthMiddleware() *AuthMiddleware {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewAuthMiddleware(middlewareSecret, logger)
}

func signFor(t *testing.T, userID string, role domain.Role) string {
	t.Helper()
	signed, err := token.Sign(userID, role, middlewareSecret, time.Now())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func doRequest(mw *AuthMiddleware, roles []domain.Role, credential string, next http.HandlerFunc) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/applications", nil)
	if credential != "" {
		req.Header.Set(CredentialHeader, credential)
	}
	rec := httptest.NewRecorder()
	mw.RequireRole(roles, next)(rec, req)
	return rec
}

func decodeMsg(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return body.Msg
}

func TestRequireRoleMissingCredential(t *testing.T) {
	mw := newTestAuthMiddleware()
	rec := doRequest(mw, nil, "", func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without a credential")
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if got := decodeMsg(t, rec); got != "no token, authorization denied" {
		t.Errorf("msg = %q", got)
	}
}

func TestRequireRoleInvalidCredential(t *testing.T) {
	mw := newTestAuthMiddleware()
	for name, credential := range map[string]string{
		"garbage":      "not-a-jwt",
		"wrong secret": mustSignWith(t, []byte("other-secret")),
		"expired":      mustSignExpired(t),
	} {
		t.Run(name, func(t *testing.T) {
			rec := doRequest(mw, nil, credential, func(w http.ResponseWriter, r *http.Request) {
				t.Error("handler must not run with an invalid credential")
			})
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if got := decodeMsg(t, rec); got != "token is not valid" {
				t.Errorf("msg = %q", got)
			}
		})
	}
}

func TestRequireRoleRejectsWrongRole(t *testing.T) {
	mw := newTestAuthMiddleware()
	credential := signFor(t, "user-1", domain.RoleParent)

	rec := doRequest(mw, []domain.Role{domain.RoleAdmin}, credential, func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run for a disallowed role")
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if got := decodeMsg(t, rec); got != "not authorized" {
		t.Errorf("msg = %q", got)
	}
}

func TestRequireRolePassesIdentity(t *testing.T) {
	mw := newTestAuthMiddleware()
	credential := signFor(t, "user-1", domain.RoleAdmin)

	var gotID string
	var gotRole domain.Role
	rec := doRequest(mw, []domain.Role{domain.RoleAdmin, domain.RoleParent}, credential, func(w http.ResponseWriter, r *http.Request) {
		gotID = CallerID(r.Context())
		gotRole = CallerRole(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if gotID != "user-1" || gotRole != domain.RoleAdmin {
		t.Errorf("identity = (%q, %q)", gotID, gotRole)
	}
}

func TestRequireRoleEmptyListAdmitsAnyRole(t *testing.T) {
	mw := newTestAuthMiddleware()
	for _, role := range []domain.Role{domain.RoleParent, domain.RoleAdmin, domain.RoleDoctor} {
		rec := doRequest(mw, nil, signFor(t, "user-1", role), func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		if rec.Code != http.StatusNoContent {
			t.Errorf("role %q: status = %d, want 204", role, rec.Code)
		}
	}
}

func mustSignWith(t *testing.T, secret []byte) string {
	t.Helper()
	signed, err := token.Sign("user-1", domain.RoleParent, secret, time.Now())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func mustSignExpired(t *testing.T) string {
	t.Helper()
	signed, err := token.Sign("user-1", domain.RoleParent, middlewareSecret, time.Now().Add(-2*token.TTL))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}
