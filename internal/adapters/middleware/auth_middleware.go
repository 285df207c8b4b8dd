package middleware

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/civicgov/birth-registry/certificate-service/internal/core/domain"
	"github.com/civicgov/birth-registry/certificate-service/internal/core/token"
)

// CredentialHeader carries the signed credential on every authenticated
// request.
const CredentialHeader = "X-Auth-Token"

type contextKey string

const (
	UserIDKey contextKey = "userID"
	RoleKey   contextKey = "role"
)

// AuthMiddleware validates the request credential and resolves it to a
// (userID, role) pair in the request context. It does not decide
// authorization by itself: each route declares the roles it accepts.
type AuthMiddleware struct {
	jwtSecret []byte
	logger    *logrus.Logger
}

func NewAuthMiddleware(jwtSecret []byte, logger *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{jwtSecret: jwtSecret, logger: logger}
}

// RequireRole authenticates the request and rejects callers whose role is
// not in roles. An empty roles list admits any authenticated caller.
func (m *AuthMiddleware) RequireRole(roles []domain.Role, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		credential := r.Header.Get(CredentialHeader)
		if credential == "" {
			writeAuthError(w, http.StatusUnauthorized, "no token, authorization denied")
			return
		}

		identity, err := token.Verify(credential, m.jwtSecret)
		if err != nil {
			m.logger.WithError(err).Debug("credential rejected")
			writeAuthError(w, http.StatusUnauthorized, "token is not valid")
			return
		}

		if len(roles) > 0 {
			allowed := false
			for _, role := range roles {
				if identity.Role == role {
					allowed = true
					break
				}
			}
			if !allowed {
				m.logger.WithFields(logrus.Fields{
					"user_id": identity.UserID,
					"role":    identity.Role,
				}).Warn("role not permitted for route")
				writeAuthError(w, http.StatusForbidden, "not authorized")
				return
			}
		}

		ctx := context.WithValue(r.Context(), UserIDKey, identity.UserID)
		ctx = context.WithValue(ctx, RoleKey, identity.Role)
		next(w, r.WithContext(ctx))
	}
}

// CallerID returns the authenticated user id stored by RequireRole.
func CallerID(ctx context.Context) string {
	id, _ := ctx.Value(UserIDKey).(string)
	return id
}

// CallerRole returns the authenticated role stored by RequireRole.
func CallerRole(ctx context.Context) domain.Role {
	role, _ := ctx.Value(RoleKey).(domain.Role)
	return role
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"msg":"` + msg + `"}`))
}
