package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/iho/procureledger/internal/domain"
	"github.com/iho/procureledger/internal/infrastructure/auth"
)

var (
	errMissingAuthorization = errors.New("missing authorization header")
	errMalformedBearer      = errors.New("authorization header must be 'Bearer <token>'")
)

// TokenVerifier validates a bearer token.
type TokenVerifier interface {
	Verify(tokenString string) (*auth.Claims, error)
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errMissingAuthorization
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errMalformedBearer
	}
	return strings.TrimSpace(token), nil
}

// AuthMiddleware puts the bearer token's user in the request context and
// rejects the request with 401 when there is no valid token.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				reject(w, http.StatusUnauthorized, err.Error())
				return
			}
			claims, err := verifier.Verify(token)
			if err != nil {
				reject(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(domain.ContextWithUser(r.Context(), claims.User())))
		})
	}
}

// StaticUser runs every request as user. The server uses it with auth disabled.
func StaticUser(user *domain.User) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(domain.ContextWithUser(r.Context(), user)))
		})
	}
}

// RequirePoster lets through roles that may post ledger entries and move budgets.
func RequirePoster(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := domain.UserFromContext(r.Context())
		switch {
		case !ok:
			reject(w, http.StatusUnauthorized, "unauthorized")
		case !user.Role.CanPost():
			reject(w, http.StatusForbidden, "role "+string(user.Role)+" cannot post")
		default:
			next.ServeHTTP(w, r)
		}
	})
}
