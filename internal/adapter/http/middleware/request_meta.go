package middleware

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/iho/procureledger/internal/domain"
)

// RequestMeta stores the request id, client address and user agent on the
// context so audit rows can name the request that caused them. It must run
// after chi's RequestID and RealIP middleware.
func RequestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := domain.ContextWithRequestMeta(r.Context(), domain.RequestMeta{
			RequestID: chimiddleware.GetReqID(r.Context()),
			IPAddress: r.RemoteAddr,
			UserAgent: r.UserAgent(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
