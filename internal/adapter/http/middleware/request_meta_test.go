package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/iho/procureledger/internal/domain"
)

func TestRequestMeta(t *testing.T) {
	var got domain.RequestMeta
	h := chimiddleware.RequestID(chimiddleware.RealIP(RequestMeta(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = domain.RequestMetaFromContext(r.Context())
	}))))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ledger/entries", nil)
	req.Header.Set("X-Request-Id", "req-42")
	req.Header.Set("X-Real-IP", "10.0.0.7")
	req.Header.Set("User-Agent", "procureledger-cli")
	h.ServeHTTP(httptest.NewRecorder(), req)

	want := domain.RequestMeta{RequestID: "req-42", IPAddress: "10.0.0.7", UserAgent: "procureledger-cli"}
	if got != want {
		t.Fatalf("meta = %+v, want %+v", got, want)
	}
}
