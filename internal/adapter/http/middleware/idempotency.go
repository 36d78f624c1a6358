package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/procureledger/internal/domain"
	"github.com/iho/procureledger/internal/usecase"
)

const (
	IdempotencyKeyHeader    = "Idempotency-Key"
	IdempotencyReplayHeader = "X-Idempotency-Replay"
)

// storedResponse is what a completed request leaves behind for replays.
type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
}

// IdempotencyMiddleware replays the first successful response of a repeated
// POST or PUT carrying the same Idempotency-Key. Keys are scoped per user.
type IdempotencyMiddleware struct {
	store  usecase.IdempotencyStore
	ttl    time.Duration
	logger zerolog.Logger
}

func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration, logger zerolog.Logger) *IdempotencyMiddleware {
	if ttl <= 0 {
		ttl = usecase.IdempotencyKeyTTL
	}
	return &IdempotencyMiddleware{store: store, ttl: ttl, logger: logger}
}

func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := scopedKey(r)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		log := m.logger.With().Str("idempotency_key", key).Logger()

		held, stored, err := m.store.CheckAndSet(r.Context(), key, nil, m.ttl)
		if err != nil {
			log.Error().Err(err).Msg("idempotency check failed")
			reject(w, http.StatusInternalServerError, "idempotency check failed")
			return
		}
		if held {
			replay(w, stored)
			return
		}

		var body bytes.Buffer
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ww.Tee(&body)
		next.ServeHTTP(ww, r)

		status := statusOf(ww)
		if status < 200 || status >= 300 {
			if err := m.store.Release(r.Context(), key); err != nil {
				log.Warn().Err(err).Msg("failed to release idempotency key")
			}
			return
		}

		encoded, err := json.Marshal(storedResponse{
			Status:      status,
			ContentType: ww.Header().Get("Content-Type"),
			Body:        body.Bytes(),
		})
		if err == nil {
			err = m.store.Update(r.Context(), key, encoded, m.ttl)
		}
		if err != nil {
			log.Warn().Err(err).Msg("failed to store idempotent response")
		}
	})
}

func scopedKey(r *http.Request) string {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		return ""
	}
	key := r.Header.Get(IdempotencyKeyHeader)
	if key == "" {
		return ""
	}
	if user, ok := domain.UserFromContext(r.Context()); ok {
		return user.ID + ":" + key
	}
	return key
}

// replay answers from a stored response. Anything that does not decode is the
// in-flight marker of a request still running.
func replay(w http.ResponseWriter, stored []byte) {
	var resp storedResponse
	if len(stored) == 0 || json.Unmarshal(stored, &resp) != nil || resp.Status == 0 {
		reject(w, http.StatusConflict, "request with this idempotency key is in progress")
		return
	}

	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.Header().Set(IdempotencyReplayHeader, "true")
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}
