package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/iho/procureledger/internal/adapter/http/dto"
)

// reject answers with the same error body the handlers use.
func reject(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: message})
}
