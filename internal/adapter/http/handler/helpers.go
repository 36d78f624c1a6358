package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/iho/procureledger/internal/adapter/http/dto"
	"github.com/iho/procureledger/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message, Message: details})
}

// writeDomainError answers with the status mapped from err. Details of
// unmapped errors stay in the server log.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := mapDomainError(err)
	details := err.Error()
	if status == http.StatusInternalServerError {
		details = ""
	}
	writeError(w, status, message, details)
}

// errorStatuses is checked in order; the first errors.Is match wins.
var errorStatuses = []struct {
	status int
	errs   []error
}{
	{http.StatusBadRequest, []error{dto.ErrValidation}},
	{http.StatusUnauthorized, []error{domain.ErrUnauthenticated}},
	{http.StatusForbidden, []error{domain.ErrNotAssignee}},
	{http.StatusNotFound, []error{
		domain.ErrAccountNotFound, domain.ErrInvoiceNotFound, domain.ErrBudgetNotFound,
		domain.ErrProcessNotFound, domain.ErrApprovalNotFound, domain.ErrNodeNotFound,
	}},
	{http.StatusConflict, []error{
		domain.ErrNoPendingApproval, domain.ErrAlreadyDecided, domain.ErrApprovalStarted,
		domain.ErrInvalidInvoiceState, domain.ErrDocumentCommitted,
	}},
	{http.StatusUnprocessableEntity, []error{
		domain.ErrOverpayment, domain.ErrInsufficientBudget, domain.ErrNegativeInventoryOrBalance,
		domain.ErrNoApproverResolved, domain.ErrNoNextStep,
	}},
	{http.StatusBadRequest, []error{
		domain.ErrInvalidAmount, domain.ErrInvalidTransactionType, domain.ErrInvalidDecision,
		domain.ErrReferralTargetRequired, domain.ErrInvalidAccountName, domain.ErrAmountTooLarge,
		domain.ErrAmountTooSmall, domain.ErrInvalidReferenceNumber, domain.ErrInvalidRelatedAccounts,
		domain.ErrNotCommittable,
	}},
}

func mapDomainError(err error) int {
	for _, row := range errorStatuses {
		for _, target := range row.errs {
			if errors.Is(err, target) {
				return row.status
			}
		}
	}
	return http.StatusInternalServerError
}

// decodeRequest decodes the JSON body into req and validates it.
func decodeRequest(r *http.Request, req any) error {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return fmt.Errorf("%w: %v", dto.ErrValidation, err)
	}
	return dto.Validate(req)
}

// pageQuery reads limit and offset, falling back to defaultLimit and 0 for
// missing or malformed values, then clamps them with domain.ValidatePagination.
func pageQuery(r *http.Request, defaultLimit int) (limit, offset int) {
	limit = intQuery(r, "limit", defaultLimit)
	offset = intQuery(r, "offset", 0)
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return limit, offset
}

func intQuery(r *http.Request, key string, fallback int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return fallback
	}
	return n
}

// actingUserID returns the authenticated user's id, or "" when the request is anonymous.
func actingUserID(r *http.Request) string {
	if user, ok := domain.UserFromContext(r.Context()); ok {
		return user.ID
	}
	return ""
}
