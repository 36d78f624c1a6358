package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/procureledger/internal/adapter/http/dto"
	"github.com/iho/procureledger/internal/domain"
)

// BudgetService defines the request budget mutations BudgetHandler exposes.
type BudgetService interface {
	Reserve(ctx context.Context, id string, amount decimal.Decimal, doc *domain.DocumentRef) (*domain.RequestBudget, error)
	Release(ctx context.Context, id string, amount decimal.Decimal) (*domain.RequestBudget, error)
	Consume(ctx context.Context, id string, amount decimal.Decimal) (bool, error)
	ReserveForScope(ctx context.Context, scope domain.BudgetScope, fiscalPeriodID string, amount decimal.Decimal, doc *domain.DocumentRef) (*domain.RequestBudget, error)
}

// BudgetHandler handles request budget reservations.
type BudgetHandler struct {
	budgetUC BudgetService
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetUC BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetUC: budgetUC}
}

// Reserve earmarks an amount on a request budget, optionally on behalf of a
// purchase or payment order whose approval outcome settles it.
func (h *BudgetHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req dto.ReserveRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	budget, err := h.budgetUC.Reserve(r.Context(), chi.URLParam(r, "id"), req.Amount, req.Document())
	if err != nil {
		writeDomainError(w, "failed to reserve budget", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RequestBudgetFromDomain(budget))
}

// Release returns a reserved amount to the spendable balance.
func (h *BudgetHandler) Release(w http.ResponseWriter, r *http.Request) {
	var req dto.BudgetAmountRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	budget, err := h.budgetUC.Release(r.Context(), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		writeDomainError(w, "failed to release budget", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RequestBudgetFromDomain(budget))
}

// Consume permanently spends part of a reservation.
func (h *BudgetHandler) Consume(w http.ResponseWriter, r *http.Request) {
	var req dto.BudgetAmountRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	consumed, err := h.budgetUC.Consume(r.Context(), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		writeDomainError(w, "failed to consume budget", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ConsumeResponse{Consumed: consumed})
}

// ReserveForScope reserves against the budget matching a department and cost center.
func (h *BudgetHandler) ReserveForScope(w http.ResponseWriter, r *http.Request) {
	var req dto.ReserveForScopeRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	budget, err := h.budgetUC.ReserveForScope(r.Context(), req.Scope(), req.FiscalPeriodID, req.Amount, req.Document())
	if err != nil {
		writeDomainError(w, "failed to reserve budget", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RequestBudgetFromDomain(budget))
}
