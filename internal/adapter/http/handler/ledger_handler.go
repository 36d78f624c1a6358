package handler

import (
	"context"
	"net/http"

	"github.com/iho/procureledger/internal/adapter/http/dto"
	"github.com/iho/procureledger/internal/domain"
	"github.com/iho/procureledger/internal/usecase"
)

// LedgerService defines the postings LedgerHandler exposes.
type LedgerService interface {
	RecordEntry(ctx context.Context, input usecase.RecordEntryInput) (*domain.TransactionFlowEntry, error)
	AllocateCashPayment(ctx context.Context, input usecase.AllocateCashInput) ([]*domain.TransactionFlowEntry, error)
}

// ReconciliationService compares stored totals against replayed entries.
type ReconciliationService interface {
	GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error)
}

// LedgerHandler handles ledger postings and ledger-wide checks.
type LedgerHandler struct {
	ledgerUC    LedgerService
	reconcileUC ReconciliationService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService, reconcileUC ReconciliationService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC, reconcileUC: reconcileUC}
}

// RecordEntry posts a single entry.
func (h *LedgerHandler) RecordEntry(w http.ResponseWriter, r *http.Request) {
	var req dto.RecordEntryRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid related entity", err.Error())
		return
	}

	entry, err := h.ledgerUC.RecordEntry(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to record entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// AllocateCash splits a cash receipt across the invoice's ledger legs.
// A receipt with nothing left to allocate answers 200 with no entries.
func (h *LedgerHandler) AllocateCash(w http.ResponseWriter, r *http.Request) {
	var req dto.AllocateCashRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entries, err := h.ledgerUC.AllocateCashPayment(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to allocate cash payment", err)
		return
	}

	status := http.StatusCreated
	if len(entries) == 0 {
		status = http.StatusOK
	}
	writeJSON(w, status, dto.AllocationResponse{Entries: dto.EntriesFromDomain(entries)})
}

// Reconcile reports accounts whose stored totals disagree with their entries.
func (h *LedgerHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconcileUC.GenerateReconciliationReport(r.Context())
	if err != nil {
		writeDomainError(w, "failed to reconcile ledger", err)
		return
	}

	status := http.StatusOK
	if len(report.Discrepancies) > 0 {
		status = http.StatusConflict
	}
	writeJSON(w, status, dto.ReconciliationReportFromUseCase(report))
}
