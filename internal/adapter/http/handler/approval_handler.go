package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/procureledger/internal/adapter/http/dto"
	"github.com/iho/procureledger/internal/domain"
	"github.com/iho/procureledger/internal/usecase"
)

// ApprovalService defines the workflow operations ApprovalHandler exposes.
type ApprovalService interface {
	Start(ctx context.Context, doc domain.DocumentRef, requesterID, description string) (*usecase.StepResult, error)
	SubmitDecision(ctx context.Context, input usecase.SubmitDecisionInput) (*usecase.DecisionResult, error)
	ListChain(ctx context.Context, doc domain.DocumentRef) ([]*domain.ApprovalTransaction, error)
}

// ApprovalHandler handles document approval chains.
type ApprovalHandler struct {
	approvalUC ApprovalService
}

// NewApprovalHandler creates a new ApprovalHandler.
func NewApprovalHandler(approvalUC ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalUC: approvalUC}
}

func documentFromPath(r *http.Request) (domain.DocumentRef, bool) {
	doc := domain.DocumentRef{
		Kind: domain.DocumentKind(chi.URLParam(r, "kind")),
		ID:   chi.URLParam(r, "docID"),
	}
	return doc, doc.Kind.IsValid() && doc.ID != ""
}

// Start opens the approval chain of a document for the acting user.
func (h *ApprovalHandler) Start(w http.ResponseWriter, r *http.Request) {
	doc, ok := documentFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown document", chi.URLParam(r, "kind"))
		return
	}

	var req dto.StartApprovalRequest
	if r.ContentLength != 0 {
		if err := decodeRequest(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}

	step, err := h.approvalUC.Start(r.Context(), doc, actingUserID(r), req.Description)
	if err != nil {
		writeDomainError(w, "failed to start approval", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.StepFromUseCase(step))
}

// Decide records the acting user's decision on the document's pending step.
func (h *ApprovalHandler) Decide(w http.ResponseWriter, r *http.Request) {
	doc, ok := documentFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown document", chi.URLParam(r, "kind"))
		return
	}

	var req dto.DecisionRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.approvalUC.SubmitDecision(r.Context(), usecase.SubmitDecisionInput{
		Document: doc,
		Decision: domain.ApprovalStatus(req.Decision),
		ActorID:  actingUserID(r),
		Note:     req.Note,
		ReferTo:  req.ReferTo,
	})
	if err != nil {
		writeDomainError(w, "failed to submit decision", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DecisionFromUseCase(result))
}

// Chain lists the document's approval transactions with the derived overall status.
func (h *ApprovalHandler) Chain(w http.ResponseWriter, r *http.Request) {
	doc, ok := documentFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown document", chi.URLParam(r, "kind"))
		return
	}

	chain, err := h.approvalUC.ListChain(r.Context(), doc)
	if err != nil {
		writeDomainError(w, "failed to list approval chain", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ChainFromDomain(chain))
}
