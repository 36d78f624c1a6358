package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iho/procureledger/internal/domain"
)

// ProcessTitles maps each document kind to the title of its approval process.
type ProcessTitles map[domain.DocumentKind]string

// ApprovalUseCase drives documents through their ordered approver chain.
type ApprovalUseCase struct {
	deps        Deps
	approvals   ApprovalRepository
	processes   ProcessReader
	resolver    ApproverResolver
	commitments CommitmentReader
	tasks       *TaskDispatcher
	budgets     *BudgetUseCase
	titles      ProcessTitles
}

// NewApprovalUseCase creates a new ApprovalUseCase.
func NewApprovalUseCase(
	deps Deps,
	approvals ApprovalRepository,
	processes ProcessReader,
	resolver ApproverResolver,
	commitments CommitmentReader,
	tasks *TaskDispatcher,
	budgets *BudgetUseCase,
	titles ProcessTitles,
) *ApprovalUseCase {
	return &ApprovalUseCase{
		deps:        deps.withDefaults(),
		approvals:   approvals,
		processes:   processes,
		resolver:    resolver,
		commitments: commitments,
		tasks:       tasks,
		budgets:     budgets,
		titles:      titles,
	}
}

// StepResult is a newly created approval transaction and its task.
type StepResult struct {
	Approval *domain.ApprovalTransaction
	Task     *domain.Task
}

// stepPlan is an approver assignment resolved before the transaction opens.
type stepPlan struct {
	step     domain.ProcessStep
	approver string
}

// Start opens the approval chain of a document at its first step.
func (uc *ApprovalUseCase) Start(ctx context.Context, doc domain.DocumentRef, requesterID, description string) (*StepResult, error) {
	chain, err := uc.approvals.ListByDocument(ctx, doc)
	if err != nil {
		return nil, err
	}
	if len(chain) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrApprovalStarted, doc)
	}
	return uc.createNextStep(ctx, doc, 0, requesterID, description, true)
}

// CreateNextStep assigns the step following currentStepOrder to its resolved approver.
func (uc *ApprovalUseCase) CreateNextStep(ctx context.Context, doc domain.DocumentRef, currentStepOrder int, requesterID string) (*StepResult, error) {
	return uc.createNextStep(ctx, doc, currentStepOrder, requesterID, "", false)
}

func (uc *ApprovalUseCase) createNextStep(ctx context.Context, doc domain.DocumentRef, current int, requesterID, description string, mustBeEmpty bool) (*StepResult, error) {
	if !doc.Kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown document kind %q", domain.ErrProcessNotFound, doc.Kind)
	}

	actor, err := uc.deps.actor(ctx)
	if err != nil {
		return nil, err
	}

	plan, err := uc.planNext(ctx, doc, current, requesterID)
	if err != nil {
		return nil, err
	}

	var result *StepResult
	err = uc.deps.runInTx(ctx, func(ctx context.Context, tx Transaction) error {
		if mustBeEmpty {
			chain, err := uc.approvals.ListByDocumentForUpdate(ctx, tx, doc)
			if err != nil {
				return err
			}
			if len(chain) > 0 {
				return fmt.Errorf("%w: %s", domain.ErrApprovalStarted, doc)
			}
		}

		r, err := uc.openStepTx(ctx, tx, actor, doc, plan, requesterID, description)
		result = r
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.deps.Recorder.TaskDispatched(doc.Kind)
	uc.deps.Logger.Info().
		Str("document", doc.String()).
		Int("step_order", plan.step.Order).
		Str("assigned_to", plan.approver).
		Msg("approval step created")

	return result, nil
}

// planNext resolves the process step after current and its approver.
func (uc *ApprovalUseCase) planNext(ctx context.Context, doc domain.DocumentRef, current int, requesterID string) (stepPlan, error) {
	process, err := uc.process(ctx, doc.Kind)
	if err != nil {
		return stepPlan{}, err
	}

	step, ok := process.NextStep(current)
	if !ok {
		return stepPlan{}, fmt.Errorf("%w: %s has no step after %d", domain.ErrNoNextStep, process.Title, current)
	}

	approver, err := uc.resolver.ResolveApprover(ctx, step, requesterID)
	if err != nil {
		return stepPlan{}, err
	}
	if strings.TrimSpace(approver) == "" {
		return stepPlan{}, fmt.Errorf("%w: step %d of %q for requester %s",
			domain.ErrNoApproverResolved, step.Order, process.Title, requesterID)
	}

	return stepPlan{step: step, approver: approver}, nil
}

func (uc *ApprovalUseCase) process(ctx context.Context, kind domain.DocumentKind) (*domain.Process, error) {
	title, ok := uc.titles[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no process configured for %s", domain.ErrProcessNotFound, kind)
	}
	return uc.processes.GetByTitle(ctx, title)
}

func (uc *ApprovalUseCase) openStepTx(
	ctx context.Context,
	tx Transaction,
	actor string,
	doc domain.DocumentRef,
	plan stepPlan,
	requesterID, description string,
) (*StepResult, error) {
	approval := &domain.ApprovalTransaction{
		ID:            uc.deps.IDGen.Generate(),
		Document:      doc,
		RequesterID:   requesterID,
		AssignedTo:    plan.approver,
		ProcessStepID: plan.step.ID,
		StepOrder:     plan.step.Order,
		Description:   description,
		Status:        domain.ApprovalPending,
		CreatedBy:     actor,
		UpdatedBy:     actor,
		CreatedAt:     uc.deps.Clock.Now(),
	}

	if err := uc.approvals.Create(ctx, tx, approval); err != nil {
		return nil, err
	}

	task, err := uc.tasks.Dispatch(ctx, tx, approval)
	if err != nil {
		return nil, err
	}

	if err := uc.deps.audit(ctx, tx, actor, domain.AuditActionApprovalCreate,
		domain.AggregateTypeApproval, approval.ID, nil, approval); err != nil {
		return nil, err
	}

	return &StepResult{Approval: approval, Task: task}, nil
}

// SubmitDecisionInput represents an approver's decision on a document.
type SubmitDecisionInput struct {
	Document domain.DocumentRef
	Decision domain.ApprovalStatus
	ActorID  string
	Note     string
	ReferTo  string
}

// DecisionResult describes everything a decision changed.
type DecisionResult struct {
	Decided *domain.ApprovalTransaction
	// Next is set when the decision opened another step or a referral.
	Next    *StepResult
	Overall domain.OverallStatus
	// Budgets lists the fiscal-period budgets moved by a terminal budget decision.
	Budgets []*domain.Budget
}

// SubmitDecision records the actor's decision on the document's pending step and
// applies its consequences in one transaction: the next step on approve, a lateral
// reassignment on refer, and the terminal side effects when the chain completes.
func (uc *ApprovalUseCase) SubmitDecision(ctx context.Context, input SubmitDecisionInput) (*DecisionResult, error) {
	decision, err := domain.ParseDecision(string(input.Decision))
	if err != nil {
		return nil, err
	}

	actor := input.ActorID
	if actor == "" {
		if actor, err = uc.deps.actor(ctx); err != nil {
			return nil, err
		}
	}

	chain, err := uc.approvals.ListByDocument(ctx, input.Document)
	if err != nil {
		return nil, err
	}
	pending := domain.PendingFor(chain)
	if pending == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoPendingApproval, input.Document)
	}
	if pending.AssignedTo != actor {
		return nil, fmt.Errorf("%w: %s is assigned to %s", domain.ErrNotAssignee, input.Document, pending.AssignedTo)
	}

	var next *stepPlan
	switch decision {
	case domain.ApprovalApprove:
		plan, err := uc.planNext(ctx, input.Document, pending.StepOrder, pending.RequesterID)
		switch {
		case err == nil:
			next = &plan
		case errors.Is(err, domain.ErrNoNextStep):
		default:
			return nil, err
		}
	case domain.ApprovalRefer:
		referTo := strings.TrimSpace(input.ReferTo)
		if referTo == "" {
			return nil, domain.ErrReferralTargetRequired
		}
		next = &stepPlan{
			step:     domain.ProcessStep{ID: pending.ProcessStepID, Order: pending.StepOrder},
			approver: referTo,
		}
	}

	var result *DecisionResult
	err = uc.deps.runInTx(ctx, func(ctx context.Context, tx Transaction) error {
		r, err := uc.decideTx(ctx, tx, actor, pending.ID, decision, input, next)
		result = r
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.deps.Recorder.ApprovalDecided(input.Document.Kind, decision)
	if result.Next != nil {
		uc.deps.Recorder.TaskDispatched(input.Document.Kind)
	}
	if len(result.Budgets) > 0 {
		uc.deps.Recorder.BudgetStatusChanged(result.Budgets[0].Status, len(result.Budgets))
		uc.deps.Logger.Info().
			Str("budget_id", input.Document.ID).
			Str("fiscal_period_id", result.Budgets[0].FiscalPeriodID).
			Str("status", string(result.Budgets[0].Status)).
			Int("count", len(result.Budgets)).
			Msg("fiscal period budgets transitioned")
	}

	uc.deps.Logger.Info().
		Str("document", input.Document.String()).
		Str("approval_id", result.Decided.ID).
		Str("decision", string(decision)).
		Str("overall", string(result.Overall)).
		Str("actor", actor).
		Msg("approval decided")

	return result, nil
}

func (uc *ApprovalUseCase) decideTx(
	ctx context.Context,
	tx Transaction,
	actor, pendingID string,
	decision domain.ApprovalStatus,
	input SubmitDecisionInput,
	next *stepPlan,
) (*DecisionResult, error) {
	chain, err := uc.approvals.ListByDocumentForUpdate(ctx, tx, input.Document)
	if err != nil {
		return nil, err
	}
	current := domain.PendingFor(chain)
	if current == nil || current.ID != pendingID {
		return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyDecided, pendingID)
	}

	before := *current
	now := uc.deps.Clock.Now()
	current.Status = decision
	current.Note = input.Note
	current.UpdatedBy = actor
	current.DecidedAt = &now
	if decision == domain.ApprovalRefer {
		referTo := next.approver
		current.ReferredTo = &referTo
	}

	if err := uc.approvals.Decide(ctx, tx, current); err != nil {
		return nil, err
	}
	if err := uc.tasks.Complete(ctx, tx, current.ID); err != nil {
		return nil, err
	}
	if err := uc.deps.audit(ctx, tx, actor, domain.AuditActionApprovalDecide,
		domain.AggregateTypeApproval, current.ID, before, current); err != nil {
		return nil, err
	}
	if err := uc.deps.emit(ctx, tx, domain.AggregateTypeApproval, current.ID, domain.EventTypeApprovalDecided, map[string]any{
		"document_kind": string(input.Document.Kind),
		"document_id":   input.Document.ID,
		"decision":      string(decision),
		"step_order":    current.StepOrder,
	}); err != nil {
		return nil, err
	}

	result := &DecisionResult{Decided: current}

	if next != nil {
		result.Next, err = uc.openStepTx(ctx, tx, actor, input.Document, *next, current.RequesterID, current.Description)
		if err != nil {
			return nil, err
		}
		result.Overall = domain.OverallPending
		return result, nil
	}

	result.Overall = domain.DeriveOverallStatus(chain)
	if !result.Overall.IsTerminal() {
		return result, nil
	}

	result.Budgets, err = uc.applyOutcomeTx(ctx, tx, actor, input.Document, result.Overall)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyOutcomeTx runs the side effects of a completed chain.
func (uc *ApprovalUseCase) applyOutcomeTx(ctx context.Context, tx Transaction, actor string, doc domain.DocumentRef, outcome domain.OverallStatus) ([]*domain.Budget, error) {
	switch doc.Kind {
	case domain.DocumentBudget:
		return uc.budgets.TransitionFiscalPeriodTx(ctx, tx, actor, doc.ID, outcome)

	case domain.DocumentPurchaseOrder:
		if outcome == domain.OverallReject {
			return nil, uc.settleCommitmentTx(ctx, tx, actor, doc, BudgetOpRelease)
		}

	case domain.DocumentPaymentOrder:
		op := BudgetOpConsume
		if outcome == domain.OverallReject {
			op = BudgetOpRelease
		}
		return nil, uc.settleCommitmentTx(ctx, tx, actor, doc, op)
	}
	return nil, nil
}

func (uc *ApprovalUseCase) settleCommitmentTx(ctx context.Context, tx Transaction, actor string, doc domain.DocumentRef, op string) error {
	if uc.commitments == nil {
		return nil
	}
	commitment, err := uc.commitments.GetCommitment(ctx, tx, doc)
	if err != nil {
		return err
	}
	if commitment == nil || commitment.RequestBudgetID == "" || !commitment.Amount.IsPositive() {
		return nil
	}

	switch op {
	case BudgetOpConsume:
		_, err = uc.budgets.ConsumeTx(ctx, tx, actor, commitment.RequestBudgetID, commitment.Amount)
	default:
		_, err = uc.budgets.ReleaseTx(ctx, tx, actor, commitment.RequestBudgetID, commitment.Amount)
	}
	return err
}

// DeriveOverallStatus returns the derived status of a document's chain.
func (uc *ApprovalUseCase) DeriveOverallStatus(ctx context.Context, doc domain.DocumentRef) (domain.OverallStatus, error) {
	chain, err := uc.approvals.ListByDocument(ctx, doc)
	if err != nil {
		return "", err
	}
	return domain.DeriveOverallStatus(chain), nil
}

// ListChain returns a document's approval transactions in step order.
func (uc *ApprovalUseCase) ListChain(ctx context.Context, doc domain.DocumentRef) ([]*domain.ApprovalTransaction, error) {
	return uc.approvals.ListByDocument(ctx, doc)
}
