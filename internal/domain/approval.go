package domain

import (
	"sort"
	"strings"
	"time"
)

// DocumentKind identifies the type of document moving through approval.
type DocumentKind string

const (
	DocumentBudget          DocumentKind = "budget"
	DocumentRFQ             DocumentKind = "rfq"
	DocumentPurchaseOrder   DocumentKind = "purchase_order"
	DocumentPaymentOrder    DocumentKind = "payment_order"
	DocumentMaterialRequest DocumentKind = "material_request"
	DocumentInvoice         DocumentKind = "invoice"
)

var validDocumentKinds = map[DocumentKind]bool{
	DocumentBudget:          true,
	DocumentRFQ:             true,
	DocumentPurchaseOrder:   true,
	DocumentPaymentOrder:    true,
	DocumentMaterialRequest: true,
	DocumentInvoice:         true,
}

// IsValid reports whether k is a known document kind.
func (k DocumentKind) IsValid() bool {
	return validDocumentKinds[k]
}

// DocumentRef points at the subject document of an approval chain.
type DocumentRef struct {
	Kind DocumentKind
	ID   string
}

func (d DocumentRef) String() string {
	return string(d.Kind) + ":" + d.ID
}

// ApprovalStatus is the status of a single approval transaction.
type ApprovalStatus string

const (
	ApprovalPending ApprovalStatus = "pending"
	ApprovalApprove ApprovalStatus = "approve"
	ApprovalReject  ApprovalStatus = "reject"
	ApprovalRefer   ApprovalStatus = "refer"
)

// ParseDecision parses a decision submitted by an approver.
func ParseDecision(s string) (ApprovalStatus, error) {
	switch ApprovalStatus(strings.ToLower(strings.TrimSpace(s))) {
	case ApprovalApprove:
		return ApprovalApprove, nil
	case ApprovalReject:
		return ApprovalReject, nil
	case ApprovalRefer:
		return ApprovalRefer, nil
	default:
		return "", ErrInvalidDecision
	}
}

// ApprovalTransaction is one approver assignment in a document's chain.
// It is written Pending and decided exactly once.
type ApprovalTransaction struct {
	CreatedAt     time.Time
	DecidedAt     *time.Time
	ReferredTo    *string
	Document      DocumentRef
	ID            string
	RequesterID   string
	AssignedTo    string
	ProcessStepID string
	Description   string
	Note          string
	CreatedBy     string
	UpdatedBy     string
	Status        ApprovalStatus
	StepOrder     int
}

// OverallStatus is the derived status of a whole approval chain.
type OverallStatus string

const (
	OverallNotStarted OverallStatus = "not_started"
	OverallPending    OverallStatus = "pending"
	OverallApprove    OverallStatus = "approve"
	OverallReject     OverallStatus = "reject"
)

// IsTerminal reports whether no further decisions can change the status.
func (s OverallStatus) IsTerminal() bool {
	return s == OverallApprove || s == OverallReject
}

// DeriveOverallStatus folds a chain into one status.
// Referred rows were handed off to a new row at the same step and do not count.
func DeriveOverallStatus(chain []*ApprovalTransaction) OverallStatus {
	if len(chain) == 0 {
		return OverallNotStarted
	}

	counted := 0
	approved := 0
	for _, at := range chain {
		switch at.Status {
		case ApprovalReject:
			return OverallReject
		case ApprovalRefer:
			continue
		case ApprovalApprove:
			approved++
		}
		counted++
	}

	if counted > 0 && approved == counted {
		return OverallApprove
	}
	return OverallPending
}

// PendingFor returns the pending transaction in chain, if any.
func PendingFor(chain []*ApprovalTransaction) *ApprovalTransaction {
	for _, at := range chain {
		if at.Status == ApprovalPending {
			return at
		}
	}
	return nil
}

// Process is an ordered approval route configured per document kind.
type Process struct {
	ID    string
	Title string
	Steps []ProcessStep
}

// ProcessStep names the designation that must approve at a given order.
type ProcessStep struct {
	ID            string
	ProcessID     string
	DesignationID string
	Order         int
}

// NextStep returns the step with the smallest order greater than current.
func (p *Process) NextStep(current int) (ProcessStep, bool) {
	steps := make([]ProcessStep, len(p.Steps))
	copy(steps, p.Steps)
	sort.Slice(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })

	for _, s := range steps {
		if s.Order > current {
			return s, true
		}
	}
	return ProcessStep{}, false
}
