package domain

import "fmt"

// RelatedEntityKind is the storage tag of a RelatedEntity.
type RelatedEntityKind string

const (
	RelatedInvoice       RelatedEntityKind = "invoice"
	RelatedPaymentOrder  RelatedEntityKind = "payment_order"
	RelatedPurchaseOrder RelatedEntityKind = "purchase_order"
	RelatedRequestBudget RelatedEntityKind = "request_budget"
	RelatedCashReceipt   RelatedEntityKind = "cash_receipt"
)

// RelatedEntity is the business document a ledger entry refers to.
// The set of implementations is closed; see ParseRelatedEntity.
type RelatedEntity interface {
	Kind() RelatedEntityKind
	EntityID() string
	isRelatedEntity()
}

type InvoiceRef struct{ ID string }

type PaymentOrderRef struct{ ID string }

type PurchaseOrderRef struct{ ID string }

type RequestBudgetRef struct{ ID string }

type CashReceiptRef struct{ ID string }

func (r InvoiceRef) Kind() RelatedEntityKind       { return RelatedInvoice }
func (r PaymentOrderRef) Kind() RelatedEntityKind  { return RelatedPaymentOrder }
func (r PurchaseOrderRef) Kind() RelatedEntityKind { return RelatedPurchaseOrder }
func (r RequestBudgetRef) Kind() RelatedEntityKind { return RelatedRequestBudget }
func (r CashReceiptRef) Kind() RelatedEntityKind   { return RelatedCashReceipt }

func (r InvoiceRef) EntityID() string       { return r.ID }
func (r PaymentOrderRef) EntityID() string  { return r.ID }
func (r PurchaseOrderRef) EntityID() string { return r.ID }
func (r RequestBudgetRef) EntityID() string { return r.ID }
func (r CashReceiptRef) EntityID() string   { return r.ID }

func (InvoiceRef) isRelatedEntity()       {}
func (PaymentOrderRef) isRelatedEntity()  {}
func (PurchaseOrderRef) isRelatedEntity() {}
func (RequestBudgetRef) isRelatedEntity() {}
func (CashReceiptRef) isRelatedEntity()   {}

// ParseRelatedEntity decodes a stored (kind, id) pair. An empty kind yields nil.
func ParseRelatedEntity(kind, id string) (RelatedEntity, error) {
	switch RelatedEntityKind(kind) {
	case "":
		return nil, nil
	case RelatedInvoice:
		return InvoiceRef{ID: id}, nil
	case RelatedPaymentOrder:
		return PaymentOrderRef{ID: id}, nil
	case RelatedPurchaseOrder:
		return PurchaseOrderRef{ID: id}, nil
	case RelatedRequestBudget:
		return RequestBudgetRef{ID: id}, nil
	case RelatedCashReceipt:
		return CashReceiptRef{ID: id}, nil
	default:
		return nil, fmt.Errorf("unknown related entity kind %q", kind)
	}
}

// EncodeRelatedEntity returns the (kind, id) pair to persist. nil encodes to empty strings.
func EncodeRelatedEntity(r RelatedEntity) (string, string) {
	if r == nil {
		return "", ""
	}
	return string(r.Kind()), r.EntityID()
}
