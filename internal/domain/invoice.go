package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// InvoiceReferencePrefix marks reference numbers that identify invoices.
const InvoiceReferencePrefix = "INV"

// Invoice is the read model the ledger needs to split a cash receipt.
type Invoice struct {
	ID        string
	Reference string
	Subtotal  decimal.Decimal
	Tax       decimal.Decimal
	Total     decimal.Decimal
}

// IsInvoiceReference reports whether ref carries the invoice prefix.
func IsInvoiceReference(ref string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(ref)), InvoiceReferencePrefix)
}

// Due returns subtotal plus tax.
func (i *Invoice) Due() decimal.Decimal {
	return i.Subtotal.Add(i.Tax)
}

// Ratios returns the principal and VAT shares of the amount due.
// Callers must check Due is non-zero first.
func (i *Invoice) Ratios() (principal, vat decimal.Decimal) {
	due := i.Due()
	return i.Subtotal.Div(due), i.Tax.Div(due)
}
