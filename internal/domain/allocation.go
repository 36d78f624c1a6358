package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const moneyPlaces = 2

// TrueUpTolerance is how close a payment must come to the remainder to be treated as final.
var TrueUpTolerance = decimal.New(1, -moneyPlaces)

// PaymentSplit is the principal and VAT portion of one cash receipt.
type PaymentSplit struct {
	Principal decimal.Decimal
	VAT       decimal.Decimal
}

// Total returns principal plus VAT.
func (s PaymentSplit) Total() decimal.Decimal {
	return s.Principal.Add(s.VAT)
}

// Allocation is the outcome of splitting a cash receipt against an invoice.
type Allocation struct {
	Split              PaymentSplit
	RemainingPrincipal decimal.Decimal
	RemainingVAT       decimal.Decimal
	TrueUp             bool
}

// IsEmpty reports whether there is nothing to post.
func (a Allocation) IsEmpty() bool {
	return !a.Split.Principal.IsPositive() && !a.Split.VAT.IsPositive()
}

// Settled reports whether the invoice is paid off. A true-up may land up to
// TrueUpTolerance past the remainder, so a slightly negative total still counts.
func (a Allocation) Settled() bool {
	total := a.RemainingPrincipal.Add(a.RemainingVAT)
	return !total.IsPositive() && total.GreaterThanOrEqual(TrueUpTolerance.Neg())
}

// SplitCash divides amount by the invoice ratios, rounding each half to cents.
func SplitCash(amount, principalRatio, vatRatio decimal.Decimal) PaymentSplit {
	return PaymentSplit{
		Principal: amount.Mul(principalRatio).Round(moneyPlaces),
		VAT:       amount.Mul(vatRatio).Round(moneyPlaces),
	}
}

// AllocatePayment splits cash against what remains due on inv.
//
// Prior payments are re-split with the invoice's current ratios instead of trusting
// whatever split was stored when they were posted.
func AllocatePayment(inv *Invoice, priorPayments []decimal.Decimal, cash decimal.Decimal) (Allocation, error) {
	if inv.Due().IsZero() {
		return Allocation{}, fmt.Errorf("%w: invoice %s has zero total", ErrInvalidInvoiceState, inv.Reference)
	}

	principalRatio, vatRatio := inv.Ratios()

	var paid PaymentSplit
	for _, p := range priorPayments {
		s := SplitCash(p, principalRatio, vatRatio)
		paid.Principal = paid.Principal.Add(s.Principal)
		paid.VAT = paid.VAT.Add(s.VAT)
	}

	alloc := Allocation{
		RemainingPrincipal: inv.Subtotal.Sub(paid.Principal),
		RemainingVAT:       inv.Tax.Sub(paid.VAT),
	}
	remainingTotal := alloc.RemainingPrincipal.Add(alloc.RemainingVAT)
	if !cash.IsPositive() || alloc.Settled() {
		return alloc, nil
	}

	nominal := SplitCash(cash, principalRatio, vatRatio)

	if nominal.Total().GreaterThanOrEqual(remainingTotal.Sub(TrueUpTolerance)) {
		alloc.Split = PaymentSplit{Principal: alloc.RemainingPrincipal, VAT: alloc.RemainingVAT}
		alloc.TrueUp = true
	} else {
		alloc.Split = PaymentSplit{
			Principal: decimal.Min(nominal.Principal, alloc.RemainingPrincipal),
			VAT:       decimal.Min(nominal.VAT, alloc.RemainingVAT),
		}
	}

	s := alloc.Split
	if s.Principal.IsNegative() || s.VAT.IsNegative() ||
		s.Principal.GreaterThan(alloc.RemainingPrincipal) ||
		s.VAT.GreaterThan(alloc.RemainingVAT) ||
		s.Total().GreaterThan(remainingTotal) {
		return Allocation{}, &OverpaymentError{
			Reference:          inv.Reference,
			PrincipalPart:      s.Principal,
			VATPart:            s.VAT,
			RemainingPrincipal: alloc.RemainingPrincipal,
			RemainingVAT:       alloc.RemainingVAT,
		}
	}

	return alloc, nil
}
