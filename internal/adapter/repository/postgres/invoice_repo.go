package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/procureledger/internal/domain"
)

// InvoiceRepository implements usecase.InvoiceReader.
type InvoiceRepository struct {
	db DBTX
}

// NewInvoiceRepository creates a new InvoiceRepository.
func NewInvoiceRepository(db DBTX) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// GetByReference looks an invoice up by its reference number, ignoring case.
func (r *InvoiceRepository) GetByReference(ctx context.Context, reference string) (*domain.Invoice, error) {
	query := `
		SELECT id, reference, subtotal, tax, total
		FROM invoices
		WHERE upper(reference) = upper($1)
	`

	var (
		inv                   domain.Invoice
		subtotal, tax, total pgtype.Numeric
	)
	err := r.db.QueryRow(ctx, query, reference).Scan(&inv.ID, &inv.Reference, &subtotal, &tax, &total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvoiceNotFound, reference)
		}
		return nil, err
	}

	inv.Subtotal = numericToDecimal(subtotal)
	inv.Tax = numericToDecimal(tax)
	inv.Total = numericToDecimal(total)

	return &inv, nil
}
