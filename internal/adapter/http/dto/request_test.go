package dto

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/procureledger/internal/domain"
)

func TestValidate(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		req     any
		wantErr string
	}{
		{
			name: "valid entry",
			req: &RecordEntryRequest{
				TransactionDate: date,
				AccountID:       "acc-1",
				Type:            "credit",
				Amount:          decimal.NewFromInt(10),
			},
		},
		{
			name: "zero amount",
			req: &RecordEntryRequest{
				TransactionDate: date,
				AccountID:       "acc-1",
				Type:            "debit",
			},
			wantErr: "'amount' must be a positive amount",
		},
		{
			name: "unknown type",
			req: &RecordEntryRequest{
				TransactionDate: date,
				AccountID:       "acc-1",
				Type:            "transfer",
				Amount:          decimal.NewFromInt(1),
			},
			wantErr: "'type' must be one of [credit debit]",
		},
		{
			name:    "missing date and account",
			req:     &RecordEntryRequest{Type: "credit", Amount: decimal.NewFromInt(1)},
			wantErr: "'transaction_date' is required; 'account_id' is required",
		},
		{
			name:    "refer without target",
			req:     &DecisionRequest{Decision: "refer"},
			wantErr: "'refer_to' is required",
		},
		{
			name: "approve without target",
			req:  &DecisionRequest{Decision: "approve"},
		},
		{
			name:    "scope reserve needs a period",
			req:     &ReserveForScopeRequest{Amount: decimal.NewFromInt(5)},
			wantErr: "'fiscal_period_id' is required",
		},
		{
			name: "reserve for a purchase order",
			req: &ReserveRequest{Amount: decimal.NewFromInt(5),
				BudgetDocument: BudgetDocument{DocumentKind: "purchase_order", DocumentID: "po-1"}},
		},
		{
			name:    "reserve document without id",
			req:     &ReserveRequest{Amount: decimal.NewFromInt(5), BudgetDocument: BudgetDocument{DocumentKind: "payment_order"}},
			wantErr: "'document_id' is required with DocumentKind",
		},
		{
			name:    "reserve document without kind",
			req:     &ReserveRequest{Amount: decimal.NewFromInt(5), BudgetDocument: BudgetDocument{DocumentID: "po-1"}},
			wantErr: "'document_kind' is required with DocumentID",
		},
		{
			name: "reserve for an invoice",
			req: &ReserveForScopeRequest{FiscalPeriodID: "fy-2024", Amount: decimal.NewFromInt(5),
				BudgetDocument: BudgetDocument{DocumentKind: "invoice", DocumentID: "inv-1"}},
			wantErr: "'document_kind' must be one of [purchase_order payment_order]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.req)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRecordEntryRequestDecodesAmountStrings(t *testing.T) {
	var req RecordEntryRequest
	body := `{"transaction_date":"2024-03-15T00:00:00Z","account_id":"acc-1","type":"credit","amount":"43.48",
		"related":{"kind":"invoice","id":"inv-10"},"related_accounts":{"acc-cash":"cash"}}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	input, err := req.ToUseCaseInput()
	require.NoError(t, err)

	assert.True(t, input.Amount.Equal(decimal.RequireFromString("43.48")))
	assert.Equal(t, domain.TransactionTypeCredit, input.Type)
	require.NotNil(t, input.Related)
	assert.Equal(t, domain.RelatedInvoice, input.Related.Kind())
	assert.Equal(t, domain.RoleCash, input.RelatedAccounts["acc-cash"])
}

func TestRecordEntryRequestRejectsUnknownRelatedKind(t *testing.T) {
	req := RecordEntryRequest{Related: &RelatedEntityRequest{Kind: "spaceship", ID: "x"}}
	_, err := req.ToUseCaseInput()
	assert.Error(t, err)
}

func TestChainFromDomainDerivesOverall(t *testing.T) {
	doc := domain.DocumentRef{Kind: domain.DocumentPurchaseOrder, ID: "po-1"}
	chain := []*domain.ApprovalTransaction{
		{ID: "at-1", Document: doc, Status: domain.ApprovalApprove, StepOrder: 1},
		{ID: "at-2", Document: doc, Status: domain.ApprovalReject, StepOrder: 2},
	}

	resp := ChainFromDomain(chain)
	assert.Equal(t, string(domain.OverallReject), resp.Overall)
	require.Len(t, resp.Approvals, 2)
	assert.Equal(t, "purchase_order", resp.Approvals[1].DocumentKind)
}

func TestBudgetDocument(t *testing.T) {
	assert.Nil(t, BudgetDocument{}.Document())

	doc := BudgetDocument{DocumentKind: "payment_order", DocumentID: "pay-1"}.Document()
	require.NotNil(t, doc)
	assert.Equal(t, domain.DocumentRef{Kind: domain.DocumentPaymentOrder, ID: "pay-1"}, *doc)
}
