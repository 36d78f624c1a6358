package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/procureledger/internal/adapter/http/dto"
	"github.com/iho/procureledger/internal/domain"
	"github.com/iho/procureledger/internal/usecase"
)

type accountServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	getFn    func(ctx context.Context, id string) (*domain.Account, error)
	listFn   func(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error)
}

func (s *accountServiceStub) CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
	return s.createFn(ctx, input)
}

func (s *accountServiceStub) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return s.getFn(ctx, id)
}

func (s *accountServiceStub) ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error) {
	return s.listFn(ctx, input)
}

type historyServiceStub func(ctx context.Context, accountID string, dateRange *domain.DateRange) ([]*domain.TransactionFlowEntry, error)

func (f historyServiceStub) GetAccountHistory(ctx context.Context, accountID string, dateRange *domain.DateRange) ([]*domain.TransactionFlowEntry, error) {
	return f(ctx, accountID, dateRange)
}

func TestAccountHandlerCreateReturnsNormalSideBalance(t *testing.T) {
	var captured usecase.CreateAccountInput
	h := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			captured = input
			return &domain.Account{
				ID:           "acc-vat",
				Name:         input.Name,
				CodeID:       input.CodeID,
				Type:         domain.AccountTypeLiability,
				CreditAmount: decimal.NewFromInt(90),
				DebitAmount:  decimal.NewFromInt(15),
			}, nil
		},
	}, nil)

	body, _ := json.Marshal(dto.CreateAccountRequest{Name: "VAT collected", CodeID: "2200"})
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/accounts", bytes.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if captured != (usecase.CreateAccountInput{Name: "VAT collected", CodeID: "2200"}) {
		t.Fatalf("input = %+v", captured)
	}

	var resp dto.AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Type != "liability" || !resp.Balance.Equal(decimal.NewFromInt(75)) {
		t.Fatalf("response = %+v", resp)
	}
}

func TestAccountHandler_CreateFailures(t *testing.T) {
	validBody := `{"name":"Bank","code_id":"code-1100"}`

	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
	}{
		{name: "malformed json", body: "{invalid json", wantStatus: http.StatusBadRequest},
		{name: "missing code", body: `{"name":"Bank"}`, wantStatus: http.StatusBadRequest},
		{name: "unknown hierarchy code", body: validBody, serviceErr: domain.ErrNodeNotFound, wantStatus: http.StatusNotFound},
		{name: "bad account name", body: validBody, serviceErr: domain.ErrInvalidAccountName, wantStatus: http.StatusBadRequest},
		{name: "storage failure", body: validBody, serviceErr: errors.New("db error"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := NewAccountHandler(&accountServiceStub{
				createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
					called = true
					return nil, tt.serviceErr
				},
			}, nil)

			rec := httptest.NewRecorder()
			handler.Create(rec, httptest.NewRequest(http.MethodPost, "/accounts", bytes.NewBufferString(tt.body)))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if called != (tt.serviceErr != nil) {
				t.Fatalf("service called = %v", called)
			}
		})
	}
}

func TestAccountHandlerGet(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "found", wantStatus: http.StatusOK},
		{name: "missing", err: domain.ErrAccountNotFound, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAccountHandler(&accountServiceStub{
				getFn: func(ctx context.Context, id string) (*domain.Account, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &domain.Account{ID: id, Type: domain.AccountTypeAsset}, nil
				},
			}, nil)

			req := setChiURLParams(httptest.NewRequest(http.MethodGet, "/accounts/acc-cash", nil), "id", "acc-cash")
			rec := httptest.NewRecorder()
			h.Get(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestAccountHandlerListPaging(t *testing.T) {
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{query: "", wantLimit: 20, wantOffset: 0},
		{query: "?limit=5&offset=2", wantLimit: 5, wantOffset: 2},
		{query: "?limit=5000", wantLimit: domain.MaxPageSize, wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run("query"+tt.query, func(t *testing.T) {
			var got usecase.ListAccountsInput
			h := NewAccountHandler(&accountServiceStub{
				listFn: func(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error) {
					got = input
					return []*domain.Account{{ID: "acc-1"}, {ID: "acc-2"}}, nil
				},
			}, nil)

			rec := httptest.NewRecorder()
			h.List(rec, httptest.NewRequest(http.MethodGet, "/accounts"+tt.query, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if got.Limit != tt.wantLimit || got.Offset != tt.wantOffset {
				t.Fatalf("paging = %d/%d, want %d/%d", got.Limit, got.Offset, tt.wantLimit, tt.wantOffset)
			}

			var resp dto.ListAccountsResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(resp.Accounts) != 2 {
				t.Fatalf("accounts = %d, want 2", len(resp.Accounts))
			}
		})
	}
}

func TestAccountHandler_History(t *testing.T) {
	var gotRange *domain.DateRange
	handler := NewAccountHandler(nil, historyServiceStub(func(ctx context.Context, accountID string, dateRange *domain.DateRange) ([]*domain.TransactionFlowEntry, error) {
		if accountID != "acc-ar" {
			t.Fatalf("expected acc-ar, got %s", accountID)
		}
		gotRange = dateRange
		return []*domain.TransactionFlowEntry{{
			ID:           "e-1",
			AccountID:    "acc-ar",
			Type:         domain.TransactionTypeCredit,
			Amount:       decimal.RequireFromString("43.48"),
			BalanceAfter: decimal.RequireFromString("56.52"),
			Related:      domain.InvoiceRef{ID: "inv-10"},
		}}, nil
	}))

	req := httptest.NewRequest(http.MethodGet, "/accounts/acc-ar/history?from=2024-03-01&to=2024-03-31T23:59:59Z", nil)
	req = setChiURLParams(req, "id", "acc-ar")
	rec := httptest.NewRecorder()

	handler.History(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	wantFrom := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if gotRange == nil || !gotRange.From.Equal(wantFrom) || gotRange.To.Day() != 31 {
		t.Fatalf("unexpected range: %+v", gotRange)
	}

	var resp []dto.EntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].Related == nil || resp[0].Related.Kind != "invoice" {
		t.Fatalf("unexpected entries: %+v", resp)
	}
}

func TestAccountHandler_HistoryRejectsBadRange(t *testing.T) {
	handler := NewAccountHandler(nil, historyServiceStub(func(ctx context.Context, accountID string, dateRange *domain.DateRange) ([]*domain.TransactionFlowEntry, error) {
		t.Fatal("history should not be loaded for a bad range")
		return nil, nil
	}))

	for _, q := range []string{"from=yesterday", "from=2024-03-31&to=2024-03-01"} {
		req := setChiURLParams(httptest.NewRequest(http.MethodGet, "/accounts/acc-1/history?"+q, nil), "id", "acc-1")
		rec := httptest.NewRecorder()

		handler.History(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", q, rec.Code)
		}
	}
}

func TestAccountHandler_HistoryWithoutRangePassesNil(t *testing.T) {
	handler := NewAccountHandler(nil, historyServiceStub(func(ctx context.Context, accountID string, dateRange *domain.DateRange) ([]*domain.TransactionFlowEntry, error) {
		if dateRange != nil {
			t.Fatalf("expected nil range, got %+v", dateRange)
		}
		return nil, nil
	}))

	req := setChiURLParams(httptest.NewRequest(http.MethodGet, "/accounts/acc-1/history", nil), "id", "acc-1")
	rec := httptest.NewRecorder()
	handler.History(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "[]\n" {
		t.Fatalf("expected empty list, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestAccountHandlerHistorySingleDay(t *testing.T) {
	posted := []*domain.TransactionFlowEntry{
		{ID: "e-early", AccountID: "acc-cash", Type: domain.TransactionTypeDebit, Amount: decimal.NewFromInt(10),
			TransactionDate: time.Date(2026, 10, 15, 23, 30, 0, 0, time.UTC)},
		{ID: "e-afternoon", AccountID: "acc-cash", Type: domain.TransactionTypeDebit, Amount: decimal.NewFromInt(25),
			TransactionDate: time.Date(2026, 10, 16, 14, 0, 0, 0, time.UTC)},
		{ID: "e-late", AccountID: "acc-cash", Type: domain.TransactionTypeDebit, Amount: decimal.NewFromInt(5),
			TransactionDate: time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)},
	}
	h := NewAccountHandler(nil, historyServiceStub(func(ctx context.Context, accountID string, dateRange *domain.DateRange) ([]*domain.TransactionFlowEntry, error) {
		var out []*domain.TransactionFlowEntry
		for _, e := range posted {
			if dateRange.Contains(e.TransactionDate) {
				out = append(out, e)
			}
		}
		return out, nil
	}))

	req := setChiURLParams(httptest.NewRequest(http.MethodGet, "/accounts/acc-cash/history?from=2026-10-16&to=2026-10-16", nil), "id", "acc-cash")
	rec := httptest.NewRecorder()
	h.History(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp []dto.EntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp) != 1 || resp[0].ID != "e-afternoon" {
		t.Fatalf("entries = %+v, want only e-afternoon", resp)
	}
}
