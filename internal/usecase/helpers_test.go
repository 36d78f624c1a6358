package usecase_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/procureledger/internal/domain"
	"github.com/iho/procureledger/internal/usecase"
	"github.com/iho/procureledger/internal/usecase/mocks"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func strPtr(s string) *string { return &s }

// harness carries the shared collaborators of a use case under test.
type harness struct {
	txm      *mocks.MockTransactionManager
	outbox   *mocks.MockOutboxRepository
	audit    *mocks.MockAuditRepository
	recorder *mocks.MockRecorder
	logs     *bytes.Buffer
	deps     usecase.Deps
}

func newHarness(t *testing.T, actor string) *harness {
	t.Helper()
	h := &harness{
		txm:      mocks.NewMockTransactionManager(),
		outbox:   mocks.NewMockOutboxRepository(),
		audit:    mocks.NewMockAuditRepository(),
		recorder: mocks.NewMockRecorder(),
		logs:     &bytes.Buffer{},
	}
	h.deps = usecase.Deps{
		TxManager: h.txm,
		Outbox:    h.outbox,
		Audit:     h.audit,
		IDGen:     mocks.NewMockIDGenerator(),
		Clock:     mocks.MockClock{T: testNow},
		Identity:  mocks.MockIdentityProvider{UserID: actor},
		Recorder:  h.recorder,
		Logger:    zerolog.New(zerolog.SyncWriter(h.logs)),
	}
	return h
}

func account(id string, typ domain.AccountType, credit, debit string) *domain.Account {
	return &domain.Account{
		ID:           id,
		Name:         id,
		Type:         typ,
		CreditAmount: d(credit),
		DebitAmount:  d(debit),
	}
}
