package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/procureledger/internal/domain"
	"github.com/iho/procureledger/internal/usecase"
)

var _ usecase.Recorder = (*Metrics)(nil)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.EntryRecorded(domain.TransactionTypeCredit, decimal.NewFromInt(100))
	m.TaskDispatched(domain.DocumentPurchaseOrder)

	families, err := registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["procureledger_entries_recorded_total"])
	assert.True(t, names["procureledger_tasks_dispatched_total"])
}

func TestRecorderCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.CashAllocated(true)
	m.CashAllocated(false)
	m.CashAllocated(true)
	m.ApprovalDecided(domain.DocumentPaymentOrder, domain.ApprovalApprove)
	m.BudgetStatusChanged(domain.BudgetStatusActive, 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CashAllocations.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CashAllocations.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ApprovalDecisions.WithLabelValues("payment_order", "approve")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.BudgetStatusChanges.WithLabelValues("active")))
}

func TestBudgetMutatedResultLabels(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{&domain.InsufficientBudgetError{BudgetID: "rb-1"}, "insufficient"},
		{fmt.Errorf("%w: rb-1", domain.ErrNegativeInventoryOrBalance), "negative"},
		{fmt.Errorf("%w: rb-9", domain.ErrBudgetNotFound), "not_found"},
		{domain.ErrInvalidAmount, "invalid_amount"},
		{errors.New("connection reset"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			m := New(prometheus.NewRegistry())
			m.BudgetMutated("reserve", tt.err)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.BudgetMutations.WithLabelValues("reserve", tt.want)))
		})
	}
}
