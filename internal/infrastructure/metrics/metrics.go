package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/iho/procureledger/internal/domain"
)

const namespace = "procureledger"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	EntriesRecorded *prometheus.CounterVec
	EntryAmount     *prometheus.HistogramVec
	CashAllocations *prometheus.CounterVec

	// Budget metrics
	BudgetMutations     *prometheus.CounterVec
	BudgetStatusChanges *prometheus.CounterVec

	// Workflow metrics
	ApprovalDecisions *prometheus.CounterVec
	TasksDispatched   *prometheus.CounterVec

	// Outbox metrics
	OutboxPublished *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EntriesRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "entries_recorded_total",
				Help:      "Total number of transaction flow entries recorded by side",
			},
			[]string{"type"},
		),
		EntryAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "entry_amount",
				Help:      "Amounts posted per entry",
				Buckets:   []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
			},
			[]string{"type"},
		),
		CashAllocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cash_allocations_total",
				Help:      "Total number of cash payments allocated against invoices",
			},
			[]string{"true_up"},
		),
		BudgetMutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "budget_mutations_total",
				Help:      "Request budget reserve, release and consume calls by result",
			},
			[]string{"operation", "result"},
		),
		BudgetStatusChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "budget_status_changes_total",
				Help:      "Fiscal-period budgets moved to a new status",
			},
			[]string{"status"},
		),
		ApprovalDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "approval_decisions_total",
				Help:      "Approval decisions by document kind",
			},
			[]string{"document_kind", "decision"},
		),
		TasksDispatched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tasks_dispatched_total",
				Help:      "Approval tasks opened by document kind",
			},
			[]string{"document_kind"},
		),
		OutboxPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outbox_events_published_total",
				Help:      "Outbox events handed to the publisher by result",
			},
			[]string{"event_type", "result"},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_duration_seconds",
				Help:      "HTTP request duration",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		}),
	}
}

// EntryRecorded implements usecase.Recorder.
func (m *Metrics) EntryRecorded(txType domain.TransactionType, amount decimal.Decimal) {
	m.EntriesRecorded.WithLabelValues(string(txType)).Inc()
	m.EntryAmount.WithLabelValues(string(txType)).Observe(amount.InexactFloat64())
}

// CashAllocated implements usecase.Recorder.
func (m *Metrics) CashAllocated(trueUp bool) {
	m.CashAllocations.WithLabelValues(strconv.FormatBool(trueUp)).Inc()
}

// BudgetMutated implements usecase.Recorder.
func (m *Metrics) BudgetMutated(operation string, err error) {
	m.BudgetMutations.WithLabelValues(operation, resultOf(err)).Inc()
}

// ApprovalDecided implements usecase.Recorder.
func (m *Metrics) ApprovalDecided(kind domain.DocumentKind, decision domain.ApprovalStatus) {
	m.ApprovalDecisions.WithLabelValues(string(kind), string(decision)).Inc()
}

// BudgetStatusChanged implements usecase.Recorder.
func (m *Metrics) BudgetStatusChanged(status domain.BudgetStatus, count int) {
	m.BudgetStatusChanges.WithLabelValues(string(status)).Add(float64(count))
}

// TaskDispatched implements usecase.Recorder.
func (m *Metrics) TaskDispatched(kind domain.DocumentKind) {
	m.TasksDispatched.WithLabelValues(string(kind)).Inc()
}

// EventPublished counts an outbox event delivery attempt.
func (m *Metrics) EventPublished(eventType string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.OutboxPublished.WithLabelValues(eventType, result).Inc()
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInsufficientBudget):
		return "insufficient"
	case errors.Is(err, domain.ErrNegativeInventoryOrBalance):
		return "negative"
	case errors.Is(err, domain.ErrBudgetNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	default:
		return "error"
	}
}
