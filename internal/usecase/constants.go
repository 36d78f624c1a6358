package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds one unit of work, retries included.
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is the replay window used when none is configured.
	IdempotencyKeyTTL = 24 * time.Hour

	// ReconcileConcurrency bounds parallel account checks during a full reconciliation.
	ReconcileConcurrency = 8
)

// Budget operation labels used in metrics and audit records.
const (
	BudgetOpReserve = "reserve"
	BudgetOpRelease = "release"
	BudgetOpConsume = "consume"
)
