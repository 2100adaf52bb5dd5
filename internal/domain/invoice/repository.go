package invoice

import (
	"context"
	"time"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter holds invoice list filtering options
type Filter struct {
	shared.Filter
	Status     *Status
	CustomerID *uuid.UUID
	IssuedFrom *time.Time
	IssuedTo   *time.Time
}

// PeriodTotals is one row of the recalculation sweep: eligible invoice
// totals grouped by calendar month.
type PeriodTotals struct {
	Period       time.Time
	InvoiceCount int64
	TotalCents   int64
	PaidCents    int64
	PendingCents int64
}

// Repository persists invoices
type Repository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]Invoice, int64, error)
	Save(ctx context.Context, inv *Invoice) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	// AggregateEligibleByPeriod computes per-month totals over eligible
	// invoices directly from source rows. Used by the recalculation sweep
	// to repair aggregate drift.
	AggregateEligibleByPeriod(ctx context.Context, tenantID uuid.UUID) ([]PeriodTotals, error)
}
