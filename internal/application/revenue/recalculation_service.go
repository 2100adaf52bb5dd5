package revenue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/billing/backend/internal/domain/invoice"
	"github.com/billing/backend/internal/domain/revenue"
	"github.com/billing/backend/internal/domain/shared"
)

// RecalculationResult reports the outcome of a full recalculation sweep
type RecalculationResult struct {
	TenantID     uuid.UUID `json:"tenant_id"`
	PeriodCount  int       `json:"period_count"`
	InvoiceCount int64     `json:"invoice_count"`
	CompletedAt  time.Time `json:"completed_at"`
}

// RecalculationService rebuilds a tenant's aggregate rows directly from
// source invoices. It is the compensating control for deltas lost to
// handler failures: correctness drift is repaired wholesale, not patched.
type RecalculationService struct {
	invoiceRepo invoice.Repository
	revenueRepo revenue.Repository
	logger      *zap.Logger
}

// NewRecalculationService creates a new RecalculationService
func NewRecalculationService(invoiceRepo invoice.Repository, revenueRepo revenue.Repository, logger *zap.Logger) *RecalculationService {
	return &RecalculationService{
		invoiceRepo: invoiceRepo,
		revenueRepo: revenueRepo,
		logger:      logger,
	}
}

// Recalculate replaces every aggregate row of the tenant with totals
// computed from eligible source invoices, tagging provenance RECALCULATION.
func (s *RecalculationService) Recalculate(ctx context.Context, tenantID uuid.UUID) (*RecalculationResult, error) {
	totals, err := s.invoiceRepo.AggregateEligibleByPeriod(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	rows := make([]revenue.MonthlyRevenue, 0, len(totals))
	var invoiceCount int64
	for _, t := range totals {
		if t.InvoiceCount == 0 {
			continue
		}
		row := revenue.MonthlyRevenue{
			TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
			Period:              t.Period,
			InvoiceCount:        t.InvoiceCount,
			TotalCents:          t.TotalCents,
			PaidCents:           t.PaidCents,
			PendingCents:        t.PendingCents,
			Source:              revenue.SourceRecalculation,
		}
		if err := row.CheckInvariants(); err != nil {
			return nil, err
		}
		rows = append(rows, row)
		invoiceCount += t.InvoiceCount
	}

	if err := s.revenueRepo.ReplaceAllForTenant(ctx, tenantID, rows); err != nil {
		return nil, err
	}

	s.logger.Info("revenue recalculation completed",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("period_count", len(rows)),
		zap.Int64("invoice_count", invoiceCount),
	)

	return &RecalculationResult{
		TenantID:     tenantID,
		PeriodCount:  len(rows),
		InvoiceCount: invoiceCount,
		CompletedAt:  time.Now(),
	}, nil
}
