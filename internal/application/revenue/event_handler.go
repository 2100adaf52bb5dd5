package revenue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/billing/backend/internal/domain/invoice"
	"github.com/billing/backend/internal/domain/revenue"
	"github.com/billing/backend/internal/domain/shared"
)

// ProjectionHandler subscribes to the three invoice lifecycle events and
// maintains the per-period revenue aggregate rows. Every mutation runs
// through the store's MutateByPeriod so concurrent events touching the same
// (tenant, period) key are serialized.
type ProjectionHandler struct {
	repo   revenue.Repository
	logger *zap.Logger
}

var _ shared.EventHandler = (*ProjectionHandler)(nil)

// NewProjectionHandler creates a new revenue projection handler
func NewProjectionHandler(repo revenue.Repository, logger *zap.Logger) *ProjectionHandler {
	return &ProjectionHandler{
		repo:   repo,
		logger: logger,
	}
}

// EventTypes returns the invoice lifecycle event types
func (h *ProjectionHandler) EventTypes() []string {
	return invoice.LifecycleEventTypes()
}

// Handle routes an invoice lifecycle event to its delta operation. The event
// set is closed; anything else is a wiring defect.
func (h *ProjectionHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *invoice.InvoiceCreatedEvent:
		return h.handleCreated(ctx, e)
	case *invoice.InvoiceUpdatedEvent:
		return h.handleUpdated(ctx, e)
	case *invoice.InvoiceDeletedEvent:
		return h.handleDeleted(ctx, e)
	default:
		return fmt.Errorf("unexpected event type %s for revenue projection", event.EventType())
	}
}

// periodOf resolves the event's calendar period from the invoice issue date.
// A date that cannot be resolved aborts processing of that event: the error
// is logged here and the event is skipped, never retried.
func (h *ProjectionHandler) periodOf(event shared.DomainEvent, issuedAt time.Time) (time.Time, bool) {
	period, err := revenue.PeriodOf(issuedAt)
	if err != nil {
		h.logger.Warn("skipping event with unresolvable period",
			zap.String("event_id", event.EventID().String()),
			zap.String("event_type", event.EventType()),
			zap.Time("issued_at", issuedAt),
			zap.Error(err),
		)
		return time.Time{}, false
	}
	return period, true
}

func (h *ProjectionHandler) handleCreated(ctx context.Context, event *invoice.InvoiceCreatedEvent) error {
	snap := event.Invoice
	if !snap.Status.IsEligible() {
		return nil
	}
	period, ok := h.periodOf(event, snap.IssuedAt)
	if !ok {
		return nil
	}

	return h.mutate(ctx, event.TenantID(), period, func(existing *revenue.MonthlyRevenue) (*revenue.MonthlyRevenue, revenue.MutationOutcome, error) {
		if existing == nil {
			return revenue.NewFromInvoice(event.TenantID(), period, snap), revenue.MutationWrite, nil
		}
		existing.ApplyCreated(snap)
		if err := existing.CheckInvariants(); err != nil {
			return nil, revenue.MutationNone, err
		}
		return existing, revenue.MutationWrite, nil
	})
}

func (h *ProjectionHandler) handleDeleted(ctx context.Context, event *invoice.InvoiceDeletedEvent) error {
	snap := event.Invoice
	if !snap.Status.IsEligible() {
		return nil
	}
	period, ok := h.periodOf(event, snap.IssuedAt)
	if !ok {
		return nil
	}

	return h.mutate(ctx, event.TenantID(), period, func(existing *revenue.MonthlyRevenue) (*revenue.MonthlyRevenue, revenue.MutationOutcome, error) {
		if existing == nil {
			h.logger.Warn("delete event for period with no aggregate row",
				zap.String("event_id", event.EventID().String()),
				zap.String("invoice_id", snap.ID.String()),
				zap.Time("period", period),
			)
			return nil, revenue.MutationNone, nil
		}
		if remove := existing.ApplyDeleted(snap); remove {
			return nil, revenue.MutationDelete, nil
		}
		if err := existing.CheckInvariants(); err != nil {
			return nil, revenue.MutationNone, err
		}
		return existing, revenue.MutationWrite, nil
	})
}

func (h *ProjectionHandler) handleUpdated(ctx context.Context, event *invoice.InvoiceUpdatedEvent) error {
	previous, current := event.PreviousInvoice, event.Invoice
	period, ok := h.periodOf(event, current.IssuedAt)
	if !ok {
		return nil
	}

	// An issue-date change across a month boundary moves the invoice between
	// aggregate rows: remove it from the old period, then count it in the new
	// one. Everything else is a same-period delta for the classifier.
	if prevPeriod, err := revenue.PeriodOf(previous.IssuedAt); err == nil && !revenue.SamePeriod(prevPeriod, period) {
		return h.handlePeriodMoved(ctx, event, prevPeriod, period)
	}

	return h.mutate(ctx, event.TenantID(), period, func(existing *revenue.MonthlyRevenue) (*revenue.MonthlyRevenue, revenue.MutationOutcome, error) {
		kind := revenue.ClassifyUpdate(previous, current, existing)
		switch kind {
		case revenue.ChangeInsert:
			// no row exists for the period yet: seed one from the current
			// snapshot when eligible, otherwise nothing to project
			if !current.Status.IsEligible() {
				return nil, revenue.MutationNone, nil
			}
			return revenue.NewFromInvoice(event.TenantID(), period, current), revenue.MutationWrite, nil

		case revenue.ChangeEligibleToIneligible:
			if remove := existing.ApplyEligibilityLost(previous); remove {
				return nil, revenue.MutationDelete, nil
			}

		case revenue.ChangeIneligibleToEligible:
			existing.ApplyEligibilityGained(current)

		case revenue.ChangeAmount:
			existing.ApplyAmountChanged(previous, current)

		case revenue.ChangeStatus:
			existing.ApplyStatusChanged(previous, current)

		case revenue.ChangeNone:
			h.logger.Debug("invoice update requires no aggregate mutation",
				zap.String("event_id", event.EventID().String()),
				zap.String("invoice_id", current.ID.String()),
			)
			return nil, revenue.MutationNone, nil
		}

		if err := existing.CheckInvariants(); err != nil {
			return nil, revenue.MutationNone, err
		}
		return existing, revenue.MutationWrite, nil
	})
}

// handlePeriodMoved relocates an invoice whose issue date crossed a month
// boundary. The previous snapshot leaves the old period's row and the current
// snapshot enters the new period's, so the invoice is counted in exactly one
// period afterwards. Amount and status changes ride along: the old row gives
// up the previous amount/bucket, the new row gains the current ones.
func (h *ProjectionHandler) handlePeriodMoved(ctx context.Context, event *invoice.InvoiceUpdatedEvent, oldPeriod, newPeriod time.Time) error {
	previous, current := event.PreviousInvoice, event.Invoice

	if previous.Status.IsEligible() {
		err := h.mutate(ctx, event.TenantID(), oldPeriod, func(existing *revenue.MonthlyRevenue) (*revenue.MonthlyRevenue, revenue.MutationOutcome, error) {
			if existing == nil {
				h.logger.Warn("period move from period with no aggregate row",
					zap.String("event_id", event.EventID().String()),
					zap.String("invoice_id", current.ID.String()),
					zap.Time("period", oldPeriod),
				)
				return nil, revenue.MutationNone, nil
			}
			if remove := existing.ApplyEligibilityLost(previous); remove {
				return nil, revenue.MutationDelete, nil
			}
			if err := existing.CheckInvariants(); err != nil {
				return nil, revenue.MutationNone, err
			}
			return existing, revenue.MutationWrite, nil
		})
		if err != nil {
			return err
		}
	}

	if !current.Status.IsEligible() {
		return nil
	}
	return h.mutate(ctx, event.TenantID(), newPeriod, func(existing *revenue.MonthlyRevenue) (*revenue.MonthlyRevenue, revenue.MutationOutcome, error) {
		if existing == nil {
			return revenue.NewFromInvoice(event.TenantID(), newPeriod, current), revenue.MutationWrite, nil
		}
		existing.ApplyCreated(current)
		if err := existing.CheckInvariants(); err != nil {
			return nil, revenue.MutationNone, err
		}
		return existing, revenue.MutationWrite, nil
	})
}

// mutate funnels a delta through the store's serialized per-period mutation
// path, logging store failures with event context. Failed deltas are dropped;
// the recalculation sweep is the repair mechanism.
func (h *ProjectionHandler) mutate(ctx context.Context, tenantID uuid.UUID, period time.Time, fn revenue.MutationFunc) error {
	if err := h.repo.MutateByPeriod(ctx, tenantID, period, fn); err != nil {
		h.logger.Error("failed to apply revenue delta",
			zap.String("tenant_id", tenantID.String()),
			zap.Time("period", period),
			zap.Error(err),
		)
		return err
	}
	return nil
}
