package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/billing/backend/internal/domain/invoice"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/infrastructure/persistence/models"
)

// GormInvoiceRepository implements invoice.Repository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

var _ invoice.Repository = (*GormInvoiceRepository)(nil)

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByIDForTenant finds an invoice by ID for a specific tenant
func (r *GormInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*invoice.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all invoices for a tenant with filtering and
// pagination, returning the page of items and the unpaginated total.
func (r *GormInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter invoice.Filter) ([]invoice.Invoice, int64, error) {
	var total int64
	countQuery := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("tenant_id = ?", tenantID)
	if err := r.applyFilterConditions(countQuery, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyFilterConditions(query, filter)

	sortField := ValidateSortField(filter.OrderBy, InvoiceSortFields, "issued_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", sortField, sortOrder))

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if offset := (filter.Page - 1) * filter.PageSize; offset > 0 {
			query = query.Offset(offset)
		}
	}

	var invoiceModels []models.InvoiceModel
	if err := query.Find(&invoiceModels).Error; err != nil {
		return nil, 0, err
	}

	invoices := make([]invoice.Invoice, len(invoiceModels))
	for i, model := range invoiceModels {
		invoices[i] = *model.ToDomain()
	}
	return invoices, total, nil
}

// Save creates or updates an invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, inv *invoice.Invoice) error {
	model := models.InvoiceModelFromDomain(inv)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes an invoice for a tenant
func (r *GormInvoiceRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Delete(&models.InvoiceModel{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AggregateEligibleByPeriod computes per-month totals over eligible invoices
// grouped by the calendar month of issued_at, in chronological order.
func (r *GormInvoiceRepository) AggregateEligibleByPeriod(ctx context.Context, tenantID uuid.UUID) ([]invoice.PeriodTotals, error) {
	type row struct {
		PeriodKey    string
		InvoiceCount int64
		TotalCents   int64
		PaidCents    int64
		PendingCents int64
	}

	// bucket by the UTC month regardless of the session time zone, matching
	// the period the event-delta path derives from issued_at
	periodExpr := "to_char(issued_at AT TIME ZONE 'UTC', 'YYYY-MM')"
	if r.db.Dialector.Name() == "sqlite" {
		periodExpr = "strftime('%Y-%m', issued_at)"
	}

	var rows []row
	if err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Select(periodExpr+" AS period_key, "+
			"COUNT(*) AS invoice_count, "+
			"COALESCE(SUM(amount_cents), 0) AS total_cents, "+
			"COALESCE(SUM(CASE WHEN status = ? THEN amount_cents ELSE 0 END), 0) AS paid_cents, "+
			"COALESCE(SUM(CASE WHEN status = ? THEN amount_cents ELSE 0 END), 0) AS pending_cents",
			invoice.StatusPaid.String(), invoice.StatusPending.String()).
		Where("tenant_id = ? AND status IN ?", tenantID,
			[]string{invoice.StatusPending.String(), invoice.StatusPaid.String()}).
		Group("period_key").
		Order("period_key ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make([]invoice.PeriodTotals, len(rows))
	for i, re := range rows {
		period, err := time.ParseInLocation("2006-01", re.PeriodKey, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse period key %q: %w", re.PeriodKey, err)
		}
		totals[i] = invoice.PeriodTotals{
			Period:       period,
			InvoiceCount: re.InvoiceCount,
			TotalCents:   re.TotalCents,
			PaidCents:    re.PaidCents,
			PendingCents: re.PendingCents,
		}
	}
	return totals, nil
}

// applyFilterConditions applies filter conditions without pagination or sorting
func (r *GormInvoiceRepository) applyFilterConditions(query *gorm.DB, filter invoice.Filter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status.String())
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.IssuedFrom != nil {
		query = query.Where("issued_at >= ?", *filter.IssuedFrom)
	}
	if filter.IssuedTo != nil {
		query = query.Where("issued_at <= ?", *filter.IssuedTo)
	}
	return query
}
