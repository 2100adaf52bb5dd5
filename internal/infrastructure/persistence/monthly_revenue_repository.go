package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/billing/backend/internal/domain/revenue"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/infrastructure/persistence/models"
)

// GormMonthlyRevenueRepository implements revenue.Repository using GORM
type GormMonthlyRevenueRepository struct {
	db *gorm.DB
}

var _ revenue.Repository = (*GormMonthlyRevenueRepository)(nil)

// NewGormMonthlyRevenueRepository creates a new GormMonthlyRevenueRepository
func NewGormMonthlyRevenueRepository(db *gorm.DB) *GormMonthlyRevenueRepository {
	return &GormMonthlyRevenueRepository{db: db}
}

// Create inserts a new aggregate row
func (r *GormMonthlyRevenueRepository) Create(ctx context.Context, row *revenue.MonthlyRevenue) error {
	model := models.MonthlyRevenueModelFromDomain(row)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByID finds an aggregate row by ID for a tenant
func (r *GormMonthlyRevenueRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*revenue.MonthlyRevenue, error) {
	var model models.MonthlyRevenueModel
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

// Update persists changes to an existing aggregate row
func (r *GormMonthlyRevenueRepository) Update(ctx context.Context, row *revenue.MonthlyRevenue) error {
	model := models.MonthlyRevenueModelFromDomain(row)
	result := r.db.WithContext(ctx).
		Model(&models.MonthlyRevenueModel{}).
		Where("tenant_id = ? AND id = ?", row.TenantID, row.ID).
		Updates(map[string]any{
			"invoice_count": model.InvoiceCount,
			"total_cents":   model.TotalCents,
			"paid_cents":    model.PaidCents,
			"pending_cents": model.PendingCents,
			"source":        model.Source,
			"updated_at":    model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes an aggregate row
func (r *GormMonthlyRevenueRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Delete(&models.MonthlyRevenueModel{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Upsert inserts the row or replaces the values of the row sharing its id
func (r *GormMonthlyRevenueRepository) Upsert(ctx context.Context, row *revenue.MonthlyRevenue) error {
	model := models.MonthlyRevenueModelFromDomain(row)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(mutableRevenueColumns),
		}).
		Create(model).Error
}

// UpsertByPeriod inserts the row or replaces the values of the row sharing
// its (tenant_id, period) key
func (r *GormMonthlyRevenueRepository) UpsertByPeriod(ctx context.Context, row *revenue.MonthlyRevenue) error {
	model := models.MonthlyRevenueModelFromDomain(row)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "period"}},
			DoUpdates: clause.AssignmentColumns(mutableRevenueColumns),
		}).
		Create(model).Error
}

var mutableRevenueColumns = []string{
	"invoice_count", "total_cents", "paid_cents", "pending_cents", "source", "updated_at",
}

// FindByPeriod returns the aggregate row for a single period, or
// shared.ErrNotFound when no invoices have ever landed in that month
func (r *GormMonthlyRevenueRepository) FindByPeriod(ctx context.Context, tenantID uuid.UUID, period time.Time) (*revenue.MonthlyRevenue, error) {
	var model models.MonthlyRevenueModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND period = ?", tenantID, period.UTC()).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByDateRange returns all rows with start <= period <= end in
// chronological order
func (r *GormMonthlyRevenueRepository) FindByDateRange(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]revenue.MonthlyRevenue, error) {
	var revenueModels []models.MonthlyRevenueModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND period >= ? AND period <= ?", tenantID, start.UTC(), end.UTC()).
		Order("period ASC").
		Find(&revenueModels).Error; err != nil {
		return nil, err
	}
	rows := make([]revenue.MonthlyRevenue, len(revenueModels))
	for i, model := range revenueModels {
		rows[i] = *model.ToDomain()
	}
	return rows, nil
}

// mutateSeedRetries bounds how often a MutateByPeriod call that lost the
// first-insert race for a fresh period row is retried against the winner's row
const mutateSeedRetries = 3

// MutateByPeriod runs fn inside a transaction holding a row-level write lock
// on the period's aggregate row, serializing concurrent read-modify-write
// cycles on the same (tenant, period) key. SQLite serializes writers at the
// database level, so the explicit lock clause is applied on PostgreSQL only.
//
// The lock only exists once a row does: two concurrent first events for a new
// period can both read nil and race to insert. The loser's insert hits the
// (tenant_id, period) unique index; the whole transaction is then retried so
// its delta lands on the winner's row instead of being dropped.
func (r *GormMonthlyRevenueRepository) MutateByPeriod(ctx context.Context, tenantID uuid.UUID, period time.Time, fn revenue.MutationFunc) error {
	var err error
	for attempt := 0; attempt < mutateSeedRetries; attempt++ {
		err = r.mutateByPeriod(ctx, tenantID, period, fn)
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}
	return err
}

func (r *GormMonthlyRevenueRepository) mutateByPeriod(ctx context.Context, tenantID uuid.UUID, period time.Time, fn revenue.MutationFunc) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Where("tenant_id = ? AND period = ?", tenantID, period.UTC())
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var existing *revenue.MonthlyRevenue
		var model models.MonthlyRevenueModel
		err := query.First(&model).Error
		switch {
		case err == nil:
			existing = model.ToDomain()
		case errors.Is(err, gorm.ErrRecordNotFound):
			existing = nil
		default:
			return err
		}

		next, outcome, err := fn(existing)
		if err != nil {
			return err
		}

		switch outcome {
		case revenue.MutationNone:
			return nil
		case revenue.MutationDelete:
			if existing == nil {
				return nil
			}
			return tx.Delete(&models.MonthlyRevenueModel{}, "tenant_id = ? AND id = ?", tenantID, existing.ID).Error
		case revenue.MutationWrite:
			nextModel := models.MonthlyRevenueModelFromDomain(next)
			if existing == nil {
				return tx.Create(nextModel).Error
			}
			return tx.Model(&models.MonthlyRevenueModel{}).
				Where("tenant_id = ? AND id = ?", tenantID, existing.ID).
				Updates(map[string]any{
					"invoice_count": nextModel.InvoiceCount,
					"total_cents":   nextModel.TotalCents,
					"paid_cents":    nextModel.PaidCents,
					"pending_cents": nextModel.PendingCents,
					"source":        nextModel.Source,
					"updated_at":    nextModel.UpdatedAt,
				}).Error
		default:
			return shared.NewDomainError("INVALID_INPUT", "unknown mutation outcome")
		}
	})
}

// ReplaceAllForTenant atomically swaps every aggregate row of a tenant for
// the given set
func (r *GormMonthlyRevenueRepository) ReplaceAllForTenant(ctx context.Context, tenantID uuid.UUID, rows []revenue.MonthlyRevenue) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ?", tenantID).
			Delete(&models.MonthlyRevenueModel{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		revenueModels := make([]models.MonthlyRevenueModel, len(rows))
		for i := range rows {
			revenueModels[i] = *models.MonthlyRevenueModelFromDomain(&rows[i])
		}
		return tx.CreateInBatches(revenueModels, 100).Error
	})
}
