package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/billing/backend/internal/domain/revenue"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/infrastructure/persistence/models"
)

func setupRevenueTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.MonthlyRevenueModel{}))
	return db
}

func newRevenueRow(tenantID uuid.UUID, period time.Time, count, total, paid, pending int64) *revenue.MonthlyRevenue {
	return &revenue.MonthlyRevenue{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Period:              period,
		InvoiceCount:        count,
		TotalCents:          total,
		PaidCents:           paid,
		PendingCents:        pending,
		Source:              revenue.SourceEventDelta,
	}
}

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func TestMonthlyRevenueRepository_CreateAndFind(t *testing.T) {
	db := setupRevenueTestDB(t)
	repo := NewGormMonthlyRevenueRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	row := newRevenueRow(tenantID, month(2026, time.March), 2, 15000, 10000, 5000)
	require.NoError(t, repo.Create(ctx, row))

	t.Run("by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, tenantID, row.ID)
		require.NoError(t, err)
		assert.Equal(t, row.ID, found.ID)
		assert.Equal(t, int64(15000), found.TotalCents)
	})

	t.Run("by period", func(t *testing.T) {
		found, err := repo.FindByPeriod(ctx, tenantID, month(2026, time.March))
		require.NoError(t, err)
		assert.Equal(t, row.ID, found.ID)
		assert.Equal(t, int64(2), found.InvoiceCount)
		assert.True(t, found.Period.Equal(month(2026, time.March)))
	})

	t.Run("period without data returns not found", func(t *testing.T) {
		_, err := repo.FindByPeriod(ctx, tenantID, month(2026, time.April))
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("tenant isolation", func(t *testing.T) {
		_, err := repo.FindByPeriod(ctx, uuid.New(), month(2026, time.March))
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestMonthlyRevenueRepository_UpdateAndDelete(t *testing.T) {
	db := setupRevenueTestDB(t)
	repo := NewGormMonthlyRevenueRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	row := newRevenueRow(tenantID, month(2026, time.May), 1, 1000, 1000, 0)
	require.NoError(t, repo.Create(ctx, row))

	row.InvoiceCount = 2
	row.TotalCents = 3000
	row.PendingCents = 2000
	require.NoError(t, repo.Update(ctx, row))

	found, err := repo.FindByID(ctx, tenantID, row.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), found.InvoiceCount)
	assert.Equal(t, int64(3000), found.TotalCents)
	assert.Equal(t, int64(2000), found.PendingCents)

	require.NoError(t, repo.Delete(ctx, tenantID, row.ID))
	_, err = repo.FindByID(ctx, tenantID, row.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.ErrorIs(t, repo.Update(ctx, row), shared.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, tenantID, row.ID), shared.ErrNotFound)
}

func TestMonthlyRevenueRepository_UpsertByPeriod(t *testing.T) {
	db := setupRevenueTestDB(t)
	repo := NewGormMonthlyRevenueRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	period := month(2026, time.June)

	first := newRevenueRow(tenantID, period, 1, 1000, 0, 1000)
	require.NoError(t, repo.UpsertByPeriod(ctx, first))

	// second upsert for the same (tenant, period) replaces values, keeps one row
	second := newRevenueRow(tenantID, period, 3, 9000, 6000, 3000)
	require.NoError(t, repo.UpsertByPeriod(ctx, second))

	rows, err := repo.FindByDateRange(ctx, tenantID, period, period)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(3), rows[0].InvoiceCount)
	assert.Equal(t, int64(9000), rows[0].TotalCents)
	assert.Equal(t, int64(6000), rows[0].PaidCents)
	assert.Equal(t, first.ID, rows[0].ID)
}

func TestMonthlyRevenueRepository_FindByDateRange(t *testing.T) {
	db := setupRevenueTestDB(t)
	repo := NewGormMonthlyRevenueRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	for m := time.January; m <= time.June; m++ {
		require.NoError(t, repo.Create(ctx, newRevenueRow(tenantID, month(2026, m), 1, int64(m)*100, int64(m)*100, 0)))
	}

	rows, err := repo.FindByDateRange(ctx, tenantID, month(2026, time.February), month(2026, time.April))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.True(t, rows[0].Period.Equal(month(2026, time.February)))
	assert.True(t, rows[1].Period.Equal(month(2026, time.March)))
	assert.True(t, rows[2].Period.Equal(month(2026, time.April)))

	t.Run("empty range", func(t *testing.T) {
		rows, err := repo.FindByDateRange(ctx, tenantID, month(2027, time.January), month(2027, time.December))
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestMonthlyRevenueRepository_MutateByPeriod(t *testing.T) {
	db := setupRevenueTestDB(t)
	repo := NewGormMonthlyRevenueRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	period := month(2026, time.July)

	t.Run("creates when no row exists", func(t *testing.T) {
		err := repo.MutateByPeriod(ctx, tenantID, period, func(existing *revenue.MonthlyRevenue) (*revenue.MonthlyRevenue, revenue.MutationOutcome, error) {
			require.Nil(t, existing)
			return newRevenueRow(tenantID, period, 1, 2500, 2500, 0), revenue.MutationWrite, nil
		})
		require.NoError(t, err)

		found, err := repo.FindByPeriod(ctx, tenantID, period)
		require.NoError(t, err)
		assert.Equal(t, int64(2500), found.TotalCents)
	})

	t.Run("updates existing row", func(t *testing.T) {
		err := repo.MutateByPeriod(ctx, tenantID, period, func(existing *revenue.MonthlyRevenue) (*revenue.MonthlyRevenue, revenue.MutationOutcome, error) {
			require.NotNil(t, existing)
			existing.InvoiceCount++
			existing.TotalCents += 500
			existing.PendingCents += 500
			return existing, revenue.MutationWrite, nil
		})
		require.NoError(t, err)

		found, err := repo.FindByPeriod(ctx, tenantID, period)
		require.NoError(t, err)
		assert.Equal(t, int64(2), found.InvoiceCount)
		assert.Equal(t, int64(3000), found.TotalCents)
	})

	t.Run("none leaves row untouched", func(t *testing.T) {
		err := repo.MutateByPeriod(ctx, tenantID, period, func(existing *revenue.MonthlyRevenue) (*revenue.MonthlyRevenue, revenue.MutationOutcome, error) {
			return nil, revenue.MutationNone, nil
		})
		require.NoError(t, err)

		found, err := repo.FindByPeriod(ctx, tenantID, period)
		require.NoError(t, err)
		assert.Equal(t, int64(3000), found.TotalCents)
	})

	t.Run("fn error aborts the transaction", func(t *testing.T) {
		wantErr := errors.New("classification failed")
		err := repo.MutateByPeriod(ctx, tenantID, period, func(existing *revenue.MonthlyRevenue) (*revenue.MonthlyRevenue, revenue.MutationOutcome, error) {
			return nil, revenue.MutationNone, wantErr
		})
		assert.ErrorIs(t, err, wantErr)
	})

	t.Run("delete removes the row", func(t *testing.T) {
		err := repo.MutateByPeriod(ctx, tenantID, period, func(existing *revenue.MonthlyRevenue) (*revenue.MonthlyRevenue, revenue.MutationOutcome, error) {
			require.NotNil(t, existing)
			return nil, revenue.MutationDelete, nil
		})
		require.NoError(t, err)

		_, err = repo.FindByPeriod(ctx, tenantID, period)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("delete with no row is a no-op", func(t *testing.T) {
		err := repo.MutateByPeriod(ctx, tenantID, month(2030, time.January), func(existing *revenue.MonthlyRevenue) (*revenue.MonthlyRevenue, revenue.MutationOutcome, error) {
			return nil, revenue.MutationDelete, nil
		})
		require.NoError(t, err)
	})
}

func TestMonthlyRevenueRepository_ReplaceAllForTenant(t *testing.T) {
	db := setupRevenueTestDB(t)
	repo := NewGormMonthlyRevenueRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	otherTenant := uuid.New()
	require.NoError(t, repo.Create(ctx, newRevenueRow(tenantID, month(2026, time.January), 1, 100, 100, 0)))
	require.NoError(t, repo.Create(ctx, newRevenueRow(tenantID, month(2026, time.February), 1, 200, 200, 0)))
	require.NoError(t, repo.Create(ctx, newRevenueRow(otherTenant, month(2026, time.January), 1, 999, 999, 0)))

	replacement := []revenue.MonthlyRevenue{
		*newRevenueRow(tenantID, month(2026, time.March), 4, 4000, 3000, 1000),
	}
	require.NoError(t, repo.ReplaceAllForTenant(ctx, tenantID, replacement))

	rows, err := repo.FindByDateRange(ctx, tenantID, month(2026, time.January), month(2026, time.December))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Period.Equal(month(2026, time.March)))
	assert.Equal(t, int64(4000), rows[0].TotalCents)

	// other tenants are untouched
	otherRows, err := repo.FindByDateRange(ctx, otherTenant, month(2026, time.January), month(2026, time.December))
	require.NoError(t, err)
	assert.Len(t, otherRows, 1)

	t.Run("empty replacement clears the tenant", func(t *testing.T) {
		require.NoError(t, repo.ReplaceAllForTenant(ctx, tenantID, nil))
		rows, err := repo.FindByDateRange(ctx, tenantID, month(2020, time.January), month(2030, time.December))
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}
