package revenue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/billing/backend/internal/domain/revenue"
	"github.com/billing/backend/internal/domain/shared"
)

type periodKey struct {
	tenant uuid.UUID
	period time.Time
}

// fakeRevenueRepository is an in-memory revenue.Repository keyed by
// (tenant, period). Mutations are serialized by a single mutex, mirroring
// the row-lock semantics of the real store.
type fakeRevenueRepository struct {
	mu       sync.Mutex
	rows     map[periodKey]*revenue.MonthlyRevenue
	findErr  error
	writeErr error
}

func newFakeRevenueRepository() *fakeRevenueRepository {
	return &fakeRevenueRepository{rows: make(map[periodKey]*revenue.MonthlyRevenue)}
}

func (f *fakeRevenueRepository) key(tenantID uuid.UUID, period time.Time) periodKey {
	return periodKey{tenant: tenantID, period: period.UTC()}
}

func (f *fakeRevenueRepository) clone(row *revenue.MonthlyRevenue) *revenue.MonthlyRevenue {
	c := *row
	return &c
}

func (f *fakeRevenueRepository) get(tenantID uuid.UUID, period time.Time) *revenue.MonthlyRevenue {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[f.key(tenantID, period)]; ok {
		return f.clone(row)
	}
	return nil
}

func (f *fakeRevenueRepository) put(row *revenue.MonthlyRevenue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[f.key(row.TenantID, row.Period)] = f.clone(row)
}

func (f *fakeRevenueRepository) Create(ctx context.Context, row *revenue.MonthlyRevenue) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.put(row)
	return nil
}

func (f *fakeRevenueRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*revenue.MonthlyRevenue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.TenantID == tenantID && row.ID == id {
			return f.clone(row), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeRevenueRepository) Update(ctx context.Context, row *revenue.MonthlyRevenue) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.put(row)
	return nil
}

func (f *fakeRevenueRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, row := range f.rows {
		if row.TenantID == tenantID && row.ID == id {
			delete(f.rows, key)
			return nil
		}
	}
	return shared.ErrNotFound
}

func (f *fakeRevenueRepository) Upsert(ctx context.Context, row *revenue.MonthlyRevenue) error {
	return f.Update(ctx, row)
}

func (f *fakeRevenueRepository) UpsertByPeriod(ctx context.Context, row *revenue.MonthlyRevenue) error {
	return f.Update(ctx, row)
}

func (f *fakeRevenueRepository) FindByPeriod(ctx context.Context, tenantID uuid.UUID, period time.Time) (*revenue.MonthlyRevenue, error) {
	if row := f.get(tenantID, period); row != nil {
		return row, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeRevenueRepository) FindByDateRange(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]revenue.MonthlyRevenue, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []revenue.MonthlyRevenue
	for period := start.UTC(); !period.After(end.UTC()); period = period.AddDate(0, 1, 0) {
		if row, ok := f.rows[f.key(tenantID, period)]; ok {
			result = append(result, *f.clone(row))
		}
	}
	return result, nil
}

func (f *fakeRevenueRepository) MutateByPeriod(ctx context.Context, tenantID uuid.UUID, period time.Time, fn revenue.MutationFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := f.key(tenantID, period)
	var existing *revenue.MonthlyRevenue
	if row, ok := f.rows[key]; ok {
		existing = f.clone(row)
	}

	next, outcome, err := fn(existing)
	if err != nil {
		return err
	}
	if f.writeErr != nil && outcome != revenue.MutationNone {
		return f.writeErr
	}

	switch outcome {
	case revenue.MutationWrite:
		f.rows[key] = f.clone(next)
	case revenue.MutationDelete:
		delete(f.rows, key)
	}
	return nil
}

func (f *fakeRevenueRepository) ReplaceAllForTenant(ctx context.Context, tenantID uuid.UUID, rows []revenue.MonthlyRevenue) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, row := range f.rows {
		if row.TenantID == tenantID {
			delete(f.rows, key)
		}
	}
	for i := range rows {
		f.rows[f.key(tenantID, rows[i].Period)] = f.clone(&rows[i])
	}
	return nil
}
