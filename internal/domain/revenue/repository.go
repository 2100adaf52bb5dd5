package revenue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MutationOutcome tells the store what to do with the row a MutationFunc
// returns
type MutationOutcome int

const (
	// MutationNone leaves the store untouched
	MutationNone MutationOutcome = iota
	// MutationWrite persists the returned row (insert or update)
	MutationWrite
	// MutationDelete removes the existing row
	MutationDelete
)

// MutationFunc computes the next state of a period's aggregate row from its
// current state. A nil existing row means no aggregate exists for the
// period yet; that is a legitimate branch, not an error.
type MutationFunc func(existing *MonthlyRevenue) (*MonthlyRevenue, MutationOutcome, error)

// Repository persists monthly revenue aggregate rows. It is the only
// component that touches the persistence layer for aggregates; every delta
// becomes durable here.
type Repository interface {
	Create(ctx context.Context, row *MonthlyRevenue) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*MonthlyRevenue, error)
	Update(ctx context.Context, row *MonthlyRevenue) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	// Upsert inserts the row or, when one exists with the same id, replaces it
	Upsert(ctx context.Context, row *MonthlyRevenue) error
	// UpsertByPeriod inserts the row or replaces the values of the row
	// sharing its (tenant, period) key
	UpsertByPeriod(ctx context.Context, row *MonthlyRevenue) error

	// FindByPeriod returns the aggregate row for one period, or
	// shared.ErrNotFound when none exists
	FindByPeriod(ctx context.Context, tenantID uuid.UUID, period time.Time) (*MonthlyRevenue, error)
	// FindByDateRange returns all rows with start <= period <= end in
	// chronological order
	FindByDateRange(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]MonthlyRevenue, error)

	// MutateByPeriod runs fn inside a transaction holding a write lock on
	// the period's row, serializing concurrent mutations of the same
	// (tenant, period) key so no read-modify-write update is lost.
	MutateByPeriod(ctx context.Context, tenantID uuid.UUID, period time.Time, fn MutationFunc) error

	// ReplaceAllForTenant atomically swaps every aggregate row of a tenant
	// for the given set. Used by the recalculation sweep.
	ReplaceAllForTenant(ctx context.Context, tenantID uuid.UUID, rows []MonthlyRevenue) error
}
