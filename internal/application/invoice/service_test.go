package invoice

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/billing/backend/internal/domain/invoice"
	"github.com/billing/backend/internal/domain/shared"
)

// MockInvoiceRepository is a mock implementation of invoice.Repository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*invoice.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoice.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter invoice.Filter) ([]invoice.Invoice, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]invoice.Invoice), args.Get(1).(int64), args.Error(2)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, inv *invoice.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockInvoiceRepository) AggregateEligibleByPeriod(ctx context.Context, tenantID uuid.UUID) ([]invoice.PeriodTotals, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]invoice.PeriodTotals), args.Error(1)
}

// capturingPublisher records every published event
type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
	err    error
}

func (p *capturingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, events...)
	return nil
}

func newService(repo *MockInvoiceRepository, publisher *capturingPublisher) *Service {
	return NewService(repo, publisher, zap.NewNop())
}

func validCreateRequest() CreateInvoiceRequest {
	return CreateInvoiceRequest{
		Number:      "INV-2026-0042",
		CustomerID:  uuid.New(),
		AmountCents: 12500,
		IssuedAt:    time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
		Status:      "pending",
	}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("persists and publishes InvoiceCreated", func(t *testing.T) {
		repo := new(MockInvoiceRepository)
		publisher := &capturingPublisher{}
		svc := newService(repo, publisher)

		repo.On("Save", ctx, mock.AnythingOfType("*invoice.Invoice")).Return(nil)

		resp, err := svc.Create(ctx, tenantID, validCreateRequest())
		require.NoError(t, err)
		assert.Equal(t, "INV-2026-0042", resp.Number)
		assert.Equal(t, "PENDING", resp.Status)

		require.Len(t, publisher.events, 1)
		created, ok := publisher.events[0].(*invoice.InvoiceCreatedEvent)
		require.True(t, ok)
		assert.Equal(t, tenantID, created.TenantID())
		assert.Equal(t, int64(12500), created.Invoice.AmountCents)
		repo.AssertExpectations(t)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		repo := new(MockInvoiceRepository)
		svc := newService(repo, &capturingPublisher{})

		req := validCreateRequest()
		req.Status = "overdue"
		_, err := svc.Create(ctx, tenantID, req)
		require.Error(t, err)
		repo.AssertNotCalled(t, "Save")
	})

	t.Run("save failure publishes nothing", func(t *testing.T) {
		repo := new(MockInvoiceRepository)
		publisher := &capturingPublisher{}
		svc := newService(repo, publisher)

		repo.On("Save", ctx, mock.Anything).Return(assert.AnError)

		_, err := svc.Create(ctx, tenantID, validCreateRequest())
		assert.ErrorIs(t, err, assert.AnError)
		assert.Empty(t, publisher.events)
	})
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	existing, err := invoice.NewInvoice(tenantID, uuid.New(), "INV-1", 1000,
		time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC), invoice.StatusPending)
	require.NoError(t, err)
	existing.ClearDomainEvents()

	t.Run("publishes InvoiceUpdated with previous snapshot", func(t *testing.T) {
		repo := new(MockInvoiceRepository)
		publisher := &capturingPublisher{}
		svc := newService(repo, publisher)

		repo.On("FindByIDForTenant", ctx, tenantID, existing.ID).Return(existing, nil)
		repo.On("Save", ctx, existing).Return(nil)

		resp, err := svc.Update(ctx, tenantID, existing.ID, UpdateInvoiceRequest{
			AmountCents: 1000,
			IssuedAt:    existing.IssuedAt,
			Status:      "paid",
		})
		require.NoError(t, err)
		assert.Equal(t, "PAID", resp.Status)

		require.Len(t, publisher.events, 1)
		updated, ok := publisher.events[0].(*invoice.InvoiceUpdatedEvent)
		require.True(t, ok)
		assert.Equal(t, invoice.StatusPending, updated.PreviousInvoice.Status)
		assert.Equal(t, invoice.StatusPaid, updated.Invoice.Status)
		assert.Equal(t, int64(1000), updated.PreviousInvoice.AmountCents)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(MockInvoiceRepository)
		svc := newService(repo, &capturingPublisher{})

		missing := uuid.New()
		repo.On("FindByIDForTenant", ctx, tenantID, missing).Return(nil, shared.ErrNotFound)

		_, err := svc.Update(ctx, tenantID, missing, UpdateInvoiceRequest{
			AmountCents: 1, IssuedAt: time.Now(), Status: "paid",
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	inv, err := invoice.NewInvoice(tenantID, uuid.New(), "INV-9", 500,
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), invoice.StatusPaid)
	require.NoError(t, err)
	inv.ClearDomainEvents()

	t.Run("publishes InvoiceDeleted with the final snapshot", func(t *testing.T) {
		repo := new(MockInvoiceRepository)
		publisher := &capturingPublisher{}
		svc := newService(repo, publisher)

		repo.On("FindByIDForTenant", ctx, tenantID, inv.ID).Return(inv, nil)
		repo.On("Delete", ctx, tenantID, inv.ID).Return(nil)

		require.NoError(t, svc.Delete(ctx, tenantID, inv.ID))

		require.Len(t, publisher.events, 1)
		deleted, ok := publisher.events[0].(*invoice.InvoiceDeletedEvent)
		require.True(t, ok)
		assert.Equal(t, int64(500), deleted.Invoice.AmountCents)
		assert.Equal(t, invoice.StatusPaid, deleted.Invoice.Status)
	})

	t.Run("repository delete failure publishes nothing", func(t *testing.T) {
		repo := new(MockInvoiceRepository)
		publisher := &capturingPublisher{}
		svc := newService(repo, publisher)

		repo.On("FindByIDForTenant", ctx, tenantID, inv.ID).Return(inv, nil)
		repo.On("Delete", ctx, tenantID, inv.ID).Return(assert.AnError)

		assert.ErrorIs(t, svc.Delete(ctx, tenantID, inv.ID), assert.AnError)
		assert.Empty(t, publisher.events)
	})
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	inv, err := invoice.NewInvoice(tenantID, uuid.New(), "INV-1", 1000,
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), invoice.StatusPending)
	require.NoError(t, err)

	repo := new(MockInvoiceRepository)
	svc := newService(repo, &capturingPublisher{})

	repo.On("FindAllForTenant", ctx, tenantID, mock.MatchedBy(func(f invoice.Filter) bool {
		return f.Status != nil && *f.Status == invoice.StatusPending && f.Page == 2 && f.PageSize == 10
	})).Return([]invoice.Invoice{*inv}, int64(11), nil)

	page, err := svc.List(ctx, tenantID, ListInvoicesQuery{Page: 2, PageSize: 10, Status: "PENDING"})
	require.NoError(t, err)
	assert.Equal(t, int64(11), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "INV-1", page.Items[0].Number)

	t.Run("rejects unknown status filter", func(t *testing.T) {
		_, err := svc.List(ctx, tenantID, ListInvoicesQuery{Status: "bogus"})
		require.Error(t, err)
	})
}
