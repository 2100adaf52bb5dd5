package invoice

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/billing/backend/internal/domain/invoice"
	"github.com/billing/backend/internal/domain/shared"
)

// Service handles invoice business operations. It is the write path that
// feeds the revenue projection: every successful persistence publishes the
// aggregate's pending domain events.
type Service struct {
	repo           invoice.Repository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewService creates a new invoice Service
func NewService(repo invoice.Repository, eventPublisher shared.EventPublisher, logger *zap.Logger) *Service {
	return &Service{
		repo:           repo,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// Create creates a new invoice and publishes InvoiceCreated
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	status, err := invoice.ParseStatus(req.Status)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "unknown invoice status: "+req.Status)
	}

	inv, err := invoice.NewInvoice(tenantID, req.CustomerID, req.Number, req.AmountCents, req.IssuedAt, status)
	if err != nil {
		return nil, err
	}
	inv.Notes = req.Notes

	if err := s.repo.Save(ctx, inv); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, inv)

	response := ToInvoiceResponse(inv)
	return &response, nil
}

// Get returns a single invoice
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToInvoiceResponse(inv)
	return &response, nil
}

// List returns a page of invoices for a tenant
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, query ListInvoicesQuery) (*shared.Paginated[InvoiceResponse], error) {
	filter := invoice.Filter{Filter: shared.DefaultFilter()}
	if query.Page > 0 {
		filter.Page = query.Page
	}
	if query.PageSize > 0 && query.PageSize <= 100 {
		filter.PageSize = query.PageSize
	}
	if query.OrderBy != "" {
		filter.OrderBy = query.OrderBy
	}
	if query.OrderDir != "" {
		filter.OrderDir = query.OrderDir
	}
	if query.Status != "" {
		status, err := invoice.ParseStatus(query.Status)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "unknown invoice status: "+query.Status)
		}
		filter.Status = &status
	}
	filter.CustomerID = query.CustomerID
	filter.IssuedFrom = query.IssuedFrom
	filter.IssuedTo = query.IssuedTo

	items, total, err := s.repo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]InvoiceResponse, len(items))
	for i := range items {
		responses[i] = ToInvoiceResponse(&items[i])
	}
	paginated := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &paginated, nil
}

// Update applies new values to an invoice and publishes InvoiceUpdated with
// the previous snapshot attached
func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateInvoiceRequest) (*InvoiceResponse, error) {
	status, err := invoice.ParseStatus(req.Status)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "unknown invoice status: "+req.Status)
	}

	inv, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := inv.Update(req.AmountCents, req.IssuedAt, status, req.Notes); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, inv); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, inv)

	response := ToInvoiceResponse(inv)
	return &response, nil
}

// Delete removes an invoice and publishes InvoiceDeleted carrying its final
// snapshot
func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	inv, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	inv.MarkDeleted()
	s.publishEvents(ctx, inv)
	return nil
}

// publishEvents publishes the aggregate's pending domain events. Publish
// failures are logged, not surfaced: event handling is asynchronous and the
// write itself already succeeded.
func (s *Service) publishEvents(ctx context.Context, inv *invoice.Invoice) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range inv.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish invoice event",
				zap.String("event_type", event.EventType()),
				zap.String("invoice_id", inv.ID.String()),
				zap.Error(err),
			)
		}
	}
	inv.ClearDomainEvents()
}
