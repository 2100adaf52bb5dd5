package invoice

import (
	"github.com/billing/backend/internal/domain/shared"
)

// Event type names for the invoice lifecycle. The revenue projection
// subscribes to exactly these three.
const (
	EventTypeCreated = "InvoiceCreated"
	EventTypeUpdated = "InvoiceUpdated"
	EventTypeDeleted = "InvoiceDeleted"
)

// LifecycleEventTypes returns the closed set of invoice event type names
func LifecycleEventTypes() []string {
	return []string{EventTypeCreated, EventTypeUpdated, EventTypeDeleted}
}

// InvoiceCreatedEvent is raised when a new invoice is created
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	Invoice Snapshot `json:"invoice"`
}

// EventType returns the event type name
func (e *InvoiceCreatedEvent) EventType() string {
	return EventTypeCreated
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCreated, "Invoice", inv.ID, inv.TenantID),
		Invoice:         inv.Snapshot(),
	}
}

// InvoiceUpdatedEvent is raised when an invoice's amount, status or issue
// date changes. It carries the previous snapshot so consumers can compute
// deltas without re-reading invoice history.
type InvoiceUpdatedEvent struct {
	shared.BaseDomainEvent
	Invoice         Snapshot `json:"invoice"`
	PreviousInvoice Snapshot `json:"previous_invoice"`
}

// EventType returns the event type name
func (e *InvoiceUpdatedEvent) EventType() string {
	return EventTypeUpdated
}

// NewInvoiceUpdatedEvent creates a new InvoiceUpdatedEvent
func NewInvoiceUpdatedEvent(inv *Invoice, previous Snapshot) *InvoiceUpdatedEvent {
	return &InvoiceUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUpdated, "Invoice", inv.ID, inv.TenantID),
		Invoice:         inv.Snapshot(),
		PreviousInvoice: previous,
	}
}

// InvoiceDeletedEvent is raised when an invoice is removed
type InvoiceDeletedEvent struct {
	shared.BaseDomainEvent
	Invoice Snapshot `json:"invoice"`
}

// EventType returns the event type name
func (e *InvoiceDeletedEvent) EventType() string {
	return EventTypeDeleted
}

// NewInvoiceDeletedEvent creates a new InvoiceDeletedEvent
func NewInvoiceDeletedEvent(inv *Invoice) *InvoiceDeletedEvent {
	return &InvoiceDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDeleted, "Invoice", inv.ID, inv.TenantID),
		Invoice:         inv.Snapshot(),
	}
}
