package invoice

import (
	"strings"
	"time"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Status represents the lifecycle status of an invoice
type Status string

const (
	StatusDraft     Status = "DRAFT"     // Created but not yet sent
	StatusPending   Status = "PENDING"   // Sent, awaiting payment
	StatusPaid      Status = "PAID"      // Payment received
	StatusCancelled Status = "CANCELLED" // Voided, never payable
)

// IsValid checks if the status is a known Status value
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// IsEligible reports whether an invoice in this status counts toward
// revenue totals. This is the single source of truth consumed by the
// revenue projection; any status outside pending/paid is ineligible.
func (s Status) IsEligible() bool {
	return s == StatusPending || s == StatusPaid
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a string into a Status, case-insensitively
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", shared.ErrInvalidInput
	}
	return s, nil
}

// Snapshot is an immutable capture of an invoice's revenue-relevant fields
// at a point in time. Events carry snapshots, never live aggregates.
type Snapshot struct {
	ID          uuid.UUID `json:"id"`
	CustomerID  uuid.UUID `json:"customer_id"`
	AmountCents int64     `json:"amount_cents"`
	IssuedAt    time.Time `json:"issued_at"`
	Status      Status    `json:"status"`
}

// Invoice represents a customer invoice aggregate root.
// Amounts are stored in integer minor currency units (cents).
type Invoice struct {
	shared.TenantAggregateRoot
	Number      string    `json:"number"`
	CustomerID  uuid.UUID `json:"customer_id"`
	AmountCents int64     `json:"amount_cents"`
	IssuedAt    time.Time `json:"issued_at"`
	Status      Status    `json:"status"`
	Notes       string    `json:"notes"`
}

var _ shared.AggregateRoot = (*Invoice)(nil)

// NewInvoice creates a new invoice for a tenant
func NewInvoice(tenantID, customerID uuid.UUID, number string, amountCents int64, issuedAt time.Time, status Status) (*Invoice, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "invoice number is required")
	}
	if amountCents < 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "invoice amount cannot be negative")
	}
	if issuedAt.IsZero() {
		return nil, shared.NewDomainError("INVALID_INPUT", "invoice issue date is required")
	}
	if !status.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "unknown invoice status")
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Number:              number,
		CustomerID:          customerID,
		AmountCents:         amountCents,
		IssuedAt:            issuedAt,
		Status:              status,
	}
	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

// Snapshot captures the invoice's current revenue-relevant state
func (i *Invoice) Snapshot() Snapshot {
	return Snapshot{
		ID:          i.ID,
		CustomerID:  i.CustomerID,
		AmountCents: i.AmountCents,
		IssuedAt:    i.IssuedAt,
		Status:      i.Status,
	}
}

// Update applies new amount, status and issue date to the invoice and
// records an updated event carrying both the previous and current snapshot.
func (i *Invoice) Update(amountCents int64, issuedAt time.Time, status Status, notes string) error {
	if amountCents < 0 {
		return shared.NewDomainError("INVALID_INPUT", "invoice amount cannot be negative")
	}
	if issuedAt.IsZero() {
		return shared.NewDomainError("INVALID_INPUT", "invoice issue date is required")
	}
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "unknown invoice status")
	}

	previous := i.Snapshot()
	i.AmountCents = amountCents
	i.IssuedAt = issuedAt
	i.Status = status
	i.Notes = notes
	i.Touch()

	i.AddDomainEvent(NewInvoiceUpdatedEvent(i, previous))
	return nil
}

// MarkDeleted records a deleted event carrying the final snapshot.
// The caller is responsible for removing the row afterwards.
func (i *Invoice) MarkDeleted() {
	i.AddDomainEvent(NewInvoiceDeletedEvent(i))
}
