package invoice

import (
	"time"

	"github.com/google/uuid"

	"github.com/billing/backend/internal/domain/invoice"
)

// CreateInvoiceRequest represents a request to create an invoice
type CreateInvoiceRequest struct {
	Number      string    `json:"number" binding:"required,min=1,max=64"`
	CustomerID  uuid.UUID `json:"customer_id" binding:"required"`
	AmountCents int64     `json:"amount_cents" binding:"min=0"`
	IssuedAt    time.Time `json:"issued_at" binding:"required"`
	Status      string    `json:"status" binding:"required"`
	Notes       string    `json:"notes"`
}

// UpdateInvoiceRequest represents a request to update an invoice's
// revenue-relevant fields
type UpdateInvoiceRequest struct {
	AmountCents int64     `json:"amount_cents" binding:"min=0"`
	IssuedAt    time.Time `json:"issued_at" binding:"required"`
	Status      string    `json:"status" binding:"required"`
	Notes       string    `json:"notes"`
}

// ListInvoicesQuery holds filtering and pagination for invoice lists
type ListInvoicesQuery struct {
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir"`
	Status     string     `form:"status"`
	CustomerID *uuid.UUID `form:"customer_id"`
	IssuedFrom *time.Time `form:"issued_from" time_format:"2006-01-02"`
	IssuedTo   *time.Time `form:"issued_to" time_format:"2006-01-02"`
}

// InvoiceResponse is the API representation of an invoice
type InvoiceResponse struct {
	ID          uuid.UUID `json:"id"`
	Number      string    `json:"number"`
	CustomerID  uuid.UUID `json:"customer_id"`
	AmountCents int64     `json:"amount_cents"`
	IssuedAt    time.Time `json:"issued_at"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToInvoiceResponse converts a domain invoice to its API representation
func ToInvoiceResponse(inv *invoice.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:          inv.ID,
		Number:      inv.Number,
		CustomerID:  inv.CustomerID,
		AmountCents: inv.AmountCents,
		IssuedAt:    inv.IssuedAt,
		Status:      inv.Status.String(),
		Notes:       inv.Notes,
		CreatedAt:   inv.CreatedAt,
		UpdatedAt:   inv.UpdatedAt,
	}
}
