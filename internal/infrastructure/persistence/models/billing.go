package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/billing/backend/internal/domain/invoice"
	"github.com/billing/backend/internal/domain/revenue"
)

// InvoiceModel is the persistence model for invoices
type InvoiceModel struct {
	TenantAggregateModel
	Number      string    `gorm:"not null;size:64;uniqueIndex:idx_invoices_tenant_number,priority:2"`
	CustomerID  uuid.UUID `gorm:"type:uuid;not null;index"`
	AmountCents int64     `gorm:"not null"`
	IssuedAt    time.Time `gorm:"not null;index"`
	Status      string    `gorm:"not null;size:16;index"`
	Notes       string    `gorm:"type:text"`
}

// TableName specifies the table name for InvoiceModel
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts InvoiceModel to domain Invoice
func (m *InvoiceModel) ToDomain() *invoice.Invoice {
	inv := &invoice.Invoice{
		Number:      m.Number,
		CustomerID:  m.CustomerID,
		AmountCents: m.AmountCents,
		IssuedAt:    m.IssuedAt,
		Status:      invoice.Status(m.Status),
		Notes:       m.Notes,
	}
	m.PopulateTenantAggregateRoot(&inv.TenantAggregateRoot)
	return inv
}

// InvoiceModelFromDomain converts domain Invoice to InvoiceModel
func InvoiceModelFromDomain(inv *invoice.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		Number:      inv.Number,
		CustomerID:  inv.CustomerID,
		AmountCents: inv.AmountCents,
		IssuedAt:    inv.IssuedAt,
		Status:      inv.Status.String(),
		Notes:       inv.Notes,
	}
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	return m
}

// MonthlyRevenueModel is the persistence model for per-period revenue
// aggregate rows. The (tenant_id, period) pair is unique: one row per
// tenant per calendar month.
type MonthlyRevenueModel struct {
	BaseModel
	TenantID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_monthly_revenue_tenant_period,priority:1"`
	Period       time.Time `gorm:"not null;uniqueIndex:idx_monthly_revenue_tenant_period,priority:2"`
	InvoiceCount int64     `gorm:"not null;default:0"`
	TotalCents   int64     `gorm:"not null;default:0"`
	PaidCents    int64     `gorm:"not null;default:0"`
	PendingCents int64     `gorm:"not null;default:0"`
	Source       string    `gorm:"not null;size:16"`
}

// TableName specifies the table name for MonthlyRevenueModel
func (MonthlyRevenueModel) TableName() string {
	return "monthly_revenue"
}

// ToDomain converts MonthlyRevenueModel to domain MonthlyRevenue
func (m *MonthlyRevenueModel) ToDomain() *revenue.MonthlyRevenue {
	row := &revenue.MonthlyRevenue{
		Period:       m.Period.UTC(),
		InvoiceCount: m.InvoiceCount,
		TotalCents:   m.TotalCents,
		PaidCents:    m.PaidCents,
		PendingCents: m.PendingCents,
		Source:       revenue.CalculationSource(m.Source),
	}
	row.ID = m.ID
	row.CreatedAt = m.CreatedAt
	row.UpdatedAt = m.UpdatedAt
	row.TenantID = m.TenantID
	return row
}

// MonthlyRevenueModelFromDomain converts domain MonthlyRevenue to MonthlyRevenueModel
func MonthlyRevenueModelFromDomain(row *revenue.MonthlyRevenue) *MonthlyRevenueModel {
	m := &MonthlyRevenueModel{
		TenantID:     row.TenantID,
		Period:       row.Period.UTC(),
		InvoiceCount: row.InvoiceCount,
		TotalCents:   row.TotalCents,
		PaidCents:    row.PaidCents,
		PendingCents: row.PendingCents,
		Source:       string(row.Source),
	}
	m.FromDomainBaseEntity(row.BaseEntity)
	return m
}
