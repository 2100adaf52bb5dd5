package revenue

import (
	"fmt"
	"time"

	"github.com/billing/backend/internal/domain/invoice"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CalculationSource records how an aggregate row was produced
type CalculationSource string

const (
	SourceSeed          CalculationSource = "SEED"           // Imported seed data
	SourceEventDelta    CalculationSource = "EVENT_DELTA"    // Incremental event-handler delta
	SourceRecalculation CalculationSource = "RECALCULATION"  // Full rebuild from source invoices
)

// MonthlyRevenue is the per-period running revenue aggregate for one tenant.
// All amounts are integer minor currency units. After every mutation the row
// must satisfy: TotalCents == PaidCents + PendingCents, all values >= 0, and
// a row whose InvoiceCount reaches zero is deleted rather than persisted.
type MonthlyRevenue struct {
	shared.TenantAggregateRoot
	Period       time.Time         `json:"period"`
	InvoiceCount int64             `json:"invoice_count"`
	TotalCents   int64             `json:"total_cents"`
	PaidCents    int64             `json:"paid_cents"`
	PendingCents int64             `json:"pending_cents"`
	Source       CalculationSource `json:"source"`
}

var _ shared.AggregateRoot = (*MonthlyRevenue)(nil)

// NewFromInvoice seeds a fresh aggregate row from the first eligible invoice
// of its period.
func NewFromInvoice(tenantID uuid.UUID, period time.Time, snap invoice.Snapshot) *MonthlyRevenue {
	m := &MonthlyRevenue{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Period:              period,
		InvoiceCount:        1,
		TotalCents:          snap.AmountCents,
		Source:              SourceEventDelta,
	}
	switch snap.Status {
	case invoice.StatusPaid:
		m.PaidCents = snap.AmountCents
	case invoice.StatusPending:
		m.PendingCents = snap.AmountCents
	}
	return m
}

// addToBucket adjusts the paid or pending bucket matching status, floored
// at zero. Ineligible statuses have no bucket and are ignored.
func (m *MonthlyRevenue) addToBucket(status invoice.Status, delta int64) {
	switch status {
	case invoice.StatusPaid:
		m.PaidCents = max(0, m.PaidCents+delta)
	case invoice.StatusPending:
		m.PendingCents = max(0, m.PendingCents+delta)
	}
}

// ApplyCreated folds one newly created eligible invoice into the row
func (m *MonthlyRevenue) ApplyCreated(snap invoice.Snapshot) {
	m.InvoiceCount++
	m.TotalCents += snap.AmountCents
	m.addToBucket(snap.Status, snap.AmountCents)
	m.markDelta()
}

// ApplyDeleted removes one eligible invoice from the row. It decrements the
// bucket matching the invoice's status symmetrically with the total so the
// total == paid + pending invariant survives deletions.
// Returns true when the row's count reaches zero and it must be removed.
func (m *MonthlyRevenue) ApplyDeleted(snap invoice.Snapshot) bool {
	m.InvoiceCount = max(0, m.InvoiceCount-1)
	m.TotalCents = max(0, m.TotalCents-snap.AmountCents)
	m.addToBucket(snap.Status, -snap.AmountCents)
	m.markDelta()
	return m.InvoiceCount == 0
}

// ApplyEligibilityLost backs out an invoice that is no longer eligible,
// using its previous snapshot. Returns true when the row must be removed.
func (m *MonthlyRevenue) ApplyEligibilityLost(previous invoice.Snapshot) bool {
	m.InvoiceCount = max(0, m.InvoiceCount-1)
	m.TotalCents = max(0, m.TotalCents-previous.AmountCents)
	m.addToBucket(previous.Status, -previous.AmountCents)
	m.markDelta()
	return m.InvoiceCount == 0
}

// ApplyEligibilityGained folds in an invoice that just became eligible,
// using its current snapshot.
func (m *MonthlyRevenue) ApplyEligibilityGained(current invoice.Snapshot) {
	m.InvoiceCount++
	m.TotalCents += current.AmountCents
	m.addToBucket(current.Status, current.AmountCents)
	m.markDelta()
}

// ApplyAmountChanged adjusts the total and the single bucket matching the
// unchanged status by the amount delta. The invoice count is unchanged.
func (m *MonthlyRevenue) ApplyAmountChanged(previous, current invoice.Snapshot) {
	delta := current.AmountCents - previous.AmountCents
	m.TotalCents = max(0, m.TotalCents+delta)
	m.addToBucket(current.Status, delta)
	m.markDelta()
}

// ApplyStatusChanged moves an invoice's amount between the paid and pending
// buckets. The total and the invoice count are unchanged.
func (m *MonthlyRevenue) ApplyStatusChanged(previous, current invoice.Snapshot) {
	m.addToBucket(previous.Status, -previous.AmountCents)
	m.addToBucket(current.Status, current.AmountCents)
	m.markDelta()
}

func (m *MonthlyRevenue) markDelta() {
	m.Source = SourceEventDelta
	m.Touch()
}

// CheckInvariants verifies the numeric invariants that must hold after
// every mutation
func (m *MonthlyRevenue) CheckInvariants() error {
	if m.InvoiceCount < 0 || m.TotalCents < 0 || m.PaidCents < 0 || m.PendingCents < 0 {
		return shared.NewDomainError("INVARIANT_VIOLATION",
			fmt.Sprintf("negative aggregate value for period %s", m.Period.Format("2006-01")))
	}
	if m.TotalCents != m.PaidCents+m.PendingCents {
		return shared.NewDomainError("INVARIANT_VIOLATION",
			fmt.Sprintf("total %d != paid %d + pending %d for period %s",
				m.TotalCents, m.PaidCents, m.PendingCents, m.Period.Format("2006-01")))
	}
	return nil
}
