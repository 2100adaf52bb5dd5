package revenue

import (
	"testing"
	"time"

	"github.com/billing/backend/internal/domain/invoice"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPeriod() time.Time {
	return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
}

func snapshot(amountCents int64, status invoice.Status) invoice.Snapshot {
	return invoice.Snapshot{
		ID:          uuid.New(),
		CustomerID:  uuid.New(),
		AmountCents: amountCents,
		IssuedAt:    time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		Status:      status,
	}
}

func existingRow(count, total, paid, pending int64) *MonthlyRevenue {
	return &MonthlyRevenue{
		Period:       testPeriod(),
		InvoiceCount: count,
		TotalCents:   total,
		PaidCents:    paid,
		PendingCents: pending,
		Source:       SourceEventDelta,
	}
}

func TestNewFromInvoice(t *testing.T) {
	t.Run("seeds pending bucket", func(t *testing.T) {
		row := NewFromInvoice(uuid.New(), testPeriod(), snapshot(1000, invoice.StatusPending))

		assert.Equal(t, int64(1), row.InvoiceCount)
		assert.Equal(t, int64(1000), row.TotalCents)
		assert.Equal(t, int64(0), row.PaidCents)
		assert.Equal(t, int64(1000), row.PendingCents)
		assert.Equal(t, SourceEventDelta, row.Source)
		require.NoError(t, row.CheckInvariants())
	})

	t.Run("seeds paid bucket", func(t *testing.T) {
		row := NewFromInvoice(uuid.New(), testPeriod(), snapshot(2500, invoice.StatusPaid))

		assert.Equal(t, int64(2500), row.PaidCents)
		assert.Equal(t, int64(0), row.PendingCents)
		require.NoError(t, row.CheckInvariants())
	})
}

func TestMonthlyRevenue_ApplyCreated(t *testing.T) {
	row := existingRow(1, 1000, 1000, 0)
	row.ApplyCreated(snapshot(500, invoice.StatusPending))

	assert.Equal(t, int64(2), row.InvoiceCount)
	assert.Equal(t, int64(1500), row.TotalCents)
	assert.Equal(t, int64(1000), row.PaidCents)
	assert.Equal(t, int64(500), row.PendingCents)
	require.NoError(t, row.CheckInvariants())
}

func TestMonthlyRevenue_ApplyDeleted(t *testing.T) {
	t.Run("deleting the sole invoice removes the row", func(t *testing.T) {
		row := existingRow(1, 500, 500, 0)
		remove := row.ApplyDeleted(snapshot(500, invoice.StatusPaid))

		assert.True(t, remove)
		assert.Equal(t, int64(0), row.InvoiceCount)
	})

	t.Run("decrements count, total and the matching bucket", func(t *testing.T) {
		row := existingRow(2, 1500, 1000, 500)
		remove := row.ApplyDeleted(snapshot(500, invoice.StatusPending))

		assert.False(t, remove)
		assert.Equal(t, int64(1), row.InvoiceCount)
		assert.Equal(t, int64(1000), row.TotalCents)
		assert.Equal(t, int64(1000), row.PaidCents)
		assert.Equal(t, int64(0), row.PendingCents)
		require.NoError(t, row.CheckInvariants())
	})

	t.Run("floors at zero", func(t *testing.T) {
		row := existingRow(1, 200, 200, 0)
		remove := row.ApplyDeleted(snapshot(900, invoice.StatusPaid))

		assert.True(t, remove)
		assert.Equal(t, int64(0), row.TotalCents)
		assert.Equal(t, int64(0), row.PaidCents)
	})
}

func TestMonthlyRevenue_ApplyEligibilityLost(t *testing.T) {
	t.Run("count reaching zero flags removal", func(t *testing.T) {
		row := existingRow(1, 1000, 0, 1000)
		remove := row.ApplyEligibilityLost(snapshot(1000, invoice.StatusPending))

		assert.True(t, remove)
		assert.Equal(t, int64(0), row.InvoiceCount)
		assert.Equal(t, int64(0), row.TotalCents)
		assert.Equal(t, int64(0), row.PendingCents)
	})

	t.Run("backs out the previous amount from the previous bucket", func(t *testing.T) {
		row := existingRow(3, 3000, 2000, 1000)
		remove := row.ApplyEligibilityLost(snapshot(1000, invoice.StatusPending))

		assert.False(t, remove)
		assert.Equal(t, int64(2), row.InvoiceCount)
		assert.Equal(t, int64(2000), row.TotalCents)
		assert.Equal(t, int64(2000), row.PaidCents)
		assert.Equal(t, int64(0), row.PendingCents)
		require.NoError(t, row.CheckInvariants())
	})
}

func TestMonthlyRevenue_ApplyEligibilityGained(t *testing.T) {
	row := existingRow(1, 1000, 1000, 0)
	row.ApplyEligibilityGained(snapshot(750, invoice.StatusPending))

	assert.Equal(t, int64(2), row.InvoiceCount)
	assert.Equal(t, int64(1750), row.TotalCents)
	assert.Equal(t, int64(750), row.PendingCents)
	require.NoError(t, row.CheckInvariants())
}

func TestMonthlyRevenue_ApplyAmountChanged(t *testing.T) {
	t.Run("adjusts total and the unchanged status bucket", func(t *testing.T) {
		prev := snapshot(1000, invoice.StatusPending)
		curr := prev
		curr.AmountCents = 1400

		row := existingRow(2, 2000, 1000, 1000)
		row.ApplyAmountChanged(prev, curr)

		assert.Equal(t, int64(2), row.InvoiceCount)
		assert.Equal(t, int64(2400), row.TotalCents)
		assert.Equal(t, int64(1000), row.PaidCents)
		assert.Equal(t, int64(1400), row.PendingCents)
		require.NoError(t, row.CheckInvariants())
	})

	t.Run("negative delta floors at zero", func(t *testing.T) {
		prev := snapshot(1000, invoice.StatusPaid)
		curr := prev
		curr.AmountCents = 100

		row := existingRow(1, 500, 500, 0)
		row.ApplyAmountChanged(prev, curr)

		assert.Equal(t, int64(0), row.TotalCents)
		assert.Equal(t, int64(0), row.PaidCents)
	})
}

func TestMonthlyRevenue_ApplyStatusChanged(t *testing.T) {
	// pending 1000 marked paid moves the amount between buckets
	prev := snapshot(1000, invoice.StatusPending)
	curr := prev
	curr.Status = invoice.StatusPaid

	row := existingRow(1, 1000, 0, 1000)
	row.ApplyStatusChanged(prev, curr)

	assert.Equal(t, int64(1), row.InvoiceCount)
	assert.Equal(t, int64(1000), row.TotalCents)
	assert.Equal(t, int64(1000), row.PaidCents)
	assert.Equal(t, int64(0), row.PendingCents)
	require.NoError(t, row.CheckInvariants())
}

func TestMonthlyRevenue_CheckInvariants(t *testing.T) {
	t.Run("detects bucket drift", func(t *testing.T) {
		row := existingRow(1, 1000, 200, 300)
		assert.Error(t, row.CheckInvariants())
	})

	t.Run("detects negative values", func(t *testing.T) {
		row := existingRow(1, 1000, 1000, 0)
		row.PendingCents = -1
		assert.Error(t, row.CheckInvariants())
	})
}
