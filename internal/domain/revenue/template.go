package revenue

import (
	"fmt"
	"time"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RollingYearMonths is the fixed number of months in the dashboard window
const RollingYearMonths = 12

// MonthTemplateEntry describes one of the consecutive months in the rolling
// window, independent of whether aggregate data exists for it
type MonthTemplateEntry struct {
	Order       int       `json:"order"` // Display order, 0-based and chronological
	Month       string    `json:"month"` // Three-letter month abbreviation
	MonthNumber int       `json:"month_number"`
	Year        int       `json:"year"`
	Period      time.Time `json:"period"`
}

// RevenuePoint is the per-period display entity served to reporting.
// Amounts are converted from minor units for presentation; points are
// derived on every read and never persisted.
type RevenuePoint struct {
	Order        int             `json:"order"`
	Month        string          `json:"month"`
	MonthNumber  int             `json:"month_number"`
	Year         int             `json:"year"`
	Period       time.Time       `json:"period"`
	InvoiceCount int64           `json:"invoice_count"`
	Total        decimal.Decimal `json:"total"`
	Paid         decimal.Decimal `json:"paid"`
	Pending      decimal.Decimal `json:"pending"`
}

// CalculateDateRange produces the rolling-year window
// [current month - 11, current month], both bounds normalized to
// first-of-month in UTC.
func CalculateDateRange(now time.Time) (start, end time.Time) {
	u := now.UTC()
	end = time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
	start = end.AddDate(0, -(RollingYearMonths - 1), 0)
	return start, end
}

// GenerateMonthsTemplate builds an ordered list of count consecutive month
// entries starting at start, display order ascending and chronological
func GenerateMonthsTemplate(start time.Time, count int) []MonthTemplateEntry {
	entries := make([]MonthTemplateEntry, 0, count)
	for i := 0; i < count; i++ {
		period := start.AddDate(0, i, 0)
		entries = append(entries, MonthTemplateEntry{
			Order:       i,
			Month:       period.Format("Jan"),
			MonthNumber: int(period.Month()),
			Year:        period.Year(),
			Period:      period,
		})
	}
	return entries
}

// BuildRollingYearTemplate generates and validates the 12-month skeleton
// ending at now's month. A malformed result is a defect signal, never an
// expected outcome.
func BuildRollingYearTemplate(now time.Time) ([]MonthTemplateEntry, error) {
	start, _ := CalculateDateRange(now)
	template := GenerateMonthsTemplate(start, RollingYearMonths)

	if len(template) == 0 {
		return nil, fmt.Errorf("empty months template: %w", shared.ErrInvalidTemplate)
	}
	first, last := template[0], template[len(template)-1]
	if first.Order != 0 || first.Period.IsZero() {
		return nil, fmt.Errorf("malformed first template entry: %w", shared.ErrInvalidTemplate)
	}
	if last.Order != len(template)-1 || last.Period.IsZero() {
		return nil, fmt.Errorf("malformed last template entry: %w", shared.ErrInvalidTemplate)
	}
	return template, nil
}

// NewRevenuePoint converts an aggregate row into its display entity for the
// given template entry. A nil row yields the zero-valued default.
func NewRevenuePoint(entry MonthTemplateEntry, row *MonthlyRevenue) RevenuePoint {
	point := RevenuePoint{
		Order:       entry.Order,
		Month:       entry.Month,
		MonthNumber: entry.MonthNumber,
		Year:        entry.Year,
		Period:      entry.Period,
		Total:       decimal.Zero,
		Paid:        decimal.Zero,
		Pending:     decimal.Zero,
	}
	if row != nil {
		point.InvoiceCount = row.InvoiceCount
		point.Total = centsToDecimal(row.TotalCents)
		point.Paid = centsToDecimal(row.PaidCents)
		point.Pending = centsToDecimal(row.PendingCents)
	}
	return point
}

// MergeWithTemplate fills the template with fetched aggregate rows,
// substituting zero-valued defaults for periods without data. Output order
// and length always equal the template's, regardless of the completeness or
// order of rows.
func MergeWithTemplate(template []MonthTemplateEntry, rows []MonthlyRevenue) []RevenuePoint {
	byPeriod := make(map[time.Time]*MonthlyRevenue, len(rows))
	for i := range rows {
		byPeriod[rows[i].Period.UTC()] = &rows[i]
	}

	points := make([]RevenuePoint, 0, len(template))
	for _, entry := range template {
		points = append(points, NewRevenuePoint(entry, byPeriod[entry.Period.UTC()]))
	}
	return points
}

// centsToDecimal converts integer minor units into major units for display
func centsToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
