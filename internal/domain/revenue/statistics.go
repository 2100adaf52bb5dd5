package revenue

import (
	"github.com/shopspring/decimal"
)

// SeriesStatistics summarizes a rolling-year display series
type SeriesStatistics struct {
	Minimum        decimal.Decimal `json:"minimum"` // Smallest monthly total among months with data
	Maximum        decimal.Decimal `json:"maximum"` // Largest monthly total among months with data
	Average        decimal.Decimal `json:"average"` // Mean monthly total across the whole window
	Total          decimal.Decimal `json:"total"`
	MonthsWithData int             `json:"months_with_data"`
	TargetYear     int             `json:"target_year"` // Year of the window's final month
}

// Summarize computes summary statistics over a display series. Minimum and
// maximum consider only months that carry data; the average spreads the
// window total across all entries.
func Summarize(points []RevenuePoint) SeriesStatistics {
	stats := SeriesStatistics{
		Minimum: decimal.Zero,
		Maximum: decimal.Zero,
		Average: decimal.Zero,
		Total:   decimal.Zero,
	}
	if len(points) == 0 {
		return stats
	}
	stats.TargetYear = points[len(points)-1].Year

	for _, p := range points {
		stats.Total = stats.Total.Add(p.Total)
		if p.InvoiceCount == 0 {
			continue
		}
		if stats.MonthsWithData == 0 {
			stats.Minimum = p.Total
			stats.Maximum = p.Total
		} else {
			if p.Total.LessThan(stats.Minimum) {
				stats.Minimum = p.Total
			}
			if p.Total.GreaterThan(stats.Maximum) {
				stats.Maximum = p.Total
			}
		}
		stats.MonthsWithData++
	}

	stats.Average = stats.Total.Div(decimal.NewFromInt(int64(len(points)))).Round(2)
	return stats
}
