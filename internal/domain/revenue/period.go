package revenue

import (
	"time"

	"github.com/billing/backend/internal/domain/shared"
)

// PeriodOf normalizes a date to the first day of its calendar month in UTC.
// The normalized period is the natural key of one aggregate row; every
// invoice contributes to exactly one period, determined by its issue date.
func PeriodOf(t time.Time) (time.Time, error) {
	if t.IsZero() {
		return time.Time{}, shared.ErrInvalidPeriod
	}
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC), nil
}

// SamePeriod reports whether two dates fall into the same calendar month
func SamePeriod(a, b time.Time) bool {
	au, bu := a.UTC(), b.UTC()
	return au.Year() == bu.Year() && au.Month() == bu.Month()
}
