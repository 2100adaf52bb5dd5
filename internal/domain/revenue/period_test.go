package revenue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodOf(t *testing.T) {
	t.Run("normalizes to first of month in UTC", func(t *testing.T) {
		period, err := PeriodOf(time.Date(2026, 8, 29, 17, 45, 12, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), period)
	})

	t.Run("converts non-UTC locations before normalizing", func(t *testing.T) {
		loc := time.FixedZone("UTC+13", 13*60*60)
		// 2026-09-01 02:00 +13 is still 2026-08-31 in UTC
		period, err := PeriodOf(time.Date(2026, 9, 1, 2, 0, 0, 0, loc))
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), period)
	})

	t.Run("rejects zero time", func(t *testing.T) {
		_, err := PeriodOf(time.Time{})
		assert.Error(t, err)
	})

	t.Run("is idempotent", func(t *testing.T) {
		first, err := PeriodOf(time.Date(2026, 2, 14, 8, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		second, err := PeriodOf(first)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestSamePeriod(t *testing.T) {
	a := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC)
	c := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, SamePeriod(a, b))
	assert.False(t, SamePeriod(a, c))
}
