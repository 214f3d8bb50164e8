package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func TestDays(t *testing.T) {
	tests := []struct {
		name string
		ret  time.Time
		want int
	}{
		{"exact two days", base.Add(48 * time.Hour), 2},
		{"one minute over", base.Add(48*time.Hour + time.Minute), 3},
		{"under a day", base.Add(3 * time.Hour), 1},
		{"exactly one day", base.Add(24 * time.Hour), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Days(base, tt.ret)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDays_InvalidRange(t *testing.T) {
	_, err := Days(base, base)
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	_, err = Days(base, base.Add(-time.Hour))
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestTotal_GroupPlusAccessories(t *testing.T) {
	total, err := Total(100, []float64{20}, base, base.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 240.0, total)
}

func TestTotal_NoAccessories(t *testing.T) {
	total, err := Total(89.9, nil, base, base.Add(72*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 269.7, total)
}

func TestTotal_RoundsToCents(t *testing.T) {
	total, err := Total(10.005, []float64{0.001}, base, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 10.01, total)
}

func TestTotal_Errors(t *testing.T) {
	_, err := Total(100, nil, base, base)
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	_, err = Total(-1, nil, base, base.Add(time.Hour))
	assert.ErrorIs(t, err, ErrNegativeRate)

	_, err = Total(10, []float64{5, -2}, base, base.Add(time.Hour))
	assert.ErrorIs(t, err, ErrNegativeRate)
}
