// Package pricing computes rental totals from daily rates.
package pricing

import (
	"errors"
	"math"
	"time"
)

var (
	// ErrInvalidDateRange is returned when the return time is not after
	// the pickup time.
	ErrInvalidDateRange = errors.New("return must be after pickup")
	ErrNegativeRate     = errors.New("daily rate must not be negative")
)

const day = 24 * time.Hour

// Days returns the number of billable days between pickup and ret.  Any
// started day is billed in full and at least one day is always charged.
func Days(pickup, ret time.Time) (int, error) {
	if !ret.After(pickup) {
		return 0, ErrInvalidDateRange
	}
	d := ret.Sub(pickup)
	n := int(d / day)
	if d%day != 0 {
		n++
	}
	if n < 1 {
		n = 1
	}
	return n, nil
}

// Total returns (groupRate + sum(accessoryRates)) * Days(pickup, ret),
// rounded to cents.
func Total(groupRate float64, accessoryRates []float64, pickup, ret time.Time) (float64, error) {
	days, err := Days(pickup, ret)
	if err != nil {
		return 0, err
	}
	if groupRate < 0 {
		return 0, ErrNegativeRate
	}
	perDay := groupRate
	for _, r := range accessoryRates {
		if r < 0 {
			return 0, ErrNegativeRate
		}
		perDay += r
	}
	return roundCents(perDay * float64(days)), nil
}

func roundCents(v float64) float64 { return math.Round(v*100) / 100 }
