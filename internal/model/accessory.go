package model

import "github.com/google/uuid"

// Accessory is an optional add-on (child seat, GPS, ...) charged per day.
type Accessory struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	DailyRate float64   `db:"daily_rate" json:"daily_rate"`
}

func (a Accessory) Equal(o Accessory) bool {
	return a.ID == o.ID && a.Name == o.Name && a.DailyRate == o.DailyRate
}
