package model

import "github.com/google/uuid"

// Group is a vehicle category with a daily rental rate.  Every vehicle
// belongs to exactly one group and reservations are made against a group
// rather than a specific vehicle.
type Group struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	DailyRate float64   `db:"daily_rate" json:"daily_rate"`
}

func (g Group) Equal(o Group) bool {
	return g.ID == o.ID && g.Name == o.Name && g.DailyRate == o.DailyRate
}
