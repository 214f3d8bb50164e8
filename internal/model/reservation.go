package model

import (
	"time"

	"github.com/google/uuid"
)

// Reservation records a person's rental of a vehicle group for a period of
// time, together with any accessories.  TotalAmount is always computed
// from the group and accessory daily rates and never taken from clients.
//
// Fields:
//
//	ID            – primary key (UUID), generated at creation.
//	PersonID      – person who owns the reservation.
//	GroupID       – vehicle group being rented.
//	AccessoryIDs  – accessories attached (reservation_accessories).
//	PickupAt      – start of the rental.
//	ReturnAt      – end of the rental, strictly after PickupAt.
//	TotalAmount   – price in currency units, two decimals.
//	Status        – PENDING, CONFIRMED or CANCELLED.
//	PaymentMethod – PAY_AT_COUNTER or ONLINE_PAYMENT.
type Reservation struct {
	ID            uuid.UUID         `db:"id" json:"id"`
	PersonID      uuid.UUID         `db:"person_id" json:"person_id"`
	GroupID       uuid.UUID         `db:"group_id" json:"group_id"`
	AccessoryIDs  []uuid.UUID       `db:"-" json:"accessory_ids"`
	PickupAt      time.Time         `db:"pickup_at" json:"pickup_at"`
	ReturnAt      time.Time         `db:"return_at" json:"return_at"`
	TotalAmount   float64           `db:"total_amount" json:"total_amount"`
	Status        ReservationStatus `db:"status" json:"status"`
	PaymentMethod PaymentMethod     `db:"payment_method" json:"payment_method"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time         `db:"updated_at" json:"updated_at"`
}

// Equal compares two reservations field by field.  Accessory order is
// significant; timestamps of the row itself are ignored.
func (r Reservation) Equal(o Reservation) bool {
	if r.ID != o.ID ||
		r.PersonID != o.PersonID ||
		r.GroupID != o.GroupID ||
		!r.PickupAt.Equal(o.PickupAt) ||
		!r.ReturnAt.Equal(o.ReturnAt) ||
		r.TotalAmount != o.TotalAmount ||
		r.Status != o.Status ||
		r.PaymentMethod != o.PaymentMethod ||
		len(r.AccessoryIDs) != len(o.AccessoryIDs) {
		return false
	}
	for i := range r.AccessoryIDs {
		if r.AccessoryIDs[i] != o.AccessoryIDs[i] {
			return false
		}
	}
	return true
}
