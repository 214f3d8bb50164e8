package model

import (
	"time"

	"github.com/google/uuid"
)

// Payment is one online checkout attempt for a reservation.  Its status
// only ever moves forward once, from PENDING to CONFIRMED or CANCELLED.
// SessionID holds the provider's checkout session identifier.
type Payment struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	ReservationID uuid.UUID     `db:"reservation_id" json:"reservation_id"`
	Amount        float64       `db:"amount" json:"amount"`
	PaymentDate   time.Time     `db:"payment_date" json:"payment_date"`
	Status        PaymentStatus `db:"status" json:"status"`
	SessionID     string        `db:"session_id" json:"session_id,omitempty"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

func (p Payment) Equal(o Payment) bool {
	return p.ID == o.ID &&
		p.ReservationID == o.ReservationID &&
		p.Amount == o.Amount &&
		p.PaymentDate.Equal(o.PaymentDate) &&
		p.Status == o.Status &&
		p.SessionID == o.SessionID
}
