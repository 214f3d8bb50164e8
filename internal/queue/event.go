// Package queue defines message payloads exchanged over the message broker
// and the publishers and consumer that move them.
package queue

import (
	"time"

	"github.com/iliyamo/vehicle-rental/internal/model"
)

// EventType names what happened to a reservation.
type EventType string

const (
	ReservationCreated   EventType = "reservation.created"
	ReservationConfirmed EventType = "reservation.confirmed"
	ReservationCancelled EventType = "reservation.cancelled"
)

// ReservationEvent is published after a reservation is created or its
// payment outcome is applied.  It contains enough information for
// downstream consumers (receipts, email) to act without querying the
// primary database.
type ReservationEvent struct {
	Type          EventType `json:"type"`
	ReservationID string    `json:"reservation_id"`
	PersonID      string    `json:"person_id"`
	GroupID       string    `json:"group_id"`
	TotalAmount   float64   `json:"total_amount"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"payment_method"`
	PaymentURL    string    `json:"payment_url,omitempty"`
	OccurredAt    string    `json:"occurred_at"`
}

// NewReservationEvent snapshots res into an event of the given type.
func NewReservationEvent(typ EventType, res *model.Reservation, at time.Time) ReservationEvent {
	return ReservationEvent{
		Type:          typ,
		ReservationID: res.ID.String(),
		PersonID:      res.PersonID.String(),
		GroupID:       res.GroupID.String(),
		TotalAmount:   res.TotalAmount,
		Status:        string(res.Status),
		PaymentMethod: string(res.PaymentMethod),
		OccurredAt:    at.UTC().Format(time.RFC3339),
	}
}
