package model

// ReservationStatus is the closed set of states a reservation moves through.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationPending:   {ReservationConfirmed, ReservationCancelled},
	ReservationConfirmed: {},
	ReservationCancelled: {},
}

func (s ReservationStatus) Valid() bool {
	_, ok := reservationTransitions[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s ReservationStatus) Terminal() bool {
	return s.Valid() && len(reservationTransitions[s]) == 0
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	for _, allowed := range reservationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentStatus is the state of a single checkout attempt.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentConfirmed PaymentStatus = "CONFIRMED"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:   {PaymentConfirmed, PaymentCancelled},
	PaymentConfirmed: {},
	PaymentCancelled: {},
}

func (s PaymentStatus) Valid() bool {
	_, ok := paymentTransitions[s]
	return ok
}

func (s PaymentStatus) Terminal() bool {
	return s.Valid() && len(paymentTransitions[s]) == 0
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ReservationStatus returns the reservation state that mirrors a terminal
// payment outcome.
func (s PaymentStatus) ReservationStatus() ReservationStatus {
	switch s {
	case PaymentConfirmed:
		return ReservationConfirmed
	case PaymentCancelled:
		return ReservationCancelled
	}
	return ReservationPending
}

// PaymentMethod selects the checkout path of a reservation.
type PaymentMethod string

const (
	PayAtCounter  PaymentMethod = "PAY_AT_COUNTER"
	OnlinePayment PaymentMethod = "ONLINE_PAYMENT"
)

func (m PaymentMethod) Valid() bool { return m == PayAtCounter || m == OnlinePayment }
