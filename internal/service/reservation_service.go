// Package service holds the reservation lifecycle: creation with pricing
// and payment path selection, lookups, and settlement of payment outcomes.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/vehicle-rental/internal/model"
	"github.com/iliyamo/vehicle-rental/internal/payment"
	"github.com/iliyamo/vehicle-rental/internal/pricing"
	"github.com/iliyamo/vehicle-rental/internal/queue"
	"github.com/iliyamo/vehicle-rental/internal/repository"
)

// PaymentIDPlaceholder is replaced with the payment id in the configured
// success and cancel URLs.
const PaymentIDPlaceholder = "{paymentId}"

// DefaultMaxPageSize bounds ListReservations when Options leaves it unset.
const DefaultMaxPageSize = 100

type PersonFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Person, error)
}

type GroupFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Group, error)
}

type AccessoryFinder interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Accessory, error)
}

// ReservationStore persists reservations.  Create must write the
// reservation and the optional payment atomically.
type ReservationStore interface {
	Create(ctx context.Context, res *model.Reservation, pay *model.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error)
	List(ctx context.Context, personID uuid.UUID, offset, limit int) ([]model.Reservation, error)
}

// PaymentStore applies a transition to a payment and its reservation
// under a per-payment lock.
type PaymentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	Transition(ctx context.Context, id uuid.UUID, now time.Time, fn repository.TransitionFunc) (*model.Payment, *model.Reservation, bool, error)
}

type CheckoutGateway interface {
	CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error)
	ExpireCheckoutSession(ctx context.Context, id string) error
	CheckoutPaid(ctx context.Context, id string) (bool, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}

// Options tunes the service.  Zero values fall back to defaults.
type Options struct {
	// StoreStatus is assigned to PAY_AT_COUNTER reservations on creation.
	StoreStatus    model.ReservationStatus
	SuccessURL     string
	CancelURL      string
	PublishTimeout time.Duration
	MaxPageSize    int
}

// ParseStoreStatus accepts the statuses a counter reservation may start
// in: CONFIRMED or PENDING.
func ParseStoreStatus(s string) (model.ReservationStatus, error) {
	switch st := model.ReservationStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case model.ReservationConfirmed, model.ReservationPending:
		return st, nil
	}
	return "", fmt.Errorf("invalid store reservation status %q", s)
}

// ReservationService implements the reservation lifecycle.
type ReservationService struct {
	persons      PersonFinder
	groups       GroupFinder
	accessories  AccessoryFinder
	reservations ReservationStore
	payments     PaymentStore
	gateway      CheckoutGateway
	events       EventPublisher
	opts         Options
	logger       *logrus.Logger
	now          func() time.Time
}

// NewReservationService wires the service.  It panics when a dependency
// is missing.
func NewReservationService(
	persons PersonFinder,
	groups GroupFinder,
	accessories AccessoryFinder,
	reservations ReservationStore,
	payments PaymentStore,
	gateway CheckoutGateway,
	events EventPublisher,
	opts Options,
	logger *logrus.Logger,
) *ReservationService {
	if persons == nil || groups == nil || accessories == nil || reservations == nil || payments == nil || gateway == nil || events == nil || logger == nil {
		panic("nil dependency passed to NewReservationService")
	}
	if opts.StoreStatus == "" {
		opts.StoreStatus = model.ReservationConfirmed
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 3 * time.Second
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = DefaultMaxPageSize
	}
	return &ReservationService{
		persons:      persons,
		groups:       groups,
		accessories:  accessories,
		reservations: reservations,
		payments:     payments,
		gateway:      gateway,
		events:       events,
		opts:         opts,
		logger:       logger,
		now:          time.Now,
	}
}

// CreateReservationInput carries the caller's choices.  The total is never
// supplied by the caller.
type CreateReservationInput struct {
	PersonID      uuid.UUID
	GroupID       uuid.UUID
	AccessoryIDs  []uuid.UUID
	PickupAt      time.Time
	ReturnAt      time.Time
	PaymentMethod model.PaymentMethod
}

// CreateResult is the outcome of CreateReservation.  Payment and
// PaymentURL are only set for online payments.
type CreateResult struct {
	Reservation *model.Reservation
	Payment     *model.Payment
	PaymentURL  string
}

// CreateReservation validates the references, prices the rental and
// persists it along the chosen payment path.
//
// Online payments open a checkout session first and only then write the
// reservation and its PENDING payment in one transaction, so a gateway
// failure leaves nothing behind.  If the write fails after the session was
// opened, the session is expired best-effort.  Counter payments never
// touch the gateway.
func (s *ReservationService) CreateReservation(ctx context.Context, in CreateReservationInput) (*CreateResult, error) {
	if !in.PaymentMethod.Valid() {
		return nil, validationf("unknown payment method %q", in.PaymentMethod)
	}
	if _, err := s.persons.GetByID(ctx, in.PersonID); err != nil {
		return nil, notFound(err, ErrPersonNotFound, "load person")
	}
	group, err := s.groups.GetByID(ctx, in.GroupID)
	if err != nil {
		return nil, notFound(err, ErrGroupNotFound, "load group")
	}
	accessoryIDs := uniqueIDs(in.AccessoryIDs)
	rates, err := s.accessoryRates(ctx, accessoryIDs)
	if err != nil {
		return nil, err
	}
	// Stored at whole seconds; price the values that will be persisted.
	pickup := in.PickupAt.UTC().Truncate(time.Second)
	ret := in.ReturnAt.UTC().Truncate(time.Second)
	total, err := pricing.Total(group.DailyRate, rates, pickup, ret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	now := s.now().UTC()
	res := &model.Reservation{
		ID:            uuid.New(),
		PersonID:      in.PersonID,
		GroupID:       group.ID,
		AccessoryIDs:  accessoryIDs,
		PickupAt:      pickup,
		ReturnAt:      ret,
		TotalAmount:   total,
		PaymentMethod: in.PaymentMethod,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	log := s.logger.WithFields(logrus.Fields{
		"reservation_id": res.ID,
		"person_id":      res.PersonID,
		"group_id":       res.GroupID,
		"payment_method": res.PaymentMethod,
		"total_amount":   total,
	})

	out := &CreateResult{Reservation: res}
	switch in.PaymentMethod {
	case model.PayAtCounter:
		res.Status = s.opts.StoreStatus
		if err := s.reservations.Create(ctx, res, nil); err != nil {
			return nil, fmt.Errorf("store reservation: %w", err)
		}
	case model.OnlinePayment:
		if total <= 0 {
			return nil, validationf("online payment requires a positive amount")
		}
		res.Status = model.ReservationPending
		pay := &model.Payment{
			ID:            uuid.New(),
			ReservationID: res.ID,
			Amount:        total,
			PaymentDate:   now,
			Status:        model.PaymentPending,
			UpdatedAt:     now,
		}
		session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutRequest{
			Amount:         total,
			SuccessURL:     expandURL(s.opts.SuccessURL, pay.ID),
			CancelURL:      expandURL(s.opts.CancelURL, pay.ID),
			ReservationRef: res.ID.String(),
			IdempotencyKey: pay.ID.String(),
		})
		if err != nil {
			log.WithError(err).Error("checkout session not created; reservation discarded")
			return nil, err
		}
		pay.SessionID = session.ID
		if err := s.reservations.Create(ctx, res, pay); err != nil {
			s.expireSession(ctx, session.ID, log)
			return nil, fmt.Errorf("store reservation: %w", err)
		}
		out.Payment = pay
		out.PaymentURL = session.URL
	}

	log.WithField("status", res.Status).Info("reservation created")
	ev := queue.NewReservationEvent(queue.ReservationCreated, res, now)
	ev.PaymentURL = out.PaymentURL
	s.publish(ctx, ev)
	return out, nil
}

func (s *ReservationService) accessoryRates(ctx context.Context, ids []uuid.UUID) ([]float64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	found, err := s.accessories.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load accessories: %w", err)
	}
	byID := make(map[uuid.UUID]model.Accessory, len(found))
	for _, a := range found {
		byID[a.ID] = a
	}
	rates := make([]float64, 0, len(ids))
	for _, id := range ids {
		a, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrAccessoryNotFound, id)
		}
		rates = append(rates, a.DailyRate)
	}
	return rates, nil
}

func (s *ReservationService) expireSession(ctx context.Context, id string, log *logrus.Entry) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.PublishTimeout)
	defer cancel()
	if err := s.gateway.ExpireCheckoutSession(ctx, id); err != nil {
		log.WithError(err).WithField("session_id", id).Error("orphaned checkout session could not be expired")
	}
}

// GetReservation returns the reservation with its accessory ids.
func (s *ReservationService) GetReservation(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrReservationNotFound, "load reservation")
	}
	return res, nil
}

// ListReservations returns the zero-indexed page ordered by creation
// time.  A non-nil personID limits the page to that person's
// reservations.  A page past the end is empty.
func (s *ReservationService) ListReservations(ctx context.Context, personID uuid.UUID, pageNumber, pageSize int) ([]model.Reservation, error) {
	if pageNumber < 0 {
		return nil, validationf("pageNumber must be >= 0")
	}
	if pageSize < 1 || pageSize > s.opts.MaxPageSize {
		return nil, validationf("pageSize must be between 1 and %d", s.opts.MaxPageSize)
	}
	if pageNumber > math.MaxInt32/pageSize {
		return []model.Reservation{}, nil
	}
	out, err := s.reservations.List(ctx, personID, pageNumber*pageSize, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return out, nil
}

// PaymentOutcome reports the state after a success or cancel callback.
// Applied is false when the callback was a redelivery of an outcome that
// had already been recorded.
type PaymentOutcome struct {
	Payment     *model.Payment
	Reservation *model.Reservation
	Applied     bool
}

// ConfirmPayment records a successful checkout: payment and reservation
// both become CONFIRMED.  A pending payment is only confirmed once the
// provider reports its checkout session as paid.
func (s *ReservationService) ConfirmPayment(ctx context.Context, paymentID uuid.UUID) (*PaymentOutcome, error) {
	if err := s.checkSession(ctx, paymentID, true); err != nil {
		return nil, err
	}
	return s.settle(ctx, paymentID, model.PaymentConfirmed)
}

// CancelPayment records an abandoned checkout: payment and reservation
// both become CANCELLED.  A session the provider already collected cannot
// be cancelled, and the session of a cancelled payment is expired so it
// can no longer be paid.
func (s *ReservationService) CancelPayment(ctx context.Context, paymentID uuid.UUID) (*PaymentOutcome, error) {
	if err := s.checkSession(ctx, paymentID, false); err != nil {
		return nil, err
	}
	out, err := s.settle(ctx, paymentID, model.PaymentCancelled)
	if err == nil && out.Applied && out.Payment.SessionID != "" {
		s.expireSession(ctx, out.Payment.SessionID, s.logger.WithField("payment_id", paymentID))
	}
	return out, err
}

// checkSession compares the provider's view of a PENDING payment with the
// requested outcome.  Settled payments skip the lookup; settle reports
// redeliveries and conflicts for them.
func (s *ReservationService) checkSession(ctx context.Context, paymentID uuid.UUID, wantPaid bool) error {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return notFound(err, ErrPaymentNotFound, "load payment")
	}
	if p.Status != model.PaymentPending {
		return nil
	}
	if p.SessionID == "" {
		if wantPaid {
			return fmt.Errorf("%w: payment %s has no checkout session", ErrPaymentNotPaid, p.ID)
		}
		return nil
	}
	paid, err := s.gateway.CheckoutPaid(ctx, p.SessionID)
	if err != nil {
		return err
	}
	switch {
	case wantPaid && !paid:
		s.logger.WithFields(logrus.Fields{"payment_id": p.ID, "session_id": p.SessionID}).Warn("success callback for unpaid session rejected")
		return fmt.Errorf("%w: payment %s", ErrPaymentNotPaid, p.ID)
	case !wantPaid && paid:
		return fmt.Errorf("%w: payment %s was already collected", ErrStateConflict, p.ID)
	}
	return nil
}

func (s *ReservationService) settle(ctx context.Context, paymentID uuid.UUID, target model.PaymentStatus) (*PaymentOutcome, error) {
	next := target.ReservationStatus()
	now := s.now().UTC()
	p, res, applied, err := s.payments.Transition(ctx, paymentID, now, func(p *model.Payment, r *model.Reservation) (bool, error) {
		if p.Status == target {
			return false, nil
		}
		if !p.Status.CanTransitionTo(target) {
			return false, fmt.Errorf("%w: payment %s is %s, cannot become %s", ErrStateConflict, p.ID, p.Status, target)
		}
		if r.Status != next && !r.Status.CanTransitionTo(next) {
			return false, fmt.Errorf("%w: reservation %s is %s, cannot become %s", ErrStateConflict, r.ID, r.Status, next)
		}
		p.Status = target
		r.Status = next
		return true, nil
	})
	log := s.logger.WithFields(logrus.Fields{"payment_id": paymentID, "target": target})
	if err != nil {
		if errors.Is(err, ErrStateConflict) {
			log.WithError(err).Warn("payment callback rejected")
			return nil, err
		}
		return nil, notFound(err, ErrPaymentNotFound, "settle payment")
	}
	if !applied {
		log.Info("payment callback already applied")
		return &PaymentOutcome{Payment: p, Reservation: res}, nil
	}

	log.WithField("reservation_id", res.ID).Info("payment settled")
	typ := queue.ReservationConfirmed
	if target == model.PaymentCancelled {
		typ = queue.ReservationCancelled
	}
	s.publish(ctx, queue.NewReservationEvent(typ, res, now))
	return &PaymentOutcome{Payment: p, Reservation: res, Applied: true}, nil
}

// publish is best-effort: failures are logged and never returned.  It
// runs detached from the request's cancellation with its own timeout.
func (s *ReservationService) publish(ctx context.Context, ev queue.ReservationEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.PublishTimeout)
	defer cancel()
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.WithFields(logrus.Fields{
			"event":          ev.Type,
			"reservation_id": ev.ReservationID,
		}).WithError(err).Warn("reservation event not published")
	}
}

// notFound swaps a repository not-found for the specific sentinel and
// wraps anything else with op.
func notFound(err, sentinel error, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return sentinel
	}
	return fmt.Errorf("%s: %w", op, err)
}

func expandURL(tmpl string, paymentID uuid.UUID) string {
	return strings.ReplaceAll(tmpl, PaymentIDPlaceholder, paymentID.String())
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
