// Package payment wraps the hosted checkout provider.  The gateway is built
// from explicit configuration; no process-wide API key is ever set.
package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/iliyamo/vehicle-rental/internal/config"
)

// CheckoutRequest describes a single-item hosted checkout.  Amount is in
// currency units and converted to minor units by the gateway.
type CheckoutRequest struct {
	Amount         float64
	SuccessURL     string
	CancelURL      string
	ReservationRef string
	IdempotencyKey string
}

// CheckoutSession is the provider's answer: the session id and the page
// the payer must be redirected to.
type CheckoutSession struct {
	ID  string
	URL string
}

// GatewayError wraps every failure reported by or on the way to the
// provider.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string { return fmt.Sprintf("payment gateway: %s: %v", e.Op, e.Err) }
func (e *GatewayError) Unwrap() error { return e.Err }

// sessionAPI is the subset of the Stripe checkout session client in use.
type sessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Expire(id string, params *stripe.CheckoutSessionExpireParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeGateway creates and expires Stripe checkout sessions.  Calls are
// bounded by a timeout and guarded by a circuit breaker.  It never
// retries.
type StripeGateway struct {
	sessions sessionAPI
	cb       *gobreaker.CircuitBreaker[*stripe.CheckoutSession]
	currency string
	product  string
	timeout  time.Duration
	logger   *logrus.Logger
}

// NewStripeGateway builds a gateway with its own Stripe client instance.
func NewStripeGateway(cfg config.PaymentConfig, logger *logrus.Logger) *StripeGateway {
	sc := client.New(cfg.StripeSecretKey, nil)
	return newGateway(sc.CheckoutSessions, cfg, logger)
}

func newGateway(api sessionAPI, cfg config.PaymentConfig, logger *logrus.Logger) *StripeGateway {
	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	cb := gobreaker.NewCircuitBreaker[*stripe.CheckoutSession](gobreaker.Settings{
		Name:        "stripe-checkout",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: isProviderHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("payment circuit breaker state changed")
		},
	})
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &StripeGateway{
		sessions: api,
		cb:       cb,
		currency: cfg.Currency,
		product:  cfg.ProductName,
		timeout:  timeout,
		logger:   logger,
	}
}

// isProviderHealthy keeps client-side mistakes (bad params, declined
// configuration) from tripping the breaker.  Only transport failures,
// throttling and 5xx answers count.
func isProviderHealthy(err error) bool {
	if err == nil {
		return true
	}
	var se *stripe.Error
	if errors.As(err, &se) {
		return se.HTTPStatusCode >= 400 && se.HTTPStatusCode < 500 && se.HTTPStatusCode != 429
	}
	return false
}

// MinorUnits converts an amount in currency units to integer minor units,
// rounding to the nearest unit.
func MinorUnits(amount float64) int64 { return int64(math.Round(amount * 100)) }

// CreateCheckoutSession opens a hosted checkout with one line item for the
// full amount.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if req.Amount <= 0 {
		return nil, &GatewayError{Op: "create session", Err: fmt.Errorf("amount must be positive, got %.2f", req.Amount)}
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		ClientReferenceID:  stripe.String(req.ReservationRef),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(g.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(g.product),
				},
				UnitAmount: stripe.Int64(MinorUnits(req.Amount)),
			},
			Quantity: stripe.Int64(1),
		}},
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	s, err := g.cb.Execute(func() (*stripe.CheckoutSession, error) {
		return g.sessions.New(params)
	})
	if err != nil {
		return nil, &GatewayError{Op: "create session", Err: err}
	}
	if s == nil || s.URL == "" {
		return nil, &GatewayError{Op: "create session", Err: errors.New("provider returned no redirect url")}
	}
	g.logger.WithFields(logrus.Fields{
		"session_id":     s.ID,
		"reservation_id": req.ReservationRef,
		"amount_minor":   MinorUnits(req.Amount),
	}).Info("checkout session created")
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// ExpireCheckoutSession closes an open session so it can no longer be
// paid.
func (g *StripeGateway) ExpireCheckoutSession(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx
	if _, err := g.cb.Execute(func() (*stripe.CheckoutSession, error) {
		return g.sessions.Expire(id, params)
	}); err != nil {
		return &GatewayError{Op: "expire session", Err: err}
	}
	return nil
}

// CheckoutPaid asks the provider whether the session's payment has been
// collected.  Success redirects are only trusted after this answers true.
func (g *StripeGateway) CheckoutPaid(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := g.cb.Execute(func() (*stripe.CheckoutSession, error) {
		return g.sessions.Get(id, params)
	})
	if err != nil {
		return false, &GatewayError{Op: "get session", Err: err}
	}
	if s == nil {
		return false, &GatewayError{Op: "get session", Err: errors.New("provider returned no session")}
	}
	return s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid, nil
}
