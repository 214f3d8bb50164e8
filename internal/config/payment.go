package config

import (
	"strings"
	"time"
)

// PaymentConfig configures the hosted checkout integration.  SuccessURL and
// CancelURL may contain the {paymentId} placeholder, which is replaced with
// the payment identifier when a session is created.
type PaymentConfig struct {
	StripeSecretKey string
	Currency        string
	ProductName     string
	SuccessURL      string
	CancelURL       string
	Timeout         time.Duration

	// circuit breaker around the provider
	BreakerMaxFailures uint32
	BreakerOpenFor     time.Duration
}

// LoadPaymentConfig reads the payment settings.  STRIPE_SECRET_KEY is
// required; everything else has a default.
func LoadPaymentConfig() PaymentConfig {
	return PaymentConfig{
		StripeSecretKey:    must("STRIPE_SECRET_KEY"),
		Currency:           strings.ToLower(envStr("PAYMENT_CURRENCY", "brl")),
		ProductName:        envStr("PAYMENT_PRODUCT_NAME", "Reservation Payment"),
		SuccessURL:         envStr("PAYMENT_SUCCESS_URL", "http://localhost:8080/payment/success/{paymentId}"),
		CancelURL:          envStr("PAYMENT_CANCEL_URL", "http://localhost:8080/payment/cancel/{paymentId}"),
		Timeout:            envDur("PAYMENT_TIMEOUT", 10*time.Second),
		BreakerMaxFailures: uint32(envInt("PAYMENT_BREAKER_MAX_FAILURES", 5)),
		BreakerOpenFor:     envDur("PAYMENT_BREAKER_OPEN_FOR", 30*time.Second),
	}
}
