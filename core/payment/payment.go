// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package payment creates Stripe payment intents for the checkout page.

The browser confirms the intent with the returned client secret. Nothing is stored
server side, the payment record is posted separately once the card was charged.
*/
package payment

import (
	"context"
	"errors"
	"math"
	"net/http"

	"github.com/relabs-tech/bistroboss/core"
	"github.com/relabs-tech/bistroboss/core/logger"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// ServiceName is used in ExternalServiceError
const ServiceName = "stripe"

// Intent is a created payment intent
type Intent struct {
	ClientSecret string `json:"clientSecret"`
}

// Gateway creates payment intents
type Gateway struct {
	api *client.API
}

// Builder is a builder helper for the Gateway
type Builder struct {
	// SecretKey is the Stripe secret key. This is mandatory.
	SecretKey string
	// URL overrides the Stripe API endpoint. This is optional.
	URL string
	// HTTPClient is the client used to talk to Stripe. This is optional.
	HTTPClient *http.Client
}

// New returns a new payment gateway
func New(gb *Builder) *Gateway {
	if gb.SecretKey == "" {
		panic("SecretKey is missing")
	}
	config := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelWarn},
	}
	if gb.URL != "" {
		config.URL = stripe.String(gb.URL)
	}
	if gb.HTTPClient != nil {
		config.HTTPClient = gb.HTTPClient
	}
	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, config),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, config),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, config),
	}
	return &Gateway{api: client.New(gb.SecretKey, backends)}
}

// AmountInCents converts a price in dollars into the smallest currency unit
func AmountInCents(price float64) int64 {
	return int64(math.Round(price * 100))
}

// CreateIntent creates a card payment intent in USD for price
func (g *Gateway) CreateIntent(ctx context.Context, price float64) (*Intent, error) {
	amount := AmountInCents(price)
	if amount <= 0 {
		return nil, &core.ExternalServiceError{
			Service: ServiceName,
			Status:  http.StatusBadRequest,
			Message: "price must be positive",
		}
	}
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(string(stripe.CurrencyUSD)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, asServiceError(ctx, err)
	}
	return &Intent{ClientSecret: pi.ClientSecret}, nil
}

func asServiceError(ctx context.Context, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		status := http.StatusInternalServerError
		if stripeErr.HTTPStatusCode >= 400 && stripeErr.HTTPStatusCode < 500 {
			status = http.StatusBadRequest
		}
		var codes []string
		if stripeErr.Code != "" {
			codes = []string{string(stripeErr.Code)}
		}
		return &core.ExternalServiceError{
			Service: ServiceName,
			Status:  status,
			Message: stripeErr.Msg,
			Codes:   codes,
			Err:     err,
		}
	}
	logger.FromContext(ctx).WithError(err).Errorln("Error 4801: cannot create payment intent")
	return &core.ExternalServiceError{
		Service: ServiceName,
		Status:  http.StatusInternalServerError,
		Message: "cannot create payment intent",
		Err:     err,
	}
}
