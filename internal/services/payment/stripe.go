package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

const GatewayStripe = "stripe"

const stripeReferenceKey = "reference"

// StripeGateway funds wallets through Stripe PaymentIntents. The checkout's
// access code is the intent's client secret; the bridge reference travels in
// the intent metadata.
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway builds a gateway on its own client. backends may be nil.
func NewStripeGateway(secret string, backends *stripe.Backends) *StripeGateway {
	api := &client.API{}
	api.Init(secret, backends)
	return &StripeGateway{api: api}
}

func (g *StripeGateway) Name() string {
	return GatewayStripe
}

func (g *StripeGateway) InitializePayment(ctx context.Context, req InitRequest) (*InitResponse, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(toMinorUnits(req.Amount)),
		Currency:           stripe.String(strings.ToLower(req.Currency)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	if req.Email != "" {
		params.ReceiptEmail = stripe.String(req.Email)
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.Reference)
	params.AddMetadata(stripeReferenceKey, req.Reference)
	for k, v := range req.Metadata {
		params.AddMetadata(k, fmt.Sprint(v))
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create intent: %w", err)
	}

	return &InitResponse{
		AccessCode:       pi.ClientSecret,
		GatewayReference: pi.ID,
	}, nil
}

func (g *StripeGateway) VerifyPayment(ctx context.Context, reference, gatewayRef string) (*VerifyResponse, error) {
	if gatewayRef == "" {
		return nil, errors.New("stripe verify: no payment intent recorded for reference")
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.api.PaymentIntents.Get(gatewayRef, params)
	if err != nil {
		return nil, fmt.Errorf("stripe get intent: %w", err)
	}
	if got := pi.Metadata[stripeReferenceKey]; got != reference {
		return nil, fmt.Errorf("stripe verify: intent %s belongs to reference %q", pi.ID, got)
	}

	received := pi.AmountReceived
	if received == 0 {
		received = pi.Amount
	}
	return &VerifyResponse{
		Status:           stripeStatus(pi),
		Amount:           fromMinorUnits(received),
		Currency:         strings.ToUpper(string(pi.Currency)),
		GatewayReference: pi.ID,
	}, nil
}

func stripeStatus(pi *stripe.PaymentIntent) string {
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return StatusSuccess
	case stripe.PaymentIntentStatusCanceled:
		return StatusAbandoned
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		if pi.LastPaymentError != nil {
			return StatusFailed
		}
		return StatusPending
	default:
		return StatusPending
	}
}
