package payment

import (
	"fmt"

	"edupay/internal/config"
)

// NewGateway selects the gateway named in cfg.
func NewGateway(cfg config.PaymentConfig) (Gateway, error) {
	switch cfg.Gateway {
	case GatewayPaystack:
		if cfg.PaystackSecret == "" {
			return nil, fmt.Errorf("PAYSTACK_SECRET_KEY is required for the paystack gateway")
		}
		return NewPaystackGateway(cfg.PaystackSecret, cfg.PaystackBaseURL, cfg.CallbackURL, cfg.Timeout), nil
	case GatewayStripe:
		if cfg.StripeSecret == "" {
			return nil, fmt.Errorf("STRIPE_SECRET_KEY is required for the stripe gateway")
		}
		return NewStripeGateway(cfg.StripeSecret, nil), nil
	case GatewaySandbox, "":
		return NewSandboxGateway(), nil
	}
	return nil, fmt.Errorf("unknown payment gateway %q", cfg.Gateway)
}
