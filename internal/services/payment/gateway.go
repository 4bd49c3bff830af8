package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Gateway statuses reported by VerifyPayment.
const (
	StatusSuccess   = "success"
	StatusPending   = "pending"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
)

// Gateway is a payment provider the bridge can route funding through.
type Gateway interface {
	Name() string
	InitializePayment(ctx context.Context, req InitRequest) (*InitResponse, error)
	// VerifyPayment reports the provider's verdict for reference. gatewayRef
	// is whatever InitializePayment returned as GatewayReference.
	VerifyPayment(ctx context.Context, reference, gatewayRef string) (*VerifyResponse, error)
}

type InitRequest struct {
	Amount    decimal.Decimal
	Currency  string
	Email     string
	Reference string
	Metadata  map[string]interface{}
}

type InitResponse struct {
	AuthorizationURL string
	AccessCode       string
	GatewayReference string
}

type VerifyResponse struct {
	Status           string
	Amount           decimal.Decimal
	Currency         string
	GatewayReference string
	PaidAt           time.Time
}

// toMinorUnits converts naira to kobo.
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func fromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
