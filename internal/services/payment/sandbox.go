package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const GatewaySandbox = "sandbox"

// SandboxGateway settles every attempt in process. Amounts listed in
// FailAmounts are reported as failed.
type SandboxGateway struct {
	FailAmounts []decimal.Decimal

	mu       sync.Mutex
	attempts map[string]decimal.Decimal
}

func NewSandboxGateway(failAmounts ...decimal.Decimal) *SandboxGateway {
	return &SandboxGateway{
		FailAmounts: failAmounts,
		attempts:    make(map[string]decimal.Decimal),
	}
}

func (g *SandboxGateway) Name() string {
	return GatewaySandbox
}

func (g *SandboxGateway) InitializePayment(ctx context.Context, req InitRequest) (*InitResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.attempts[req.Reference] = req.Amount
	g.mu.Unlock()

	return &InitResponse{
		AuthorizationURL: "sandbox://checkout/" + req.Reference,
		AccessCode:       req.Reference,
	}, nil
}

func (g *SandboxGateway) VerifyPayment(ctx context.Context, reference, _ string) (*VerifyResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	amount, ok := g.attempts[reference]
	g.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("sandbox: unknown reference %q", reference)
	}

	status := StatusSuccess
	for _, fail := range g.FailAmounts {
		if fail.Equal(amount) {
			status = StatusFailed
			break
		}
	}
	return &VerifyResponse{
		Status: status,
		Amount: amount,
		PaidAt: time.Now().UTC(),
	}, nil
}
