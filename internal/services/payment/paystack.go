package payment

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	GatewayPaystack        = "paystack"
	DefaultPaystackBaseURL = "https://api.paystack.co"
)

// PaystackGateway talks to the Paystack REST API. Amounts are sent in kobo.
type PaystackGateway struct {
	secret      string
	baseURL     string
	callbackURL string
	timeout     time.Duration
}

func NewPaystackGateway(secret, baseURL, callbackURL string, timeout time.Duration) *PaystackGateway {
	if baseURL == "" {
		baseURL = DefaultPaystackBaseURL
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &PaystackGateway{
		secret:      secret,
		baseURL:     strings.TrimRight(baseURL, "/"),
		callbackURL: callbackURL,
		timeout:     timeout,
	}
}

func (g *PaystackGateway) Name() string {
	return GatewayPaystack
}

type paystackEnvelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func (e *paystackEnvelope[T]) rejection() error {
	if !e.Status {
		return fmt.Errorf("rejected: %s", e.Message)
	}
	return nil
}

type paystackInitData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type paystackVerifyData struct {
	ID        int64  `json:"id"`
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	PaidAt    string `json:"paid_at"`
}

func (g *PaystackGateway) InitializePayment(ctx context.Context, req InitRequest) (*InitResponse, error) {
	body := map[string]interface{}{
		"email":     req.Email,
		"amount":    toMinorUnits(req.Amount),
		"reference": req.Reference,
		"currency":  req.Currency,
	}
	if g.callbackURL != "" {
		body["callback_url"] = g.callbackURL
	}
	if len(req.Metadata) > 0 {
		body["metadata"] = req.Metadata
	}

	var out paystackEnvelope[paystackInitData]
	agent := fiber.Post(g.baseURL + "/transaction/initialize").JSON(body)
	if err := g.do(ctx, agent, &out); err != nil {
		return nil, fmt.Errorf("paystack initialize: %w", err)
	}

	return &InitResponse{
		AuthorizationURL: out.Data.AuthorizationURL,
		AccessCode:       out.Data.AccessCode,
	}, nil
}

func (g *PaystackGateway) VerifyPayment(ctx context.Context, reference, _ string) (*VerifyResponse, error) {
	var out paystackEnvelope[paystackVerifyData]
	agent := fiber.Get(g.baseURL + "/transaction/verify/" + url.PathEscape(reference))
	if err := g.do(ctx, agent, &out); err != nil {
		return nil, fmt.Errorf("paystack verify: %w", err)
	}

	resp := &VerifyResponse{
		Status:           normalizePaystackStatus(out.Data.Status),
		Amount:           fromMinorUnits(out.Data.Amount),
		Currency:         out.Data.Currency,
		GatewayReference: fmt.Sprint(out.Data.ID),
	}
	if out.Data.PaidAt != "" {
		if t, err := time.Parse(time.RFC3339, out.Data.PaidAt); err == nil {
			resp.PaidAt = t
		}
	}
	return resp, nil
}

// do sends the request and decodes the envelope into out.
func (g *PaystackGateway) do(ctx context.Context, agent *fiber.Agent, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	timeout := g.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	agent.Set(fiber.HeaderAuthorization, "Bearer "+g.secret).
		Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON).
		Timeout(timeout)

	code, body, errs := agent.Struct(out)
	if len(errs) > 0 {
		return fmt.Errorf("request failed: %w", errs[0])
	}
	if code < 200 || code >= 300 {
		return fmt.Errorf("unexpected status %d: %s", code, truncate(string(body), 200))
	}

	if env, ok := out.(interface{ rejection() error }); ok {
		return env.rejection()
	}
	return nil
}

func normalizePaystackStatus(status string) string {
	switch strings.ToLower(status) {
	case "success":
		return StatusSuccess
	case "ongoing", "pending", "processing", "queued":
		return StatusPending
	case "abandoned":
		return StatusAbandoned
	default:
		return StatusFailed
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
