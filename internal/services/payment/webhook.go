package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	apperrors "edupay/internal/errors"
)

// SignatureHeader carries the Paystack webhook signature.
const SignatureHeader = "X-Paystack-Signature"

const eventChargeSuccess = "charge.success"

type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
	} `json:"data"`
}

// Sign returns the hex HMAC-SHA512 of payload under secret.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// HandleWebhook authenticates a gateway callback and settles the attempt it
// reports. Events other than charge.success are acknowledged and ignored.
func (b *Bridge) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if b.config.WebhookSecret == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidSignature, "webhook secret is not configured")
	}
	expected := Sign(b.config.WebhookSecret, payload)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return apperrors.ErrInvalidSignature
	}

	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return apperrors.Wrap(apperrors.ErrGateway, fmt.Errorf("failed to decode webhook: %w", err))
	}
	if event.Event != eventChargeSuccess {
		b.logger.Debug("webhook ignored", "event", event.Event)
		return nil
	}

	_, err := b.Verify(ctx, event.Data.Reference)
	if errors.Is(err, apperrors.ErrTransactionNotFound) {
		// Settled already by a client-side verify.
		b.logger.Info("webhook for settled reference", "reference", event.Data.Reference)
		return nil
	}
	return err
}
