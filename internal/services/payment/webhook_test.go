package payment

import (
	"context"
	"fmt"
	"testing"

	apperrors "edupay/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSign(t *testing.T) {
	sig := Sign("secret", []byte(`{"event":"charge.success"}`))
	assert.Len(t, sig, 128)
	assert.Equal(t, sig, Sign("secret", []byte(`{"event":"charge.success"}`)))
	assert.NotEqual(t, sig, Sign("other", []byte(`{"event":"charge.success"}`)))
}

func TestBridge_HandleWebhook(t *testing.T) {
	f := newBridgeFixture(t, "0")
	ctx := context.Background()
	ref := f.initiate(t, "2500")

	payload := []byte(fmt.Sprintf(`{"event":"charge.success","data":{"reference":%q,"status":"success"}}`, ref))

	t.Run("bad signature", func(t *testing.T) {
		err := f.bridge.HandleWebhook(ctx, payload, Sign("wrong", payload))
		assert.ErrorIs(t, err, apperrors.ErrInvalidSignature)
	})

	t.Run("other events are ignored", func(t *testing.T) {
		other := []byte(`{"event":"transfer.success","data":{"reference":"x"}}`)
		assert.NoError(t, f.bridge.HandleWebhook(ctx, other, Sign("sk_test_secret", other)))
	})

	t.Run("charge success credits the wallet", func(t *testing.T) {
		f.gateway.On("VerifyPayment", mock.Anything, ref, "").
			Return(&VerifyResponse{Status: StatusSuccess, Amount: dec("2500")}, nil).Once()

		require.NoError(t, f.bridge.HandleWebhook(ctx, payload, Sign("sk_test_secret", payload)))

		balance, err := f.ledger.Balance(ctx, f.wallet.ID)
		require.NoError(t, err)
		assert.True(t, dec("2500").Equal(balance))
	})

	t.Run("redelivery is acknowledged", func(t *testing.T) {
		require.NoError(t, f.bridge.HandleWebhook(ctx, payload, Sign("sk_test_secret", payload)))

		balance, err := f.ledger.Balance(ctx, f.wallet.ID)
		require.NoError(t, err)
		assert.True(t, dec("2500").Equal(balance))
	})
}

func TestBridge_HandleWebhookWithoutSecret(t *testing.T) {
	f := newBridgeFixture(t, "0")
	f.bridge.config.WebhookSecret = ""
	err := f.bridge.HandleWebhook(context.Background(), []byte(`{}`), "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidSignature)
}
