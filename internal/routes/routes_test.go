package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"edupay/internal/handlers"
	"edupay/internal/middleware"
	"edupay/internal/repositories"
	"edupay/internal/services/auth"
	"edupay/internal/services/catalog"
	"edupay/internal/services/payment"
	"edupay/internal/services/wallet"
	"edupay/internal/utils"
	"edupay/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const webhookSecret = "sk_test_webhook"

type testAPI struct {
	app    *fiber.App
	auth   auth.Service
	ledger wallet.Ledger
	bridge *payment.Bridge
}

func newTestAPI(t *testing.T, rateLimit int) *testAPI {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	dsn := filepath.Join(t.TempDir(), "api.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repositories.Migrate(db))

	walletRepo := repositories.NewWalletRepository(db)
	ledger := wallet.NewLedger(walletRepo, repositories.NewSQLLedgerStore(db), wallet.Config{}, nil, log)
	bridge := payment.NewBridge(ledger, payment.NewSandboxGateway(), payment.Config{WebhookSecret: webhookSecret}, log)
	facade := wallet.NewFacade(ledger, walletRepo, bridge, nil, wallet.Config{}, log)
	bridge.OnSettled(facade.WalletChanged)

	tokens, err := utils.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	userRepo := repositories.NewUserRepository(db)
	authService := auth.NewService(userRepo, ledger, tokens, log)
	products := catalog.NewService(catalog.DefaultProducts(), facade, log)

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(log)})
	SetupRoutes(app, Handlers{
		Auth:          handlers.NewAuthHandler(authService, log),
		User:          handlers.NewUserHandler(userRepo, facade, log),
		Wallet:        handlers.NewWalletHandler(facade, log),
		Catalog:       handlers.NewCatalogHandler(products, log),
		Webhook:       handlers.NewWebhookHandler(bridge, log),
		Admin:         handlers.NewAdminHandler(ledger, bridge, facade, time.Hour, log),
		Health:        handlers.NewHealthHandler(db, nil),
		AuthMW:        middleware.NewAuthMiddleware(tokens, authService, log),
		AuthRateLimit: rateLimit,
	})

	return &testAPI{app: app, auth: authService, ledger: ledger, bridge: bridge}
}

type response struct {
	Status int
	Body   map[string]interface{}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}, headers ...string) response {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := response{Status: resp.StatusCode, Body: map[string]interface{}{}}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out.Body), string(raw))
	}
	return out
}

var userSeq int

func (a *testAPI) signup(t *testing.T) string {
	t.Helper()
	userSeq++
	email := fmt.Sprintf("student%d@example.com", userSeq)

	reg := a.do(t, http.MethodPost, "/api/register", "", validation.RegisterInput{
		Name:     "Student",
		Email:    email,
		Phone:    fmt.Sprintf("080312345%02d", userSeq),
		Password: "s3cret!pass",
	})
	require.Equal(t, fiber.StatusCreated, reg.Status, reg.Body)

	login := a.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email": email, "password": "s3cret!pass",
	})
	require.Equal(t, fiber.StatusOK, login.Status, login.Body)
	return login.Body["access_token"].(string)
}

// fund tops up the caller's wallet through the sandbox gateway.
func (a *testAPI) fund(t *testing.T, token string, amount int) response {
	t.Helper()
	r := a.do(t, http.MethodPost, "/api/wallet/fund", token, map[string]interface{}{"amount": amount})
	require.Equal(t, fiber.StatusAccepted, r.Status, r.Body)
	ref := r.Body["checkout"].(map[string]interface{})["reference"].(string)

	r = a.do(t, http.MethodPost, "/api/wallet/fund/verify", token, map[string]string{"reference": ref})
	require.Equal(t, fiber.StatusOK, r.Status, r.Body)
	return r
}

func (a *testAPI) adminToken(t *testing.T) string {
	t.Helper()
	_, err := a.auth.CreateAdmin(context.Background(), validation.RegisterInput{
		Name: "Admin", Email: "admin@example.com", Phone: "08099999999", Password: "adm1n!pass",
	})
	require.NoError(t, err)
	session, err := a.auth.Login(context.Background(), "admin@example.com", "adm1n!pass")
	require.NoError(t, err)
	return session.AccessToken
}

func walletField(t *testing.T, r response, field string) interface{} {
	t.Helper()
	w, ok := r.Body["wallet"].(map[string]interface{})
	require.True(t, ok, r.Body)
	return w[field]
}

func TestAPI_RequiresToken(t *testing.T) {
	api := newTestAPI(t, 0)

	r := api.do(t, http.MethodGet, "/api/wallet", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, r.Status)

	r = api.do(t, http.MethodGet, "/api/wallet", "not-a-jwt", nil)
	assert.Equal(t, fiber.StatusUnauthorized, r.Status)
}

func TestAPI_FundSpendAndOverdraw(t *testing.T) {
	api := newTestAPI(t, 0)
	token := api.signup(t)

	r := api.do(t, http.MethodGet, "/api/wallet", token, nil)
	require.Equal(t, fiber.StatusOK, r.Status)
	assert.Equal(t, "0", walletField(t, r, "balance"))

	r = api.fund(t, token, 5000)
	assert.Equal(t, "5000", walletField(t, r, "balance"))

	r = api.do(t, http.MethodPost, "/api/wallet/transactions", token, map[string]interface{}{
		"type": "debit", "amount": "2000", "description": "JAMB form",
	})
	require.Equal(t, fiber.StatusCreated, r.Status, r.Body)
	assert.Equal(t, "3000", walletField(t, r, "balance"))

	r = api.do(t, http.MethodPost, "/api/wallet/transactions", token, map[string]interface{}{
		"type": "debit", "amount": "3000.01",
	})
	assert.Equal(t, fiber.StatusPaymentRequired, r.Status)
	assert.Equal(t, "INSUFFICIENT_BALANCE", r.Body["code"])

	r = api.do(t, http.MethodGet, "/api/wallet/transactions?limit=1", token, nil)
	require.Equal(t, fiber.StatusOK, r.Status)
	page := r.Body["data"].([]interface{})
	require.Len(t, page, 1)
	assert.Equal(t, "debit", page[0].(map[string]interface{})["type"])
	assert.Equal(t, float64(2), r.Body["pagination"].(map[string]interface{})["total"])
}

func TestAPI_OnlyAdminsCredit(t *testing.T) {
	api := newTestAPI(t, 0)
	userToken := api.signup(t)
	adminToken := api.adminToken(t)

	r := api.do(t, http.MethodPost, "/api/wallet/fund", userToken, map[string]interface{}{"amount": 1000000, "method": "direct"})
	assert.Equal(t, fiber.StatusForbidden, r.Status, r.Body)
	r = api.do(t, http.MethodPost, "/api/wallet/fund", userToken, map[string]interface{}{"amount": 1000000, "method": " Direct "})
	assert.Equal(t, fiber.StatusForbidden, r.Status, r.Body)
	r = api.do(t, http.MethodPost, "/api/wallet/transactions", userToken, map[string]interface{}{"type": "credit", "amount": 500000})
	assert.Equal(t, fiber.StatusForbidden, r.Status, r.Body)
	r = api.do(t, http.MethodPost, "/api/wallet/transactions", userToken, map[string]interface{}{"type": "CREDIT", "amount": 500000})
	assert.Equal(t, fiber.StatusForbidden, r.Status, r.Body)

	// Without a method a user is sent to the gateway.
	r = api.do(t, http.MethodPost, "/api/wallet/fund", userToken, map[string]interface{}{"amount": 1000})
	require.Equal(t, fiber.StatusAccepted, r.Status, r.Body)
	assert.Equal(t, "0", walletField(t, r, "balance"))

	r = api.do(t, http.MethodPost, "/api/catalog/WAEC/purchase", userToken, map[string]int{"quantity": 10})
	assert.Equal(t, fiber.StatusPaymentRequired, r.Status)

	r = api.do(t, http.MethodPost, "/api/wallet/fund", adminToken, map[string]interface{}{"amount": 1000, "method": "direct"})
	require.Equal(t, fiber.StatusOK, r.Status, r.Body)
	assert.Equal(t, "1000", walletField(t, r, "balance"))
	r = api.do(t, http.MethodPost, "/api/wallet/fund", adminToken, map[string]interface{}{"amount": 250})
	require.Equal(t, fiber.StatusOK, r.Status, r.Body)
	r = api.do(t, http.MethodPost, "/api/wallet/transactions", adminToken, map[string]interface{}{"type": "credit", "amount": 500})
	require.Equal(t, fiber.StatusCreated, r.Status, r.Body)
	assert.Equal(t, "1750", walletField(t, r, "balance"))
}

func TestAPI_RejectsBadInput(t *testing.T) {
	api := newTestAPI(t, 0)
	token := api.signup(t)

	tests := []struct {
		name   string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"negative funding", "/api/wallet/fund", map[string]interface{}{"amount": -5}, fiber.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown method", "/api/wallet/fund", map[string]interface{}{"amount": 5, "method": "crypto"}, fiber.StatusBadRequest, "INVALID_FUNDING_METHOD"},
		{"sub-kobo amount", "/api/wallet/fund", map[string]interface{}{"amount": "1.005"}, fiber.StatusBadRequest, "INVALID_AMOUNT"},
		{"unknown type", "/api/wallet/transactions", map[string]interface{}{"type": "refund", "amount": 5}, fiber.StatusBadRequest, "INVALID_TRANSACTION_TYPE"},
		{"malformed body", "/api/wallet/fund", []byte("{"), fiber.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := api.do(t, http.MethodPost, tt.path, token, tt.body)
			assert.Equal(t, tt.status, r.Status, r.Body)
			if tt.code != "" {
				assert.Equal(t, tt.code, r.Body["code"])
			}
		})
	}
}

func TestAPI_GatewayFundingAndVerify(t *testing.T) {
	api := newTestAPI(t, 0)
	token := api.signup(t)

	r := api.do(t, http.MethodPost, "/api/wallet/fund", token, map[string]interface{}{"amount": 2500, "method": "gateway"})
	require.Equal(t, fiber.StatusAccepted, r.Status, r.Body)
	checkout := r.Body["checkout"].(map[string]interface{})
	ref := checkout["reference"].(string)
	assert.Equal(t, "sandbox", checkout["gateway"])
	assert.Equal(t, "0", walletField(t, r, "balance"))

	r = api.do(t, http.MethodPost, "/api/wallet/fund/verify", token, map[string]string{"reference": ref})
	require.Equal(t, fiber.StatusOK, r.Status, r.Body)
	assert.Equal(t, "2500", walletField(t, r, "balance"))

	r = api.do(t, http.MethodPost, "/api/wallet/fund/verify", token, map[string]string{"reference": ref})
	assert.Equal(t, fiber.StatusNotFound, r.Status)

	other := api.signup(t)
	r = api.do(t, http.MethodPost, "/api/wallet/fund", token, map[string]interface{}{"amount": 100, "method": "sandbox"})
	require.Equal(t, fiber.StatusAccepted, r.Status, r.Body)
	ref = r.Body["checkout"].(map[string]interface{})["reference"].(string)
	r = api.do(t, http.MethodPost, "/api/wallet/fund/verify", other, map[string]string{"reference": ref})
	assert.Equal(t, fiber.StatusNotFound, r.Status)
}

func TestAPI_PaystackWebhook(t *testing.T) {
	api := newTestAPI(t, 0)
	token := api.signup(t)

	r := api.do(t, http.MethodPost, "/api/wallet/fund", token, map[string]interface{}{"amount": 4000, "method": "gateway"})
	require.Equal(t, fiber.StatusAccepted, r.Status, r.Body)
	ref := r.Body["checkout"].(map[string]interface{})["reference"].(string)

	payload := []byte(fmt.Sprintf(`{"event":"charge.success","data":{"reference":%q,"status":"success"}}`, ref))

	r = api.do(t, http.MethodPost, "/api/webhooks/paystack", "", payload,
		payment.SignatureHeader, payment.Sign("forged", payload))
	assert.Equal(t, fiber.StatusUnauthorized, r.Status)

	r = api.do(t, http.MethodPost, "/api/webhooks/paystack", "", payload,
		payment.SignatureHeader, payment.Sign(webhookSecret, payload))
	require.Equal(t, fiber.StatusOK, r.Status, r.Body)

	r = api.do(t, http.MethodGet, "/api/wallet", token, nil)
	assert.Equal(t, "4000", walletField(t, r, "balance"))

	// Redelivery of a settled event is acknowledged.
	r = api.do(t, http.MethodPost, "/api/webhooks/paystack", "", payload,
		payment.SignatureHeader, payment.Sign(webhookSecret, payload))
	assert.Equal(t, fiber.StatusOK, r.Status)
}

func TestAPI_CatalogPurchase(t *testing.T) {
	api := newTestAPI(t, 0)
	token := api.signup(t)

	r := api.do(t, http.MethodGet, "/api/catalog", token, nil)
	require.Equal(t, fiber.StatusOK, r.Status)
	assert.Len(t, r.Body["products"], 4)

	r = api.do(t, http.MethodPost, "/api/catalog/WAEC/purchase", token, map[string]int{"quantity": 1})
	assert.Equal(t, fiber.StatusPaymentRequired, r.Status)

	api.fund(t, token, 5000)

	r = api.do(t, http.MethodPost, "/api/catalog/WAEC/purchase", token, map[string]int{"quantity": 1})
	require.Equal(t, fiber.StatusCreated, r.Status, r.Body)
	assert.Len(t, r.Body["cards"], 1)
	assert.Equal(t, "1600", walletField(t, r, "balance"))

	r = api.do(t, http.MethodPost, "/api/catalog/SAT/purchase", token, nil)
	assert.Equal(t, fiber.StatusNotFound, r.Status)
	assert.Equal(t, "PRODUCT_NOT_FOUND", r.Body["code"])
}

func TestAPI_LogoutRevokesToken(t *testing.T) {
	api := newTestAPI(t, 0)
	token := api.signup(t)

	r := api.do(t, http.MethodPost, "/api/logout", token, nil)
	require.Equal(t, fiber.StatusOK, r.Status)

	r = api.do(t, http.MethodGet, "/api/wallet", token, nil)
	assert.Equal(t, fiber.StatusUnauthorized, r.Status)
	assert.Equal(t, "session expired", r.Body["error"])
}

func TestAPI_AdminRoutes(t *testing.T) {
	api := newTestAPI(t, 0)
	userToken := api.signup(t)

	adminToken := api.adminToken(t)

	r := api.do(t, http.MethodGet, "/api/wallet", userToken, nil)
	walletID := uint(walletField(t, r, "wallet_id").(float64))
	auditPath := fmt.Sprintf("/api/admin/wallets/%d/audit", walletID)

	r = api.do(t, http.MethodGet, auditPath, userToken, nil)
	assert.Equal(t, fiber.StatusForbidden, r.Status)

	r = api.do(t, http.MethodGet, auditPath, adminToken, nil)
	require.Equal(t, fiber.StatusOK, r.Status, r.Body)
	assert.Equal(t, true, r.Body["consistent"])

	r = api.do(t, http.MethodGet, "/api/admin/wallets/999/audit", adminToken, nil)
	assert.Equal(t, fiber.StatusNotFound, r.Status)

	r = api.do(t, http.MethodPost, fmt.Sprintf("/api/admin/wallets/%d/lock", walletID), adminToken, map[string]string{"reason": "chargeback"})
	require.Equal(t, fiber.StatusOK, r.Status, r.Body)
	r = api.do(t, http.MethodPost, "/api/wallet/fund", userToken, map[string]interface{}{"amount": 10})
	assert.Equal(t, fiber.StatusLocked, r.Status)
	r = api.do(t, http.MethodPost, fmt.Sprintf("/api/admin/wallets/%d/unlock", walletID), adminToken, nil)
	require.Equal(t, fiber.StatusOK, r.Status)

	r = api.do(t, http.MethodPost, "/api/wallet/fund", userToken, map[string]interface{}{"amount": 10, "method": "gateway"})
	require.Equal(t, fiber.StatusAccepted, r.Status)
	r = api.do(t, http.MethodPost, "/api/admin/payments/expire?older_than=0s", adminToken, nil)
	require.Equal(t, fiber.StatusOK, r.Status, r.Body)
	assert.Equal(t, float64(1), r.Body["expired"])

	r = api.do(t, http.MethodPost, "/api/admin/payments/expire?older_than=soon", adminToken, nil)
	assert.Equal(t, fiber.StatusBadRequest, r.Status)
}

func TestAPI_LoginRateLimited(t *testing.T) {
	api := newTestAPI(t, 2)
	creds := map[string]string{"email": "nobody@example.com", "password": "wrong!pass1"}

	for i := 0; i < 2; i++ {
		r := api.do(t, http.MethodPost, "/api/login", "", creds)
		assert.Equal(t, fiber.StatusUnauthorized, r.Status)
	}
	r := api.do(t, http.MethodPost, "/api/login", "", creds)
	assert.Equal(t, fiber.StatusTooManyRequests, r.Status)
}

func TestAPI_Health(t *testing.T) {
	api := newTestAPI(t, 0)

	r := api.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, fiber.StatusOK, r.Status)
	assert.Equal(t, "ok", r.Body["status"])
}

func TestAPI_Profile(t *testing.T) {
	api := newTestAPI(t, 0)
	token := api.signup(t)

	r := api.do(t, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, fiber.StatusOK, r.Status, r.Body)
	user := r.Body["user"].(map[string]interface{})
	assert.Equal(t, "user", user["role"])
	assert.Equal(t, "0", walletField(t, r, "balance"))
	assert.Equal(t, "NGN", walletField(t, r, "currency"))
}
