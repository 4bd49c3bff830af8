package models

import "github.com/shopspring/decimal"

// Funding methods accepted by the wallet facade.
const (
	FundingMethodDirect  = "direct"
	FundingMethodGateway = "gateway"
)

// FundWalletRequest is the body of POST /api/wallet/fund.
type FundWalletRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
}

// VerifyFundingRequest is the body of POST /api/wallet/fund/verify.
type VerifyFundingRequest struct {
	Reference string `json:"reference"`
}

// TransactionInput is what callers pass to AddTransaction.
type TransactionInput struct {
	Type        string                 `json:"type"`
	Amount      decimal.Decimal        `json:"amount"`
	Category    string                 `json:"category"`
	Description string                 `json:"description"`
	Reference   string                 `json:"reference,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}
