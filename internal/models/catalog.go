package models

import "github.com/shopspring/decimal"

// Product is a purchasable educational service, e.g. a WAEC result checker.
type Product struct {
	Code        string          `json:"code" yaml:"code"`
	Name        string          `json:"name" yaml:"name"`
	Category    string          `json:"category" yaml:"category"`
	Price       decimal.Decimal `json:"price" yaml:"-"`
	Description string          `json:"description,omitempty" yaml:"description"`
}

// ScratchCard is a serial and PIN pair unlocking a result-checking service.
type ScratchCard struct {
	Product string `json:"product"`
	Serial  string `json:"serial"`
	PIN     string `json:"pin"`
}
