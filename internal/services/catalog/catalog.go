// Package catalog holds the purchasable educational services and turns a
// purchase into a wallet debit plus the scratch cards it buys.
package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"edupay/internal/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DefaultProducts is the catalog used when no file is configured.
func DefaultProducts() []models.Product {
	return []models.Product{
		{Code: "WAEC", Name: "WAEC Result Checker", Category: models.CategoryEducation, Price: decimal.NewFromInt(3400),
			Description: "Scratch card for checking WASSCE results"},
		{Code: "NECO", Name: "NECO Token", Category: models.CategoryEducation, Price: decimal.NewFromInt(1200),
			Description: "Token for checking NECO SSCE results"},
		{Code: "JAMB", Name: "JAMB ePIN", Category: models.CategoryEducation, Price: decimal.NewFromInt(4700),
			Description: "UTME registration ePIN"},
		{Code: "NABTEB", Name: "NABTEB Result Checker", Category: models.CategoryEducation, Price: decimal.NewFromInt(1000),
			Description: "Scratch card for checking NABTEB results"},
	}
}

type fileProduct struct {
	Code        string `yaml:"code"`
	Name        string `yaml:"name"`
	Category    string `yaml:"category"`
	Price       string `yaml:"price"`
	Description string `yaml:"description"`
}

type file struct {
	Products []fileProduct `yaml:"products"`
}

// LoadFile reads a catalog from a YAML file of the form
//
//	products:
//	  - code: WAEC
//	    name: WAEC Result Checker
//	    price: "3400"
func LoadFile(path string) ([]models.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) ([]models.Product, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	if len(f.Products) == 0 {
		return nil, fmt.Errorf("catalog has no products")
	}

	seen := make(map[string]bool, len(f.Products))
	products := make([]models.Product, 0, len(f.Products))
	for i, p := range f.Products {
		code := strings.ToUpper(strings.TrimSpace(p.Code))
		if code == "" {
			return nil, fmt.Errorf("product %d: code is required", i)
		}
		if seen[code] {
			return nil, fmt.Errorf("product %q: duplicate code", code)
		}
		seen[code] = true

		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, fmt.Errorf("product %q: invalid price %q", code, p.Price)
		}
		if !price.IsPositive() {
			return nil, fmt.Errorf("product %q: price must be positive", code)
		}

		name := p.Name
		if name == "" {
			name = code
		}
		category := p.Category
		if category == "" {
			category = models.CategoryEducation
		}
		products = append(products, models.Product{
			Code:        code,
			Name:        name,
			Category:    category,
			Price:       price,
			Description: p.Description,
		})
	}

	sort.SliceStable(products, func(i, j int) bool { return products[i].Code < products[j].Code })
	return products, nil
}

// Load returns the catalog at path, or the defaults when path is empty.
func Load(path string) ([]models.Product, error) {
	if path == "" {
		return DefaultProducts(), nil
	}
	return LoadFile(path)
}
