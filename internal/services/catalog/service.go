package catalog

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	apperrors "edupay/internal/errors"
	"edupay/internal/models"
	"edupay/internal/services/wallet"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MaxQuantity = 10
	pinDigits   = 12
)

// Spender debits a user's wallet. *wallet.Facade satisfies it.
type Spender interface {
	AddTransaction(ctx context.Context, userID uint, input models.TransactionInput) (*wallet.MutationOutcome, error)
}

// Purchase is the receipt of a catalog purchase.
type Purchase struct {
	Product     models.Product       `json:"product"`
	Quantity    int                  `json:"quantity"`
	Total       decimal.Decimal      `json:"total"`
	Cards       []models.ScratchCard `json:"cards"`
	Transaction *models.Transaction  `json:"transaction"`
	Wallet      *wallet.Snapshot     `json:"wallet"`
}

type Service struct {
	products map[string]models.Product
	ordered  []models.Product
	spender  Spender
	logger   *slog.Logger
}

func NewService(products []models.Product, spender Spender, logger *slog.Logger) *Service {
	if spender == nil {
		panic("spender is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		products: make(map[string]models.Product, len(products)),
		spender:  spender,
		logger:   logger.With("component", "catalog"),
	}
	for _, p := range products {
		s.products[strings.ToUpper(p.Code)] = p
		s.ordered = append(s.ordered, p)
	}
	return s
}

func (s *Service) List() []models.Product {
	out := make([]models.Product, len(s.ordered))
	copy(out, s.ordered)
	return out
}

func (s *Service) Get(code string) (models.Product, error) {
	p, ok := s.products[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return models.Product{}, apperrors.WithMessage(apperrors.ErrProductNotFound, "product %q not found", code)
	}
	return p, nil
}

// Purchase debits price × quantity and issues one scratch card per unit.
// Cards are only returned when the debit succeeds.
func (s *Service) Purchase(ctx context.Context, userID uint, code string, quantity int) (*Purchase, error) {
	product, err := s.Get(code)
	if err != nil {
		return nil, err
	}
	if quantity < 1 || quantity > MaxQuantity {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, "quantity must be between 1 and %d", MaxQuantity)
	}

	cards := make([]models.ScratchCard, 0, quantity)
	cardMeta := make([]interface{}, 0, quantity)
	for i := 0; i < quantity; i++ {
		card, err := newScratchCard(product.Code)
		if err != nil {
			return nil, fmt.Errorf("failed to issue scratch card: %w", err)
		}
		cards = append(cards, card)
		cardMeta = append(cardMeta, map[string]interface{}{"serial": card.Serial, "pin": card.PIN})
	}

	total := product.Price.Mul(decimal.NewFromInt(int64(quantity)))
	description := product.Name
	if quantity > 1 {
		description = fmt.Sprintf("%s x%d", product.Name, quantity)
	}

	out, err := s.spender.AddTransaction(ctx, userID, models.TransactionInput{
		Type:        models.TransactionTypeDebit,
		Amount:      total,
		Category:    product.Category,
		Description: description,
		Metadata: map[string]interface{}{
			"product":  product.Code,
			"quantity": quantity,
			"cards":    cardMeta,
		},
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("catalog purchase",
		"user_id", userID, "product", product.Code, "quantity", quantity, "total", total.String())
	return &Purchase{
		Product:     product,
		Quantity:    quantity,
		Total:       total,
		Cards:       cards,
		Transaction: out.Transaction,
		Wallet:      out.Snapshot,
	}, nil
}

func newScratchCard(code string) (models.ScratchCard, error) {
	pin, err := randomDigits(pinDigits)
	if err != nil {
		return models.ScratchCard{}, err
	}
	serial := code + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
	return models.ScratchCard{Product: code, Serial: serial, PIN: pin}, nil
}

func randomDigits(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	ten := big.NewInt(10)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}
