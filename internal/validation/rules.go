package validation

import (
	"edupay/internal/models"
)

// RegisterInput is the body of POST /api/register.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func Registration(in RegisterInput) error {
	v := New()
	v.Required("name", in.Name)
	v.MaxLength("name", in.Name, MaxNameLength)
	v.Email("email", in.Email)
	v.Phone("phone", in.Phone)
	v.Password("password", in.Password)
	return v.Err()
}

func Transaction(in models.TransactionInput) error {
	v := New()
	v.Required("type", in.Type)
	v.PositiveAmount("amount", in.Amount)
	v.MaxLength("description", in.Description, MaxDescriptionLength)
	v.MaxLength("category", in.Category, MaxCategoryLength)
	v.MaxLength("reference", in.Reference, MaxReferenceLength)
	return v.Err()
}

func Funding(in models.FundWalletRequest) error {
	v := New()
	v.PositiveAmount("amount", in.Amount)
	return v.Err()
}
