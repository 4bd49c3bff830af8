package errors

var (
	ErrGateway = &DomainError{
		Code:    "GATEWAY_ERROR",
		Message: "payment gateway error",
	}
	ErrInvalidSignature = &DomainError{
		Code:    "INVALID_SIGNATURE",
		Message: "invalid webhook signature",
	}
	ErrProductNotFound = &DomainError{
		Code:    "PRODUCT_NOT_FOUND",
		Message: "product not found",
	}
	ErrInvalidCredentials = &DomainError{
		Code:    "INVALID_CREDENTIALS",
		Message: "invalid credentials",
	}
	ErrDuplicateUser = &DomainError{
		Code:    "DUPLICATE_USER",
		Message: "user already exists",
	}
)

var ErrInvalidFundingMethod = &DomainError{
	Code:    "INVALID_FUNDING_METHOD",
	Message: "funding method must be direct or gateway",
}
