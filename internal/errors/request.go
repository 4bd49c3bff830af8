package errors

var ErrValidation = &DomainError{
	Code:    "VALIDATION_ERROR",
	Message: "request validation failed",
}
