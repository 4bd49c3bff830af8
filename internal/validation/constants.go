package validation

const (
	// Password requirements
	MinPasswordLength = 8
	MaxPasswordLength = 72

	// String lengths
	MaxNameLength        = 100
	MaxDescriptionLength = 500
	MaxReferenceLength   = 100
	MaxCategoryLength    = 64
)
