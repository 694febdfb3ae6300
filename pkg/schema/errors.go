package schema

import "errors"

// Sentinel errors for schema validation.
var (
	ErrInvalidSchema   = errors.New("invalid JSON schema")
	ErrInvalidDocument = errors.New("document is not valid JSON")
	ErrValidationFailed = errors.New("document does not satisfy schema")
)
