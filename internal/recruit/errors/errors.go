package errors

import (
	"fmt"
)

var (
	ErrNotFound               = fmt.Errorf("not found")
	ErrInvalidInput           = fmt.Errorf("invalid input")
	ErrAuthenticationRequired = fmt.Errorf("authentication required")
	ErrNoOrganization         = fmt.Errorf("user has no organization")
	ErrExternalService        = fmt.Errorf("external service error")
	ErrPersistence            = fmt.Errorf("persistence error")
	ErrInvalidTransition      = fmt.Errorf("invalid status transition")
	ErrExtraction             = fmt.Errorf("%w: text extraction failed", ErrExternalService)
	// ErrSchemaValidation is returned when LLM output does not match the declared schema.
	ErrSchemaValidation = fmt.Errorf("%w: schema validation failed", ErrInvalidInput)
)
