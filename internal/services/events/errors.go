package events

import (
	"fmt"
	"strings"
)

// ValidationError reports every semantic rule an extracted event violated.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "event validation failed: " + strings.Join(e.Violations, "; ")
}

// ExtractionError is the user-visible wrapper raised after both the primary
// provider and the fallback provider have failed.
type ExtractionError struct {
	Primary  error
	Fallback error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("both providers failed. Primary: %v, Fallback: %v", e.Primary, e.Fallback)
}

func (e *ExtractionError) Unwrap() error { return e.Primary }
