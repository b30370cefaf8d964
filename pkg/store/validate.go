package store

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate caches struct info, so one instance is shared.
var validate = validator.New()

// ValidateEntry checks a log entry at the ingestion boundary: required ids,
// a YYYY-MM-DD date and a known status.
func ValidateEntry(e LogEntry) error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	return nil
}
