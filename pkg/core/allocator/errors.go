package allocator

import (
	"errors"
	"fmt"

	"github.com/ssds/seat-allocation/pkg/core/model"
)

// Sentinel errors for errors.Is checks.
var (
	// ErrConfiguration is matched by every *ConfigurationError
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidInput is matched by every *InvalidInputError
	ErrInvalidInput = errors.New("invalid input")
)

// ConfigurationError reports a configuration problem found before allocation runs.
// Nothing is allocated when one is returned.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s", e.Message)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func configErrorf(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InvalidInputError reports a roster record that cannot take part in ranking.
// It is isolated to the record: the run continues without it.
type InvalidInputError struct {
	Row       int
	StudentID string
	Reason    string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: row %d (id %q): %s", e.Row, e.StudentID, e.Reason)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// SkippedErrors returns one *InvalidInputError per record excluded from ranking,
// joined into a single error, or nil when nothing was skipped
func SkippedErrors(result *model.AllocationResult) error {
	if result == nil || len(result.Skipped) == 0 {
		return nil
	}
	errs := make([]error, len(result.Skipped))
	for i, s := range result.Skipped {
		errs[i] = &InvalidInputError{Row: s.Row, StudentID: s.StudentID, Reason: s.Reason}
	}
	return errors.Join(errs...)
}
