package scheduler

import (
	"errors"
	"fmt"
)

// Sentinel errors wrapped by ValidationError.
var (
	ErrInvalidInterval     = errors.New("invalid interval")
	ErrInvalidScheduleType = errors.New("invalid schedule type")
	ErrInvalidCron         = errors.New("invalid cron expression")
	ErrInvalidRange        = errors.New("value out of range")
	ErrDuplicateJob        = errors.New("duplicate job id")
	ErrJobNotFound         = errors.New("job not found")
)

// ValidationError is returned when a job cannot be registered.
// Messages read "scheduler: <field> <message>. <action>".
type ValidationError struct {
	Field   string
	Message string
	Action  string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Action == "" {
		return fmt.Sprintf("scheduler: %s %s", e.Field, e.Message)
	}
	return fmt.Sprintf("scheduler: %s %s. %s", e.Field, e.Message, e.Action)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewRangeError reports a numeric field outside [minVal, maxVal].
func NewRangeError(field string, minVal, maxVal, actual int) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("must be %d-%d, got %d", minVal, maxVal, actual),
		Action:  "Choose a value within range",
		Err:     ErrInvalidRange,
	}
}
