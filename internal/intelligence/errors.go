package intelligence

import (
	"errors"
	"fmt"
)

// ErrBudgetExhausted signals that the pipeline deadline left too little time
// for a required LLM call. During structuring this is fatal; during overflow
// resolution the service degrades gracefully instead of surfacing it.
var ErrBudgetExhausted = errors.New("insufficient time remaining in pipeline budget")

// InputValidationError reports user input that violates a hard constraint.
type InputValidationError struct {
	Reason string
}

func (e *InputValidationError) Error() string {
	return e.Reason
}

// PlanValidationError reports LLM output that failed schema or structural
// validation after all retry attempts were exhausted.
type PlanValidationError struct {
	Attempts int
	Err      error
}

func (e *PlanValidationError) Error() string {
	return fmt.Sprintf("plan validation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *PlanValidationError) Unwrap() error {
	return e.Err
}
