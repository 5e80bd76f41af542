package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/spice-lens/internal/model"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrInvalidFeedback  = errors.New("invalid feedback")
	ErrInvalidScenario  = errors.New("invalid scenario record")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateFeedback(fb *model.Feedback) error {
	if fb == nil {
		return fmt.Errorf("%w: feedback", ErrNilParameter)
	}
	if strings.TrimSpace(fb.Description) == "" {
		return fmt.Errorf("%w: missing description", ErrInvalidFeedback)
	}
	if strings.TrimSpace(fb.CorrectedCategory) == "" {
		return fmt.Errorf("%w: missing corrected category", ErrInvalidFeedback)
	}
	if fb.Confidence < 0 || fb.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v outside [0, 1]", ErrInvalidFeedback, fb.Confidence)
	}
	return nil
}

func validateOutcome(outcome model.Outcome) error {
	if outcome.Scenario.Kind == "" {
		return fmt.Errorf("%w: missing scenario kind", ErrInvalidScenario)
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

const maxListLimit = 1000
