package generation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phrazzld/cardforge/internal/catalog"
	"github.com/phrazzld/cardforge/internal/domain"
	"github.com/phrazzld/cardforge/internal/parser"
	"github.com/phrazzld/cardforge/internal/provider"
	"github.com/phrazzld/cardforge/internal/selector"
)

// Errors returned by the orchestrator. Several are the sentinels of the
// packages that detect the condition, re-exported so callers need only
// this package to classify a failure.
var (
	// ErrValidation marks bad or oversized input, detected before any provider call.
	ErrValidation = domain.ErrValidation

	// ErrUnknownModel is returned when a requested model is not in the catalog.
	// It is always wrapped together with ErrValidation.
	ErrUnknownModel = catalog.ErrUnknownModel

	// ErrModelUnavailable is returned when a model's provider has no configured client.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrVisionNotSupported is returned when an image operation targets a model without vision.
	ErrVisionNotSupported = errors.New("model does not support vision")

	// ErrCapabilityNotSupported is returned when a model cannot serve the call shape.
	ErrCapabilityNotSupported = provider.ErrCapabilityNotSupported

	// ErrTextTooLong is returned when input exceeds a model's context window.
	ErrTextTooLong = selector.ErrTextTooLong

	ErrParse          = parser.ErrParse
	ErrTruncated      = parser.ErrTruncated
	ErrMalformed      = parser.ErrMalformed
	ErrNoValidResults = parser.ErrNoValidResults

	// ErrAllProvidersUnavailable is matched by *AllProvidersError.
	ErrAllProvidersUnavailable = errors.New("all AI providers unavailable")

	// ErrServiceUnavailable wraps a primary failure when fallback is disabled.
	ErrServiceUnavailable = errors.New("AI service unavailable")

	// ErrNoContentSource is returned for deck or flashcard summaries when no
	// content source is configured.
	ErrNoContentSource = errors.New("no content source configured")

	errUnknownOperation = errors.New("unknown operation")
)

// AttemptOutcome is the result of one provider attempt.
type AttemptOutcome struct {
	Model    string
	Provider catalog.Provider
	Err      error
	Duration time.Duration
}

// Succeeded reports whether the attempt produced a result.
func (a AttemptOutcome) Succeeded() bool {
	return a.Err == nil
}

// AllProvidersError is returned when the primary model and every eligible
// fallback candidate failed. It unwraps to the primary failure.
type AllProvidersError struct {
	Cause    error
	Attempts []AttemptOutcome
}

func (e *AllProvidersError) Error() string {
	models := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		models[i] = a.Model
	}
	return fmt.Sprintf("%s after %d attempts [%s]: %v",
		ErrAllProvidersUnavailable, len(e.Attempts), strings.Join(models, ", "), e.Cause)
}

func (e *AllProvidersError) Unwrap() error {
	return e.Cause
}

// Is matches ErrAllProvidersUnavailable.
func (e *AllProvidersError) Is(target error) bool {
	return target == ErrAllProvidersUnavailable
}

// IsValidationClass reports whether err was raised before any provider call
// because of the request itself. Such errors never trigger fallback.
func IsValidationClass(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrVisionNotSupported) ||
		(errors.Is(err, ErrCapabilityNotSupported) &&
			!errors.Is(err, ErrAllProvidersUnavailable) && !errors.Is(err, ErrServiceUnavailable))
}

func invalid(field, message string) error {
	return domain.NewValidationError(field, message, nil)
}
