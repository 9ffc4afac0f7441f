package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/cardforge/internal/api/shared"
	"github.com/phrazzld/cardforge/internal/domain"
	"github.com/phrazzld/cardforge/internal/generation"
	"github.com/phrazzld/cardforge/internal/service"
	"github.com/phrazzld/cardforge/internal/service/auth"
	"github.com/phrazzld/cardforge/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, service.ErrNotOwned):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Upload errors
	case errors.Is(err, shared.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge

	// The request asked a model for something it cannot do
	case errors.Is(err, generation.ErrVisionNotSupported):
		return http.StatusUnprocessableEntity
	case errors.Is(err, generation.ErrCapabilityNotSupported) && generation.IsValidationClass(err):
		return http.StatusUnprocessableEntity

	// Bad request errors
	case errors.Is(err, generation.ErrValidation),
		errors.Is(err, generation.ErrUnknownModel),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, shared.ErrMissingFile):
		return http.StatusBadRequest

	// Provider failures
	case errors.Is(err, generation.ErrAllProvidersUnavailable),
		errors.Is(err, generation.ErrServiceUnavailable),
		errors.Is(err, generation.ErrModelUnavailable):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var vErr *domain.ValidationError
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid token"
	case errors.Is(err, domain.ErrUnauthorized):
		return "Unauthorized"

	case errors.Is(err, service.ErrNotOwned):
		return "You do not own this resource"

	case errors.Is(err, store.ErrDeckNotFound):
		return "Deck not found"
	case errors.Is(err, store.ErrFlashcardNotFound):
		return "Flashcard not found"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, shared.ErrFileTooLarge):
		return "Uploaded file is too large"
	case errors.Is(err, shared.ErrMissingFile):
		return "Uploaded file is missing or empty"

	case errors.Is(err, generation.ErrVisionNotSupported):
		return "The selected model does not support image input"
	case errors.Is(err, generation.ErrCapabilityNotSupported) && generation.IsValidationClass(err):
		return "The selected model does not support this operation"

	case errors.Is(err, generation.ErrAllProvidersUnavailable),
		errors.Is(err, generation.ErrServiceUnavailable),
		errors.Is(err, generation.ErrModelUnavailable):
		return "AI service is temporarily unavailable, please try again later"

	case errors.Is(err, generation.ErrUnknownModel):
		return "Unknown model"
	case errors.Is(err, generation.ErrTextTooLong):
		return "Input text is too long for the selected model"
	case errors.As(err, &vErr) && vErr.Field != "":
		return fmt.Sprintf("Invalid %s: %s", vErr.Field, vErr.Message)
	case errors.Is(err, generation.ErrValidation):
		return "Invalid request"
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns a struct validation failure into a message
// naming the first invalid field, without echoing submitted values.
func SanitizeValidationError(err error) string {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) && len(vErrs) > 0 {
		fe := vErrs[0]
		return fmt.Sprintf("Invalid %s: %s", lowerFirst(fe.Field()), getValidationTagMessage(fe.Tag()))
	}
	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte":
		return "too small or too short"
	case "max", "lte":
		return "too large or too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// HandleAPIError writes the status and safe message for err, logging the
// details. A non-empty defaultMsg replaces the generic 500 message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)
	msg := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && defaultMsg != "" {
		msg = defaultMsg
	}

	var opts []shared.ResponseOption
	if status == http.StatusForbidden {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, msg, err, opts...)
}
