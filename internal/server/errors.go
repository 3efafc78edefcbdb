// Package server provides the HTTP API of the CV builder.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/cv-builder/internal/editor"
	"github.com/jonathan/cv-builder/internal/export"
	"github.com/jonathan/cv-builder/internal/plans"
	"github.com/jonathan/cv-builder/internal/rendering"
	"github.com/jonathan/cv-builder/internal/schemas"
	"github.com/jonathan/cv-builder/internal/sections"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrUnknownDraftKey indicates a draft key outside the known storage keys
type ErrUnknownDraftKey struct {
	Key string
}

func (e *ErrUnknownDraftKey) Error() string {
	return fmt.Sprintf("unknown document key: %s", e.Key)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusInternalServerError
	}

	var (
		limitErr    *plans.LimitReachedError
		validErr    *ErrValidation
		keyErr      *ErrUnknownDraftKey
		schemaErr   *schemas.ValidationError
		unknownErr  *sections.UnknownTypeError
		templateErr *rendering.TemplateError
		renderErr   *rendering.RenderError
		exportErr   *export.ExportError
	)

	switch {
	case errors.As(err, &limitErr):
		return http.StatusForbidden
	case errors.Is(err, editor.ErrSessionNotFound), errors.Is(err, editor.ErrSectionNotFound), errors.As(err, &keyErr):
		return http.StatusNotFound
	case errors.As(err, &validErr), errors.As(err, &schemaErr), errors.As(err, &unknownErr),
		errors.Is(err, sections.ErrPayloadMismatch), errors.Is(err, editor.ErrTemplateKind):
		return http.StatusBadRequest
	case errors.As(err, &templateErr), errors.As(err, &renderErr):
		return http.StatusBadRequest
	case errors.As(err, &exportErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// validationError converts the first validator failure into an ErrValidation.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ErrValidation{Field: fe.Field(), Message: fmt.Sprintf("failed on '%s'", fe.Tag())}
	}
	return &ErrValidation{Field: "body", Message: err.Error()}
}
