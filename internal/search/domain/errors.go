package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrInvalidParameter       = errors.New("invalid parameter")
	ErrMissingMandatoryFilter = errors.New("missing mandatory filter")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrUnknownModel           = errors.New("unknown model")
	ErrInternal               = errors.New("internal error")
)

// SearchError es el error que cruza la frontera HTTP: un tipo (sentinel),
// el filtro implicado y un mensaje legible.
type SearchError struct {
	Kind    error
	Filter  string
	Message string
	Cause   error
}

func (e *SearchError) Error() string {
	if e.Filter == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Filter, e.Message)
}

func (e *SearchError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// HTTPStatus traduce el tipo de error a un código HTTP.
func (e *SearchError) HTTPStatus() int {
	switch {
	case errors.Is(e.Kind, ErrInvalidParameter), errors.Is(e.Kind, ErrMissingMandatoryFilter):
		return http.StatusBadRequest
	case errors.Is(e.Kind, ErrPermissionDenied):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Code es el identificador estable del tipo de error.
func (e *SearchError) Code() string {
	switch {
	case errors.Is(e.Kind, ErrInvalidParameter):
		return "INVALID_PARAMETER"
	case errors.Is(e.Kind, ErrMissingMandatoryFilter):
		return "MISSING_MANDATORY_FILTER"
	case errors.Is(e.Kind, ErrPermissionDenied):
		return "PERMISSION_DENIED"
	default:
		return "INTERNAL"
	}
}

// --- Constructores ---

func InvalidParameter(filter, format string, args ...interface{}) *SearchError {
	return &SearchError{Kind: ErrInvalidParameter, Filter: filter, Message: fmt.Sprintf(format, args...)}
}

func MissingMandatory(filters ...string) *SearchError {
	return &SearchError{
		Kind:    ErrMissingMandatoryFilter,
		Filter:  strings.Join(filters, ","),
		Message: "missing mandatory filter(s) " + strings.Join(filters, ", "),
	}
}

func PermissionDenied(filter, message string) *SearchError {
	return &SearchError{Kind: ErrPermissionDenied, Filter: filter, Message: message}
}

func UnknownModel(name string) *SearchError {
	return &SearchError{
		Kind:    ErrInvalidParameter,
		Filter:  "model",
		Message: fmt.Sprintf("model %q does not exist", name),
		Cause:   ErrUnknownModel,
	}
}

// Internal envuelve un fallo del ejecutor sin alterar la causa.
func Internal(cause error) *SearchError {
	return &SearchError{Kind: ErrInternal, Message: "search failed", Cause: cause}
}

// AsSearchError extrae un *SearchError de la cadena; cualquier otro error se
// considera interno.
func AsSearchError(err error) *SearchError {
	var se *SearchError
	if errors.As(err, &se) {
		return se
	}
	return Internal(err)
}
