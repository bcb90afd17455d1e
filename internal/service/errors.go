package service

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorKind classifies failures surfaced to API callers.
type ErrorKind int

// Error kinds, each mapped to one HTTP status.
const (
	KindValidation ErrorKind = iota + 1
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindUpstream
)

// HTTPStatus returns the status code used for the kind.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// AppError is an error with a caller-facing message and a kind.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

var (
	// ErrDepartureUnavailable indicates the departure does not exist or is no longer Approved.
	ErrDepartureUnavailable = errors.New("departure not found or already processed")
	// ErrProfileNotFound indicates no profile matched the identifier.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrNothingToUpdate indicates an update request carried no fields.
	ErrNothingToUpdate = errors.New("nothing to update")
	// ErrMissingActor indicates a write reached the service without an authenticated caller.
	ErrMissingActor = errors.New("authenticated caller required")
	// ErrInvalidCredentials indicates a password sign-in was rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError builds a KindValidation error.
func ValidationError(message string, err error) *AppError {
	return &AppError{Kind: KindValidation, Message: message, Err: err}
}

// UnauthenticatedError builds a KindUnauthenticated error.
func UnauthenticatedError(message string, err error) *AppError {
	return &AppError{Kind: KindUnauthenticated, Message: message, Err: err}
}

// NotFoundError builds a KindNotFound error.
func NotFoundError(message string, err error) *AppError {
	return &AppError{Kind: KindNotFound, Message: message, Err: err}
}

// UpstreamError wraps a store or identity provider failure. The underlying
// message is kept in the caller-facing text.
func UpstreamError(prefix string, err error) *AppError {
	message := prefix
	if err != nil {
		message = fmt.Sprintf("%s: %s", prefix, err.Error())
	}
	return &AppError{Kind: KindUpstream, Message: message, Err: err}
}

// KindOf returns the kind of err, defaulting to KindUpstream.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUpstream
}

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return validate
}

func validationFailure(err error) *AppError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return ValidationError(err.Error(), err)
	}

	missing := make([]string, 0, len(validationErrors))
	invalid := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		if fieldErr.Tag() == "required" {
			missing = append(missing, fieldErr.Field())
			continue
		}
		invalid = append(invalid, fieldErr.Field())
	}

	parts := make([]string, 0, 2)
	if len(missing) > 0 {
		parts = append(parts, "Missing required fields: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "Invalid fields: "+strings.Join(invalid, ", "))
	}

	return ValidationError(strings.Join(parts, ". ")+".", err)
}

func requireActor(actor Actor) error {
	if strings.TrimSpace(actor.ID) == "" {
		return UnauthenticatedError("Unauthorized: Authenticated staff member required.", ErrMissingActor)
	}
	return nil
}
