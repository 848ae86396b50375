package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"

	"cnpjbase/cmd/internal/dataset"
	"cnpjbase/cmd/internal/utils"
)

// ErrorResponse abstracts all API error responses to the user.
//
// This interface does not implement `error`, since its only purpose
// is to be used for API responses and not for logging circumstances.
//
// In general, the whole ErrorResponse can be sent for serialization.
type ErrorResponse interface {
	// Code is the HTTP status code to be returned.
	Code() int
}

type APIError struct {
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (a *APIError) Code() int {
	return a.Status
}

type StructuredError struct {
	Errors map[string][]string `json:"errors"`
	Status int                 `json:"-"`
}

func (s *StructuredError) Code() int {
	return s.Status
}

func (s *StructuredError) Add(field, problem string) {
	s.Errors[field] = append(s.Errors[field], problem)
}

var (
	MalformedJSONError  = NewSimple(400, "Malformed request body")
	InternalServerError = NewSimple(500, "Internal server error")

	InvalidCNPJLengthError = NewSimple(400, "CNPJ must have exactly 14 digits")
	InvalidCNPJDigitsError = NewSimple(400, "CNPJ check digits do not match")

	// A definitive negative: the registry was consulted and the CNPJ is not
	// in it. Never conflated with the registry being unreachable.
	CompanyNotFoundError = NewSimple(404, "CNPJ not found in the registry")

	RegistryUnavailableError = NewSimple(503, "Registry dataset is currently unreachable")
	RegistryTimeoutError     = NewSimple(504, "Registry dataset fetch timed out")
	DatasetMissingError      = NewSimple(502, "No dataset found in the configured storage folder")
	DatasetAmbiguousError    = NewSimple(502, "Multiple equally preferred dataset files found")
	DatasetTooLargeError     = NewSimple(502, "Dataset file exceeds the configured size limit")
	DatasetSchemaError       = NewSimple(502, "Dataset is missing mandatory columns")
	DatasetCorruptError      = NewSimple(502, "Dataset file could not be decoded")
)

// FromCNPJError maps an identifier validation failure.
func FromCNPJError(err error) *APIError {
	if errors.Is(err, utils.ErrInvalidCheckDigit) {
		return InvalidCNPJDigitsError
	}
	return InvalidCNPJLengthError
}

// MapDatasetError translates the dataset error taxonomy into API responses.
func MapDatasetError(err error) ErrorResponse {
	switch {
	case errors.Is(err, dataset.ErrFolderMissing):
		return DatasetMissingError
	case errors.Is(err, dataset.ErrAmbiguousMatch):
		return DatasetAmbiguousError
	case errors.Is(err, dataset.ErrFileTooLarge):
		return DatasetTooLargeError
	case errors.Is(err, dataset.ErrSchemaMismatch):
		return DatasetSchemaError
	case errors.Is(err, dataset.ErrCorrupt):
		return DatasetCorruptError
	case errors.Is(err, dataset.ErrTimeout):
		return RegistryTimeoutError
	case errors.Is(err, dataset.ErrUnavailable):
		return RegistryUnavailableError
	default:
		// Log the original underlying error for debugging purposes
		log.Errorf("unmapped dataset error: %v", err)
		return InternalServerError
	}
}

func FromValidationError(err error) *StructuredError {
	var ve validator.ValidationErrors
	ok := errors.As(err, &ve)
	if !ok {
		return nil
	}

	problems := map[string][]string{}
	for _, fe := range ve {
		field := strings.ToLower(fe.Field())

		switch fe.Tag() {
		case "required":
			problems[field] = append(problems[field], "This field is required")
		case "min":
			problems[field] = append(problems[field], "Value is too short, min: "+fe.Param())
		case "max":
			problems[field] = append(problems[field], "Value is too long, max: "+fe.Param())
		case "cnpj":
			problems[field] = append(problems[field], "Value must be a valid 14-digit CNPJ")

		default:
			problems[field] = append(problems[field], "Invalid value provided")
		}
	}

	return &StructuredError{
		Errors: problems,
		Status: http.StatusBadRequest,
	}
}

func NewSimple(status int, msg string, args ...any) *APIError {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return &APIError{Status: status, Message: msg}
}

func NewStructured(code int) *StructuredError {
	return &StructuredError{
		Errors: make(map[string][]string),
		Status: code,
	}
}
