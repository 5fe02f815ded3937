package errors

import "fmt"

// APIError is the structured error body returned by the HTTP layer.
type APIError struct {
	Code        string            `json:"error"`
	Description string            `json:"error_description,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Error codes returned by the API.
const (
	InvalidRequest       = "invalid_request"
	AuthenticationFailed = "authentication_failed"
	NotFound             = "not_found"
	Conflict             = "conflict"
	ServerError          = "server_error"
)

func NewInvalidRequest(description string) *APIError {
	return &APIError{
		Code:        InvalidRequest,
		Description: description,
	}
}

// NewFieldValidation reports a validation failure pinned to a single
// request field, e.g. a failed integrity check on "hash".
func NewFieldValidation(field, description string) *APIError {
	return &APIError{
		Code:        InvalidRequest,
		Description: description,
		Fields:      map[string]string{field: description},
	}
}

// NewAuthenticationFailed returns the generic login failure body. A missing
// account and a gated account produce the same response.
func NewAuthenticationFailed() *APIError {
	return &APIError{
		Code:        AuthenticationFailed,
		Description: "no_active_account",
	}
}

func NewNotFound(description string) *APIError {
	return &APIError{
		Code:        NotFound,
		Description: description,
	}
}

func NewConflict(description string) *APIError {
	return &APIError{
		Code:        Conflict,
		Description: description,
	}
}

func NewServerError(description string) *APIError {
	return &APIError{
		Code:        ServerError,
		Description: description,
	}
}
