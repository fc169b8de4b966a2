package pricing

import "net/http"

type Code string

const (
	CodeBadOrMissingField Code = "ERR_BAD_OR_MISSING_FIELD"
	CodeBadRequest        Code = "ERR_BAD_REQUEST"
	CodeNotFound          Code = "ERR_NOT_FOUND"
	CodeConflict          Code = "ERR_CONFLICT"
)

// Error is a validation or business-rule failure with a machine-readable
// code. Conflict errors additionally carry the authoritative pricing so
// the client can re-render the correct total.
type Error struct {
	Code           Code
	Status         int
	Message        string
	CurrentPricing string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

func badField(message string) *Error {
	return &Error{Code: CodeBadOrMissingField, Status: http.StatusBadRequest, Message: message}
}

func badRequest(message string) *Error {
	return &Error{Code: CodeBadRequest, Status: http.StatusBadRequest, Message: message}
}

func notFound(message string) *Error {
	return &Error{Code: CodeNotFound, Status: http.StatusNotFound, Message: message}
}

func conflict(message, currentPricing string) *Error {
	return &Error{Code: CodeConflict, Status: http.StatusConflict, Message: message, CurrentPricing: currentPricing}
}
