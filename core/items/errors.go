package items

import "fmt"

// Stable error codes surfaced to clients in reply envelopes.
const (
	CodeInvalidCollection = "INVALID_COLLECTION"
	CodeInvalidPayload    = "INVALID_PAYLOAD"
	CodeRecordNotFound    = "RECORD_NOT_FOUND"
	CodeServiceError      = "SERVICE_ERROR"
)

// Error is a service failure with a stable code.
type Error struct {
	Code    string
	Message string
}

// Error returns the error message.
func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// NewError creates an Error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf creates an Error with a formatted message.
func Errorf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}
