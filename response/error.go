package response

import "fmt"

// Error is the envelope for a failed request
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *Error) WithMessage(msg string) *Error {
	e.Message = msg
	return e
}

func makeError(status int) *Error {
	return &Error{
		StatusCode: status,
	}
}

// -----------------------------------------------

func ErrUnexpected() *Error {
	return makeError(500).
		WithMessage("Webhook handler failed")
}

func ErrBadRequest() *Error {
	return makeError(400).
		WithMessage("Bad request")
}

func ErrMissingSignature() *Error {
	return makeError(400).
		WithMessage("Missing signature header")
}

func ErrInvalidSignature() *Error {
	return makeError(400).
		WithMessage("Invalid signature")
}
