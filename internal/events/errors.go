package events

// Code classifies a handler failure for the originating connection. Values
// are part of the wire contract.
type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeNotFound     Code = "NOT_FOUND"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeBusy         Code = "USER_BUSY"
	CodePersistence  Code = "PERSISTENCE_FAILURE"
	CodeRateLimited  Code = "RATE_LIMITED"
	CodeUnknownEvent Code = "UNKNOWN_EVENT"
)

// HandlerError is a handler failure surfaced to the originating connection
// only; recipients never see it.
type HandlerError struct {
	Code    Code
	Message string
}

func (e *HandlerError) Error() string {
	return e.Message
}

func Validation(message string) *HandlerError {
	return &HandlerError{Code: CodeValidation, Message: message}
}

func NotFound(message string) *HandlerError {
	return &HandlerError{Code: CodeNotFound, Message: message}
}

func Unauthorized(message string) *HandlerError {
	return &HandlerError{Code: CodeUnauthorized, Message: message}
}

func Persistence(message string) *HandlerError {
	return &HandlerError{Code: CodePersistence, Message: message}
}

// ErrorPayload is the `error` event body sent back to the originator.
type ErrorPayload struct {
	Event   string `json:"event"`
	Message string `json:"message"`
	Code    Code   `json:"code"`
}
