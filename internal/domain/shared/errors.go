package shared

// DomainError is a business-rule violation with a stable machine-readable
// code. The HTTP layer maps codes to status responses; the message is safe to
// return to clients.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError builds a DomainError with the given code and client-facing
// message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// ErrConcurrencyConflict is returned when an optimistic-lock write finds the
// row at a different version than the aggregate was loaded at.
var ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
