package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes for the ledger error taxonomy. Every recoverable failure maps to
// one of these so the HTTP layer can render a distinct status per category.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeInvalidState = "INVALID_STATE"
	CodeGateway      = "GATEWAY_ERROR"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeConflict, "Resource already exists")
	ErrInvalidInput        = NewDomainError(CodeValidation, "Invalid input provided")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrConcurrencyConflict = NewDomainError(CodeConflict, "Resource was modified by another process")
)

// CodeOf extracts the taxonomy code from an error, returning "" for
// non-domain errors so callers can treat them as unexpected.
func CodeOf(err error) string {
	if de, ok := err.(*DomainError); ok {
		return de.Code
	}
	return ""
}

// IsNotFound reports whether err is a NOT_FOUND domain error
func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}

// IsConflict reports whether err is a CONFLICT domain error
func IsConflict(err error) bool {
	return CodeOf(err) == CodeConflict
}

// IsInvalidState reports whether err is an INVALID_STATE domain error
func IsInvalidState(err error) bool {
	return CodeOf(err) == CodeInvalidState
}

// IsValidation reports whether err is a VALIDATION_ERROR domain error
func IsValidation(err error) bool {
	return CodeOf(err) == CodeValidation
}
