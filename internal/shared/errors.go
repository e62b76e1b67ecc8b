package shared

import "errors"

var (
	// ErrValidation indicates malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized indicates a missing or expired token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates insufficient role for the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateInvoice indicates an invoice number collision.
	ErrDuplicateInvoice = errors.New("invoice number already exists")
	// ErrDuplicateUsername indicates a username collision on registration.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrInsufficientStock indicates a requested quantity exceeding available stock.
	ErrInsufficientStock = errors.New("insufficient stock")
)
