package entity

import "fmt"

// Code classifies an Error for transport mapping.
type Code int

const (
	CodeValidation Code = iota + 1
	CodeNotFound
	CodeUnauthorized
	CodeForbidden
	CodeConflict
	CodeInsufficientStock
	CodeEmptyCart
	CodeProductMissing
	CodeInvalidTransition
	CodePaymentFailed
)

// Error is a failure whose Message is safe to show to the caller. Anything
// that is not an *Error is treated as internal.
type Error struct {
	Code    Code
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code, so callers can test against the
// sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrValidation        = &Error{Code: CodeValidation, Message: "Validation failed"}
	ErrNotFound          = &Error{Code: CodeNotFound, Message: "Not found"}
	ErrUnauthorized      = &Error{Code: CodeUnauthorized, Message: "Authentication required"}
	ErrForbidden         = &Error{Code: CodeForbidden, Message: "Admin access required"}
	ErrConflict          = &Error{Code: CodeConflict, Message: "Conflict"}
	ErrInsufficientStock = &Error{Code: CodeInsufficientStock, Message: "Not enough stock"}
	ErrEmptyCart         = &Error{Code: CodeEmptyCart, Message: "Cart is empty"}
	ErrProductMissing    = &Error{Code: CodeProductMissing, Message: "Product not found"}
	ErrInvalidTransition = &Error{Code: CodeInvalidTransition, Message: "Invalid status transition"}
	ErrPaymentFailed     = &Error{Code: CodePaymentFailed, Message: "Payment could not be processed"}
)

func NotFound(what string) error {
	return &Error{Code: CodeNotFound, Message: what + " not found"}
}

func Conflict(msg string) error {
	return &Error{Code: CodeConflict, Message: msg}
}

func Unauthorized(msg string) error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

func InvalidTransition(msg string) error {
	return &Error{Code: CodeInvalidTransition, Message: msg}
}

func InsufficientStock(p *Product, requested int) error {
	return &Error{
		Code:    CodeInsufficientStock,
		Message: fmt.Sprintf("Not enough stock for %s (available: %d, requested: %d)", p.Name, p.Stock, requested),
	}
}

func ProductMissing(productID int64) error {
	return &Error{Code: CodeProductMissing, Message: fmt.Sprintf("Product %d not found", productID)}
}

func PaymentFailed(cause error) error {
	return &Error{Code: CodePaymentFailed, Message: ErrPaymentFailed.Message, Err: cause}
}

// FieldErrors collects per-field validation reasons.
type FieldErrors map[string][]string

func (f FieldErrors) Add(field, reason string) {
	f[field] = append(f[field], reason)
}

// Err returns nil when nothing was collected.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return &Error{Code: CodeValidation, Message: ErrValidation.Message, Fields: map[string][]string(f)}
}
