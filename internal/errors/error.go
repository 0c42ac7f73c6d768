package errors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryHooks   Category = "hooks"
	CategoryEffect  Category = "effect"
	CategoryContext Category = "context"
	CategoryConfig  Category = "config"
	CategoryCLI     Category = "cli"
)

// Error is a structured error with the violating instance, slot index and a fix hint.
type Error struct {
	// Code is a unique error identifier (e.g., "H001").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Instance names the component instance the error belongs to, if any.
	Instance string

	// Slot is the hook slot index involved, or -1 when not applicable.
	Slot int

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// WithInstance records the instance the error belongs to.
func (e *Error) WithInstance(name string) *Error {
	e.Instance = name
	return e
}

// WithSlot records the slot index the error belongs to.
func (e *Error) WithSlot(idx int) *Error {
	e.Slot = idx
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// New creates an error from a registered code.
// Unknown codes produce a generic error that still carries the code.
func New(code string) *Error {
	tmpl, ok := registry[code]
	if !ok {
		return &Error{
			Code:    code,
			Message: "Unknown error",
			Slot:    -1,
		}
	}
	return &Error{
		Code:       code,
		Category:   tmpl.Category,
		Message:    tmpl.Message,
		Detail:     tmpl.Detail,
		Suggestion: tmpl.Suggestion,
		Slot:       -1,
	}
}

// Newf creates an uncoded error with a formatted message.
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
		Slot:     -1,
	}
}

// FromError wraps a plain error in a coded Error.
// If err is already an *Error it is returned unchanged.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return New(code).Wrap(err).WithDetail(err.Error())
}
