package model

import (
	"errors"
	"fmt"
	"strings"
)

var ErrorProfileNotFound = errors.New("profile not found")
var ErrorEmailExists = errors.New("email already exists")

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindLocked
	KindUnauthorized
	KindConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindLocked:
		return "locked"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

const (
	MessageAccountNotFound   = "Account does not exist"
	MessageAccountLocked     = "Account locked due to too many failed attempts"
	MessageEmailExists       = "Email already exists"
	MessageInternal          = "Internal server error"
	MessageRequestBodyEmpty  = "Request body is empty"
	MessageInvalidBody       = "Invalid request body"
	MessageLoginSuccessful   = "Login successful"
	MessageProfileCreated    = "Profile created successfully"
	messageInvalidCredential = "Invalid credentials. %d attempts remaining"
)

// Error is the error type returned across the service boundary. Kind decides
// the HTTP status; Message is safe to show to clients; Err is the cause and is
// only ever logged.
type Error struct {
	Kind      ErrorKind
	Message   string
	Errors    []string
	Remaining int
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewValidationError(errs []string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: strings.Join(errs, ", "),
		Errors:  errs,
	}
}

func NewNotFoundError() *Error {
	return &Error{Kind: KindNotFound, Message: MessageAccountNotFound}
}

func NewLockedError() *Error {
	return &Error{Kind: KindLocked, Message: MessageAccountLocked}
}

func NewInvalidCredentialsError(remaining int) *Error {
	return &Error{
		Kind:      KindUnauthorized,
		Message:   fmt.Sprintf(messageInvalidCredential, remaining),
		Remaining: remaining,
	}
}

func NewConflictError(err error) *Error {
	return &Error{Kind: KindConflict, Message: MessageEmailExists, Err: err}
}

// NewInternalError hides err behind the generic message.
func NewInternalError(err error) *Error {
	return &Error{Kind: KindInternal, Message: MessageInternal, Err: err}
}

// AsError returns err as a *Error, wrapping anything unknown as internal.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return NewInternalError(err)
}

func KindOf(err error) ErrorKind {
	return AsError(err).Kind
}
