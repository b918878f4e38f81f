// Package apperror defines the error taxonomy shared by the shop services and its
// mapping onto HTTP statuses.
package apperror

import (
	"errors"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeInternal           Code = "INTERNAL"
	CodeBadRequest         Code = "BAD_REQUEST"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeDuplicateAccount   Code = "DUPLICATE_ACCOUNT"
	CodeInvalidAccount     Code = "INVALID_ACCOUNT"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeNotFound           Code = "NOT_FOUND"
	CodeInvalidOrder       Code = "INVALID_ORDER"
	CodeCannotDeleteAdmin  Code = "CANNOT_DELETE_ADMIN"
)

// HTTPStatus maps codes to response statuses.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeBadRequest,
		CodeDuplicateAccount,
		CodeInvalidAccount,
		CodeInvalidOrder,
		CodeCannotDeleteAdmin:
		return http.StatusBadRequest

	case CodeInvalidCredentials,
		CodeUnauthorized:
		return http.StatusUnauthorized

	case CodeForbidden:
		return http.StatusForbidden

	case CodeNotFound:
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}

// Error carries a code, a caller-safe message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials, Message: "invalid email or password"}
	ErrDuplicateAccount   = &Error{Code: CodeDuplicateAccount, Message: "user already exists"}
	ErrInvalidAccount     = &Error{Code: CodeInvalidAccount, Message: "invalid user data"}
	ErrUnauthorized       = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrForbidden          = &Error{Code: CodeForbidden, Message: "forbidden"}
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "resource not found"}
	ErrInvalidOrder       = &Error{Code: CodeInvalidOrder, Message: "invalid order"}
	ErrCannotDeleteAdmin  = &Error{Code: CodeCannotDeleteAdmin, Message: "cannot delete admin user"}
)

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func InvalidAccount(message string) *Error { return New(CodeInvalidAccount, message) }

func InvalidOrder(message string) *Error { return New(CodeInvalidOrder, message) }

func NotFound(message string) *Error { return New(CodeNotFound, message) }

func Unauthorized(message string) *Error { return New(CodeUnauthorized, message) }

func Forbidden(message string) *Error { return New(CodeForbidden, message) }

func BadRequest(message string) *Error { return New(CodeBadRequest, message) }

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// PublicMessage returns the message safe to show a caller. Internal errors keep their
// text, the way the boundary handler has always reported them.
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
