package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode int

// code 直接對應 http status
const (
	BadRequestCode      ErrorCode = http.StatusBadRequest
	UnauthenticatedCode ErrorCode = http.StatusUnauthorized
	UnauthorizedCode    ErrorCode = http.StatusForbidden
	NotFoundCode        ErrorCode = http.StatusNotFound
	ConflictCode        ErrorCode = http.StatusConflict
	TooManyRequestsCode ErrorCode = http.StatusTooManyRequests
	InternalErrorCode   ErrorCode = http.StatusInternalServerError
)

var ErrStrMap = map[ErrorCode]string{
	BadRequestCode:      "bad request",
	UnauthenticatedCode: "unauthenticated",
	UnauthorizedCode:    "permission denied",
	NotFoundCode:        "resource not found",
	ConflictCode:        "resource conflict",
	TooManyRequestsCode: "too many requests",
	InternalErrorCode:   "internal server error",
}

// Error 可回傳給 client 的錯誤
// Fields 只用在驗證錯誤
type Error struct {
	Code    ErrorCode
	Message string
	Fields  map[string]string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Status() int {
	return int(e.Code)
}

func New(code ErrorCode, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func Wrap(code ErrorCode, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, cause: cause}
}

func Validation(fields map[string]string) *Error {
	return &Error{Code: BadRequestCode, Message: "validation failed", Fields: fields}
}

func NotFound(msg string) *Error {
	return New(NotFoundCode, msg)
}

// From 找不到 *Error 時一律視為 internal error
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(InternalErrorCode, ErrStrMap[InternalErrorCode], err)
}

func IsCode(err error, code ErrorCode) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == code
}
