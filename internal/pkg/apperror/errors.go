package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorCode string

const (
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden         ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest        ErrorCode = "BAD_REQUEST"
	ErrCodeConflict          ErrorCode = "CONFLICT"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation        ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError     ErrorCode = "DATABASE_ERROR"
	ErrCodeRateLimited       ErrorCode = "RATE_LIMITED"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Details    map[string]any
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Validation создаёт ошибку валидации с текстом для клиента.
func Validation(message string) *AppError {
	return New(ErrCodeValidation, message)
}

// InvalidTransition описывает запрещённый переход: текущий статус, запрошенное действие
// и действия, допустимые из текущего статуса.
func InvalidTransition(current, action string, allowed []string) *AppError {
	allowedCopy := append([]string{}, allowed...)
	msg := fmt.Sprintf("действие %q недопустимо из статуса %s", action, current)
	if len(allowedCopy) > 0 {
		msg += fmt.Sprintf(", допустимые действия: %s", strings.Join(allowedCopy, ", "))
	} else {
		msg += ", допустимых действий нет"
	}

	err := New(ErrCodeInvalidTransition, msg)
	err.Details = map[string]any{
		"current": current,
		"action":  action,
		"allowed": allowedCopy,
	}
	return err
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeInvalidTransition:
		return http.StatusConflict
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf возвращает код ошибки приложения или INTERNAL_ERROR для прочих ошибок.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

func IsForbidden(err error) bool {
	return CodeOf(err) == ErrCodeForbidden
}

func IsValidation(err error) bool {
	return CodeOf(err) == ErrCodeValidation
}

func IsConflict(err error) bool {
	return CodeOf(err) == ErrCodeConflict
}

func IsInvalidTransition(err error) bool {
	return CodeOf(err) == ErrCodeInvalidTransition
}

var (
	ErrListingNotFound = New(ErrCodeNotFound, "объявление не найдено")
	ErrReportNotFound  = New(ErrCodeNotFound, "жалоба не найдена")
	ErrUnauthorized    = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden       = New(ErrCodeForbidden, "недостаточно прав")
	ErrConflict        = New(ErrCodeConflict, "запись была изменена параллельно, перечитайте состояние и повторите")
)
