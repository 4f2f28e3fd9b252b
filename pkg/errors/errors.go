package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode представляет машиночитаемый код ошибки
type ErrorCode string

// Коды ошибок подсистемы аутентификации и верификации
const (
	ErrValidation     ErrorCode = "VALIDATION_ERROR"
	ErrCaptchaInvalid ErrorCode = "CAPTCHA_INVALID"
	ErrCodeInvalid    ErrorCode = "CODE_INVALID"
	ErrIPRateLimited  ErrorCode = "IP_RATE_LIMITED"
	ErrEmailRateLimit ErrorCode = "EMAIL_RATE_LIMITED"
	ErrCooldownActive ErrorCode = "COOLDOWN_ACTIVE"
	ErrMissingToken   ErrorCode = "MISSING_TOKEN"
	ErrInvalidToken   ErrorCode = "INVALID_TOKEN"
	ErrTokenMismatch  ErrorCode = "TOKEN_MISMATCH"
	ErrTokenParse     ErrorCode = "TOKEN_PARSE_ERROR"
	ErrAuthSystem     ErrorCode = "AUTH_SYSTEM_ERROR"
	ErrNotFound       ErrorCode = "NOT_FOUND"
	ErrUnauthorized   ErrorCode = "UNAUTHORIZED"
	ErrConflict       ErrorCode = "CONFLICT"
	ErrInternal       ErrorCode = "INTERNAL_ERROR"
)

// Error представляет кастомную ошибку с кодом и причиной
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error возвращает сообщение об ошибке
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap возвращает причину ошибки
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is проверяет, совпадает ли код ошибки с целевой
func (e *Error) Is(target error) bool {
	if targetError, ok := target.(*Error); ok {
		return e.Code == targetError.Code
	}
	return false
}

// New создает новую кастомную ошибку
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap оборачивает существующую ошибку в кастомную
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WireCode возвращает числовой код для тела ответа.
// Коды токенов отдаются как 401, ошибка разбора токена как 902,
// сбой подсистемы аутентификации как 999.
func (e *Error) WireCode() int {
	if e == nil {
		return 0
	}

	switch e.Code {
	case ErrMissingToken, ErrInvalidToken, ErrTokenMismatch, ErrUnauthorized:
		return 401
	case ErrTokenParse:
		return 902
	case ErrAuthSystem:
		return 999
	case ErrValidation, ErrCaptchaInvalid, ErrCodeInvalid, ErrCooldownActive:
		return 400
	case ErrIPRateLimited, ErrEmailRateLimit:
		return 429
	case ErrNotFound:
		return 404
	case ErrConflict:
		return 409
	default:
		return 500
	}
}

// HTTPStatus возвращает соответствующий HTTP статус для ошибки
func (e *Error) HTTPStatus() int {
	if e == nil {
		return http.StatusOK
	}

	switch e.Code {
	case ErrValidation, ErrCaptchaInvalid, ErrCodeInvalid:
		return http.StatusBadRequest
	case ErrMissingToken, ErrInvalidToken, ErrTokenMismatch, ErrTokenParse, ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrIPRateLimited, ErrEmailRateLimit:
		return http.StatusTooManyRequests
	case ErrNotFound:
		return http.StatusNotFound
	case ErrConflict:
		return http.StatusConflict
	case ErrCooldownActive:
		// Мягкий исход, не сбой запроса
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// FromError приводит произвольную ошибку к кастомной.
// Неизвестные ошибки считаются сбоем подсистемы и не раскрывают деталей клиенту.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	if customErr, ok := err.(*Error); ok {
		return customErr
	}
	return Wrap(err, ErrAuthSystem, "authentication system error")
}
