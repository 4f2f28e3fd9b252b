package api

import (
	"encoding/json"
	"net/http"

	"DevDeckPlatform/internal/domain"
	"DevDeckPlatform/pkg/errors"
)

// Result единый конверт ответа API.
// Code равен 0 при успехе, иначе числовому коду ошибки.
type Result struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success формирует успешный результат
func Success(data interface{}) Result {
	return Result{Code: 0, Message: "ok", Data: data}
}

// SuccessMessage формирует успешный результат с сообщением без данных
func SuccessMessage(message string) Result {
	return Result{Code: 0, Message: message}
}

// Failure формирует результат из ошибки
func Failure(err *errors.Error) Result {
	return Result{Code: err.WireCode(), Message: err.Message}
}

// WriteResult сериализует результат в ответ
func WriteResult(w http.ResponseWriter, status int, result Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(result)
}

// WriteError сериализует ошибку в ответ со статусом по ее коду
func WriteError(w http.ResponseWriter, err error) {
	customErr := errors.FromError(err)
	WriteResult(w, customErr.HTTPStatus(), Failure(customErr))
}

// SendCodeRequest запрос на отправку кода подтверждения
type SendCodeRequest struct {
	Email        string `json:"email"`
	CaptchaUUID  string `json:"captcha_uuid"`
	CaptchaCode  string `json:"captcha_code"`
	BusinessType int    `json:"business_type"`
}

// CaptchaRequest запрос на выпуск графической капчи
type CaptchaRequest struct {
	UUID string `json:"uuid"`
}

// RegisterRequest запрос на регистрацию.
// Nickname необязателен, пустое значение заменяется сгенерированным.
type RegisterRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
	Nickname string `json:"nickname,omitempty"`
}

// LoginRequest запрос на вход по паролю
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginByCodeRequest запрос на вход по коду подтверждения
type LoginByCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// UpdatePasswordRequest запрос на смену пароля
type UpdatePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// UpdateNicknameRequest запрос на смену никнейма
type UpdateNicknameRequest struct {
	Nickname string `json:"nickname"`
}

// UpdateAvatarRequest запрос на смену аватара
type UpdateAvatarRequest struct {
	AvatarURL string `json:"avatar_url"`
}

// LoginResponse ответ на успешный вход
type LoginResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// SendCodeResponse ответ на запрос отправки кода
type SendCodeResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
