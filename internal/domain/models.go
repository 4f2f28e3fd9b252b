package domain

import (
	"time"
)

// User представляет пользователя системы.
// PasswordHash хранится с использованием bcrypt и никогда не сериализуется
// в токен или ответ API.
type User struct {
	ID           int       `json:"id"`
	UUID         string    `json:"uuid"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Nickname     string    `json:"nickname"`
	AvatarURL    string    `json:"avatar_url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BusinessType определяет назначение кода подтверждения.
// Коды разных назначений хранятся в разных пространствах ключей
// и не взаимозаменяемы.
type BusinessType int

const (
	BusinessTypeRegister      BusinessType = 1
	BusinessTypeLogin         BusinessType = 2
	BusinessTypeResetPassword BusinessType = 3
)

// Prefix возвращает префикс пространства ключей для типа
func (t BusinessType) Prefix() string {
	switch t {
	case BusinessTypeRegister:
		return "register"
	case BusinessTypeLogin:
		return "login"
	case BusinessTypeResetPassword:
		return "reset_password"
	default:
		return ""
	}
}

// Valid сообщает, известен ли тип
func (t BusinessType) Valid() bool {
	return t == BusinessTypeRegister || t == BusinessTypeLogin || t == BusinessTypeResetPassword
}

// CaptchaChallenge представляет выданную графическую капчу.
// Хранится в кэше под UUID клиента, повторная генерация перезаписывает запись.
type CaptchaChallenge struct {
	Code     string `json:"code"`
	LastTime int64  `json:"last_time"`
}

// Captcha представляет ответ на запрос графической капчи
type Captcha struct {
	UUID        string `json:"uuid"`
	ImageBase64 string `json:"image_base64"`
}
