package jwt

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"DevDeckPlatform/internal/domain"
)

// ErrInvalidSignature токен подписан не нашим ключом или поврежден
var ErrInvalidSignature = errors.New("invalid token signature")

// ErrExpired срок действия токена истек
var ErrExpired = errors.New("token expired")

// Codec интерфейс для выпуска и проверки токенов
type Codec interface {
	Issue(user *domain.User) (string, error)
	Validate(token string) (*domain.User, error)
	DecodeIdentityUnchecked(token string) (*domain.User, error)
}

// Manager реализация Codec на симметричном ключе HS256.
// Subject токена содержит сериализованную identity пользователя
// (хэш пароля исключен сериализацией).
type Manager struct {
	secretKey []byte
	lifetime  time.Duration
}

// NewManager создает новый менеджер токенов.
// Ключ обязателен, срок жизни задается конфигурацией в минутах.
func NewManager(secretKey string, lifetimeMinutes int) (*Manager, error) {
	if secretKey == "" {
		return nil, errors.New("jwt secret key is required")
	}
	return &Manager{
		secretKey: []byte(secretKey),
		lifetime:  time.Duration(lifetimeMinutes) * time.Minute,
	}, nil
}

// Issue выпускает подписанный токен для пользователя
func (m *Manager) Issue(user *domain.User) (string, error) {
	subject, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("failed to marshal identity: %w", err)
	}

	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   string(subject),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// Validate проверяет подпись и срок действия, возвращая identity.
// Невалидный токен это ошибка аутентификации, а не сбой:
// возвращаются сентинелы ErrExpired и ErrInvalidSignature.
func (m *Manager) Validate(token string) (*domain.User, error) {
	claims := &jwt.RegisteredClaims{}
	parsedToken, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secretKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalidSignature
	}

	if !parsedToken.Valid {
		return nil, ErrInvalidSignature
	}

	return unmarshalIdentity(claims.Subject)
}

// DecodeIdentityUnchecked извлекает identity без повторной проверки подписи.
// Используется только после успешного Validate, чтобы не проверять дважды.
func (m *Manager) DecodeIdentityUnchecked(token string) (*domain.User, error) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	return unmarshalIdentity(claims.Subject)
}

func unmarshalIdentity(subject string) (*domain.User, error) {
	var user domain.User
	if err := json.Unmarshal([]byte(subject), &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal identity claim: %w", err)
	}
	return &user, nil
}
