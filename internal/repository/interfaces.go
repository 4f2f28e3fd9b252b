package repository

import (
	"context"
	"time"

	"DevDeckPlatform/internal/domain"
)

// UserRepository интерфейс внешнего хранилища пользователей.
// Подсистема аутентификации только читает пользователей и выполняет
// явно делегированные обновления.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (int, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, user *domain.User) error
}

// SessionRepository интерфейс серверной записи сессии.
// На пользователя существует ровно одна живая запись: новый вход
// перезаписывает предыдущий токен.
type SessionRepository interface {
	Save(ctx context.Context, userID int, token string, ttl time.Duration) error
	Get(ctx context.Context, userID int) (string, error)
	Delete(ctx context.Context, userID int) error
	Refresh(ctx context.Context, userID int, window time.Duration) error
}

// VerificationRepository интерфейс хранилища кодов подтверждения,
// капч и счетчиков лимитов. Все мутации счетчиков атомарны:
// обычный get-then-set здесь недопустим.
type VerificationRepository interface {
	StoreCode(ctx context.Context, businessType domain.BusinessType, email, code string, ttl time.Duration) error
	GetCode(ctx context.Context, businessType domain.BusinessType, email string) (string, error)
	StoreCaptcha(ctx context.Context, uuid string, challenge *domain.CaptchaChallenge, ttl time.Duration) error
	GetCaptcha(ctx context.Context, uuid string) (*domain.CaptchaChallenge, error)
	DeleteCaptcha(ctx context.Context, uuid string) error
	SetCooldown(ctx context.Context, email string, ttl time.Duration) (bool, error)
	IncrementDailyEmail(ctx context.Context, date, email string) (int64, error)
	IncrementDailyIP(ctx context.Context, date, ip string) (int64, error)
	ExpireDailyEmail(ctx context.Context, date string, ttl time.Duration) error
	ExpireDailyIP(ctx context.Context, date string, ttl time.Duration) error
}
