package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"DevDeckPlatform/internal/domain"
	"DevDeckPlatform/internal/repository"
)

// VerificationRepository реализация хранилища кодов подтверждения для Redis.
// Счетчики лимитов используют только атомарные примитивы Redis
// (SETNX, HINCRBY), что делает гейты корректными при конкурентных отправках.
type VerificationRepository struct {
	client *redis.Client
}

// NewVerificationRepository создает новый экземпляр VerificationRepository
func NewVerificationRepository(client *redis.Client) repository.VerificationRepository {
	return &VerificationRepository{client: client}
}

// StoreCode сохраняет код подтверждения в пространстве ключей назначения
func (r *VerificationRepository) StoreCode(ctx context.Context, businessType domain.BusinessType, email, code string, ttl time.Duration) error {
	if err := r.client.Set(ctx, verifyKey(businessType, email), code, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}
	return nil
}

// GetCode возвращает сохраненный код или пустую строку, если его нет
func (r *VerificationRepository) GetCode(ctx context.Context, businessType domain.BusinessType, email string) (string, error) {
	code, err := r.client.Get(ctx, verifyKey(businessType, email)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("failed to get verification code: %w", err)
	}
	return code, nil
}

// StoreCaptcha сохраняет капчу под UUID клиента, перезаписывая предыдущую
func (r *VerificationRepository) StoreCaptcha(ctx context.Context, uuid string, challenge *domain.CaptchaChallenge, ttl time.Duration) error {
	data, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("failed to marshal captcha challenge: %w", err)
	}
	if err := r.client.Set(ctx, captchaKey(uuid), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store captcha challenge: %w", err)
	}
	return nil
}

// GetCaptcha возвращает капчу по UUID или nil, если она отсутствует или истекла
func (r *VerificationRepository) GetCaptcha(ctx context.Context, uuid string) (*domain.CaptchaChallenge, error) {
	data, err := r.client.Get(ctx, captchaKey(uuid)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get captcha challenge: %w", err)
	}

	var challenge domain.CaptchaChallenge
	if err := json.Unmarshal([]byte(data), &challenge); err != nil {
		return nil, fmt.Errorf("failed to unmarshal captcha challenge: %w", err)
	}
	return &challenge, nil
}

// DeleteCaptcha удаляет капчу после успешной проверки,
// делая вызов одноразовым в пределах TTL
func (r *VerificationRepository) DeleteCaptcha(ctx context.Context, uuid string) error {
	if err := r.client.Del(ctx, captchaKey(uuid)).Err(); err != nil {
		return fmt.Errorf("failed to delete captcha challenge: %w", err)
	}
	return nil
}

// SetCooldown атомарно ставит флаг минимального интервала.
// Возвращает true, если флаг поставлен этим вызовом,
// false если интервал еще действует.
func (r *VerificationRepository) SetCooldown(ctx context.Context, email string, ttl time.Duration) (bool, error) {
	acquired, err := r.client.SetNX(ctx, cooldownKey(email), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set cooldown flag: %w", err)
	}
	return acquired, nil
}

// IncrementDailyEmail атомарно увеличивает суточный счетчик по email
func (r *VerificationRepository) IncrementDailyEmail(ctx context.Context, date, email string) (int64, error) {
	count, err := r.client.HIncrBy(ctx, emailLimitKey(date), email, 1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment email counter: %w", err)
	}
	return count, nil
}

// IncrementDailyIP атомарно увеличивает суточный счетчик по IP
func (r *VerificationRepository) IncrementDailyIP(ctx context.Context, date, ip string) (int64, error) {
	count, err := r.client.HIncrBy(ctx, ipLimitKey(date), ip, 1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment ip counter: %w", err)
	}
	return count, nil
}

// ExpireDailyEmail устанавливает TTL счетчика по email.
// Вызывается первым писателем после инкремента со значением 1.
func (r *VerificationRepository) ExpireDailyEmail(ctx context.Context, date string, ttl time.Duration) error {
	if err := r.client.Expire(ctx, emailLimitKey(date), ttl).Err(); err != nil {
		return fmt.Errorf("failed to expire email counter: %w", err)
	}
	return nil
}

// ExpireDailyIP устанавливает TTL счетчика по IP
func (r *VerificationRepository) ExpireDailyIP(ctx context.Context, date string, ttl time.Duration) error {
	if err := r.client.Expire(ctx, ipLimitKey(date), ttl).Err(); err != nil {
		return fmt.Errorf("failed to expire ip counter: %w", err)
	}
	return nil
}
