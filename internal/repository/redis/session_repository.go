package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"DevDeckPlatform/internal/repository"
)

// SessionRepository реализация реестра сессий для Redis.
// Хранит по одному токену на пользователя: повторный вход
// перезаписывает запись, инвалидируя предыдущий токен.
type SessionRepository struct {
	client *redis.Client
}

// NewSessionRepository создает новый экземпляр SessionRepository
func NewSessionRepository(client *redis.Client) repository.SessionRepository {
	return &SessionRepository{client: client}
}

// Save сохраняет токен пользователя с заданным TTL
func (r *SessionRepository) Save(ctx context.Context, userID int, token string, ttl time.Duration) error {
	if err := r.client.Set(ctx, tokenKey(userID), token, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Get возвращает текущий токен пользователя.
// Отсутствие записи не является ошибкой: возвращается пустая строка.
func (r *SessionRepository) Get(ctx context.Context, userID int) (string, error) {
	token, err := r.client.Get(ctx, tokenKey(userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("failed to get session: %w", err)
	}
	return token, nil
}

// Delete удаляет запись сессии пользователя
func (r *SessionRepository) Delete(ctx context.Context, userID int) error {
	if err := r.client.Del(ctx, tokenKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Refresh продлевает TTL записи сессии на скользящее окно
func (r *SessionRepository) Refresh(ctx context.Context, userID int, window time.Duration) error {
	if err := r.client.Expire(ctx, tokenKey(userID), window).Err(); err != nil {
		return fmt.Errorf("failed to refresh session ttl: %w", err)
	}
	return nil
}
