package usercontext

import (
	"context"

	"DevDeckPlatform/internal/domain"
)

// Контекст identity аутентифицированного пользователя.
// Значение живет в context.Context запроса: устанавливается фильтром токенов
// один раз на запрос и умирает вместе с контекстом на любом пути выхода.
// Конкурентные запросы никогда не видят чужую identity.

// contextKey приватный тип ключа, исключает коллизии с другими пакетами
type contextKey struct{}

// Set возвращает контекст с привязанной identity пользователя
func Set(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// Get возвращает identity текущего запроса, если она установлена
func Get(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(contextKey{}).(*domain.User)
	return user, ok
}

// Require возвращает identity текущего запроса.
// Вызывается только из обработчиков за фильтром токенов: отсутствие
// identity там означает ошибку связывания, а не пользовательскую ошибку.
func Require(ctx context.Context) *domain.User {
	user, ok := Get(ctx)
	if !ok {
		panic("usercontext: no user bound to request context")
	}
	return user
}
