package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"DevDeckPlatform/internal/domain"
	"DevDeckPlatform/internal/repository"
)

// UserRepository реализация хранилища пользователей для PostgreSQL.
// Подсистема аутентификации обращается к таблице users только как
// к внешнему коллаборатору: чтение и делегированные обновления.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository создает новый экземпляр UserRepository
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &UserRepository{pool: pool}
}

// Create сохраняет нового пользователя и возвращает сгенерированный ID
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (int, error) {
	query := `INSERT INTO users (uuid, email, password_hash, nickname, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`

	var id int
	err := r.pool.QueryRow(ctx, query,
		user.UUID,
		user.Email,
		user.PasswordHash,
		user.Nickname,
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	return id, nil
}

// FindByID возвращает пользователя по его ID
func (r *UserRepository) FindByID(ctx context.Context, id int) (*domain.User, error) {
	query := `SELECT id, uuid, email, password_hash, nickname, avatar_url, created_at, updated_at
		FROM users WHERE id = $1`

	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

// FindByEmail возвращает пользователя по его email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT id, uuid, email, password_hash, nickname, avatar_url, created_at, updated_at
		FROM users WHERE email = $1`

	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

// ExistsByEmail сообщает, зарегистрирован ли email
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

// Update выполняет делегированное обновление пользователя
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	query := `UPDATE users SET password_hash = $2, nickname = $3, avatar_url = $4, updated_at = $5
		WHERE id = $1`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.PasswordHash,
		user.Nickname,
		user.AvatarURL,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (r *UserRepository) scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.UUID,
		&user.Email,
		&user.PasswordHash,
		&user.Nickname,
		&user.AvatarURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	return &user, nil
}
