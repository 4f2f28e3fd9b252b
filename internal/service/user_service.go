package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"DevDeckPlatform/internal/domain"
	"DevDeckPlatform/internal/metrics"
	"DevDeckPlatform/internal/pkg/jwt"
	"DevDeckPlatform/internal/pkg/nickname"
	"DevDeckPlatform/internal/pkg/password"
	"DevDeckPlatform/internal/repository"
	"DevDeckPlatform/pkg/errors"
	"DevDeckPlatform/pkg/logger"
)

// LoginResult результат успешного входа
type LoginResult struct {
	User  *domain.User
	Token string
}

// UserOptions параметры жизненного цикла сессии
type UserOptions struct {
	SessionTTL time.Duration
}

// UserService сервис аутентификации и профиля пользователя
type UserService interface {
	Register(ctx context.Context, email, code, plainPassword, nick string) (*domain.User, error)
	LoginByPassword(ctx context.Context, email, plainPassword string) (*LoginResult, error)
	LoginByCode(ctx context.Context, email, code string) (*LoginResult, error)
	Logout(ctx context.Context, userID int) error
	UpdatePassword(ctx context.Context, userID int, oldPassword, newPassword string) error
	UpdateNickname(ctx context.Context, userID int, nick string) (*domain.User, error)
	UpdateAvatar(ctx context.Context, userID int, avatarURL string) (*domain.User, error)
	CurrentUser(ctx context.Context, userID int) (*domain.User, error)
	RequestVerificationCode(ctx context.Context, email, captchaUUID, captchaCode string, businessType domain.BusinessType, ip string) (*SendCodeResult, error)
}

// userService реализация UserService
type userService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	verify   VerifyService
	codec    jwt.Codec
	hasher   password.Hasher
	names    *nickname.Generator
	metrics  *metrics.AuthMetrics
	logger   logger.Logger
	opts     UserOptions
}

// NewUserService создает новый экземпляр UserService
func NewUserService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	verify VerifyService,
	codec jwt.Codec,
	hasher password.Hasher,
	names *nickname.Generator,
	authMetrics *metrics.AuthMetrics,
	log logger.Logger,
	opts UserOptions,
) UserService {
	return &userService{
		users:    users,
		sessions: sessions,
		verify:   verify,
		codec:    codec,
		hasher:   hasher,
		names:    names,
		metrics:  authMetrics,
		logger:   log,
		opts:     opts,
	}
}

// Register регистрирует пользователя по email, коду подтверждения и паролю.
// Пустой никнейм заменяется сгенерированным.
func (s *userService) Register(ctx context.Context, email, code, plainPassword, nick string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, errors.New(errors.ErrValidation, "email is required")
	}
	if !s.hasher.Validate(plainPassword) {
		return nil, errors.New(errors.ErrValidation, "password must be at least 8 characters with a digit, an upper and a lower case letter")
	}

	codeOK, err := s.verify.VerifyCode(ctx, email, code)
	if err != nil {
		return nil, err
	}
	if !codeOK {
		return nil, errors.New(errors.ErrCodeInvalid, "verification code is invalid or expired")
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrAuthSystem, "failed to check email")
	}
	if exists {
		return nil, errors.New(errors.ErrConflict, "email is already registered")
	}

	hash, err := s.hasher.Hash(plainPassword)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrAuthSystem, "failed to hash password")
	}

	nick = strings.TrimSpace(nick)
	if nick == "" {
		nick = s.names.Generate()
	}

	now := time.Now().UTC()
	user := &domain.User{
		UUID:         uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Nickname:     nick,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	id, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrAuthSystem, "failed to create user")
	}
	user.ID = id

	s.logger.Info("user registered",
		logger.Int("user_id", user.ID),
		logger.String("email", email))

	return user, nil
}

// LoginByPassword выполняет вход по email и паролю.
// Несуществующий email и неверный пароль дают одинаковый ответ.
func (s *userService) LoginByPassword(ctx context.Context, email, plainPassword string) (*LoginResult, error) {
	email = normalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		s.metrics.LoginAttempts.WithLabelValues("password", "failure").Inc()
		return nil, errors.New(errors.ErrUnauthorized, "invalid email or password")
	}

	if !s.hasher.Check(plainPassword, user.PasswordHash) {
		s.metrics.LoginAttempts.WithLabelValues("password", "failure").Inc()
		return nil, errors.New(errors.ErrUnauthorized, "invalid email or password")
	}

	result, err := s.openSession(ctx, user)
	if err != nil {
		s.metrics.LoginAttempts.WithLabelValues("password", "failure").Inc()
		return nil, err
	}

	s.metrics.LoginAttempts.WithLabelValues("password", "success").Inc()
	s.logger.Info("user logged in", logger.Int("user_id", user.ID), logger.String("method", "password"))
	return result, nil
}

// LoginByCode выполняет вход по email и коду подтверждения
func (s *userService) LoginByCode(ctx context.Context, email, code string) (*LoginResult, error) {
	email = normalizeEmail(email)

	codeOK, err := s.verify.VerifyCode(ctx, email, code)
	if err != nil {
		s.metrics.LoginAttempts.WithLabelValues("code", "failure").Inc()
		return nil, err
	}
	if !codeOK {
		s.metrics.LoginAttempts.WithLabelValues("code", "failure").Inc()
		return nil, errors.New(errors.ErrCodeInvalid, "verification code is invalid or expired")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		s.metrics.LoginAttempts.WithLabelValues("code", "failure").Inc()
		return nil, errors.New(errors.ErrNotFound, "user is not registered")
	}

	result, err := s.openSession(ctx, user)
	if err != nil {
		s.metrics.LoginAttempts.WithLabelValues("code", "failure").Inc()
		return nil, err
	}

	s.metrics.LoginAttempts.WithLabelValues("code", "success").Inc()
	s.logger.Info("user logged in", logger.Int("user_id", user.ID), logger.String("method", "code"))
	return result, nil
}

// openSession выпускает токен и перезаписывает серверную запись сессии.
// Повторный вход инвалидирует предыдущий токен того же пользователя.
func (s *userService) openSession(ctx context.Context, user *domain.User) (*LoginResult, error) {
	token, err := s.codec.Issue(user)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrAuthSystem, "failed to issue token")
	}
	if err := s.sessions.Save(ctx, user.ID, token, s.opts.SessionTTL); err != nil {
		return nil, errors.Wrap(err, errors.ErrAuthSystem, "failed to save session")
	}

	// Отметка времени последней активности; сбой записи не блокирует вход
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Warn("failed to touch user on login",
			logger.Int("user_id", user.ID), logger.Error(err))
	}

	return &LoginResult{User: user, Token: token}, nil
}

// Logout удаляет серверную запись сессии пользователя.
// Сам токен остается криптографически валидным до истечения срока,
// но перестает проходить серверную сверку.
func (s *userService) Logout(ctx context.Context, userID int) error {
	if err := s.sessions.Delete(ctx, userID); err != nil {
		return errors.Wrap(err, errors.ErrAuthSystem, "failed to delete session")
	}
	s.logger.Info("user logged out", logger.Int("user_id", userID))
	return nil
}

// UpdatePassword меняет пароль после проверки старого.
// Хэш читается из хранилища: identity из токена его не содержит.
// После смены сессия удаляется, требуется повторный вход.
func (s *userService) UpdatePassword(ctx context.Context, userID int, oldPassword, newPassword string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return errors.Wrap(err, errors.ErrNotFound, "user not found")
	}

	if !s.hasher.Check(oldPassword, user.PasswordHash) {
		return errors.New(errors.ErrUnauthorized, "current password is incorrect")
	}
	if !s.hasher.Validate(newPassword) {
		return errors.New(errors.ErrValidation, "password must be at least 8 characters with a digit, an upper and a lower case letter")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return errors.Wrap(err, errors.ErrAuthSystem, "failed to hash password")
	}

	user.PasswordHash = hash
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return errors.Wrap(err, errors.ErrAuthSystem, "failed to update user")
	}

	if err := s.sessions.Delete(ctx, userID); err != nil {
		return errors.Wrap(err, errors.ErrAuthSystem, "failed to invalidate session")
	}

	s.logger.Info("password updated", logger.Int("user_id", userID))
	return nil
}

// UpdateNickname меняет никнейм пользователя
func (s *userService) UpdateNickname(ctx context.Context, userID int, nick string) (*domain.User, error) {
	nick = strings.TrimSpace(nick)
	if nick == "" || len(nick) > 64 {
		return nil, errors.New(errors.ErrValidation, "nickname must be between 1 and 64 characters")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrNotFound, "user not found")
	}

	user.Nickname = nick
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, errors.Wrap(err, errors.ErrAuthSystem, "failed to update user")
	}
	return user, nil
}

// UpdateAvatar меняет URL аватара пользователя
func (s *userService) UpdateAvatar(ctx context.Context, userID int, avatarURL string) (*domain.User, error) {
	avatarURL = strings.TrimSpace(avatarURL)
	if avatarURL == "" {
		return nil, errors.New(errors.ErrValidation, "avatar url is required")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrNotFound, "user not found")
	}

	user.AvatarURL = avatarURL
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, errors.Wrap(err, errors.ErrAuthSystem, "failed to update user")
	}
	return user, nil
}

// CurrentUser возвращает актуальный профиль из хранилища.
// Identity из токена может отставать от профиля, поэтому читаем заново.
func (s *userService) CurrentUser(ctx context.Context, userID int) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrNotFound, "user not found")
	}
	return user, nil
}

// RequestVerificationCode проверяет предусловия по назначению кода
// и запускает пайплайн отправки. Регистрация требует свободный email,
// вход и сброс пароля требуют существующего пользователя.
func (s *userService) RequestVerificationCode(ctx context.Context, email, captchaUUID, captchaCode string, businessType domain.BusinessType, ip string) (*SendCodeResult, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, errors.New(errors.ErrValidation, "email is required")
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrAuthSystem, "failed to check email")
	}

	switch businessType {
	case domain.BusinessTypeRegister:
		if exists {
			return nil, errors.New(errors.ErrConflict, "email is already registered")
		}
	case domain.BusinessTypeLogin, domain.BusinessTypeResetPassword:
		if !exists {
			return nil, errors.New(errors.ErrNotFound, "user is not registered")
		}
	default:
		return nil, errors.New(errors.ErrValidation, "unknown business type")
	}

	return s.verify.SendCode(ctx, email, captchaUUID, captchaCode, businessType, ip)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
