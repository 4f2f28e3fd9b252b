package middleware

import (
	"net/http"
	"strings"
	"time"

	"DevDeckPlatform/internal/api"
	"DevDeckPlatform/internal/metrics"
	"DevDeckPlatform/internal/pkg/jwt"
	"DevDeckPlatform/internal/repository"
	"DevDeckPlatform/internal/usercontext"
	"DevDeckPlatform/pkg/errors"
	"DevDeckPlatform/pkg/logger"
)

// TokenFilter фильтр аутентификации входящих запросов.
// Цепочка проверок: allow-list, извлечение токена, криптографическая
// валидация, сверка с серверной записью сессии, продление скользящего
// окна, привязка identity к контексту запроса.
type TokenFilter struct {
	codec    jwt.Codec
	sessions repository.SessionRepository
	metrics  *metrics.AuthMetrics
	logger   logger.Logger
	window   time.Duration
	public   map[string]struct{}
}

// NewTokenFilter создает новый фильтр токенов.
// publicPaths перечисляет пути, доступные без аутентификации.
func NewTokenFilter(
	codec jwt.Codec,
	sessions repository.SessionRepository,
	authMetrics *metrics.AuthMetrics,
	log logger.Logger,
	window time.Duration,
	publicPaths []string,
) *TokenFilter {
	public := make(map[string]struct{}, len(publicPaths))
	for _, path := range publicPaths {
		public[path] = struct{}{}
	}
	return &TokenFilter{
		codec:    codec,
		sessions: sessions,
		metrics:  authMetrics,
		logger:   log,
		window:   window,
		public:   public,
	}
}

// Handler оборачивает следующий обработчик проверкой аутентификации.
// Паника ниже по цепочке переводится в ответ о сбое подсистемы,
// identity умирает вместе с контекстом запроса на любом пути выхода.
func (f *TokenFilter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				f.logger.Error("request panicked", logger.Any("panic", rec), logger.String("path", r.URL.Path))
				f.metrics.GateRejections.WithLabelValues("panic").Inc()
				api.WriteError(w, errors.New(errors.ErrAuthSystem, "authentication system error"))
			}
		}()

		if _, ok := f.public[r.URL.Path]; ok {
			next.ServeHTTP(w, r)
			return
		}

		token := extractToken(r)
		if token == "" {
			f.reject(w, "missing_token", errors.New(errors.ErrMissingToken, "authorization token is required"))
			return
		}

		user, err := f.codec.Validate(token)
		if err != nil {
			if err == jwt.ErrExpired {
				f.reject(w, "expired_token", errors.New(errors.ErrInvalidToken, "token expired"))
				return
			}
			if err == jwt.ErrInvalidSignature {
				f.reject(w, "invalid_token", errors.New(errors.ErrInvalidToken, "token is invalid"))
				return
			}
			f.reject(w, "token_parse", errors.Wrap(err, errors.ErrTokenParse, "failed to parse token"))
			return
		}

		stored, err := f.sessions.Get(r.Context(), user.ID)
		if err != nil {
			f.reject(w, "session_lookup", errors.Wrap(err, errors.ErrAuthSystem, "failed to check session"))
			return
		}
		if stored == "" || stored != token {
			// Токен криптографически валиден, но сессия отозвана
			// или перезаписана более поздним входом
			f.reject(w, "token_mismatch", errors.New(errors.ErrTokenMismatch, "session is no longer active"))
			return
		}

		if err := f.sessions.Refresh(r.Context(), user.ID, f.window); err != nil {
			f.reject(w, "session_refresh", errors.Wrap(err, errors.ErrAuthSystem, "failed to refresh session"))
			return
		}

		next.ServeHTTP(w, r.WithContext(usercontext.Set(r.Context(), user)))
	})
}

// reject пишет отказ аутентификации и учитывает его в метриках
func (f *TokenFilter) reject(w http.ResponseWriter, reason string, err *errors.Error) {
	f.metrics.GateRejections.WithLabelValues(reason).Inc()
	f.logger.Warn("request rejected by token filter",
		logger.String("reason", reason))
	api.WriteError(w, err)
}

// extractToken извлекает токен из заголовка Authorization.
// Принимается как схема Bearer, так и голый токен.
func extractToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
