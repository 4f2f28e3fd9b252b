package handler

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"DevDeckPlatform/internal/api"
	"DevDeckPlatform/internal/domain"
	"DevDeckPlatform/internal/service"
	"DevDeckPlatform/internal/usercontext"
	"DevDeckPlatform/pkg/errors"
	"DevDeckPlatform/pkg/logger"
)

// PublicPaths пути, доступные без аутентификации
var PublicPaths = []string{
	"/api/v1/user/verification-code",
	"/api/v1/user/captcha",
	"/api/v1/user/register",
	"/api/v1/user/login",
	"/api/v1/user/login/code",
	"/health",
	"/metrics",
}

// HTTPHandler обработчик HTTP запросов подсистемы аутентификации
type HTTPHandler struct {
	users  service.UserService
	verify service.VerifyService
	logger logger.Logger
}

// NewHTTPHandler создает новый HTTP обработчик
func NewHTTPHandler(users service.UserService, verify service.VerifyService, log logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		users:  users,
		verify: verify,
		logger: log,
	}
}

// RegisterRoutes регистрирует маршруты сервиса
func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/user/verification-code", h.SendVerificationCode)
	mux.HandleFunc("POST /api/v1/user/captcha", h.GenerateCaptcha)
	mux.HandleFunc("POST /api/v1/user/register", h.Register)
	mux.HandleFunc("POST /api/v1/user/login", h.Login)
	mux.HandleFunc("POST /api/v1/user/login/code", h.LoginByCode)
	mux.HandleFunc("GET /api/v1/user/logout", h.Logout)
	mux.HandleFunc("GET /api/v1/user/current", h.CurrentUser)
	mux.HandleFunc("PUT /api/v1/user/password", h.UpdatePassword)
	mux.HandleFunc("PUT /api/v1/user/nickname", h.UpdateNickname)
	mux.HandleFunc("POST /api/v1/user/update-avatar", h.UpdateAvatar)
}

// SendVerificationCode обрабатывает запрос на отправку кода подтверждения
func (h *HTTPHandler) SendVerificationCode(w http.ResponseWriter, r *http.Request) {
	var req api.SendCodeRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.users.RequestVerificationCode(
		r.Context(),
		req.Email,
		req.CaptchaUUID,
		req.CaptchaCode,
		domain.BusinessType(req.BusinessType),
		clientIP(r),
	)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	// Кулдаун это мягкий исход: HTTP 200 с кодом ошибки в теле
	if !result.Sent {
		api.WriteError(w, errors.New(errors.ErrCooldownActive, result.Message))
		return
	}

	api.WriteResult(w, http.StatusOK, api.Success(api.SendCodeResponse{
		Sent:    result.Sent,
		Message: result.Message,
	}))
}

// GenerateCaptcha обрабатывает запрос на выпуск графической капчи
func (h *HTTPHandler) GenerateCaptcha(w http.ResponseWriter, r *http.Request) {
	var req api.CaptchaRequest
	if !h.decode(w, r, &req) {
		return
	}

	captcha, err := h.verify.GenerateCaptcha(r.Context(), req.UUID)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteResult(w, http.StatusOK, api.Success(captcha))
}

// Register обрабатывает запрос на регистрацию
func (h *HTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.users.Register(r.Context(), req.Email, req.Code, req.Password, req.Nickname)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteResult(w, http.StatusCreated, api.Success(user))
}

// Login обрабатывает вход по email и паролю
func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.users.LoginByPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteResult(w, http.StatusOK, api.Success(api.LoginResponse{
		User:  result.User,
		Token: result.Token,
	}))
}

// LoginByCode обрабатывает вход по email и коду подтверждения
func (h *HTTPHandler) LoginByCode(w http.ResponseWriter, r *http.Request) {
	var req api.LoginByCodeRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.users.LoginByCode(r.Context(), req.Email, req.Code)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteResult(w, http.StatusOK, api.Success(api.LoginResponse{
		User:  result.User,
		Token: result.Token,
	}))
}

// Logout завершает сессию текущего пользователя
func (h *HTTPHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := usercontext.Require(r.Context())

	if err := h.users.Logout(r.Context(), user.ID); err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteResult(w, http.StatusOK, api.SuccessMessage("logged out"))
}

// CurrentUser возвращает профиль текущего пользователя
func (h *HTTPHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user := usercontext.Require(r.Context())

	fresh, err := h.users.CurrentUser(r.Context(), user.ID)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteResult(w, http.StatusOK, api.Success(fresh))
}

// UpdatePassword меняет пароль текущего пользователя
func (h *HTTPHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req api.UpdatePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	user := usercontext.Require(r.Context())
	if err := h.users.UpdatePassword(r.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteResult(w, http.StatusOK, api.SuccessMessage("password updated, please log in again"))
}

// UpdateNickname меняет никнейм текущего пользователя
func (h *HTTPHandler) UpdateNickname(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateNicknameRequest
	if !h.decode(w, r, &req) {
		return
	}

	user := usercontext.Require(r.Context())
	updated, err := h.users.UpdateNickname(r.Context(), user.ID, req.Nickname)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteResult(w, http.StatusOK, api.Success(updated))
}

// UpdateAvatar меняет аватар текущего пользователя
func (h *HTTPHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateAvatarRequest
	if !h.decode(w, r, &req) {
		return
	}

	user := usercontext.Require(r.Context())
	updated, err := h.users.UpdateAvatar(r.Context(), user.ID, req.AvatarURL)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteResult(w, http.StatusOK, api.Success(updated))
}

// decode читает JSON тело запроса, отвечая ошибкой валидации при сбое
func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		api.WriteError(w, errors.New(errors.ErrValidation, "invalid request body"))
		return false
	}
	return true
}

// clientIP определяет IP клиента: первый адрес из X-Forwarded-For,
// иначе адрес соединения
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
