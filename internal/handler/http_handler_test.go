package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"DevDeckPlatform/internal/api"
	"DevDeckPlatform/internal/domain"
	"DevDeckPlatform/internal/handler"
	"DevDeckPlatform/internal/service"
	"DevDeckPlatform/internal/usercontext"
	"DevDeckPlatform/pkg/errors"
	"DevDeckPlatform/pkg/logger"
)

// MockUserService для тестов
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, email, code, plainPassword, nick string) (*domain.User, error) {
	args := m.Called(ctx, email, code, plainPassword, nick)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserService) LoginByPassword(ctx context.Context, email, plainPassword string) (*service.LoginResult, error) {
	args := m.Called(ctx, email, plainPassword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LoginResult), args.Error(1)
}

func (m *MockUserService) LoginByCode(ctx context.Context, email, code string) (*service.LoginResult, error) {
	args := m.Called(ctx, email, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LoginResult), args.Error(1)
}

func (m *MockUserService) Logout(ctx context.Context, userID int) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserService) UpdatePassword(ctx context.Context, userID int, oldPassword, newPassword string) error {
	args := m.Called(ctx, userID, oldPassword, newPassword)
	return args.Error(0)
}

func (m *MockUserService) UpdateNickname(ctx context.Context, userID int, nick string) (*domain.User, error) {
	args := m.Called(ctx, userID, nick)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserService) UpdateAvatar(ctx context.Context, userID int, avatarURL string) (*domain.User, error) {
	args := m.Called(ctx, userID, avatarURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserService) CurrentUser(ctx context.Context, userID int) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserService) RequestVerificationCode(ctx context.Context, email, captchaUUID, captchaCode string, businessType domain.BusinessType, ip string) (*service.SendCodeResult, error) {
	args := m.Called(ctx, email, captchaUUID, captchaCode, businessType, ip)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SendCodeResult), args.Error(1)
}

// MockVerifyService для тестов
type MockVerifyService struct {
	mock.Mock
}

func (m *MockVerifyService) SendCode(ctx context.Context, email, captchaUUID, captchaCode string, businessType domain.BusinessType, ip string) (*service.SendCodeResult, error) {
	args := m.Called(ctx, email, captchaUUID, captchaCode, businessType, ip)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SendCodeResult), args.Error(1)
}

func (m *MockVerifyService) VerifyCode(ctx context.Context, email, code string) (bool, error) {
	args := m.Called(ctx, email, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockVerifyService) GenerateCaptcha(ctx context.Context, captchaUUID string) (*domain.Captcha, error) {
	args := m.Called(ctx, captchaUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Captcha), args.Error(1)
}

func (m *MockVerifyService) VerifyCaptcha(ctx context.Context, captchaUUID, code string) (bool, error) {
	args := m.Called(ctx, captchaUUID, code)
	return args.Bool(0), args.Error(1)
}

type handlerFixture struct {
	users  *MockUserService
	verify *MockVerifyService
	mux    *http.ServeMux
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	log, err := logger.NewLogger("dev", "error", "test")
	require.NoError(t, err)

	users := new(MockUserService)
	verify := new(MockVerifyService)

	mux := http.NewServeMux()
	handler.NewHTTPHandler(users, verify, log).RegisterRoutes(mux)

	return &handlerFixture{users: users, verify: verify, mux: mux}
}

func jsonRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) api.Result {
	var result api.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return result
}

func TestHTTPHandler_Login(t *testing.T) {
	f := newHandlerFixture(t)

	f.users.On("LoginByPassword", mock.Anything, "user@example.com", "Passw0rd!").
		Return(&service.LoginResult{
			User:  &domain.User{ID: 42, Email: "user@example.com"},
			Token: "signed-token",
		}, nil)

	req := jsonRequest(t, http.MethodPost, "/api/v1/user/login", api.LoginRequest{
		Email:    "user@example.com",
		Password: "Passw0rd!",
	})
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)
	assert.Equal(t, 0, result.Code)

	data, ok := result.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "signed-token", data["token"])
}

func TestHTTPHandler_Login_WrongCredentials(t *testing.T) {
	f := newHandlerFixture(t)

	f.users.On("LoginByPassword", mock.Anything, "user@example.com", "wrong").
		Return(nil, errors.New(errors.ErrUnauthorized, "invalid email or password"))

	req := jsonRequest(t, http.MethodPost, "/api/v1/user/login", api.LoginRequest{
		Email:    "user@example.com",
		Password: "wrong",
	})
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 401, decodeResult(t, rec).Code)
}

func TestHTTPHandler_SendVerificationCode(t *testing.T) {
	f := newHandlerFixture(t)

	f.users.On("RequestVerificationCode", mock.Anything, "user@example.com", "c1", "ab12", domain.BusinessTypeRegister, "203.0.113.9").
		Return(&service.SendCodeResult{Sent: true, Message: "verification code sent"}, nil)

	req := jsonRequest(t, http.MethodPost, "/api/v1/user/verification-code", api.SendCodeRequest{
		Email:        "user@example.com",
		CaptchaUUID:  "c1",
		CaptchaCode:  "ab12",
		BusinessType: 1,
	})
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)
	assert.Equal(t, 0, result.Code)

	data, ok := result.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, data["sent"])
}

func TestHTTPHandler_SendVerificationCode_Cooldown(t *testing.T) {
	f := newHandlerFixture(t)

	f.users.On("RequestVerificationCode", mock.Anything, "user@example.com", "c1", "ab12", domain.BusinessTypeRegister, mock.Anything).
		Return(&service.SendCodeResult{Sent: false, Message: "code requested too frequently, try again later"}, nil)

	req := jsonRequest(t, http.MethodPost, "/api/v1/user/verification-code", api.SendCodeRequest{
		Email:        "user@example.com",
		CaptchaUUID:  "c1",
		CaptchaCode:  "ab12",
		BusinessType: 1,
	})
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	// Мягкий исход: HTTP 200 с кодом ошибки в теле
	assert.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)
	assert.Equal(t, 400, result.Code)
	assert.Equal(t, "code requested too frequently, try again later", result.Message)
}

func TestHTTPHandler_SendVerificationCode_RateLimited(t *testing.T) {
	f := newHandlerFixture(t)

	f.users.On("RequestVerificationCode", mock.Anything, "user@example.com", "c1", "ab12", domain.BusinessTypeRegister, mock.Anything).
		Return(nil, errors.New(errors.ErrIPRateLimited, "ip [203.0.113.9] reached the daily request limit"))

	req := jsonRequest(t, http.MethodPost, "/api/v1/user/verification-code", api.SendCodeRequest{
		Email:        "user@example.com",
		CaptchaUUID:  "c1",
		CaptchaCode:  "ab12",
		BusinessType: 1,
	})
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 429, decodeResult(t, rec).Code)
}

func TestHTTPHandler_GenerateCaptcha(t *testing.T) {
	f := newHandlerFixture(t)

	f.verify.On("GenerateCaptcha", mock.Anything, "client-uuid").
		Return(&domain.Captcha{UUID: "client-uuid", ImageBase64: "data:image/png;base64,xxxx"}, nil)

	req := jsonRequest(t, http.MethodPost, "/api/v1/user/captcha", api.CaptchaRequest{UUID: "client-uuid"})
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)
	data, ok := result.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "client-uuid", data["uuid"])
	assert.NotEmpty(t, data["image_base64"])
}

func TestHTTPHandler_Register(t *testing.T) {
	f := newHandlerFixture(t)

	f.users.On("Register", mock.Anything, "user@example.com", "123456", "Passw0rd!", "").
		Return(&domain.User{ID: 7, Email: "user@example.com", Nickname: "Cyberflux"}, nil)

	req := jsonRequest(t, http.MethodPost, "/api/v1/user/register", api.RegisterRequest{
		Email:    "user@example.com",
		Code:     "123456",
		Password: "Passw0rd!",
	})
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	// Хэш пароля не должен утекать в ответ
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestHTTPHandler_CurrentUser(t *testing.T) {
	f := newHandlerFixture(t)

	f.users.On("CurrentUser", mock.Anything, 42).
		Return(&domain.User{ID: 42, Email: "user@example.com"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/current", nil)
	req = req.WithContext(usercontext.Set(req.Context(), &domain.User{ID: 42}))
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)
	data, ok := result.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "user@example.com", data["email"])
}

func TestHTTPHandler_Logout(t *testing.T) {
	f := newHandlerFixture(t)

	f.users.On("Logout", mock.Anything, 42).Return(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/logout", nil)
	req = req.WithContext(usercontext.Set(req.Context(), &domain.User{ID: 42}))
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	f.users.AssertExpectations(t)
}

func TestHTTPHandler_UpdatePassword(t *testing.T) {
	f := newHandlerFixture(t)

	f.users.On("UpdatePassword", mock.Anything, 42, "OldPassw0rd", "NewPassw0rd").Return(nil)

	req := jsonRequest(t, http.MethodPut, "/api/v1/user/password", api.UpdatePasswordRequest{
		OldPassword: "OldPassw0rd",
		NewPassword: "NewPassw0rd",
	})
	req = req.WithContext(usercontext.Set(req.Context(), &domain.User{ID: 42}))
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHTTPHandler_InvalidBody(t *testing.T) {
	f := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/user/login", bytes.NewReader([]byte("{not-json")))
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 400, decodeResult(t, rec).Code)
}
