package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"DevDeckPlatform/internal/captcha"
	"DevDeckPlatform/internal/domain"
	"DevDeckPlatform/internal/metrics"
	"DevDeckPlatform/internal/notifier"
	"DevDeckPlatform/internal/repository"
	"DevDeckPlatform/pkg/errors"
	"DevDeckPlatform/pkg/logger"
)

// VerifyOptions параметры пайплайна кодов подтверждения
type VerifyOptions struct {
	CodeLength    int
	CodeTTL       time.Duration
	CaptchaTTL    time.Duration
	Cooldown      time.Duration
	DailyEmailMax int
	DailyIPMax    int
	CounterTTL    time.Duration
	// Код обхода проверок; действует только вне production
	BypassCode  string
	Environment string
}

// SendCodeResult результат запроса на отправку кода.
// Срабатывание кулдауна это мягкий исход: Sent=false без ошибки.
// Code возвращается только для логирования и тестов,
// клиенту в production он не отдается.
type SendCodeResult struct {
	Sent    bool
	Message string
	Code    string
}

// VerifyService сервис управления кодами подтверждения и капчами.
// Гейты отправки выполняются строго по порядку, первый отказ
// прерывает пайплайн без дальнейших побочных эффектов.
type VerifyService interface {
	SendCode(ctx context.Context, email, captchaUUID, captchaCode string, businessType domain.BusinessType, ip string) (*SendCodeResult, error)
	VerifyCode(ctx context.Context, email, code string) (bool, error)
	GenerateCaptcha(ctx context.Context, captchaUUID string) (*domain.Captcha, error)
	VerifyCaptcha(ctx context.Context, captchaUUID, code string) (bool, error)
}

// verifyService реализация VerifyService
type verifyService struct {
	repo     repository.VerificationRepository
	notifier notifier.Notifier
	renderer captcha.Renderer
	metrics  *metrics.AuthMetrics
	logger   logger.Logger
	opts     VerifyOptions
}

// NewVerifyService создает новый экземпляр VerifyService
func NewVerifyService(
	repo repository.VerificationRepository,
	codeNotifier notifier.Notifier,
	renderer captcha.Renderer,
	authMetrics *metrics.AuthMetrics,
	log logger.Logger,
	opts VerifyOptions,
) VerifyService {
	return &verifyService{
		repo:     repo,
		notifier: codeNotifier,
		renderer: renderer,
		metrics:  authMetrics,
		logger:   log,
		opts:     opts,
	}
}

// SendCode выполняет пайплайн отправки кода: капча, кулдаун,
// суточный лимит по IP, суточный лимит по email, генерация и доставка
func (s *verifyService) SendCode(ctx context.Context, email, captchaUUID, captchaCode string, businessType domain.BusinessType, ip string) (*SendCodeResult, error) {
	if !businessType.Valid() {
		return nil, errors.New(errors.ErrValidation, "unknown business type")
	}

	// Гейт 1: графическая капча
	captchaOK, err := s.VerifyCaptcha(ctx, captchaUUID, captchaCode)
	if err != nil {
		return nil, err
	}
	if !captchaOK {
		return nil, errors.New(errors.ErrCaptchaInvalid, "captcha verification failed")
	}

	// Капча одноразовая: успешная проверка потребляет вызов,
	// повторная отправка с тем же UUID не пройдет
	if err := s.repo.DeleteCaptcha(ctx, captchaUUID); err != nil {
		return nil, errors.Wrap(err, errors.ErrAuthSystem, "failed to consume captcha")
	}

	// Гейт 2: минимальный интервал между отправками.
	// Занятый флаг это мягкий исход, не ошибка.
	acquired, err := s.repo.SetCooldown(ctx, email, s.opts.Cooldown)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrAuthSystem, "failed to check cooldown")
	}
	if !acquired {
		s.metrics.RateLimitHits.WithLabelValues("cooldown").Inc()
		return &SendCodeResult{
			Sent:    false,
			Message: "code requested too frequently, try again later",
		}, nil
	}

	dateKey := time.Now().UTC().Format("2006-01-02")

	// Гейт 3: суточный лимит по IP
	if err := s.checkIPLimit(ctx, dateKey, ip); err != nil {
		return nil, err
	}

	// Гейт 4: суточный лимит по email
	if err := s.checkEmailLimit(ctx, dateKey, email); err != nil {
		return nil, err
	}

	// Генерация и сохранение кода
	code := s.generateCode()
	if err := s.repo.StoreCode(ctx, businessType, email, code, s.opts.CodeTTL); err != nil {
		return nil, errors.Wrap(err, errors.ErrAuthSystem, "failed to store verification code")
	}

	if err := s.notifier.SendVerificationCode(ctx, email, code, businessType); err != nil {
		return nil, errors.Wrap(err, errors.ErrAuthSystem, "failed to dispatch verification code")
	}

	s.metrics.CodesSent.WithLabelValues(businessType.Prefix()).Inc()
	s.logger.Info("verification code sent",
		logger.String("email", email),
		logger.String("business_type", businessType.Prefix()))

	return &SendCodeResult{Sent: true, Message: "verification code sent", Code: code}, nil
}

// checkIPLimit атомарно инкрементирует суточный счетчик IP.
// Первый писатель устанавливает TTL счетчика.
func (s *verifyService) checkIPLimit(ctx context.Context, dateKey, ip string) error {
	count, err := s.repo.IncrementDailyIP(ctx, dateKey, ip)
	if err != nil {
		return errors.Wrap(err, errors.ErrAuthSystem, "failed to increment ip counter")
	}
	if count == 1 {
		if err := s.repo.ExpireDailyIP(ctx, dateKey, s.opts.CounterTTL); err != nil {
			return errors.Wrap(err, errors.ErrAuthSystem, "failed to expire ip counter")
		}
	}
	if count > int64(s.opts.DailyIPMax) {
		s.metrics.RateLimitHits.WithLabelValues("ip").Inc()
		return errors.New(errors.ErrIPRateLimited, fmt.Sprintf("ip [%s] reached the daily request limit", ip))
	}
	return nil
}

// checkEmailLimit атомарно инкрементирует суточный счетчик email
func (s *verifyService) checkEmailLimit(ctx context.Context, dateKey, email string) error {
	count, err := s.repo.IncrementDailyEmail(ctx, dateKey, email)
	if err != nil {
		return errors.Wrap(err, errors.ErrAuthSystem, "failed to increment email counter")
	}
	if count == 1 {
		if err := s.repo.ExpireDailyEmail(ctx, dateKey, s.opts.CounterTTL); err != nil {
			return errors.Wrap(err, errors.ErrAuthSystem, "failed to expire email counter")
		}
	}
	if count > int64(s.opts.DailyEmailMax) {
		s.metrics.RateLimitHits.WithLabelValues("email").Inc()
		return errors.New(errors.ErrEmailRateLimit, fmt.Sprintf("email [%s] reached the daily request limit", email))
	}
	return nil
}

// generateCode генерирует код из равномерно случайных цифр
func (s *verifyService) generateCode() string {
	var builder strings.Builder
	for i := 0; i < s.opts.CodeLength; i++ {
		builder.WriteByte(byte('0' + rand.Intn(10)))
	}
	return builder.String()
}

// VerifyCode сравнивает код с сохраненным значением в пространстве REGISTER
func (s *verifyService) VerifyCode(ctx context.Context, email, code string) (bool, error) {
	if s.bypassAllowed(code) {
		return true, nil
	}

	stored, err := s.repo.GetCode(ctx, domain.BusinessTypeRegister, email)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrAuthSystem, "failed to read verification code")
	}
	return stored != "" && stored == code, nil
}

// GenerateCaptcha выдает графическую капчу.
// Пустой UUID заменяется сгенерированным; повторная генерация
// под тем же UUID перезаписывает предыдущую капчу.
func (s *verifyService) GenerateCaptcha(ctx context.Context, captchaUUID string) (*domain.Captcha, error) {
	if strings.TrimSpace(captchaUUID) == "" {
		captchaUUID = uuid.NewString()
	}

	code, imageBase64, err := s.renderer.Render()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrAuthSystem, "failed to render captcha")
	}

	challenge := &domain.CaptchaChallenge{
		Code:     code,
		LastTime: time.Now().UTC().Add(s.opts.Cooldown).UnixMilli(),
	}
	if err := s.repo.StoreCaptcha(ctx, captchaUUID, challenge, s.opts.CaptchaTTL); err != nil {
		return nil, errors.Wrap(err, errors.ErrAuthSystem, "failed to store captcha")
	}

	s.metrics.CaptchaIssued.Inc()

	return &domain.Captcha{UUID: captchaUUID, ImageBase64: imageBase64}, nil
}

// VerifyCaptcha сравнивает ответ с вызовом без учета регистра
func (s *verifyService) VerifyCaptcha(ctx context.Context, captchaUUID, code string) (bool, error) {
	if s.bypassAllowed(code) {
		return true, nil
	}

	challenge, err := s.repo.GetCaptcha(ctx, captchaUUID)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrAuthSystem, "failed to read captcha")
	}
	if challenge == nil {
		return false, nil
	}
	return strings.EqualFold(challenge.Code, code), nil
}

// bypassAllowed проверяет код обхода: только вне production
// и только при явно заданном значении в конфигурации
func (s *verifyService) bypassAllowed(code string) bool {
	return s.opts.Environment != "prod" && s.opts.BypassCode != "" && code == s.opts.BypassCode
}
