package notifier

import (
	"context"

	"DevDeckPlatform/internal/domain"
	"DevDeckPlatform/pkg/logger"
)

// Notifier интерфейс внешней доставки кодов подтверждения.
// Механика почтового транспорта находится за пределами подсистемы:
// сервис лишь передает событие доставки.
type Notifier interface {
	SendVerificationCode(ctx context.Context, email, code string, businessType domain.BusinessType) error
}

// LogNotifier реализация Notifier для dev окружения:
// пишет событие в лог вместо реальной доставки
type LogNotifier struct {
	logger logger.Logger
}

// NewLogNotifier создает новый LogNotifier
func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

// SendVerificationCode логирует событие доставки кода
func (n *LogNotifier) SendVerificationCode(ctx context.Context, email, code string, businessType domain.BusinessType) error {
	n.logger.Info("verification code dispatched",
		logger.String("email", email),
		logger.String("business_type", businessType.Prefix()))
	return nil
}
