package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"DevDeckPlatform/internal/domain"
	"DevDeckPlatform/pkg/logger"
	"DevDeckPlatform/pkg/rabbitmq"
)

// codeEvent событие доставки кода для сервиса уведомлений
type codeEvent struct {
	Email        string `json:"email"`
	Code         string `json:"code"`
	BusinessType string `json:"business_type"`
	SentAt       int64  `json:"sent_at"`
}

// EmailNotifier публикует события доставки кодов в RabbitMQ.
// Само письмо отправляет внешний сервис уведомлений, потребляющий очередь.
type EmailNotifier struct {
	producer *rabbitmq.Producer
	logger   logger.Logger
}

// NewEmailNotifier создает новый EmailNotifier
func NewEmailNotifier(producer *rabbitmq.Producer, log logger.Logger) *EmailNotifier {
	return &EmailNotifier{producer: producer, logger: log}
}

// SendVerificationCode публикует событие доставки кода
func (n *EmailNotifier) SendVerificationCode(ctx context.Context, email, code string, businessType domain.BusinessType) error {
	event := codeEvent{
		Email:        email,
		Code:         code,
		BusinessType: businessType.Prefix(),
		SentAt:       time.Now().UTC().UnixMilli(),
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal code event: %w", err)
	}

	if err := n.producer.Publish(ctx, body); err != nil {
		return fmt.Errorf("failed to publish code event: %w", err)
	}

	n.logger.Info("verification code event published",
		logger.String("email", email),
		logger.String("business_type", businessType.Prefix()))

	return nil
}
