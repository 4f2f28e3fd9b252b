package redis

import (
	"fmt"

	"DevDeckPlatform/internal/domain"
)

// Раскладка ключей кэша. Все ключи разделены двоеточиями,
// назначения не пересекаются между собой.
const (
	tokenPrefix      = "user:token:"
	verifySegment    = "verify"
	captchaSegment   = "captcha"
	cooldownPrefix   = "cooldown:"
	emailLimitPrefix = "user:limit:"
	ipLimitPrefix    = "ip:limit:"
)

// tokenKey ключ записи сессии пользователя
func tokenKey(userID int) string {
	return fmt.Sprintf("%s%d", tokenPrefix, userID)
}

// verifyKey ключ кода подтверждения, namespaced по назначению
func verifyKey(businessType domain.BusinessType, email string) string {
	return fmt.Sprintf("%s:%s:%s", businessType.Prefix(), verifySegment, email)
}

// captchaKey ключ графической капчи
func captchaKey(uuid string) string {
	return fmt.Sprintf("%s:%s:%s", domain.BusinessTypeRegister.Prefix(), captchaSegment, uuid)
}

// cooldownKey ключ флага минимального интервала между отправками
func cooldownKey(email string) string {
	return cooldownPrefix + email
}

// emailLimitKey ключ hash-счетчика суточного лимита по email
func emailLimitKey(date string) string {
	return emailLimitPrefix + date
}

// ipLimitKey ключ hash-счетчика суточного лимита по IP
func ipLimitKey(date string) string {
	return ipLimitPrefix + date
}
