package redis_test

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DevDeckPlatform/internal/domain"
	authredis "DevDeckPlatform/internal/repository/redis"
)

// setupTestRedis подключается к локальному Redis.
// Без доступного инстанса интеграционные тесты пропускаются.
func setupTestRedis(t *testing.T) *goredis.Client {
	client := goredis.NewClient(&goredis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis is not available: %v", err)
	}

	require.NoError(t, client.FlushDB(context.Background()).Err())
	return client
}

func cleanupTestRedis(t *testing.T, client *goredis.Client) {
	assert.NoError(t, client.FlushDB(context.Background()).Err())
	assert.NoError(t, client.Close())
}

func TestSessionRepository_SaveAndGet(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(t, client)

	repo := authredis.NewSessionRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, 42, "signed-token", time.Hour))

	token, err := repo.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "signed-token", token)
}

func TestSessionRepository_GetMissing(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(t, client)

	repo := authredis.NewSessionRepository(client)

	// Отсутствие записи это не ошибка
	token, err := repo.Get(context.Background(), 404)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestSessionRepository_SaveOverwrites(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(t, client)

	repo := authredis.NewSessionRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, 42, "first-token", time.Hour))
	require.NoError(t, repo.Save(ctx, 42, "second-token", time.Hour))

	token, err := repo.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "second-token", token)
}

func TestSessionRepository_Delete(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(t, client)

	repo := authredis.NewSessionRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, 42, "signed-token", time.Hour))
	require.NoError(t, repo.Delete(ctx, 42))

	token, err := repo.Get(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestSessionRepository_Refresh(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(t, client)

	repo := authredis.NewSessionRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, 42, "signed-token", time.Hour))
	require.NoError(t, repo.Refresh(ctx, 42, 30*time.Minute))

	ttl, err := client.TTL(ctx, "user:token:42").Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, 30*time.Minute)
	assert.Greater(t, ttl, 29*time.Minute)
}

func TestVerificationRepository_CodeNamespaces(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(t, client)

	repo := authredis.NewVerificationRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.StoreCode(ctx, domain.BusinessTypeRegister, "user@example.com", "111111", 5*time.Minute))
	require.NoError(t, repo.StoreCode(ctx, domain.BusinessTypeLogin, "user@example.com", "222222", 5*time.Minute))

	// Коды разных назначений не пересекаются
	registerCode, err := repo.GetCode(ctx, domain.BusinessTypeRegister, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "111111", registerCode)

	loginCode, err := repo.GetCode(ctx, domain.BusinessTypeLogin, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "222222", loginCode)
}

func TestVerificationRepository_GetCodeMissing(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(t, client)

	repo := authredis.NewVerificationRepository(client)

	code, err := repo.GetCode(context.Background(), domain.BusinessTypeRegister, "ghost@example.com")
	require.NoError(t, err)
	assert.Empty(t, code)
}

func TestVerificationRepository_Captcha(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(t, client)

	repo := authredis.NewVerificationRepository(client)
	ctx := context.Background()

	challenge := &domain.CaptchaChallenge{Code: "ab3k", LastTime: time.Now().UnixMilli()}
	require.NoError(t, repo.StoreCaptcha(ctx, "client-uuid", challenge, 5*time.Minute))

	stored, err := repo.GetCaptcha(ctx, "client-uuid")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, challenge.Code, stored.Code)
	assert.Equal(t, challenge.LastTime, stored.LastTime)

	missing, err := repo.GetCaptcha(ctx, "unknown-uuid")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestVerificationRepository_DeleteCaptcha(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(t, client)

	repo := authredis.NewVerificationRepository(client)
	ctx := context.Background()

	challenge := &domain.CaptchaChallenge{Code: "ab3k", LastTime: time.Now().UnixMilli()}
	require.NoError(t, repo.StoreCaptcha(ctx, "client-uuid", challenge, 5*time.Minute))
	require.NoError(t, repo.DeleteCaptcha(ctx, "client-uuid"))

	stored, err := repo.GetCaptcha(ctx, "client-uuid")
	require.NoError(t, err)
	assert.Nil(t, stored)

	// Удаление отсутствующей капчи не является ошибкой
	require.NoError(t, repo.DeleteCaptcha(ctx, "client-uuid"))
}

func TestVerificationRepository_SetCooldown(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(t, client)

	repo := authredis.NewVerificationRepository(client)
	ctx := context.Background()

	acquired, err := repo.SetCooldown(ctx, "user@example.com", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)

	// Повторная попытка в окне кулдауна не проходит
	acquired, err = repo.SetCooldown(ctx, "user@example.com", time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired)
}

func TestVerificationRepository_DailyCounters(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(t, client)

	repo := authredis.NewVerificationRepository(client)
	ctx := context.Background()
	date := "2026-08-30"

	count, err := repo.IncrementDailyEmail(ctx, date, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.IncrementDailyEmail(ctx, date, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// Счетчик другого email в том же хэше независим
	count, err = repo.IncrementDailyEmail(ctx, date, "other@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.IncrementDailyIP(ctx, date, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.ExpireDailyEmail(ctx, date, time.Hour))
	ttl, err := client.TTL(ctx, "user:limit:"+date).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
