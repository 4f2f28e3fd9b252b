package health_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DevDeckPlatform/pkg/health"
)

func TestChecker_AllHealthy(t *testing.T) {
	checker := health.NewChecker(time.Second)
	checker.Register("redis", func(ctx context.Context) error { return nil })
	checker.Register("postgres", func(ctx context.Context) error { return nil })

	status := checker.Check(context.Background())

	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "healthy", status.Services["redis"].Status)
	assert.Equal(t, "healthy", status.Services["postgres"].Status)
}

func TestChecker_DependencyFailure(t *testing.T) {
	checker := health.NewChecker(time.Second)
	checker.Register("redis", func(ctx context.Context) error { return nil })
	checker.Register("postgres", func(ctx context.Context) error {
		return fmt.Errorf("connection refused")
	})

	status := checker.Check(context.Background())

	// Отказ одной зависимости деградирует сводный статус
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "healthy", status.Services["redis"].Status)
	assert.Equal(t, "unhealthy", status.Services["postgres"].Status)
	assert.Equal(t, "connection refused", status.Services["postgres"].Details)
}

func TestHandler_Healthy(t *testing.T) {
	checker := health.NewChecker(time.Second)
	checker.Register("redis", func(ctx context.Context) error { return nil })

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	health.Handler(checker)(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var status health.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)
}

func TestHandler_Degraded(t *testing.T) {
	checker := health.NewChecker(time.Second)
	checker.Register("postgres", func(ctx context.Context) error {
		return fmt.Errorf("connection refused")
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	health.Handler(checker)(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var status health.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "degraded", status.Status)
}
