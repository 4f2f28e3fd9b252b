package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// CheckFunc проверяет доступность одной зависимости
type CheckFunc func(ctx context.Context) error

// HealthStatus представляет сводный статус сервиса и его зависимостей
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]Status `json:"services,omitempty"`
}

// Status представляет статус одной зависимости
type Status struct {
	Status  string `json:"status"`
	Details string `json:"details,omitempty"`
}

// Checker агрегирует проверки зависимостей сервиса
type Checker struct {
	checks  map[string]CheckFunc
	timeout time.Duration
}

// NewChecker создает Checker с таймаутом на каждую проверку
func NewChecker(timeout time.Duration) *Checker {
	return &Checker{
		checks:  make(map[string]CheckFunc),
		timeout: timeout,
	}
}

// Register добавляет именованную проверку зависимости
func (c *Checker) Register(name string, check CheckFunc) {
	c.checks[name] = check
}

// Check опрашивает все зависимости.
// Отказ любой из них переводит сводный статус в degraded.
func (c *Checker) Check(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Services:  make(map[string]Status, len(c.checks)),
	}

	for name, check := range c.checks {
		checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := check(checkCtx)
		cancel()

		if err != nil {
			status.Status = "degraded"
			status.Services[name] = Status{Status: "unhealthy", Details: err.Error()}
			continue
		}
		status.Services[name] = Status{Status: "healthy"}
	}

	return status
}

// Handler создает HTTP обработчик для health check эндпоинта.
// При деградации любой зависимости возвращает 503.
func Handler(checker *Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := checker.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if status.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		json.NewEncoder(w).Encode(status)
	}
}
