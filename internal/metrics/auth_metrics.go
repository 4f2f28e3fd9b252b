package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

// AuthMetrics содержит метрики подсистемы аутентификации и верификации
type AuthMetrics struct {
	LoginAttempts  *prometheus.CounterVec
	CodesSent      *prometheus.CounterVec
	RateLimitHits  *prometheus.CounterVec
	GateRejections *prometheus.CounterVec
	CaptchaIssued  prometheus.Counter

	// HTTP метрики
	RequestCount    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// OpenTelemetry Tracer
	Tracer trace.Tracer
}

// NewAuthMetrics создает и регистрирует метрики сервиса
func NewAuthMetrics(serviceName string) *AuthMetrics {
	loginAttempts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Total number of login attempts",
		},
		[]string{"method", "result"},
	)

	codesSent := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "verify",
			Name:      "codes_sent_total",
			Help:      "Total number of verification codes sent",
		},
		[]string{"business_type"},
	)

	rateLimitHits := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "verify",
			Name:      "rate_limit_hits_total",
			Help:      "Total number of rate limit rejections",
		},
		[]string{"kind"},
	)

	gateRejections := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "auth",
			Name:      "gate_rejections_total",
			Help:      "Total number of requests rejected by the token filter",
		},
		[]string{"reason"},
	)

	captchaIssued := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "verify",
			Name:      "captcha_issued_total",
			Help:      "Total number of captcha challenges issued",
		},
	)

	requestCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	collectors := []prometheus.Collector{
		loginAttempts, codesSent, rateLimitHits, gateRejections,
		captchaIssued, requestCount, requestDuration,
	}
	for _, collector := range collectors {
		if err := prometheus.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}

	return &AuthMetrics{
		LoginAttempts:   loginAttempts,
		CodesSent:       codesSent,
		RateLimitHits:   rateLimitHits,
		GateRejections:  gateRejections,
		CaptchaIssued:   captchaIssued,
		RequestCount:    requestCount,
		RequestDuration: requestDuration,
		Tracer:          otel.Tracer(serviceName),
	}
}

// GetHandler возвращает HTTP обработчик для эндпоинта /metrics
func (m *AuthMetrics) GetHandler() http.Handler {
	return promhttp.Handler()
}

// Middleware создает middleware для сбора HTTP метрик и трассировки
func (m *AuthMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := m.Tracer.Start(r.Context(), r.URL.Path)
		defer span.End()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(wrapped, r.WithContext(ctx))

		duration := time.Since(start).Seconds()
		m.RequestCount.WithLabelValues(r.Method, r.URL.Path, fmt.Sprintf("%d", wrapped.statusCode)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)

		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.url", r.URL.String()),
			attribute.Int("http.status_code", wrapped.statusCode),
			attribute.Float64("http.duration", duration),
		)
	})
}

// responseWriter обертка для перехвата статуса ответа
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader перехватывает установку статуса
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// InitTracing инициализирует OpenTelemetry provider для сервиса
func InitTracing(serviceName string) error {
	tp := tracesdk.NewTracerProvider(
		tracesdk.WithSampler(tracesdk.AlwaysSample()),
		tracesdk.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
		)),
	)
	otel.SetTracerProvider(tp)
	return nil
}
