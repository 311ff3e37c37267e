// Package observability bridges the usecase logging ports onto zap.
package observability

import (
	"context"

	"go.uber.org/zap"

	llmhttp "github.com/promptforge/promptforge/internal/adapter/llm/http"
)

type ctxKey string

// RequestIDKey carries the request ID through contexts so every log line
// emitted while handling a request can be correlated.
const RequestIDKey ctxKey = "request_id"

// ContextWithRequestID returns a context carrying the given request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestIDFromContext extracts the request ID, if any.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// Logger adapts a zap logger to the usecase Logger ports (generate.Logger,
// retrieval.Logger). All pipeline components share one logging backend.
type Logger struct {
	zl *zap.Logger
}

// NewLogger wraps an existing zap logger.
func NewLogger(zl *zap.Logger) *Logger {
	return &Logger{zl: zl}
}

// NewProduction builds a logger backed by zap's production config.
func NewProduction() *Logger {
	return &Logger{zl: zap.Must(zap.NewProduction())}
}

// NewNop builds a logger that discards everything. Useful in tests.
func NewNop() *Logger {
	return &Logger{zl: zap.NewNop()}
}

// Sync flushes buffered log entries.
func (l *Logger) Sync() error {
	return l.zl.Sync()
}

// LogWarning logs a warning message with structured fields.
func (l *Logger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	l.zl.Warn(message, zapFields(ctx, fields)...)
}

// LogInfo logs an informational message with structured fields.
func (l *Logger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	l.zl.Info(message, zapFields(ctx, fields)...)
}

func zapFields(ctx context.Context, fields map[string]interface{}) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+1)
	if id := RequestIDFromContext(ctx); id != "" {
		out = append(out, zap.String("request_id", id))
	}
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}
	return out
}

// LLMLogger adapts zap to the llmhttp.Logger interface so provider clients
// share the same logging backend as the rest of the service.
type LLMLogger struct {
	zl         *zap.Logger
	redactKeys bool
}

// NewLLMLogger creates an LLM call logger. When redactKeys is true, API keys
// are reduced to their last four characters before logging.
func NewLLMLogger(zl *zap.Logger, redactKeys bool) *LLMLogger {
	return &LLMLogger{zl: zl, redactKeys: redactKeys}
}

// LogRequest logs an outgoing provider API request.
func (l *LLMLogger) LogRequest(ctx context.Context, req llmhttp.RequestLog) {
	key := req.APIKey
	if l.redactKeys {
		key = redactKey(key)
	}
	l.zl.Info("llm request",
		zap.String("provider", req.Provider),
		zap.String("model", req.Model),
		zap.Int("prompt_chars", req.PromptChars),
		zap.String("api_key", key),
	)
}

// LogResponse logs a provider API response with timing and token info.
func (l *LLMLogger) LogResponse(ctx context.Context, resp llmhttp.ResponseLog) {
	l.zl.Info("llm response",
		zap.String("provider", resp.Provider),
		zap.String("model", resp.Model),
		zap.Duration("duration", resp.Duration),
		zap.Int("tokens_in", resp.TokensIn),
		zap.Int("tokens_out", resp.TokensOut),
		zap.Int("status", resp.StatusCode),
		zap.String("finish_reason", resp.FinishReason),
	)
}

func redactKey(key string) string {
	if len(key) <= 4 {
		return "[REDACTED]"
	}
	return "[REDACTED-" + key[len(key)-4:] + "]"
}

// LogError logs a provider API error.
func (l *LLMLogger) LogError(ctx context.Context, e llmhttp.ErrorLog) {
	l.zl.Error("llm error",
		zap.String("provider", e.Provider),
		zap.String("model", e.Model),
		zap.Duration("duration", e.Duration),
		zap.Int("status", e.StatusCode),
		zap.Bool("retryable", e.Retryable),
		zap.Error(e.Error),
	)
}
