package http

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Logger provides structured logging for LLM API calls.
type Logger interface {
	// LogRequest logs an outgoing API request (API key redacted)
	LogRequest(ctx context.Context, req RequestLog)

	// LogResponse logs an API response with timing and token info
	LogResponse(ctx context.Context, resp ResponseLog)

	// LogError logs an API error
	LogError(ctx context.Context, err ErrorLog)
}

// RequestLog contains request information for logging.
type RequestLog struct {
	Provider    string
	Model       string
	Timestamp   time.Time
	PromptChars int    // Character count of prompt
	APIKey      string // Will be redacted to last 4 chars
}

// ResponseLog contains response information for logging.
type ResponseLog struct {
	Provider     string
	Model        string
	Timestamp    time.Time
	Duration     time.Duration
	TokensIn     int
	TokensOut    int
	StatusCode   int
	FinishReason string
}

// ErrorLog contains error information for logging.
type ErrorLog struct {
	Provider   string
	Model      string
	Timestamp  time.Time
	Duration   time.Duration
	Error      error
	ErrorType  ErrorType
	StatusCode int
	Retryable  bool
}

// LogLevel defines the logging verbosity level.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelError
)

// DefaultLogger writes structured call logs to the standard logger.
type DefaultLogger struct {
	level      LogLevel
	redactKeys bool
}

// NewDefaultLogger creates a logger with the specified verbosity. API keys
// are redacted unless redactKeys is false.
func NewDefaultLogger(level LogLevel, redactKeys bool) *DefaultLogger {
	return &DefaultLogger{level: level, redactKeys: redactKeys}
}

// LogRequest logs an API request.
func (l *DefaultLogger) LogRequest(ctx context.Context, req RequestLog) {
	if l.level > LogLevelDebug {
		return
	}
	log.Printf("[DEBUG] %s/%s: Request sent (prompt=%d chars, key=%s)",
		req.Provider, req.Model, req.PromptChars, l.RedactAPIKey(req.APIKey))
}

// LogResponse logs an API response.
func (l *DefaultLogger) LogResponse(ctx context.Context, resp ResponseLog) {
	if l.level > LogLevelInfo {
		return
	}
	log.Printf("[INFO] %s/%s: Response received (duration=%.1fs, tokens=%d/%d, finish=%s)",
		resp.Provider, resp.Model, resp.Duration.Seconds(),
		resp.TokensIn, resp.TokensOut, resp.FinishReason)
}

// LogError logs an API error.
func (l *DefaultLogger) LogError(ctx context.Context, err ErrorLog) {
	retryableStr := "non-retryable"
	if err.Retryable {
		retryableStr = "retryable"
	}
	log.Printf("[ERROR] %s/%s: API call failed (status=%d, %s): %v",
		err.Provider, err.Model, err.StatusCode, retryableStr, err.Error)
}

// RedactAPIKey shows only the last 4 characters of an API key with explicit
// redaction markers.
func (l *DefaultLogger) RedactAPIKey(key string) string {
	if !l.redactKeys {
		return key
	}
	if len(key) <= 4 {
		return "[REDACTED]"
	}
	return fmt.Sprintf("[REDACTED-%s]", key[len(key)-4:])
}
