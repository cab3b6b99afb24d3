package telemetry

import (
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	logger = newLogger(stdout{}, false)
)

// stdout resolves os.Stdout on every write so redirected stdout is honoured.
type stdout struct{}

func (stdout) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

// Configure rebuilds the process logger. Console output is only used for local
// development; everything else logs JSON lines.
func Configure(env, format string) {
	console := env == "dev" && strings.EqualFold(format, "console")
	replace(newLogger(stdout{}, console))
}

// SetOutput redirects log output to w and returns a func restoring the previous logger.
func SetOutput(w io.Writer) func() {
	mu.RLock()
	prev := logger
	mu.RUnlock()
	replace(newLogger(w, false))
	return func() { replace(prev) }
}

// Sync flushes buffered entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = logger.Sync()
}

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	current().Info(msg, toZap(fields)...)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	current().Error(msg, toZap(fields)...)
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func replace(l *zap.Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}

func newLogger(w io.Writer, console bool) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.MessageKey = "msg"
	encCfg.EncodeTime = zapcore.RFC3339TimeEncoder
	var enc zapcore.Encoder
	if console {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(w), zapcore.DebugLevel)
	return zap.New(core)
}

func toZap(fields map[string]any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, zap.Any(k, Mask(k, fields[k])))
	}
	return out
}

var sensitiveKeys = []string{"password", "token", "secret", "authorization", "api_key"}

// Mask hides credentials and inline data URLs before they reach the log.
func Mask(key string, val any) any {
	lk := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lk, s) {
			return "***"
		}
	}
	if s, ok := val.(string); ok && strings.HasPrefix(s, "data:") && strings.Contains(s, ";base64,") {
		return "[data-url " + strings.SplitN(s, ";", 2)[0] + "]"
	}
	return val
}
