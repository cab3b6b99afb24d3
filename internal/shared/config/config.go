package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	LogFormat       string
	CORSAllowOrigin []string
	DatabaseURL     string
	JWTSecret       string
	JWTTTL          time.Duration
	ShutdownTimeout time.Duration

	LLMProvider  string
	LLMAPIURL    string
	LLMAPIKey    string
	LLMModel     string
	LLMTimeout   time.Duration
	GeminiAPIKey string

	FetchTimeout  time.Duration
	FetchMaxBytes int64
	OutboundProxy string

	JobStore      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	JobTTL        time.Duration
	WorkerCount   int
	WorkerQueue   int
	SQSQueueURL   string

	ArchiveDir      string
	ArchiveBucket   string
	ArchivePrefix   string
	ArchiveKMSKeyID string
	AWSRegion       string

	GoogleClientID        string
	GoogleClientSecret    string
	GoogleRedirectURL     string
	GitHubClientID        string
	GitHubClientSecret    string
	GitHubRedirectURL     string
	OAuthUIRedirect       string
	OAuthCompleteRedirect string

	AnalyzeRPM int
	AuthRPM    int
}

const defaultLLMURL = "https://breakout.wenwen-ai.com/v1/responses"

// Load reads configuration from environment variables with sensible defaults.
// Values in .env and cmd/.env are applied first without overriding the process environment.
func Load() Config {
	if files := existing(".env", "cmd/.env"); len(files) > 0 {
		_ = godotenv.Load(files...)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	env := normalizeEnv(v.GetString("ENV"))
	if env == "production" && v.GetString("DATABASE_URL") == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	cfg := Config{
		Port:            v.GetString("PORT"),
		Env:             env,
		LogFormat:       v.GetString("LOG_FORMAT"),
		CORSAllowOrigin: splitAndTrim(v.GetString("CORS_ALLOW_ORIGIN")),
		DatabaseURL:     v.GetString("DATABASE_URL"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		JWTTTL:          v.GetDuration("JWT_TTL"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),

		LLMProvider:  normalizeProvider(v.GetString("LLM_PROVIDER")),
		LLMAPIURL:    firstNonEmpty(v.GetString("LLM_API_URL"), v.GetString("WENWEN_API_BASE"), defaultLLMURL),
		LLMAPIKey:    firstNonEmpty(v.GetString("LLM_API_KEY"), v.GetString("WENWEN_API_KEY")),
		LLMModel:     firstNonEmpty(v.GetString("LLM_MODEL"), v.GetString("WENWEN_MODEL"), "gpt-5"),
		LLMTimeout:   llmTimeout(v),
		GeminiAPIKey: v.GetString("GEMINI_API_KEY"),

		FetchTimeout:  v.GetDuration("FETCH_TIMEOUT"),
		FetchMaxBytes: v.GetInt64("FETCH_MAX_BYTES"),
		OutboundProxy: firstNonEmpty(v.GetString("OUTBOUND_HTTP_PROXY"), v.GetString("HTTPS_PROXY"), v.GetString("HTTP_PROXY")),

		JobStore:      normalizeJobStore(v.GetString("JOB_STORE")),
		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		JobTTL:        v.GetDuration("JOB_TTL"),
		WorkerCount:   v.GetInt("WORKER_COUNT"),
		WorkerQueue:   v.GetInt("WORKER_QUEUE"),
		SQSQueueURL:   v.GetString("RA_SQS_QUEUE_URL"),

		ArchiveDir:      v.GetString("ARCHIVE_DIR"),
		ArchiveBucket:   v.GetString("ARCHIVE_S3_BUCKET"),
		ArchivePrefix:   v.GetString("ARCHIVE_S3_PREFIX"),
		ArchiveKMSKeyID: v.GetString("ARCHIVE_S3_KMS_KEY_ID"),
		AWSRegion:       v.GetString("AWS_REGION"),

		GoogleClientID:        v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:    v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:     v.GetString("GOOGLE_REDIRECT_URL"),
		GitHubClientID:        v.GetString("GITHUB_CLIENT_ID"),
		GitHubClientSecret:    v.GetString("GITHUB_CLIENT_SECRET"),
		GitHubRedirectURL:     v.GetString("GITHUB_REDIRECT_URL"),
		OAuthUIRedirect:       v.GetString("OAUTH_UI_REDIRECT"),
		OAuthCompleteRedirect: v.GetString("OAUTH_COMPLETE_REDIRECT"),

		AnalyzeRPM: v.GetInt("RATE_LIMIT_ANALYZE_RPM"),
		AuthRPM:    v.GetInt("RATE_LIMIT_AUTH_RPM"),
	}
	if cfg.LLMProvider == "" && cfg.LLMAPIKey != "" {
		cfg.LLMProvider = "openai"
	}
	if cfg.LLMProvider == "gemini" && cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = cfg.LLMAPIKey
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "dev")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("CORS_ALLOW_ORIGIN", "http://localhost:3000")
	v.SetDefault("JWT_TTL", 7*24*time.Hour)
	v.SetDefault("SHUTDOWN_TIMEOUT", 30*time.Second)
	v.SetDefault("FETCH_TIMEOUT", 15*time.Second)
	v.SetDefault("FETCH_MAX_BYTES", 5<<20)
	v.SetDefault("JOB_STORE", "memory")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JOB_TTL", 0)
	v.SetDefault("WORKER_COUNT", 4)
	v.SetDefault("WORKER_QUEUE", 64)
	v.SetDefault("OAUTH_UI_REDIRECT", "http://localhost:3000/")
	v.SetDefault("OAUTH_COMPLETE_REDIRECT", "http://localhost:3000/auth/complete")
	v.SetDefault("RATE_LIMIT_ANALYZE_RPM", 10)
	v.SetDefault("RATE_LIMIT_AUTH_RPM", 30)
}

// llmTimeout prefers LLM_TIMEOUT (a Go duration) and falls back to
// WENWEN_API_TIMEOUT_MS (milliseconds).
func llmTimeout(v *viper.Viper) time.Duration {
	if raw := strings.TrimSpace(v.GetString("LLM_TIMEOUT")); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return d
		}
	}
	if ms := v.GetInt64("WENWEN_API_TIMEOUT_MS"); ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return 600 * time.Second
}

func existing(paths ...string) []string {
	var out []string
	for _, p := range paths {
		if _, err := godotenv.Read(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeJobStore(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "redis":
		return "redis"
	default:
		return "memory"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "wenwen", "openai", "responses":
		return "openai"
	case "gemini":
		return "gemini"
	default:
		return ""
	}
}
