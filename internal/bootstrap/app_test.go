package bootstrap

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Wayne-Yuw/toolscout-ai/internal/jobs"
	"github.com/Wayne-Yuw/toolscout-ai/internal/llm"
	"github.com/Wayne-Yuw/toolscout-ai/internal/llm/openai"
	sharedauth "github.com/Wayne-Yuw/toolscout-ai/internal/shared/auth"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/config"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/storage/object/local"
)

func devConfig() config.Config {
	return config.Config{
		Env:           "dev",
		JobStore:      "memory",
		WorkerCount:   1,
		WorkerQueue:   4,
		FetchTimeout:  time.Second,
		FetchMaxBytes: 1 << 20,
	}
}

func TestBuildDevUsesMemoryBackends(t *testing.T) {
	app, err := Build(context.Background(), devConfig())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer app.Shutdown(context.Background())

	if app.DB != nil {
		t.Fatalf("expected no database in dev without DATABASE_URL")
	}
	if _, ok := app.Jobs.(*jobs.MemoryStore); !ok {
		t.Fatalf("expected memory job store, got %T", app.Jobs)
	}
	if app.Pool == nil || app.Dispatcher != app.Pool {
		t.Fatalf("expected in-process pool dispatcher")
	}
	if _, ok := app.LLM.(llm.PlaceholderClient); !ok {
		t.Fatalf("expected placeholder llm, got %T", app.LLM)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewBufferString(`{"url":"notaurl"}`))
	req.Header.Set("Content-Type", "application/json")
	app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 from analyze, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/debug/health", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 health without database, got %d", rec.Code)
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	cfg := devConfig()
	cfg.Env = "production"
	cfg.JWTSecret = "prod-secret"
	t.Cleanup(func() { sharedauth.Configure(sharedauth.Settings{}) })
	if _, err := Build(context.Background(), cfg); err == nil {
		t.Fatalf("expected error without DATABASE_URL in production")
	}
}

func TestBuildRequiresJWTSecretOutsideDev(t *testing.T) {
	cfg := devConfig()
	cfg.Env = "staging"
	if _, err := Build(context.Background(), cfg); err == nil {
		t.Fatalf("expected error without JWT_SECRET in staging")
	}
}

func TestBuildAppliesJWTSettings(t *testing.T) {
	t.Setenv("ENV", "dev")
	t.Setenv("JWT_TTL", "1h")
	t.Setenv("JWT_SECRET", "from-config")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JOB_STORE", "memory")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("WENWEN_API_KEY", "")
	t.Setenv("RA_SQS_QUEUE_URL", "")
	t.Setenv("ARCHIVE_DIR", "")
	t.Setenv("ARCHIVE_S3_BUCKET", "")
	t.Cleanup(func() { sharedauth.Configure(sharedauth.Settings{}) })

	cfg := config.Load()
	if cfg.JWTTTL != time.Hour {
		t.Fatalf("expected JWT_TTL 1h, got %s", cfg.JWTTTL)
	}
	app, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer app.Shutdown(context.Background())

	token, err := sharedauth.SignJWT(sharedauth.Linked("u1", false))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	t.Setenv("JWT_SECRET", "")
	claims, err := sharedauth.VerifyJWT(token)
	if err != nil {
		t.Fatalf("verify with configured secret: %v", err)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != time.Hour {
		t.Fatalf("expected token lifetime 1h, got %s", got)
	}
}

func TestBuildLLM(t *testing.T) {
	cfg := devConfig()
	cfg.LLMProvider = "openai"
	cfg.LLMAPIKey = "sk-test"
	client, err := BuildLLM(context.Background(), cfg)
	if err != nil {
		t.Fatalf("build llm: %v", err)
	}
	if _, ok := client.(*openai.Client); !ok {
		t.Fatalf("expected openai client, got %T", client)
	}

	cfg.LLMProvider = "gemini"
	cfg.GeminiAPIKey = ""
	if _, err := BuildLLM(context.Background(), cfg); err == nil {
		t.Fatalf("expected error for gemini without key")
	}

	cfg.LLMProvider = ""
	cfg.Env = "production"
	if _, err := BuildLLM(context.Background(), cfg); err == nil {
		t.Fatalf("expected error without provider in production")
	}
}

func TestBuildArchive(t *testing.T) {
	cfg := devConfig()
	store, err := BuildArchive(context.Background(), cfg)
	if err != nil || store != nil {
		t.Fatalf("expected no archive by default, got %T err=%v", store, err)
	}

	cfg.ArchiveDir = t.TempDir()
	store, err = BuildArchive(context.Background(), cfg)
	if err != nil {
		t.Fatalf("build archive: %v", err)
	}
	if _, ok := store.(*local.Store); !ok {
		t.Fatalf("expected local archive, got %T", store)
	}
}
