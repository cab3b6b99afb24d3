package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/Wayne-Yuw/toolscout-ai/internal/account"
	"github.com/Wayne-Yuw/toolscout-ai/internal/analyze"
	oauth "github.com/Wayne-Yuw/toolscout-ai/internal/auth"
	"github.com/Wayne-Yuw/toolscout-ai/internal/fetcher"
	"github.com/Wayne-Yuw/toolscout-ai/internal/health"
	"github.com/Wayne-Yuw/toolscout-ai/internal/jobs"
	"github.com/Wayne-Yuw/toolscout-ai/internal/llm"
	"github.com/Wayne-Yuw/toolscout-ai/internal/llm/gemini"
	"github.com/Wayne-Yuw/toolscout-ai/internal/llm/openai"
	"github.com/Wayne-Yuw/toolscout-ai/internal/queue"
	sharedauth "github.com/Wayne-Yuw/toolscout-ai/internal/shared/auth"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/config"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/outbound"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/server"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/storage/db"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/storage/object"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/storage/object/local"
	s3store "github.com/Wayne-Yuw/toolscout-ai/internal/shared/storage/object/s3"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/telemetry"
	"github.com/Wayne-Yuw/toolscout-ai/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config     config.Config
	Router     *gin.Engine
	DB         *sql.DB
	Redis      *redis.Client
	Jobs       jobs.Store
	LLM        llm.Client
	Runner     *jobs.Runner
	Pool       *jobs.Pool
	Dispatcher jobs.Dispatcher
	Fetcher    *fetcher.Fetcher
	Archive    object.Store

	UsersRepo      users.Repo
	UsersService   *users.Service
	AccountService *account.Service
	AnalyzeService *analyze.Service
	OAuth          *oauth.Service

	UsersHandler   *users.Handler
	AccountHandler *account.Handler
	AnalyzeHandler *analyze.Handler
	HealthHandler  *health.Handler
}

// Build prepares every dependency the API server needs and wires the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if !isDevLike(cfg.Env) && strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("JWT_SECRET is required outside dev and local")
	}
	sharedauth.Configure(sharedauth.Settings{Secret: cfg.JWTSecret, TTL: cfg.JWTTTL, Env: cfg.Env})
	app := &App{Config: cfg}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB

	if err := app.buildJobs(ctx); err != nil {
		app.Close()
		return nil, err
	}
	dispatcher, err := app.buildDispatcher(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Dispatcher = dispatcher

	app.buildServices()
	app.Router = server.NewRouter(server.RouterDeps{
		Config:         cfg,
		AnalyzeHandler: app.AnalyzeHandler,
		UserHandler:    app.UsersHandler,
		AccountHandler: app.AccountHandler,
		OAuth:          app.OAuth,
		HealthHandler:  app.HealthHandler,
	})
	return app, nil
}

// BuildWorker prepares the job store and runner only, for processes that
// execute tasks but serve no HTTP.
func BuildWorker(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg}
	if err := app.buildJobs(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// Shutdown drains the worker pool, then closes connections.
func (a *App) Shutdown(ctx context.Context) error {
	var err error
	if a.Pool != nil {
		err = a.Pool.Shutdown(ctx)
	}
	a.Close()
	return err
}

// Close releases connections without draining.
func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Info("bootstrap.memory_repos", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Error("bootstrap.memory_repos", map[string]any{"reason": "database connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		if isDevLike(cfg.Env) {
			telemetry.Error("bootstrap.memory_repos", map[string]any{"reason": "migrations failed", "error": err.Error()})
			return nil, nil
		}
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func (a *App) buildJobs(ctx context.Context) error {
	cfg := a.Config
	switch cfg.JobStore {
	case "redis":
		rdb, err := jobs.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		a.Redis = rdb
		a.Jobs = jobs.NewRedisStore(rdb, cfg.JobTTL)
	default:
		a.Jobs = jobs.NewMemoryStore()
	}

	client, err := BuildLLM(ctx, cfg)
	if err != nil {
		return err
	}
	a.LLM = client
	a.Runner = jobs.NewRunner(a.Jobs, client)

	archive, err := BuildArchive(ctx, cfg)
	if err != nil {
		return err
	}
	if archive != nil {
		a.Archive = archive
		a.Runner.WithArchive(archive)
	}
	return nil
}

// BuildArchive returns the analysis archive: S3 when a bucket is set, a local
// directory when ARCHIVE_DIR is set, nil otherwise.
func BuildArchive(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch {
	case strings.TrimSpace(cfg.ArchiveBucket) != "":
		store, err := s3store.New(ctx, cfg.AWSRegion, cfg.ArchiveBucket, cfg.ArchivePrefix, cfg.ArchiveKMSKeyID)
		if err != nil {
			return nil, err
		}
		return store, nil
	case strings.TrimSpace(cfg.ArchiveDir) != "":
		return local.New(cfg.ArchiveDir), nil
	default:
		return nil, nil
	}
}

// buildDispatcher publishes to SQS when a queue and a shared store are
// configured and runs tasks in-process otherwise.
func (a *App) buildDispatcher(ctx context.Context) (jobs.Dispatcher, error) {
	cfg := a.Config
	if strings.TrimSpace(cfg.SQSQueueURL) != "" {
		if cfg.JobStore != "redis" {
			telemetry.Error("bootstrap.sqs_ignored", map[string]any{"reason": "JOB_STORE must be redis to share jobs with the worker"})
		} else {
			client, err := queue.NewSQSClient(ctx, cfg.SQSQueueURL)
			if err != nil {
				return nil, err
			}
			return jobs.NewSQSDispatcher(client), nil
		}
	}
	a.Pool = jobs.NewPool(a.Runner, cfg.WorkerCount, cfg.WorkerQueue)
	return a.Pool, nil
}

// BuildLLM returns the configured completion client, or a placeholder when
// no provider is configured.
func BuildLLM(ctx context.Context, cfg config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "gemini":
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel, cfg.LLMTimeout)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "openai":
		return openai.NewClient(openai.Config{
			Endpoint:   cfg.LLMAPIURL,
			APIKey:     cfg.LLMAPIKey,
			Model:      cfg.LLMModel,
			Timeout:    cfg.LLMTimeout,
			HTTPClient: outbound.NewHTTPClient(cfg.OutboundProxy, 0),
		}), nil
	default:
		if cfg.Env == "production" {
			return nil, errors.New("LLM_PROVIDER or LLM_API_KEY is required in production")
		}
		telemetry.Info("bootstrap.llm_placeholder", map[string]any{"reason": "no provider configured"})
		return llm.PlaceholderClient{}, nil
	}
}

// BuildFetcher returns the page fetcher honouring the outbound proxy.
func BuildFetcher(cfg config.Config) *fetcher.Fetcher {
	return fetcher.New(outbound.NewHTTPClient(cfg.OutboundProxy, 0), cfg.FetchTimeout, cfg.FetchMaxBytes)
}

func (a *App) buildServices() {
	cfg := a.Config
	if a.DB != nil {
		a.UsersRepo = &users.PGRepo{DB: a.DB}
	} else {
		a.UsersRepo = users.NewMemoryRepo()
	}
	a.UsersService = users.NewService(a.UsersRepo)
	a.AccountService = account.NewService(a.UsersService)
	a.Fetcher = BuildFetcher(cfg)
	a.AnalyzeService = &analyze.Service{Fetcher: a.Fetcher, Store: a.Jobs, Dispatcher: a.Dispatcher}
	a.OAuth = oauth.NewService(a.UsersService, cfg.OAuthUIRedirect, cfg.OAuthCompleteRedirect,
		oauth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL),
		oauth.NewGitHubProvider(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubRedirectURL),
	)

	a.UsersHandler = users.NewHandler(a.UsersService)
	a.AccountHandler = account.NewHandler(a.AccountService)
	a.AnalyzeHandler = analyze.NewHandler(a.AnalyzeService)
	a.HealthHandler = health.NewHandler(health.NewService(a.DB, health.Env{
		HasDatabaseURL: strings.TrimSpace(cfg.DatabaseURL) != "",
		JobStore:       cfg.JobStore,
		LLMProvider:    cfg.LLMProvider,
	}))
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
