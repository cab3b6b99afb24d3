package health

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Env summarizes which backends the process was started with.
type Env struct {
	HasDatabaseURL bool   `json:"hasDatabaseUrl"`
	JobStore       string `json:"jobStore"`
	LLMProvider    string `json:"llmProvider"`
}

// Report is the health payload.
type Report struct {
	OK  bool           `json:"ok"`
	Env Env            `json:"env"`
	DB  map[string]any `json:"db"`
}

var errNoDatabase = errors.New("database not configured")

// Service encapsulates health-related checks.
type Service struct {
	DB      *sql.DB
	Env     Env
	Timeout time.Duration
}

// NewService constructs a new health service. db may be nil.
func NewService(db *sql.DB, env Env) *Service {
	return &Service{DB: db, Env: env, Timeout: 5 * time.Second}
}

// Check runs select now() against the database.
func (s *Service) Check(ctx context.Context) Report {
	report := Report{Env: s.Env}
	now, err := s.now(ctx)
	if err != nil {
		report.DB = map[string]any{"error": err.Error()}
		return report
	}
	report.OK = true
	report.DB = map[string]any{"now": now.UTC().Format(time.RFC3339Nano)}
	return report
}

func (s *Service) now(ctx context.Context) (time.Time, error) {
	if s.DB == nil {
		return time.Time{}, errNoDatabase
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	var now time.Time
	if err := s.DB.QueryRowContext(ctx, "select now() as now").Scan(&now); err != nil {
		return time.Time{}, err
	}
	return now, nil
}
