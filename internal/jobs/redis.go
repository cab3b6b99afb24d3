package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "toolscout:job:"
	maxTxRetries   = 5
)

// RedisStore keeps jobs as JSON values in Redis so the API and the worker
// share them.
type RedisStore struct {
	rdb redis.UniversalClient
	ttl time.Duration
	now func() time.Time
}

// NewRedisStore wraps rdb. A zero ttl keeps jobs until deleted.
func NewRedisStore(rdb redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl, now: time.Now}
}

// ConnectRedis opens a client and pings it.
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func redisKey(id string) string { return redisKeyPrefix + id }

func (s *RedisStore) Create(ctx context.Context, url string) (Job, error) {
	job := newPending(s.now(), url)
	data, err := json.Marshal(job)
	if err != nil {
		return Job{}, fmt.Errorf("encode job: %w", err)
	}
	ok, err := s.rdb.SetNX(ctx, redisKey(job.ID), data, s.ttl).Result()
	if err != nil {
		return Job{}, fmt.Errorf("redis create job: %w", err)
	}
	if !ok {
		return Job{}, fmt.Errorf("redis create job: id collision %s", job.ID)
	}
	return job, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Job, error) {
	return s.load(ctx, s.rdb, id)
}

func (s *RedisStore) Complete(ctx context.Context, id, model, analysis string) (Job, error) {
	return s.update(ctx, id, StatusCompleted, model, analysis, "")
}

func (s *RedisStore) Fail(ctx context.Context, id, message string) (Job, error) {
	return s.update(ctx, id, StatusFailed, "", "", message)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) load(ctx context.Context, g getter, id string) (Job, error) {
	raw, err := g.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, fmt.Errorf("redis get job: %w", err)
	}
	var job Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return Job{}, fmt.Errorf("decode job %s: %w", id, err)
	}
	return job, nil
}

// update moves a pending job to a terminal state under WATCH so a concurrent
// writer cannot overwrite a result that landed first.
func (s *RedisStore) update(ctx context.Context, id string, status Status, model, analysis, message string) (Job, error) {
	key := redisKey(id)
	var out Job
	txf := func(tx *redis.Tx) error {
		job, err := s.load(ctx, tx, id)
		if err != nil {
			return err
		}
		job, err = finish(job, s.now(), status, model, analysis, message)
		out = job
		if err != nil {
			return err
		}
		data, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("encode job: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if s.ttl > 0 {
				pipe.Set(ctx, key, data, s.ttl)
			} else {
				pipe.Set(ctx, key, data, redis.KeepTTL)
			}
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return out, err
	}
	return Job{}, fmt.Errorf("redis update job %s: too much contention", id)
}

var _ Store = (*RedisStore)(nil)
