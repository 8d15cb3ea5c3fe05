package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/calleval/calleval/internal/session"
	"github.com/calleval/calleval/internal/shared"
)

// SessionPruneJob removes half-written session records: a stored token with a
// missing or unparseable user profile can never authorize anything, it only
// bounces the browser between the dashboard and the denied page until the TTL
// expires. The sweep deletes those records so the next visit starts clean.
type SessionPruneJob struct {
	redis  *redis.Client
	logger *slog.Logger
}

// NewSessionPruneJob constructs the job.
func NewSessionPruneJob(client *redis.Client, logger *slog.Logger) *SessionPruneJob {
	return &SessionPruneJob{redis: client, logger: logger}
}

// Handle processes TaskSessionPrune tasks.
func (j *SessionPruneJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SessionPrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	batch := int64(payload.BatchSize)
	if batch <= 0 {
		batch = 100
	}

	var (
		cursor  uint64
		scanned int
		pruned  int
	)
	for {
		keys, next, err := j.redis.Scan(ctx, cursor, shared.SessionKeyPrefix+"*", batch).Result()
		if err != nil {
			return err
		}
		for _, key := range keys {
			scanned++
			stale, err := j.isStale(ctx, key)
			if err != nil {
				j.logger.Warn("session prune read", slog.String("key", key), slog.Any("error", err))
				continue
			}
			if !stale {
				continue
			}
			if err := j.redis.Del(ctx, key).Err(); err != nil {
				j.logger.Warn("session prune delete", slog.String("key", key), slog.Any("error", err))
				continue
			}
			pruned++
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	j.logger.Info("session prune finished",
		slog.Int("scanned", scanned),
		slog.Int("pruned", pruned))
	return nil
}

// isStale reports whether the record holds a token without a usable profile.
func (j *SessionPruneJob) isStale(ctx context.Context, key string) (bool, error) {
	raw, err := j.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var payload struct {
		Values map[string]string `json:"values"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		// Not a session record we understand; leave it alone.
		return false, nil
	}

	token := payload.Values[session.KeyToken]
	if token == "" {
		return false, nil
	}
	userJSON := payload.Values[session.KeyUser]
	if userJSON == "" {
		return true, nil
	}
	var user session.User
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return true, nil
	}
	return false, nil
}
