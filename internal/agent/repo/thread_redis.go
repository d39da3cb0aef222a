package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/agdev/finagent/internal/agent/model"
	errx "github.com/agdev/finagent/internal/core/error"
	logx "github.com/agdev/finagent/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// RedisThreadRepository keeps each thread's turns in a Redis list whose TTL is refreshed on write.
type RedisThreadRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisThreadRepository(rdb redis.Cmdable, ttl time.Duration) *RedisThreadRepository {
	return &RedisThreadRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisThreadRepository) threadKey(threadID string) string {
	return fmt.Sprintf("thread:%s:turns", threadID)
}

func (r *RedisThreadRepository) AppendTurn(ctx context.Context, threadID string, turn model.Turn) error {
	b, err := json.Marshal(turn)
	if err != nil {
		logx.Error().Err(err).Str("thread_id", threadID).Msg("failed to marshal turn")
		return fmt.Errorf("marshal turn: %w", err)
	}
	key := r.threadKey(threadID)

	if err := r.rdb.RPush(ctx, key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push turn to redis")
		return errx.WrapRedis(err)
	}
	if r.ttl > 0 {
		if ok, err := r.rdb.Expire(ctx, key, r.ttl).Result(); err != nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
			return errx.WrapRedis(err)
		} else if !ok {
			logx.Warn().Str("key", key).Dur("ttl", r.ttl).Msg("failed to set TTL on thread key")
		}
	}
	return nil
}

func (r *RedisThreadRepository) LoadTurns(ctx context.Context, threadID string) ([]model.Turn, error) {
	key := r.threadKey(threadID)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []model.Turn{}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load thread from redis")
		return nil, errx.WrapRedis(err)
	}

	turns := make([]model.Turn, 0, len(rows))
	for i, s := range rows {
		var t model.Turn
		if err := json.Unmarshal([]byte(s), &t); err != nil {
			logx.Error().Err(err).Str("thread_id", threadID).Int("index", i).Msg("failed to unmarshal turn")
			return nil, fmt.Errorf("unmarshal turn at index %d: %w", i, err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (r *RedisThreadRepository) ClearThread(ctx context.Context, threadID string) error {
	key := r.threadKey(threadID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete thread from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisThreadRepository) TurnCount(ctx context.Context, threadID string) (int, error) {
	key := r.threadKey(threadID)
	n, err := r.rdb.LLen(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to count thread turns in redis")
		return 0, errx.WrapRedis(err)
	}
	return int(n), nil
}

var _ model.ThreadRepository = (*RedisThreadRepository)(nil)
