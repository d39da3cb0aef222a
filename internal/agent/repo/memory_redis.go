package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/agdev/finagent/internal/agent/model"
	errx "github.com/agdev/finagent/internal/core/error"
	logx "github.com/agdev/finagent/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	fieldConversationSummary = "conversation_summary"
	fieldLastSymbol          = "last_symbol"
)

// RedisMemoryStore keeps each user's memories in one hash, without expiry.
type RedisMemoryStore struct {
	rdb redis.Cmdable
}

func NewRedisMemoryStore(rdb redis.Cmdable) *RedisMemoryStore {
	return &RedisMemoryStore{rdb: rdb}
}

func (s *RedisMemoryStore) memoryKey(userID string) string {
	return fmt.Sprintf("user:%s:memories", userID)
}

func (s *RedisMemoryStore) GetSummary(ctx context.Context, userID string) (string, bool, error) {
	return s.get(ctx, userID, fieldConversationSummary)
}

func (s *RedisMemoryStore) SetSummary(ctx context.Context, userID, summary string) error {
	return s.set(ctx, userID, fieldConversationSummary, summary)
}

func (s *RedisMemoryStore) GetLastSymbol(ctx context.Context, userID string) (string, bool, error) {
	return s.get(ctx, userID, fieldLastSymbol)
}

func (s *RedisMemoryStore) SetLastSymbol(ctx context.Context, userID, symbol string) error {
	return s.set(ctx, userID, fieldLastSymbol, symbol)
}

func (s *RedisMemoryStore) get(ctx context.Context, userID, field string) (string, bool, error) {
	key := s.memoryKey(userID)
	v, err := s.rdb.HGet(ctx, key, field).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		logx.Error().Err(err).Str("key", key).Str("field", field).Msg("failed to read memory from redis")
		return "", false, errx.WrapRedis(err)
	}
	return v, true, nil
}

func (s *RedisMemoryStore) set(ctx context.Context, userID, field, value string) error {
	key := s.memoryKey(userID)
	if err := s.rdb.HSet(ctx, key, field, value).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Str("field", field).Msg("failed to write memory to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.MemoryStore = (*RedisMemoryStore)(nil)
