package store

import (
	"context"
	"fmt"

	"github.com/docchat-ai/docchat/internal/config"
	"github.com/docchat-ai/docchat/internal/data/redisStore"
	"github.com/docchat-ai/docchat/pkg/logger_i"
)

// chatIndexKey holds the set of known chat ids; the per-chat message lists
// live under their own keys.
const chatIndexKey = "chats"

type RedisMessageStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

// GetRedisMessageStore returns nil when Redis is offline.
func GetRedisMessageStore(ctx context.Context) *RedisMessageStore {
	backing := redisStore.GetRedisStore(ctx, config.RedisMessageStore)
	if backing == nil {
		return nil
	}
	return &RedisMessageStore{
		store:  backing,
		logger: logger_i.NewLogger("MessageStore"),
	}
}

func (s *RedisMessageStore) ValidateChatId(ctx context.Context, chatId string) bool {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "chatId", chatId)

	// The index set is the source of truth: InitNewChat registers an id
	// there before any turn exists, and the per-chat list key only appears
	// on the first SaveTurn.
	isMember, err := s.store.SetIsMember(ctx, chatIndexKey, chatId)
	if err != nil && !s.store.IsNil(err) {
		log.Error("Failed to check if chatId exists", "err", err)
		return false
	}
	return isMember
}

func (s *RedisMessageStore) InitNewChat(ctx context.Context, id string) error {
	return s.store.SetAdd(ctx, chatIndexKey, id)
}

func (s *RedisMessageStore) SaveTurn(ctx context.Context, id string, role string, text string) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "chatId", id)

	if err := s.store.SetAdd(ctx, chatIndexKey, id); err != nil {
		log.Error("Error registering chat id", "error", err)
		return err
	}
	if err := s.store.ListPush(ctx, id, fmt.Sprintf("%s: %s", role, text)); err != nil {
		log.Error("Error saving chat turn", "error", err)
		return err
	}
	// Refresh expiry on every write so active chats outlive the TTL.
	return s.store.Expire(ctx, id, config.RedisMessageStoreTTL)
}

func (s *RedisMessageStore) GetMessageHistory(ctx context.Context, chatId string, lastK int) ([]string, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "chatId", chatId)

	res, err := s.store.ListGetLast(ctx, chatId, lastK)
	if err != nil {
		log.Error("Error getting history", "error", err)
		return nil, err
	}
	return res, nil
}

func (s *RedisMessageStore) ListChats(ctx context.Context) ([]string, error) {
	return s.store.SetMembers(ctx, chatIndexKey)
}

func (s *RedisMessageStore) DeleteChat(ctx context.Context, id string) error {
	if err := s.store.Del(ctx, id); err != nil {
		return err
	}
	return s.store.SetRemove(ctx, chatIndexKey, id)
}

func TestMessageStore(store *redisStore.Store) *RedisMessageStore {
	return &RedisMessageStore{
		store:  store,
		logger: logger_i.NewLogger("test redis"),
	}
}
