package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sensasi-chat/internal/domain/conversation"
	"sensasi-chat/internal/domain/message"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Cache key patterns:
// - convlist:{user_id}      - conversation list snapshot per viewer
// - messages:{conv_id}      - newest message page per conversation
//
// Both are read-mostly, time-bounded snapshots. Mutations invalidate rather
// than update them.

type CacheConfig struct {
	ConversationListTTL time.Duration
	MessagePageTTL      time.Duration
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		ConversationListTTL: 5 * time.Minute,
		MessagePageTTL:      time.Minute,
	}
}

// CacheStore handles caching in Redis
type CacheStore struct {
	client *goredis.Client
	config CacheConfig
}

func NewCacheStore(client *goredis.Client, config CacheConfig) *CacheStore {
	return &CacheStore{
		client: client,
		config: config,
	}
}

// --- Conversation list ---

// GetConversationList returns the cached list for the viewer, or nil on a
// cache miss. Cache errors are returned so the caller can fall through to
// storage.
func (c *CacheStore) GetConversationList(ctx context.Context, viewerID uuid.UUID) ([]conversation.Conversation, error) {
	key := conversationListKey(viewerID)
	data, err := c.client.Get(ctx, key).Result()
	if err == goredis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, err
	}

	var list []conversation.Conversation
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *CacheStore) SetConversationList(ctx context.Context, viewerID uuid.UUID, list []conversation.Conversation) error {
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, conversationListKey(viewerID), data, c.config.ConversationListTTL).Err()
}

func (c *CacheStore) InvalidateConversationList(ctx context.Context, viewerID uuid.UUID) error {
	return c.client.Del(ctx, conversationListKey(viewerID)).Err()
}

// --- Message page ---

// messagePageEntry snapshots the newest page together with the cursor to
// the next older page, so a cache hit can still page backwards.
type messagePageEntry struct {
	Messages   []message.Message `json:"messages"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

func (c *CacheStore) GetMessagePage(ctx context.Context, conversationID uuid.UUID) ([]message.Message, string, error) {
	key := messagePageKey(conversationID)
	data, err := c.client.Get(ctx, key).Result()
	if err == goredis.Nil {
		return nil, "", nil // Cache miss
	}
	if err != nil {
		return nil, "", err
	}

	var entry messagePageEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, "", err
	}
	return entry.Messages, entry.NextCursor, nil
}

func (c *CacheStore) SetMessagePage(ctx context.Context, conversationID uuid.UUID, page []message.Message, nextCursor string) error {
	data, err := json.Marshal(messagePageEntry{Messages: page, NextCursor: nextCursor})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, messagePageKey(conversationID), data, c.config.MessagePageTTL).Err()
}

func (c *CacheStore) InvalidateMessagePage(ctx context.Context, conversationID uuid.UUID) error {
	return c.client.Del(ctx, messagePageKey(conversationID)).Err()
}

func conversationListKey(viewerID uuid.UUID) string {
	return fmt.Sprintf("convlist:%s", viewerID.String())
}

func messagePageKey(conversationID uuid.UUID) string {
	return fmt.Sprintf("messages:%s", conversationID.String())
}
