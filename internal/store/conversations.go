// Package store persists conversations as whole units in Redis. The
// orchestration core never touches it; the HTTP layer loads a snapshot
// before each run and stores the updated one back after.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/civicpulse/legichat/config"
	"github.com/civicpulse/legichat/internal/chat"
)

const conversationKeyPrefix = "conversation:"

// ErrConversationNotFound is returned when a conversation is not found
var ErrConversationNotFound = errors.New("conversation not found")

// ConversationStore persists conversations in Redis.
type ConversationStore struct {
	client *redis.Client
}

// Connect opens a Redis connection and verifies it with a ping.
func Connect(ctx context.Context, cfg config.RedisConfig) (*ConversationStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.Timeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed (%s:%s): %w", cfg.Host, cfg.Port, err)
	}
	return &ConversationStore{client: client}, nil
}

// NewConversationStore wraps an existing Redis client.
func NewConversationStore(client *redis.Client) *ConversationStore {
	return &ConversationStore{client: client}
}

// Save stores the conversation as a whole unit.
func (s *ConversationStore) Save(ctx context.Context, conv *chat.Conversation) error {
	conv.UpdatedAt = time.Now().UTC()
	if conv.Title == "" {
		conv.Title = DeriveTitle(conv)
	}
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("marshalling conversation %s: %w", conv.ID, err)
	}
	if err := s.client.Set(ctx, conversationKeyPrefix+conv.ID, data, 0).Err(); err != nil {
		return fmt.Errorf("saving conversation %s: %w", conv.ID, err)
	}
	return nil
}

// Get fetches one conversation by ID.
func (s *ConversationStore) Get(ctx context.Context, id string) (*chat.Conversation, error) {
	val, err := s.client.Get(ctx, conversationKeyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("loading conversation %s: %w", id, err)
	}
	var conv chat.Conversation
	if err := json.Unmarshal([]byte(val), &conv); err != nil {
		return nil, fmt.Errorf("unmarshalling conversation %s: %w", id, err)
	}
	return &conv, nil
}

// List returns all stored conversations.
func (s *ConversationStore) List(ctx context.Context) ([]chat.Conversation, error) {
	keys, err := s.client.Keys(ctx, conversationKeyPrefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	var out []chat.Conversation
	for _, key := range keys {
		val, err := s.client.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("loading %s: %w", key, err)
		}
		var conv chat.Conversation
		if err := json.Unmarshal([]byte(val), &conv); err != nil {
			return nil, fmt.Errorf("unmarshalling %s: %w", key, err)
		}
		out = append(out, conv)
	}
	return out, nil
}

// Delete removes a conversation wholesale. Turns are never deleted
// individually, only at conversation level.
func (s *ConversationStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, conversationKeyPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("deleting conversation %s: %w", id, err)
	}
	if n == 0 {
		return ErrConversationNotFound
	}
	return nil
}

const maxTitleLen = 60

// DeriveTitle builds a display title from the first user message,
// truncated on a word boundary.
func DeriveTitle(conv *chat.Conversation) string {
	for _, t := range conv.Turns {
		if t.Role != "user" {
			continue
		}
		title := strings.TrimSpace(t.Content)
		if title == "" {
			break
		}
		if len(title) <= maxTitleLen {
			return title
		}
		cut := title[:maxTitleLen]
		if i := strings.LastIndexByte(cut, ' '); i > 0 {
			cut = cut[:i]
		}
		return cut + "…"
	}
	return "New conversation"
}
