package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"sat-sight-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

// RedisShortTerm is the multi-process variant of the conversation window:
// one Redis list per episode, trimmed to the configured window and expired
// after the TTL so abandoned episodes clean themselves up.
type RedisShortTerm struct {
	client   *redis.Client
	maxTurns int
	ttl      time.Duration
}

var _ ShortTerm = &RedisShortTerm{}

func NewRedisShortTerm(client *redis.Client, maxTurns int, ttl time.Duration) *RedisShortTerm {
	if maxTurns <= 0 {
		maxTurns = 10
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisShortTerm{client: client, maxTurns: maxTurns, ttl: ttl}
}

func (s *RedisShortTerm) key(episodeID string) string {
	return "stm:" + episodeID
}

func (s *RedisShortTerm) AddTurn(ctx context.Context, episodeID, role, content string) error {
	payload, err := json.Marshal(store.Turn{Role: role, Content: content})
	if err != nil {
		return fmt.Errorf("failed to marshal turn: %w", err)
	}

	key := s.key(episodeID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, int64(-s.maxTurns*2), -1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return nil
}

func (s *RedisShortTerm) GetContext(ctx context.Context, episodeID string, n int) ([]store.Turn, error) {
	start := int64(0)
	if n > 0 {
		start = int64(-n)
	}

	raw, err := s.client.LRange(ctx, s.key(episodeID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read turns: %w", err)
	}

	turns := make([]store.Turn, 0, len(raw))
	for _, entry := range raw {
		var turn store.Turn
		if err := json.Unmarshal([]byte(entry), &turn); err != nil {
			continue
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (s *RedisShortTerm) FormatForPrompt(ctx context.Context, episodeID string, n int) (string, error) {
	turns, err := s.GetContext(ctx, episodeID, n)
	if err != nil {
		return "", err
	}
	if len(turns) == 0 {
		return "No conversation history.", nil
	}

	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		content := turn.Content
		if len(content) > 200 {
			content = content[:200]
		}
		lines = append(lines, fmt.Sprintf("%s: %s", titleRole(turn.Role), content))
	}
	return strings.Join(lines, "\n"), nil
}
