package conversation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists each session as a Redis list of JSON-encoded
// messages, appended via RPUSH and read back via LRANGE, the same
// list-as-log pattern the teacher's engine/infra/cache.Redis wraps for
// other list-shaped domains.
type RedisStore struct {
	client redis.UniversalClient
	locks  *sessionLocks
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, locks: newSessionLocks()}
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) ([]Message, error) {
	if sessionID == "" {
		return nil, errEmptySessionID
	}
	raw, err := s.client.LRange(ctx, keyFor(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("loading session %q: %w", sessionID, err)
	}
	out := make([]Message, 0, len(raw))
	for _, entry := range raw {
		var m Message
		if err := json.Unmarshal([]byte(entry), &m); err != nil {
			return nil, fmt.Errorf("decoding session %q entry: %w", sessionID, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *RedisStore) Append(ctx context.Context, sessionID string, messages ...Message) error {
	if sessionID == "" {
		return errEmptySessionID
	}
	if len(messages) == 0 {
		return nil
	}
	lock := s.locks.get(sessionID)
	lock.Lock()
	defer lock.Unlock()

	values := make([]any, 0, len(messages))
	for _, m := range messages {
		b, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encoding session %q entry: %w", sessionID, err)
		}
		values = append(values, string(b))
	}
	if err := s.client.RPush(ctx, keyFor(sessionID), values...).Err(); err != nil {
		return fmt.Errorf("appending to session %q: %w", sessionID, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return errEmptySessionID
	}
	lock := s.locks.get(sessionID)
	lock.Lock()
	defer lock.Unlock()
	if err := s.client.Del(ctx, keyFor(sessionID)).Err(); err != nil {
		return fmt.Errorf("clearing session %q: %w", sessionID, err)
	}
	return nil
}
