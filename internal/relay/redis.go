package relay

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisMailbox queues packets in a redis list per user, so queued messages
// survive relay restarts.
type RedisMailbox struct {
	rdb *redis.Client
}

// NewRedisMailbox returns a mailbox backed by the given redis client.
func NewRedisMailbox(rdb *redis.Client) *RedisMailbox {
	return &RedisMailbox{rdb: rdb}
}

func (m *RedisMailbox) Enqueue(ctx context.Context, user string, packets ...[]byte) error {
	vals := make([]interface{}, 0, len(packets))
	for _, p := range packets {
		vals = append(vals, p)
	}
	return m.rdb.RPush(ctx, inboxKey(user), vals...).Err()
}

func (m *RedisMailbox) Drain(ctx context.Context, user string) ([][]byte, error) {
	key := inboxKey(user)
	vals, err := m.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if err := m.rdb.Del(ctx, key).Err(); err != nil {
		return nil, err
	}
	out := make([][]byte, 0, len(vals))
	for _, v := range vals {
		out = append(out, []byte(v))
	}
	return out, nil
}

func inboxKey(user string) string { return fmt.Sprintf("inbox:%s", user) }
