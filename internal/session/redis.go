package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "fines:session:"

// RedisStore shares selections between bot replicas.
type RedisStore struct {
	client *redis.Client
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// DialRedis parses url and verifies the connection.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func key(operatorID int64) string {
	return keyPrefix + strconv.FormatInt(operatorID, 10)
}

func (r *RedisStore) Load(ctx context.Context, operatorID int64) (Selection, error) {
	raw, err := r.client.Get(ctx, key(operatorID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Selection{}, nil
	}
	if err != nil {
		return Selection{}, fmt.Errorf("load session: %w", err)
	}
	var sel Selection
	if err := json.Unmarshal(raw, &sel); err != nil {
		return Selection{}, fmt.Errorf("decode session: %w", err)
	}
	return sel, nil
}

func (r *RedisStore) Save(ctx context.Context, operatorID int64, sel Selection) error {
	if sel.IsZero() {
		if err := r.client.Del(ctx, key(operatorID)).Err(); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		return nil
	}
	raw, err := json.Marshal(sel)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	// No expiry: a selection stays until overwritten.
	if err := r.client.Set(ctx, key(operatorID), raw, 0).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
