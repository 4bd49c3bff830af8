package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrKVConflict is returned when an optimistic transaction keeps losing the
// race for its watched keys.
var ErrKVConflict = errors.New("kv transaction conflict")

const defaultKVRetries = 10

// RedisKV implements KVBackend with WATCH/MULTI/EXEC.
type RedisKV struct {
	client     *redis.Client
	maxRetries int
}

func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{client: client, maxRetries: defaultKVRetries}
}

type redisView struct {
	tx *redis.Tx
}

func (v redisView) Get(ctx context.Context, key string) (string, bool, error) {
	return redisGet(ctx, v.tx.Get(ctx, key))
}

func redisGet(_ context.Context, cmd *redis.StringCmd) (string, bool, error) {
	val, err := cmd.Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	return redisGet(ctx, r.client.Get(ctx, key))
}

func (r *RedisKV) Txn(ctx context.Context, watch []string, fn func(view KVView) (KVWrites, error)) error {
	txf := func(tx *redis.Tx) error {
		writes, err := fn(redisView{tx: tx})
		if err != nil {
			return err
		}
		if writes.empty() {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for k, v := range writes.Set {
				pipe.Set(ctx, k, v, 0)
			}
			if len(writes.Del) > 0 {
				pipe.Del(ctx, writes.Del...)
			}
			return nil
		})
		return err
	}

	for i := 0; i < r.maxRetries; i++ {
		err := r.client.Watch(ctx, txf, watch...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("%w after %d attempts", ErrKVConflict, r.maxRetries)
}

func (r *RedisKV) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys := make([]string, 0)
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}
