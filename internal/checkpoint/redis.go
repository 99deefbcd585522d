package checkpoint

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey：检查点哈希键
const DefaultRedisKey = "tilescan:checkpoint"

// RedisStore：一个哈希键保存 last_id 与 confirmed_count；单条 HSET，原子写入
type RedisStore struct {
	rdb redis.Cmdable
	key string
}

func NewRedisStore(rdb redis.Cmdable, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{rdb: rdb, key: key}
}

func (r *RedisStore) Load(ctx context.Context) (Checkpoint, bool, error) {
	m, err := r.rdb.HGetAll(ctx, r.key).Result()
	if err != nil {
		return Checkpoint{}, false, err
	}
	if len(m) == 0 {
		return Checkpoint{}, false, nil
	}
	id, err := strconv.ParseInt(m["last_id"], 10, 64)
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("decode %s last_id: %w", r.key, err)
	}
	n, err := strconv.Atoi(m["confirmed_count"])
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("decode %s confirmed_count: %w", r.key, err)
	}
	return Checkpoint{LastID: id, ConfirmedCount: n}, true, nil
}

func (r *RedisStore) Save(ctx context.Context, cp Checkpoint) error {
	return r.rdb.HSet(ctx, r.key, "last_id", cp.LastID, "confirmed_count", cp.ConfirmedCount).Err()
}

// Reset：删除检查点键
func (r *RedisStore) Reset(ctx context.Context) error {
	return r.rdb.Del(ctx, r.key).Err()
}
