// Redis-backed RegistryCenter.
//
// Each service is a single Redis hash at key "service:{name}" mapping
// addr -> addr. Push does HSET then EXPIRE on that hash; a missed refresh
// lets the whole hash (and therefore the service's liveness) lapse after
// ttl. Pull enumerates keys matching "service:*" and HGETALL's each one,
// trimming the "service:" prefix to recover the service name.
package registry

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spiral/errors"
)

const redisServiceKeyPrefix = "service:"

// RedisCenter implements Center using a Redis hash per service.
type RedisCenter struct {
	client *redis.Client
}

// NewRedisCenter wraps an already-configured go-redis client options set.
func NewRedisCenter(opts *redis.Options) *RedisCenter {
	return &RedisCenter{client: redis.NewClient(opts)}
}

// Push adds or refreshes addr in the hash for service and resets the
// hash's expiry to ttl.
func (c *RedisCenter) Push(ctx context.Context, service, addr string, ttl time.Duration) error {
	const op = errors.Op("redis_center_push")

	key := redisServiceKeyPrefix + service
	if err := c.client.HSet(ctx, key, addr, addr).Err(); err != nil {
		return errors.E(op, err)
	}
	if err := c.client.Expire(ctx, key, ttl).Err(); err != nil {
		return errors.E(op, err)
	}
	return nil
}

// Pull enumerates every service:* key and reads its hash of addresses.
func (c *RedisCenter) Pull(ctx context.Context) (map[string][]string, error) {
	const op = errors.Op("redis_center_pull")

	keys, err := c.client.Keys(ctx, redisServiceKeyPrefix+"*").Result()
	if err != nil {
		return nil, errors.E(op, err)
	}

	fresh := make(map[string][]string, len(keys))
	for _, key := range keys {
		service := strings.TrimPrefix(key, redisServiceKeyPrefix)

		addrs, err := c.client.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, errors.E(op, err)
		}

		list := make([]string, 0, len(addrs))
		for addr := range addrs {
			list = append(list, addr)
		}
		fresh[service] = list
	}
	return fresh, nil
}
