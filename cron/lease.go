package cron

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lease taken over by another instance is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLease is a best-effort cross-instance mutex with a TTL.
type RedisLease struct {
	Client *redis.Client
	Key    string
	TTL    time.Duration
	token  string
}

func NewRedisLease(client *redis.Client, key string, ttl time.Duration) *RedisLease {
	return &RedisLease{Client: client, Key: key, TTL: ttl, token: uuid.New().String()}
}

func (l *RedisLease) TryLock(ctx context.Context) (bool, error) {
	return l.Client.SetNX(ctx, l.Key, l.token, l.TTL).Result()
}

func (l *RedisLease) Unlock(ctx context.Context) error {
	return releaseScript.Run(ctx, l.Client, []string{l.Key}, l.token).Err()
}
