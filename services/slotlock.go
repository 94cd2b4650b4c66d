package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSlotBusy means another request holds the slot lock.
var ErrSlotBusy = errors.New("slot lock is held")

const slotLockTTL = 10 * time.Second

// SlotLocker serialises bookings of one slot across processes.
type SlotLocker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// SlotKey names the lock for a (doctor, date, time) slot.
func SlotKey(doctorID uint, date, clock string) string {
	return fmt.Sprintf("slot:%d:%s:%s", doctorID, date, clock)
}

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type RedisSlotLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSlotLocker(client *redis.Client) *RedisSlotLocker {
	return &RedisSlotLocker{client: client, ttl: slotLockTTL}
}

func (l *RedisSlotLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, ErrSlotBusy
	}
	return func() {
		releaseScript.Run(context.Background(), l.client, []string{key}, token)
	}, nil
}

// NoopSlotLocker leaves slot exclusivity to the database index.
type NoopSlotLocker struct{}

func (NoopSlotLocker) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}
