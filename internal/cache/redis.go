package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/team-sallang/matching-poc/internal/config"
)

// Status is the fast-path participant state. Absence of a status key means
// StatusIdle.
type Status string

const (
	StatusIdle    Status = "IDLE"
	StatusWaiting Status = "WAITING"
	StatusMatched Status = "MATCHED"
)

const queueKey = "matching:queue"

// matchScript atomically pairs two participants: both must still be
// WAITING, otherwise nothing changes and 0 is returned. On success both
// become MATCHED, each records the other as its partner, both leave the
// queue, and 1 is returned. Redis runs the script as a single indivisible
// unit, which is the fast path's only source of atomicity.
var matchScript = redis.NewScript(`
local a = ARGV[1]
local b = ARGV[2]
local statusA = redis.call('GET', 'user:' .. a .. ':status')
local statusB = redis.call('GET', 'user:' .. b .. ':status')
if statusA ~= 'WAITING' or statusB ~= 'WAITING' then
    return 0
end
redis.call('SET', 'user:' .. a .. ':status', 'MATCHED')
redis.call('SET', 'user:' .. b .. ':status', 'MATCHED')
redis.call('SET', 'user:' .. a .. ':matchedWith', b)
redis.call('SET', 'user:' .. b .. ':matchedWith', a)
redis.call('ZREM', 'matching:queue', a, b)
return 1
`)

// RedisCache holds the fast-path queue (a ZSET scored by join time) and the
// per-participant status keys. No other component touches these keys
// directly.
type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes the Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func keyStatus(userID string) string      { return fmt.Sprintf("user:%s:status", userID) }
func keyLastJoinAt(userID string) string  { return fmt.Sprintf("user:%s:lastJoinAt", userID) }
func keyMatchedWith(userID string) string { return fmt.Sprintf("user:%s:matchedWith", userID) }
func keyGender(userID string) string      { return fmt.Sprintf("user:%s:gender", userID) }

// --- status ---

func (c *RedisCache) SetStatus(ctx context.Context, userID string, status Status) error {
	return c.Client.Set(ctx, keyStatus(userID), string(status), 0).Err()
}

// GetStatus returns the participant's status, StatusIdle if none is
// recorded.
func (c *RedisCache) GetStatus(ctx context.Context, userID string) (Status, error) {
	val, err := c.Client.Get(ctx, keyStatus(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return StatusIdle, nil
	}
	if err != nil {
		return StatusIdle, err
	}
	return Status(val), nil
}

// --- lastJoinAt ---

func (c *RedisCache) SetLastJoinAt(ctx context.Context, userID string, at time.Time) error {
	return c.Client.Set(ctx, keyLastJoinAt(userID), strconv.FormatInt(at.UnixMilli(), 10), 0).Err()
}

// GetLastJoinAt returns the last join time in unix millis, 0 if the
// participant never joined.
func (c *RedisCache) GetLastJoinAt(ctx context.Context, userID string) (int64, error) {
	val, err := c.Client.Get(ctx, keyLastJoinAt(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

// --- gender ---

func (c *RedisCache) SetGender(ctx context.Context, userID, gender string) error {
	return c.Client.Set(ctx, keyGender(userID), gender, 0).Err()
}

// GetGender returns the recorded gender, "" if none.
func (c *RedisCache) GetGender(ctx context.Context, userID string) (string, error) {
	val, err := c.Client.Get(ctx, keyGender(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

// --- matchedWith ---

func (c *RedisCache) GetMatchedWith(ctx context.Context, userID string) (string, error) {
	val, err := c.Client.Get(ctx, keyMatchedWith(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

func (c *RedisCache) DeleteMatchedWith(ctx context.Context, userID string) error {
	return c.Client.Del(ctx, keyMatchedWith(userID)).Err()
}

// --- queue (ZSET) ---

// AddToQueue inserts the participant scored by join time so the earliest
// joiner sits at the front.
func (c *RedisCache) AddToQueue(ctx context.Context, userID string, joinedAtMillis int64) error {
	return c.Client.ZAdd(ctx, queueKey, redis.Z{
		Score:  float64(joinedAtMillis),
		Member: userID,
	}).Err()
}

// TopCandidates returns up to count members from the front of the queue.
func (c *RedisCache) TopCandidates(ctx context.Context, count int) ([]string, error) {
	return c.Client.ZRange(ctx, queueKey, 0, int64(count)-1).Result()
}

func (c *RedisCache) RemoveFromQueue(ctx context.Context, userIDs ...string) error {
	members := make([]interface{}, len(userIDs))
	for i, id := range userIDs {
		members[i] = id
	}
	return c.Client.ZRem(ctx, queueKey, members...).Err()
}

func (c *RedisCache) QueueLen(ctx context.Context) (int64, error) {
	return c.Client.ZCard(ctx, queueKey).Result()
}

// ExecuteMatch runs the atomic pairing script for the two participants.
// Returns 1 when the pair was committed, 0 when either side was no longer
// WAITING.
func (c *RedisCache) ExecuteMatch(ctx context.Context, userA, userB string) (int64, error) {
	res, err := matchScript.Run(ctx, c.Client, []string{}, userA, userB).Int64()
	if err != nil {
		return 0, fmt.Errorf("match script failed: %w", err)
	}
	return res, nil
}
