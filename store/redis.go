package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rbaliyan/evtrack"
	"github.com/rbaliyan/evtrack/payload"
	"github.com/redis/go-redis/v9"
)

/*
Redis Schema:

- Hash: {prefix}report:{id} - id, name, taken_at (unix nanos), content_type, data
- Sorted set: {prefix}reports - report IDs scored by taken_at
- Sorted set: {prefix}by_name:{name} - report IDs of one tracker scored by taken_at
*/

// RedisClient is the subset of redis.Cmdable used by RedisStore.
// *redis.Client, *redis.ClusterClient and redis.UniversalClient satisfy it.
type RedisClient interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd
	ZRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	ZRangeByScore(ctx context.Context, key string, opt *redis.ZRangeBy) *redis.StringSliceCmd
	ZRevRangeByScore(ctx context.Context, key string, opt *redis.ZRangeBy) *redis.StringSliceCmd
}

// RedisStore is a Redis-based report store
type RedisStore struct {
	client     RedisClient
	codec      payload.Codec
	reportKey  string
	indexKey   string
	namePrefix string
	ttl        time.Duration
}

// RedisOption configures the Redis report store
type RedisOption func(*RedisStore)

// WithKeyPrefix sets the prefix of every key. Default is "evtrack:".
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.reportKey = prefix + "report:"
		s.indexKey = prefix + "reports"
		s.namePrefix = prefix + "by_name:"
	}
}

// WithCodec sets the codec used for report data. Default is JSON.
func WithCodec(codec payload.Codec) RedisOption {
	return func(s *RedisStore) {
		if codec != nil {
			s.codec = codec
		}
	}
}

// WithTTL expires report hashes after ttl. Index entries of expired reports
// are skipped by List and removed by DeleteOlderThan.
// Default is 0 (no expiration).
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// NewRedisStore creates a new Redis report store.
//
// Example:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	reports := store.NewRedisStore(client, store.WithCodec(payload.MsgPack{}))
func NewRedisStore(client RedisClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		codec:  payload.Default(),
	}
	WithKeyPrefix("evtrack:")(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save creates or replaces a report
func (s *RedisStore) Save(ctx context.Context, report *evtrack.Report) error {
	data, err := s.codec.Encode(report)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	key := s.reportKey + report.ID
	fields := map[string]interface{}{
		"id":           report.ID,
		"name":         report.Name,
		"taken_at":     report.TakenAt.UnixNano(),
		"content_type": s.codec.ContentType(),
		"data":         data,
	}
	if err := s.client.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("hset: %w", err)
	}
	if s.ttl > 0 {
		if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
			return fmt.Errorf("expire: %w", err)
		}
	}

	member := redis.Z{Score: float64(report.TakenAt.UnixNano()), Member: report.ID}
	if err := s.client.ZAdd(ctx, s.indexKey, member).Err(); err != nil {
		return fmt.Errorf("zadd: %w", err)
	}
	if report.Name != "" {
		if err := s.client.ZAdd(ctx, s.namePrefix+report.Name, member).Err(); err != nil {
			return fmt.Errorf("zadd: %w", err)
		}
	}
	return nil
}

// Get retrieves a report by ID
func (s *RedisStore) Get(ctx context.Context, id string) (*evtrack.Report, error) {
	fields, err := s.client.HGetAll(ctx, s.reportKey+id).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.parseReport(fields)
}

// parseReport decodes hash fields with the codec they were written with
func (s *RedisStore) parseReport(fields map[string]string) (*evtrack.Report, error) {
	codec := payload.MustGet(fields["content_type"])
	var r evtrack.Report
	if err := codec.Decode([]byte(fields["data"]), &r); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &r, nil
}

// scoreBound formats a time bound for ZRANGEBYSCORE
func scoreBound(t time.Time, fallback string, exclusive bool) string {
	if t.IsZero() {
		return fallback
	}
	v := strconv.FormatInt(t.UnixNano(), 10)
	if exclusive {
		return "(" + v
	}
	return v
}

// List returns reports matching the filter, newest first
func (s *RedisStore) List(ctx context.Context, filter Filter) ([]*evtrack.Report, error) {
	index := s.indexKey
	if filter.Name != "" {
		index = s.namePrefix + filter.Name
	}

	ids, err := s.client.ZRevRangeByScore(ctx, index, &redis.ZRangeBy{
		Min:   scoreBound(filter.StartTime, "-inf", false),
		Max:   scoreBound(filter.EndTime, "+inf", true),
		Count: int64(filter.EffectiveLimit()),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrangebyscore: %w", err)
	}

	reports := make([]*evtrack.Report, 0, len(ids))
	for _, id := range ids {
		r, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// DeleteOlderThan removes reports taken before now-age
func (s *RedisStore) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age)
	ids, err := s.client.ZRangeByScore(ctx, s.indexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: scoreBound(cutoff, "+inf", true),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("zrangebyscore: %w", err)
	}

	var deleted int64
	for _, id := range ids {
		key := s.reportKey + id
		fields, err := s.client.HGetAll(ctx, key).Result()
		if err != nil {
			return deleted, fmt.Errorf("hgetall: %w", err)
		}
		if name := fields["name"]; name != "" {
			s.client.ZRem(ctx, s.namePrefix+name, id)
		}
		s.client.ZRem(ctx, s.indexKey, id)
		if len(fields) == 0 {
			continue
		}
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return deleted, fmt.Errorf("del: %w", err)
		}
		deleted++
	}
	return deleted, nil
}

// Compile-time check that RedisStore implements Store.
var _ Store = (*RedisStore)(nil)
