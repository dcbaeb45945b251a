package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ProfileCache stores serialized display profiles by key.
type ProfileCache interface {
	GetMany(ctx context.Context, keys []string) (map[string][]byte, error)
	SetMany(ctx context.Context, entries map[string][]byte, ttl time.Duration) error
}

type redisProfileCache struct{ client redis.UniversalClient }

// NewRedisProfileCache returns a ProfileCache backed by client.
func NewRedisProfileCache(client redis.UniversalClient) ProfileCache {
	return &redisProfileCache{client: client}
}

func (c *redisProfileCache) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}
	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[keys[i]] = []byte(s)
		}
	}
	return out, nil
}

func (c *redisProfileCache) SetMany(ctx context.Context, entries map[string][]byte, ttl time.Duration) error {
	if len(entries) == 0 {
		return nil
	}
	_, err := c.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for k, v := range entries {
			p.Set(ctx, k, v, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis pipeline set: %w", err)
	}
	return nil
}

// NewRedisClient parses a redis:// URL and verifies the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

const (
	patientKeyPrefix = "medibook:profile:patient:"
	doctorKeyPrefix  = "medibook:profile:doctor:"
)

// cachedDirectory caches display profiles only. Doctor records used for
// booking eligibility and ownership always come from the inner directory so
// a stale isAvailable flag can never admit a booking.
type cachedDirectory struct {
	Directory
	cache  ProfileCache
	ttl    time.Duration
	logger zerolog.Logger
}

// WithProfileCache wraps dir so PatientsByIDs and DoctorsByIDs read through
// cache. Cache failures are logged and fall back to dir.
func WithProfileCache(dir Directory, cache ProfileCache, ttl time.Duration, logger zerolog.Logger) Directory {
	return &cachedDirectory{Directory: dir, cache: cache, ttl: ttl, logger: logger}
}

func (d *cachedDirectory) PatientsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*PatientProfile, error) {
	return readThrough(ctx, d, patientKeyPrefix, ids, d.Directory.PatientsByIDs)
}

func (d *cachedDirectory) DoctorsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*DoctorProfile, error) {
	return readThrough(ctx, d, doctorKeyPrefix, ids, d.Directory.DoctorsByIDs)
}

func readThrough[T any](
	ctx context.Context,
	d *cachedDirectory,
	prefix string,
	ids []uuid.UUID,
	load func(context.Context, []uuid.UUID) (map[uuid.UUID]*T, error),
) (map[uuid.UUID]*T, error) {
	out := make(map[uuid.UUID]*T, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = prefix + id.String()
	}

	hits, err := d.cache.GetMany(ctx, keys)
	if err != nil {
		d.logger.Warn().Err(err).Msg("profile cache read failed")
		hits = nil
	}

	var misses []uuid.UUID
	for i, id := range ids {
		raw, ok := hits[keys[i]]
		if !ok {
			misses = append(misses, id)
			continue
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			misses = append(misses, id)
			continue
		}
		out[id] = &v
	}
	if len(misses) == 0 {
		return out, nil
	}

	loaded, err := load(ctx, misses)
	if err != nil {
		return nil, err
	}

	fill := make(map[string][]byte, len(loaded))
	for id, v := range loaded {
		out[id] = v
		raw, err := json.Marshal(v)
		if err != nil {
			continue
		}
		fill[prefix+id.String()] = raw
	}
	if err := d.cache.SetMany(ctx, fill, d.ttl); err != nil {
		d.logger.Warn().Err(err).Msg("profile cache write failed")
	}
	return out, nil
}
