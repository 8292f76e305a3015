package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const rootField = "/"

// fillScript sets a cached read only while every epoch still holds the value the
// reader saw before it went to the backend.
// KEYS: hash, epoch keys. ARGV: field, value, ttl ms, expected epochs.
var fillScript = redis.NewScript(`
for i = 2, #KEYS do
  local cur = redis.call("GET", KEYS[i])
  if not cur then cur = "0" end
  if cur ~= ARGV[i + 2] then return 0 end
end
redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
redis.call("PEXPIRE", KEYS[1], ARGV[3])
return 1
`)

// CachedStore wraps a Store with a Redis read-through cache. Cached reads of one
// top-level collection live in a hash named after it; any write under the collection
// drops that hash together with the cached root.
type CachedStore struct {
	base   Store
	redis  *redis.Client
	ttl    time.Duration
	prefix string
	epochs string
	log    log.FieldLogger
}

func NewCachedStore(base Store, client *redis.Client, ttl time.Duration, logger log.FieldLogger) *CachedStore {
	if base == nil {
		panic("store.NewCachedStore: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &CachedStore{base: base, redis: client, ttl: ttl, prefix: "joinboard:doc:", epochs: "joinboard:epoch:", log: logger}
}

func (c *CachedStore) Get(ctx context.Context, path string) (json.RawMessage, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	hash, field := c.location(segs)
	if raw, ok := c.load(ctx, hash, field); ok {
		return raw, nil
	}
	epochKeys := c.epochKeys(segs)
	seen, ok := c.readEpochs(ctx, epochKeys)
	raw, err := c.base.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if ok {
		c.store(ctx, hash, field, raw, epochKeys, seen)
	}
	return raw, nil
}

func (c *CachedStore) Put(ctx context.Context, path string, value any) (json.RawMessage, error) {
	out, err := c.base.Put(ctx, path, value)
	c.evict(ctx, path)
	return out, err
}

func (c *CachedStore) Post(ctx context.Context, path string, value any) (string, error) {
	key, err := c.base.Post(ctx, path, value)
	c.evict(ctx, path)
	return key, err
}

func (c *CachedStore) Patch(ctx context.Context, path string, partial any) (json.RawMessage, error) {
	out, err := c.base.Patch(ctx, path, partial)
	c.evict(ctx, path)
	return out, err
}

func (c *CachedStore) Delete(ctx context.Context, path string) error {
	err := c.base.Delete(ctx, path)
	c.evict(ctx, path)
	return err
}

func (c *CachedStore) location(segs []string) (hash string, field string) {
	if len(segs) == 0 {
		return c.prefix + rootField, rootField
	}
	return c.prefix + segs[0], Join(segs...)
}

// epochKeys lists the counters a write bumps when it touches what segs reads. Every
// collection read also depends on the root counter.
func (c *CachedStore) epochKeys(segs []string) []string {
	keys := []string{c.epochs + rootField}
	if len(segs) > 0 {
		keys = append(keys, c.epochs+segs[0])
	}
	return keys
}

func (c *CachedStore) readEpochs(ctx context.Context, keys []string) ([]string, bool) {
	if c.redis == nil || c.ttl == 0 {
		return nil, false
	}
	vals, err := c.redis.MGet(ctx, keys...).Result()
	if err != nil {
		c.log.WithError(err).Warn("cache epoch read failed")
		return nil, false
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = "0"
		if s, ok := v.(string); ok {
			out[i] = s
		}
	}
	return out, true
}

func (c *CachedStore) load(ctx context.Context, hash, field string) (json.RawMessage, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.HGet(ctx, hash, field).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.WithError(err).WithField("hash", hash).Warn("cache read failed")
			_ = c.redis.Del(ctx, hash).Err()
		}
		return nil, false
	}
	if !json.Valid(data) {
		_ = c.redis.Del(ctx, hash).Err()
		return nil, false
	}
	return json.RawMessage(data), true
}

// store fills the cache unless a write bumped one of the epochs since they were read.
func (c *CachedStore) store(ctx context.Context, hash, field string, raw json.RawMessage, epochKeys, seen []string) {
	keys := append([]string{hash}, epochKeys...)
	args := []any{field, []byte(raw), c.ttl.Milliseconds()}
	for _, e := range seen {
		args = append(args, e)
	}
	set, err := fillScript.Run(ctx, c.redis, keys, args...).Int()
	if err != nil {
		c.log.WithError(err).WithField("hash", hash).Warn("cache write failed")
		return
	}
	if set == 0 {
		c.log.WithField("hash", hash).Debug("cache fill skipped after concurrent write")
	}
}

// evict runs after every write, failed ones included.
func (c *CachedStore) evict(ctx context.Context, path string) {
	if c.redis == nil {
		return
	}
	segs, err := splitPath(path)
	if err != nil {
		return
	}
	keys := []string{c.prefix + rootField}
	bumps := []string{c.epochs + rootField}
	if len(segs) > 0 {
		keys = append(keys, c.prefix+segs[0])
		bumps = append(bumps, c.epochs+segs[0])
	} else {
		iter := c.redis.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			c.log.WithError(err).Warn("cache scan failed")
		}
	}
	// Bump before deleting so a fill in flight cannot land after the delete.
	pipe := c.redis.TxPipeline()
	for _, k := range bumps {
		pipe.Incr(ctx, k)
	}
	pipe.Del(ctx, keys...)
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.WithError(err).WithField("path", path).Warn("cache evict failed")
	}
}
