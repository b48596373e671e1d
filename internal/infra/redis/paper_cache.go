package redis

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// PaperLoader fetches raw paper bytes from the upstream source.
type PaperLoader interface {
	LoadPaper(ctx context.Context, year int) ([]byte, error)
}

// PaperCache stores raw paper bytes in Redis and falls back to the loader on
// cache miss, so re-runs skip re-downloading papers that were already
// fetched. Keys: paper:{subjectCode}:{year}.
type PaperCache struct {
	client  *redis.Client
	loader  PaperLoader
	subject string
	ttl     time.Duration
	sf      singleflight.Group
	rnd     *rand.Rand
}

func NewPaperCache(client *redis.Client, loader PaperLoader, subject string, ttl time.Duration) *PaperCache {
	return &PaperCache{
		client:  client,
		loader:  loader,
		subject: subject,
		ttl:     ttl,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *PaperCache) Paper(ctx context.Context, year int) ([]byte, error) {
	key := c.key(year)

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil && len(raw) > 0 {
		return raw, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		raw, err := c.client.Get(ctx, key).Bytes()
		if err == nil && len(raw) > 0 {
			return raw, nil
		}
		if err != nil && !errors.Is(err, redis.Nil) {
			// Redis being down degrades to a plain fetch, not a failed year.
			raw, err := c.loader.LoadPaper(ctx, year)
			return raw, err
		}

		raw, err = c.loader.LoadPaper(ctx, year)
		if err != nil {
			return nil, err
		}
		_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (c *PaperCache) key(year int) string {
	return "paper:" + c.subject + ":" + strconv.Itoa(year)
}

func (c *PaperCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
