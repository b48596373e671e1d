package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// PaperLoader fetches raw paper bytes from the upstream source.
type PaperLoader interface {
	LoadPaper(ctx context.Context, year int) ([]byte, error)
}

// PaperCache keeps fetched papers in memory with a TTL so repeated runs in
// one process do not hit the source again for the same year.
type PaperCache struct {
	loader PaperLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[int]cachedPaper
}

type cachedPaper struct {
	raw       []byte
	expiresAt time.Time
}

func NewPaperCache(loader PaperLoader, ttl time.Duration) *PaperCache {
	return &PaperCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int]cachedPaper),
	}
}

func (c *PaperCache) Paper(ctx context.Context, year int) ([]byte, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[year]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.raw, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(strconv.Itoa(year), func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[year]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.raw, nil
		}
		c.mu.RUnlock()

		raw, err := c.loader.LoadPaper(ctx, year)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[year] = cachedPaper{
			raw:       raw,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (c *PaperCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticPaperLoader serves papers from an in-memory map (useful for tests/demos).
type StaticPaperLoader struct {
	papers map[int][]byte
	err    error
}

func NewStaticPaperLoader(papers map[int][]byte) *StaticPaperLoader {
	return &StaticPaperLoader{papers: papers}
}

func (l *StaticPaperLoader) LoadPaper(_ context.Context, year int) ([]byte, error) {
	if raw, ok := l.papers[year]; ok {
		return raw, nil
	}
	return nil, &MissingPaperError{Year: year}
}

// MissingPaperError reports a year the static loader has no paper for.
type MissingPaperError struct {
	Year int
}

func (e *MissingPaperError) Error() string {
	return "no paper for year " + strconv.Itoa(e.Year)
}
