package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"lms-grading-service/internal/app"
	"lms-grading-service/internal/domain"
)

// AssessmentCache caches assessment definitions with TTL to avoid repeated catalog hits.
// Courses, lessons and enrollments pass straight through to the wrapped catalog.
type AssessmentCache struct {
	app.Catalog

	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand
	rndMu sync.Mutex

	mu    sync.RWMutex
	cache map[int64]cachedAssessment
}

type cachedAssessment struct {
	assessment domain.Assessment
	expiresAt  time.Time
}

func NewAssessmentCache(source app.Catalog, ttl time.Duration) *AssessmentCache {
	return &AssessmentCache{
		Catalog: source,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:   make(map[int64]cachedAssessment),
	}
}

// Assessment serves an unexpired cached definition, or loads it from the wrapped catalog.
// Concurrent misses for the same id share a single load. Load errors, NotFound included,
// are returned to every waiter and never cached.
func (c *AssessmentCache) Assessment(ctx context.Context, id int64) (domain.Assessment, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[id]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.assessment, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[id]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.assessment, nil
		}
		c.mu.RUnlock()

		assessment, err := c.Catalog.Assessment(ctx, id)
		if err != nil {
			return domain.Assessment{}, err
		}

		c.mu.Lock()
		c.cache[id] = cachedAssessment{
			assessment: assessment,
			expiresAt:  now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return assessment, nil
	})
	if err != nil {
		return domain.Assessment{}, err
	}
	return result.(domain.Assessment), nil
}

func (c *AssessmentCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
