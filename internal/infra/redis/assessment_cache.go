package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"lms-grading-service/internal/app"
	"lms-grading-service/internal/domain"
)

// AssessmentCache stores assessment definitions in Redis as JSON and falls back to the wrapped catalog on a miss.
// Definitions are stored as: SET assessment:{id} {json} EX ttl
// Redis failures degrade to catalog reads rather than failing the request.
type AssessmentCache struct {
	app.Catalog

	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewAssessmentCache(client *redis.Client, source app.Catalog, ttl time.Duration, log *zap.Logger) *AssessmentCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &AssessmentCache{
		Catalog: source,
		client:  client,
		ttl:     ttl,
		log:     log.Named("assessment_cache"),
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *AssessmentCache) Assessment(ctx context.Context, id int64) (domain.Assessment, error) {
	if a, ok := c.cached(ctx, id); ok {
		return a, nil
	}

	result, err, _ := c.sf.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		// another caller may have filled the key while we waited
		if a, ok := c.cached(ctx, id); ok {
			return a, nil
		}

		assessment, err := c.Catalog.Assessment(ctx, id)
		if err != nil {
			return domain.Assessment{}, err
		}

		raw, err := json.Marshal(assessment)
		if err != nil {
			return domain.Assessment{}, err
		}
		if err := c.client.Set(ctx, key(id), raw, c.ttlWithJitter()).Err(); err != nil {
			c.log.Warn("cache assessment", zap.Int64("assessment_id", id), zap.Error(err))
		}
		return assessment, nil
	})
	if err != nil {
		return domain.Assessment{}, err
	}
	return result.(domain.Assessment), nil
}

func (c *AssessmentCache) cached(ctx context.Context, id int64) (domain.Assessment, bool) {
	raw, err := c.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("read cached assessment", zap.Int64("assessment_id", id), zap.Error(err))
		}
		return domain.Assessment{}, false
	}
	var a domain.Assessment
	if err := json.Unmarshal(raw, &a); err != nil {
		c.log.Warn("decode cached assessment", zap.Int64("assessment_id", id), zap.Error(err))
		return domain.Assessment{}, false
	}
	return a, true
}

func key(id int64) string {
	return "assessment:" + strconv.FormatInt(id, 10)
}

func (c *AssessmentCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
