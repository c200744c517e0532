package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"bookie/models"
)

// CachedProvider wraps a ResultProvider with a Redis cache. Only finished
// fixtures are cached: their scores can no longer change, while in-play
// fixtures must be refetched on every settlement run.
type CachedProvider struct {
	next ResultProvider
	rdb  *redis.Client
	ttl  time.Duration
}

func NewCachedProvider(next ResultProvider, rdb *redis.Client, ttl time.Duration) *CachedProvider {
	return &CachedProvider{next: next, rdb: rdb, ttl: ttl}
}

func fixtureKey(fixtureID int64) string {
	return fmt.Sprintf("fixture:result:%d", fixtureID)
}

// FetchFixture returns the cached result for a finished fixture, falling
// back to the underlying provider. Cache errors are logged and ignored; the
// cache is an optimization, not a source of truth.
func (c *CachedProvider) FetchFixture(ctx context.Context, fixtureID int64) (*models.FixtureResult, error) {
	key := fixtureKey(fixtureID)

	b, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var cached models.FixtureResult
		if err := json.Unmarshal(b, &cached); err == nil {
			return &cached, nil
		}
		log.WithField("fixtureID", fixtureID).Warn("Discarding malformed cached fixture result")
	} else if err != redis.Nil {
		log.WithError(err).WithField("fixtureID", fixtureID).Warn("Fixture cache read failed")
	}

	result, err := c.next.FetchFixture(ctx, fixtureID)
	if err != nil {
		return nil, err
	}

	if result.Finished() {
		if b, err := json.Marshal(result); err == nil {
			if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
				log.WithError(err).WithField("fixtureID", fixtureID).Warn("Fixture cache write failed")
			}
		}
	}

	return result, nil
}
