package caserepo

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	casemetrics "caseflow/internal/cases/metrics"
	"caseflow/internal/cases/models"
	id "caseflow/pkg/domain"
)

// SnapshotCache decorates a Store with a Redis read-through cache for single
// case lookups. Writes go to the inner store first and then refresh the
// snapshot, so readers only ever see committed state; a cache failure is
// logged and degraded to a store read, never surfaced to the caller.
type SnapshotCache struct {
	inner   Store
	redis   *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	metrics *casemetrics.Metrics
}

func NewSnapshotCache(inner Store, client *redis.Client, ttl time.Duration, logger *slog.Logger, metrics *casemetrics.Metrics) *SnapshotCache {
	return &SnapshotCache{inner: inner, redis: client, ttl: ttl, logger: logger, metrics: metrics}
}

func cacheKey(caseID id.CaseID) string {
	return "caseflow:case:" + caseID.String()
}

func (c *SnapshotCache) Create(ctx context.Context, cs *models.Case) error {
	if err := c.inner.Create(ctx, cs); err != nil {
		return err
	}
	c.put(ctx, cs)
	return nil
}

func (c *SnapshotCache) FindByID(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	raw, err := c.redis.Get(ctx, cacheKey(caseID)).Bytes()
	if err == nil {
		var cs models.Case
		if err := json.Unmarshal(raw, &cs); err == nil {
			if c.metrics != nil {
				c.metrics.SnapshotCacheHits.Inc()
			}
			return &cs, nil
		}
		// Corrupt entry: fall through and let the refresh overwrite it.
		c.logger.WarnContext(ctx, "corrupt case snapshot in cache", "case_id", caseID)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "snapshot cache read failed", "case_id", caseID, "error", err)
	}

	if c.metrics != nil {
		c.metrics.SnapshotCacheMisses.Inc()
	}
	cs, err := c.inner.FindByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	c.put(ctx, cs)
	return cs, nil
}

// List always hits the store; list results are filter-dependent and not worth
// caching at current volumes.
func (c *SnapshotCache) List(ctx context.Context, filter Filter) ([]*models.Case, error) {
	return c.inner.List(ctx, filter)
}

func (c *SnapshotCache) Execute(ctx context.Context, caseID id.CaseID, fn func(*models.Case) error) (*models.Case, error) {
	updated, err := c.inner.Execute(ctx, caseID, fn)
	if err != nil {
		return nil, err
	}
	c.put(ctx, updated)
	return updated, nil
}

func (c *SnapshotCache) Delete(ctx context.Context, caseID id.CaseID) error {
	if err := c.inner.Delete(ctx, caseID); err != nil {
		return err
	}
	if err := c.redis.Del(ctx, cacheKey(caseID)).Err(); err != nil {
		c.logger.WarnContext(ctx, "snapshot cache invalidation failed", "case_id", caseID, "error", err)
	}
	return nil
}

func (c *SnapshotCache) put(ctx context.Context, cs *models.Case) {
	raw, err := json.Marshal(cs)
	if err != nil {
		c.logger.WarnContext(ctx, "marshal case snapshot", "case_id", cs.ID, "error", err)
		return
	}
	if err := c.redis.Set(ctx, cacheKey(cs.ID), raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "snapshot cache write failed", "case_id", cs.ID, "error", err)
	}
}
