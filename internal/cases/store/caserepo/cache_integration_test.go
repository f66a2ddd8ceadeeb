//go:build integration

package caserepo_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"caseflow/internal/cases/models"
	"caseflow/internal/cases/store/caserepo"
	"caseflow/internal/workflow"
	id "caseflow/pkg/domain"
	"caseflow/pkg/testutil/containers"
)

type SnapshotCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	inner *caserepo.InMemory
	cache *caserepo.SnapshotCache
}

func TestSnapshotCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(SnapshotCacheSuite))
}

func (s *SnapshotCacheSuite) SetupSuite() {
	s.redis = containers.GetRedis(s.T())
}

func (s *SnapshotCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.inner = caserepo.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.cache = caserepo.NewSnapshotCache(s.inner, s.redis.Client, time.Minute, logger, nil)
}

func (s *SnapshotCacheSuite) newCase() *models.Case {
	c, err := models.NewCase(id.NewCaseID(), models.EntityData{
		EntityName: "Cached Ltd",
		EntityType: workflow.EntityCorporate,
	}, workflow.RiskLow, models.PriorityNormal, id.NewUserID(), "rm", nil, time.Now().UTC())
	s.Require().NoError(err)
	return c
}

func (s *SnapshotCacheSuite) TestWriteThroughOnCreate() {
	ctx := context.Background()
	c := s.newCase()
	s.Require().NoError(s.cache.Create(ctx, c))

	// The snapshot is served even after the inner store forgets the case.
	s.Require().NoError(s.inner.Delete(ctx, c.ID))
	found, err := s.cache.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(c.ID, found.ID)
}

func (s *SnapshotCacheSuite) TestExecuteRefreshesSnapshot() {
	ctx := context.Background()
	c := s.newCase()
	s.Require().NoError(s.cache.Create(ctx, c))

	_, err := s.cache.Execute(ctx, c.ID, func(working *models.Case) error {
		working.Priority = models.PriorityHigh
		return nil
	})
	s.Require().NoError(err)

	found, err := s.cache.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(models.PriorityHigh, found.Priority, "reader must observe the committed write, not a stale snapshot")
}

func (s *SnapshotCacheSuite) TestDeleteInvalidates() {
	ctx := context.Background()
	c := s.newCase()
	s.Require().NoError(s.cache.Create(ctx, c))
	s.Require().NoError(s.cache.Delete(ctx, c.ID))

	_, err := s.cache.FindByID(ctx, c.ID)
	s.Require().Error(err)
}
