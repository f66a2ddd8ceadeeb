//go:build integration

package caserepo_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"caseflow/internal/cases/models"
	"caseflow/internal/cases/store/caserepo"
	"caseflow/internal/workflow"
	id "caseflow/pkg/domain"
	"caseflow/pkg/platform/sentinel"
	"caseflow/pkg/testutil/containers"
)

type PostgresCaseStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *caserepo.Postgres
}

func TestPostgresCaseStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresCaseStoreSuite))
}

func (s *PostgresCaseStoreSuite) SetupSuite() {
	s.postgres = containers.GetPostgres(s.T())
	_, err := s.postgres.DB.Exec(caserepo.Schema)
	s.Require().NoError(err)
	s.store = caserepo.NewPostgres(s.postgres.DB)
}

func (s *PostgresCaseStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "cases"))
}

func (s *PostgresCaseStoreSuite) newCase(name string) *models.Case {
	c, err := models.NewCase(id.NewCaseID(), models.EntityData{
		EntityName: name,
		EntityType: workflow.EntityCorporate,
	}, workflow.RiskMedium, models.PriorityNormal, id.NewUserID(), "rm", []models.DocumentLink{
		{RequirementID: "certificate-of-incorporation", Section: "corporate", IsMandatory: true},
	}, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	return c
}

func (s *PostgresCaseStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	c := s.newCase("Acme Ltd")
	s.Require().NoError(s.store.Create(ctx, c))

	found, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(c.ID, found.ID)
	s.Equal(workflow.StatusDraft, found.Status)
	s.Len(found.Activities, 1)
	s.Len(found.DocumentLinks, 1)

	s.Require().ErrorIs(s.store.Create(ctx, c), sentinel.ErrConflict)
}

func (s *PostgresCaseStoreSuite) TestExecuteCommitsAtomically() {
	ctx := context.Background()
	c := s.newCase("Exec Ltd")
	s.Require().NoError(s.store.Create(ctx, c))

	updated, err := s.store.Execute(ctx, c.ID, func(working *models.Case) error {
		rule, err := workflow.Resolve(workflow.RoleRM, workflow.StatusDraft, workflow.ActionSubmitForReview, working.RiskLevel)
		if err != nil {
			return err
		}
		working.ApplyTransition(rule, id.NewUserID(), workflow.RoleRM, "", time.Now().UTC())
		return nil
	})
	s.Require().NoError(err)
	s.Equal(workflow.StatusPendingChecker, updated.Status)
	s.Equal(int64(2), updated.Version)

	found, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(workflow.StatusPendingChecker, found.Status)
	s.Len(found.Activities, 2)
}

func (s *PostgresCaseStoreSuite) TestExecuteAbortsOnCallbackError() {
	ctx := context.Background()
	c := s.newCase("Abort Ltd")
	s.Require().NoError(s.store.Create(ctx, c))

	_, err := s.store.Execute(ctx, c.ID, func(working *models.Case) error {
		working.Status = workflow.StatusApproved
		return sentinel.ErrInvalidState
	})
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)

	found, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(workflow.StatusDraft, found.Status)
	s.Equal(int64(1), found.Version)
}

// TestConcurrentWritersSerialize verifies the row lock: all concurrent
// activity appends land and none overwrite each other.
func (s *PostgresCaseStoreSuite) TestConcurrentWritersSerialize() {
	ctx := context.Background()
	c := s.newCase("Race Ltd")
	s.Require().NoError(s.store.Create(ctx, c))

	const writers = 20
	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(ctx, c.ID, func(working *models.Case) error {
				working.Activities = append(working.Activities, models.Activity{
					Action: "concurrent", EntityType: "case", Timestamp: time.Now().UTC(),
				})
				return nil
			})
			if err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(0), failures.Load())
	found, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Len(found.Activities, 1+writers)
	s.Equal(int64(1+writers), found.Version)
}

func (s *PostgresCaseStoreSuite) TestListFilters() {
	ctx := context.Background()

	a := s.newCase("Alpha Ltd")
	b := s.newCase("Beta Ltd")
	b.Status = workflow.StatusPendingChecker
	for _, cs := range []*models.Case{a, b} {
		s.Require().NoError(s.store.Create(ctx, cs))
	}

	drafts, err := s.store.List(ctx, caserepo.Filter{Status: workflow.StatusDraft})
	s.Require().NoError(err)
	s.Len(drafts, 1)
	s.Equal("Alpha Ltd", drafts[0].Entity.EntityName)
}
