// Package caserepo persists the case aggregate. Two implementations share one
// contract: an in-memory store for unit tests and development, and a
// PostgreSQL store for production. Both enforce the single-writer-per-case
// discipline through Execute and optimistic versioning on commit.
package caserepo

import (
	"context"

	"caseflow/internal/cases/models"
	"caseflow/internal/workflow"
	id "caseflow/pkg/domain"
)

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	Status     workflow.Status
	RiskLevel  workflow.RiskLevel
	AssignedTo id.UserID
}

// Store is the case repository contract.
//
// Execute loads the case, runs fn on a working copy while holding the
// per-case write lock (mutex in memory, row lock in postgres), and commits
// the copy with a version bump only when fn returns nil. An fn error aborts
// with no mutation, which is what makes transition-plus-activity appends
// atomic.
//
// Reads (FindByID, List) never block behind writers and return clones of the
// latest committed state.
type Store interface {
	Create(ctx context.Context, c *models.Case) error
	FindByID(ctx context.Context, caseID id.CaseID) (*models.Case, error)
	List(ctx context.Context, filter Filter) ([]*models.Case, error)
	Execute(ctx context.Context, caseID id.CaseID, fn func(*models.Case) error) (*models.Case, error)
	Delete(ctx context.Context, caseID id.CaseID) error
}

func matches(c *models.Case, f Filter) bool {
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.RiskLevel != "" && c.RiskLevel != f.RiskLevel {
		return false
	}
	if !f.AssignedTo.IsNil() && c.AssignedTo != f.AssignedTo {
		return false
	}
	return true
}
