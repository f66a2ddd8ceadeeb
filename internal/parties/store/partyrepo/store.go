// Package partyrepo persists the shared party catalog.
package partyrepo

import (
	"context"
	"strings"

	"caseflow/internal/parties/models"
	id "caseflow/pkg/domain"
)

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	Name     string
	Type     models.PartyType
	HighRisk bool
}

// Store is the party repository contract. Update replaces the stored party
// wholesale; party records have no workflow and need no per-record locking.
type Store interface {
	Create(ctx context.Context, p *models.Party) error
	FindByID(ctx context.Context, partyID id.PartyID) (*models.Party, error)
	List(ctx context.Context, filter Filter) ([]*models.Party, error)
	Update(ctx context.Context, p *models.Party) error
	Delete(ctx context.Context, partyID id.PartyID) error
}

func matches(p *models.Party, f Filter) bool {
	if f.Name != "" && !strings.Contains(strings.ToLower(p.FullName), strings.ToLower(f.Name)) {
		return false
	}
	if f.Type != "" && p.Type != f.Type {
		return false
	}
	if f.HighRisk && !p.HighRisk() {
		return false
	}
	return true
}
