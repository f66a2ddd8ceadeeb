package partyrepo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"caseflow/internal/parties/models"
	id "caseflow/pkg/domain"
	"caseflow/pkg/platform/sentinel"
)

// InMemory keeps parties in a map guarded by a RWMutex. It doubles as the
// test fake for the service layer.
type InMemory struct {
	mu      sync.RWMutex
	parties map[id.PartyID]*models.Party
}

func NewInMemory() *InMemory {
	return &InMemory{parties: make(map[id.PartyID]*models.Party)}
}

func (s *InMemory) Create(_ context.Context, p *models.Party) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.parties[p.ID]; exists {
		return sentinel.ErrConflict
	}
	s.parties[p.ID] = p.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, partyID id.PartyID) (*models.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.parties[partyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p.Clone(), nil
}

func (s *InMemory) List(_ context.Context, filter Filter) ([]*models.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Party, 0)
	for _, p := range s.parties {
		if matches(p, filter) {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := strings.Compare(out[i].FullName, out[j].FullName); c != 0 {
			return c < 0
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *InMemory) Update(_ context.Context, p *models.Party) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.parties[p.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.parties[p.ID] = p.Clone()
	return nil
}

func (s *InMemory) Delete(_ context.Context, partyID id.PartyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.parties[partyID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.parties, partyID)
	return nil
}
