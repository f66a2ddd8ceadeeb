// Package service holds the party catalog service: screening-aware CRUD over
// the party store plus the existence port consumed by the case module.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"caseflow/internal/parties/models"
	"caseflow/internal/parties/store/partyrepo"
	id "caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/sentinel"
	"caseflow/pkg/requestcontext"
)

// PartyService manages the shared party catalog.
type PartyService struct {
	store  partyrepo.Store
	logger *slog.Logger
}

// Option configures the party service.
type Option func(*PartyService)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *PartyService) { s.logger = logger }
}

// NewPartyService wires a PartyService over the given store.
func NewPartyService(store partyrepo.Store, opts ...Option) *PartyService {
	s := &PartyService{
		store:  store,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreatePartyInput carries the fields needed to register a party.
type CreatePartyInput struct {
	FullName    string
	Type        models.PartyType
	Nationality string
	DateOfBirth string
	IDDocument  string
	PEP         bool
	Sanctioned  bool
	RiskFactors []string
	Contacts    []models.Contact
}

// CreateParty registers a new catalog party.
func (s *PartyService) CreateParty(ctx context.Context, input CreatePartyInput) (*models.Party, error) {
	now := requestcontext.Now(ctx)
	p, err := models.NewParty(id.NewPartyID(), input.FullName, input.Type, now)
	if err != nil {
		return nil, err
	}
	p.Nationality = input.Nationality
	p.DateOfBirth = input.DateOfBirth
	p.IDDocument = input.IDDocument
	p.Contacts = input.Contacts
	if input.PEP {
		p.FlagPEP(now)
	}
	if input.Sanctioned {
		p.FlagSanctioned(now)
	}
	for _, factor := range input.RiskFactors {
		p.AddRiskFactor(factor, now)
	}

	if err := s.store.Create(ctx, p); err != nil {
		return nil, s.translate(ctx, err, p.ID)
	}
	s.logger.InfoContext(ctx, "party created",
		"party_id", p.ID.String(),
		"party_type", string(p.Type),
		"high_risk", p.HighRisk(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return p, nil
}

// GetParty returns one party.
func (s *PartyService) GetParty(ctx context.Context, partyID id.PartyID) (*models.Party, error) {
	p, err := s.store.FindByID(ctx, partyID)
	if err != nil {
		return nil, s.translate(ctx, err, partyID)
	}
	return p, nil
}

// ListParties returns parties matching the filter, ordered by name.
func (s *PartyService) ListParties(ctx context.Context, filter partyrepo.Filter) ([]*models.Party, error) {
	parties, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, s.translate(ctx, err, id.PartyID{})
	}
	return parties, nil
}

// ScreeningInput updates a party's screening outcome. Flags only ever go up;
// clearing a flag is a manual data correction, not a service operation.
type ScreeningInput struct {
	PEP         bool
	Sanctioned  bool
	RiskFactors []string
}

// RecordScreening applies a screening result to the party.
func (s *PartyService) RecordScreening(ctx context.Context, partyID id.PartyID, input ScreeningInput) (*models.Party, error) {
	now := requestcontext.Now(ctx)
	p, err := s.store.FindByID(ctx, partyID)
	if err != nil {
		return nil, s.translate(ctx, err, partyID)
	}
	if input.PEP {
		p.FlagPEP(now)
	}
	if input.Sanctioned {
		p.FlagSanctioned(now)
	}
	for _, factor := range input.RiskFactors {
		p.AddRiskFactor(factor, now)
	}
	if err := s.store.Update(ctx, p); err != nil {
		return nil, s.translate(ctx, err, partyID)
	}
	return p, nil
}

// DeleteParty removes a party from the catalog.
func (s *PartyService) DeleteParty(ctx context.Context, partyID id.PartyID) error {
	if err := s.store.Delete(ctx, partyID); err != nil {
		return s.translate(ctx, err, partyID)
	}
	return nil
}

// Exists implements the case module's PartyDirectory port.
func (s *PartyService) Exists(ctx context.Context, partyID id.PartyID) (bool, error) {
	_, err := s.store.FindByID(ctx, partyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, s.translate(ctx, err, partyID)
	}
	return true, nil
}

func (s *PartyService) translate(ctx context.Context, err error, partyID id.PartyID) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		e := dErrors.Wrap(err, dErrors.CodeNotFound, "party not found")
		if !partyID.IsNil() {
			e.Add("party_id", partyID.String())
		}
		return e
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "party already exists")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	s.logger.ErrorContext(ctx, "party store failure",
		"party_id", partyID.String(),
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.Wrap(err, dErrors.CodeInternal, "party operation failed")
}
