package models

import (
	"time"

	id "caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
)

// PartyType distinguishes natural persons from organizations.
type PartyType string

const (
	PartyIndividual   PartyType = "individual"
	PartyOrganization PartyType = "organization"
)

// Party is a person or organization in the shared party catalog. Parties are
// case-independent: the same party can be linked to many cases under
// different relationship roles.
type Party struct {
	ID          id.PartyID `json:"party_id"`
	FullName    string     `json:"full_name"`
	Type        PartyType  `json:"party_type"`
	Nationality string     `json:"nationality,omitempty"`
	DateOfBirth string     `json:"date_of_birth,omitempty"`
	IDDocument  string     `json:"id_document,omitempty"`

	PEP         bool     `json:"is_pep"`
	Sanctioned  bool     `json:"is_sanctioned"`
	RiskFactors []string `json:"risk_factors,omitempty"`

	Contacts []Contact `json:"contacts,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contact is one reachable address for a party.
type Contact struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// NewParty validates and constructs a catalog party.
func NewParty(partyID id.PartyID, fullName string, partyType PartyType, now time.Time) (*Party, error) {
	if fullName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "party name is required")
	}
	if partyType != PartyIndividual && partyType != PartyOrganization {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown party type").
			Add("party_type", string(partyType))
	}
	return &Party{
		ID:        partyID,
		FullName:  fullName,
		Type:      partyType,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// FlagPEP marks the party as a politically exposed person.
func (p *Party) FlagPEP(now time.Time) {
	p.PEP = true
	p.UpdatedAt = now
}

// FlagSanctioned marks the party as appearing on a sanctions list.
func (p *Party) FlagSanctioned(now time.Time) {
	p.Sanctioned = true
	p.UpdatedAt = now
}

// AddRiskFactor records a risk factor once; duplicates are ignored.
func (p *Party) AddRiskFactor(factor string, now time.Time) {
	for _, f := range p.RiskFactors {
		if f == factor {
			return
		}
	}
	p.RiskFactors = append(p.RiskFactors, factor)
	p.UpdatedAt = now
}

// HighRisk reports whether the party carries any screening flag.
func (p *Party) HighRisk() bool {
	return p.PEP || p.Sanctioned || len(p.RiskFactors) > 0
}

// Clone returns a deep copy.
func (p *Party) Clone() *Party {
	clone := *p
	if p.RiskFactors != nil {
		clone.RiskFactors = append([]string(nil), p.RiskFactors...)
	}
	if p.Contacts != nil {
		clone.Contacts = append([]Contact(nil), p.Contacts...)
	}
	return &clone
}
