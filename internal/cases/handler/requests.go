package handler

import (
	"caseflow/internal/cases/models"
	"caseflow/internal/workflow"
	id "caseflow/pkg/domain"
)

// CreateCaseRequest opens a new case.
type CreateCaseRequest struct {
	EntityName        string   `json:"entity_name"`
	EntityType        string   `json:"entity_type"`
	RegisteredAddress string   `json:"registered_address,omitempty"`
	TaxID             string   `json:"tax_id,omitempty"`
	RiskLevel         string   `json:"risk_level"`
	Priority          string   `json:"priority,omitempty"`
	Accounts          []struct {
		AccountNumber string `json:"account_number"`
		AccountType   string `json:"account_type"`
		Currency      string `json:"currency,omitempty"`
	} `json:"accounts,omitempty"`
}

// TransitionRequest applies one workflow action.
type TransitionRequest struct {
	Action workflow.Action `json:"action"`
	Detail string          `json:"detail,omitempty"`
}

// AssignRequest reassigns the case owner.
type AssignRequest struct {
	Assignee id.UserID `json:"assignee"`
}

// UploadRequest registers an uploaded document against a requirement.
type UploadRequest struct {
	FileHandle string `json:"file_handle"`
	FileName   string `json:"file_name,omitempty"`
}

// ReviewRequest moves a submission through the verification sub-machine.
type ReviewRequest struct {
	Status   workflow.SubmissionStatus `json:"status"`
	Comment  string                    `json:"comment,omitempty"`
	Internal bool                      `json:"internal,omitempty"`
}

// LinkPartyRequest attaches a catalog party to the case.
type LinkPartyRequest struct {
	PartyID   id.PartyID                `json:"party_id"`
	Role      workflow.RelationshipRole `json:"relationship_role"`
	IsPrimary bool                      `json:"is_primary,omitempty"`
}

func (r CreateCaseRequest) entityData() models.EntityData {
	return models.EntityData{
		EntityName:        r.EntityName,
		EntityType:        workflow.EntityType(r.EntityType),
		RegisteredAddress: r.RegisteredAddress,
		TaxID:             r.TaxID,
	}
}
