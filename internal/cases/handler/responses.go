package handler

import (
	"caseflow/internal/cases/models"
	"caseflow/internal/workflow"
	id "caseflow/pkg/domain"
)

// CaseResponse is the case document plus the derived gate state. Submittable
// and unmet requirements are recomputed on every render, never stored.
type CaseResponse struct {
	*models.Case
	IsSubmittable     bool               `json:"is_submittable"`
	UnmetRequirements []id.RequirementID `json:"unmet_requirements"`
}

func newCaseResponse(c *models.Case) CaseResponse {
	unmet := c.UnmetRequirements()
	if unmet == nil {
		unmet = []id.RequirementID{}
	}
	return CaseResponse{
		Case:              c,
		IsSubmittable:     c.IsSubmittable(),
		UnmetRequirements: unmet,
	}
}

// ListResponse wraps a case listing.
type ListResponse struct {
	Cases []CaseResponse `json:"cases"`
}

func newListResponse(cases []*models.Case) ListResponse {
	out := ListResponse{Cases: make([]CaseResponse, 0, len(cases))}
	for _, c := range cases {
		out.Cases = append(out.Cases, newCaseResponse(c))
	}
	return out
}

// ActionsResponse lists the workflow actions available to the caller.
type ActionsResponse struct {
	Actions []workflow.Action `json:"actions"`
}

// ActivitiesResponse is the append-only case activity feed.
type ActivitiesResponse struct {
	Activities []models.Activity `json:"activities"`
}
