package models

import (
	"time"

	"caseflow/internal/workflow"
	id "caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
)

// Case is the aggregate root for one KYC onboarding record.
//
// Invariants:
//   - Status only changes through the workflow transition table; every
//     transition appends exactly one Activity entry
//   - Activities are append-only, never edited or deleted
//   - Submissions are superseded by newer submissions, never deleted
//   - Version increments on every successful save (optimistic concurrency);
//     the store enforces it, the aggregate just carries it
//
// All Apply* methods mutate in place and assume the caller holds the per-case
// write discipline (store Execute callback). Can* checks and Apply* mutations
// are split so the store can run both under one lock.
type Case struct {
	ID         id.CaseID          `json:"case_id"`
	Status     workflow.Status    `json:"status"`
	RiskLevel  workflow.RiskLevel `json:"risk_level"`
	Priority   Priority           `json:"priority"`
	AssignedTo id.UserID          `json:"assigned_to,omitzero"`
	Entity     EntityData         `json:"entity_data"`

	RelatedParties []RelatedPartyLink `json:"related_party_links"`
	Accounts       []Account          `json:"accounts"`
	DocumentLinks  []DocumentLink     `json:"document_links"`
	Activities     []Activity         `json:"activities"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Priority orders the RM work queue. It has no effect on the workflow rules.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// EntityData describes the case subject.
type EntityData struct {
	EntityName        string              `json:"entity_name"`
	EntityType        workflow.EntityType `json:"entity_type"`
	RegisteredAddress string              `json:"registered_address,omitempty"`
	TaxID             string              `json:"tax_id,omitempty"`
}

// RelatedPartyLink binds a catalog party to this case. The relationship role
// lives on the link so one party can hold different roles across cases.
type RelatedPartyLink struct {
	PartyID   id.PartyID                `json:"party_id"`
	Role      workflow.RelationshipRole `json:"relationship_role"`
	IsPrimary bool                      `json:"is_primary"`
	LinkedAt  time.Time                 `json:"linked_at"`
}

// AccountStatus tracks an account independently of the case status.
type AccountStatus string

const (
	AccountPending AccountStatus = "pending"
	AccountActive  AccountStatus = "active"
	AccountClosed  AccountStatus = "closed"
)

// Account is one product account opened under the case.
type Account struct {
	AccountNumber string        `json:"account_number"`
	AccountType   string        `json:"account_type"`
	Status        AccountStatus `json:"status"`
	Currency      string        `json:"currency,omitempty"`
}

// DocumentLink binds a requirement to the submissions made against it.
type DocumentLink struct {
	RequirementID   id.RequirementID `json:"requirement_id"`
	RequirementType string           `json:"requirement_type"`
	Section         string           `json:"section"`
	IsMandatory     bool             `json:"is_mandatory"`
	Submissions     []Submission     `json:"submissions"`
}

// Submission is one uploaded-document attempt. FileHandle is the opaque
// reference returned by the external blob store.
type Submission struct {
	ID         id.SubmissionID           `json:"submission_id"`
	FileHandle string                    `json:"file_handle"`
	FileName   string                    `json:"file_name,omitempty"`
	Status     workflow.SubmissionStatus `json:"status"`
	UploadedBy id.UserID                 `json:"uploaded_by"`
	UploadedAt time.Time                 `json:"uploaded_at"`

	CheckerReviewedAt    *time.Time `json:"checker_reviewed_at,omitempty"`
	CheckerReviewedBy    id.UserID  `json:"checker_reviewed_by,omitzero"`
	ComplianceReviewedAt *time.Time `json:"compliance_reviewed_at,omitempty"`
	ComplianceReviewedBy id.UserID  `json:"compliance_reviewed_by,omitzero"`

	Comments []SubmissionComment `json:"comments"`
}

// SubmissionComment is an append-only reviewer note. Internal comments are
// hidden from RM-facing views by the transport layer.
type SubmissionComment struct {
	Author     id.UserID `json:"author"`
	AuthorRole string    `json:"author_role"`
	Text       string    `json:"text"`
	IsInternal bool      `json:"is_internal"`
	CreatedAt  time.Time `json:"created_at"`
}

// Activity is one append-only log entry. Exactly one is written per
// transition or mutating action.
type Activity struct {
	Actor      id.UserID `json:"actor"`
	ActorRole  string    `json:"actor_role"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	Detail     string    `json:"detail,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

const activityEntityCase = "case"

// NewCase constructs a Draft case with catalog-seeded document links and the
// opening activity entry.
func NewCase(caseID id.CaseID, entity EntityData, risk workflow.RiskLevel, priority Priority, createdBy id.UserID, createdByRole string, links []DocumentLink, now time.Time) (*Case, error) {
	if entity.EntityName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "entity name is required")
	}
	if !workflow.ValidEntityType(entity.EntityType) {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown entity type")
	}
	if !workflow.ValidRiskLevel(risk) {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown risk level")
	}
	if priority == "" {
		priority = PriorityNormal
	}

	c := &Case{
		ID:            caseID,
		Status:        workflow.StatusDraft,
		RiskLevel:     risk,
		Priority:      priority,
		AssignedTo:    createdBy,
		Entity:        entity,
		DocumentLinks: links,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	c.appendActivity(createdBy, createdByRole, "case_created", "", now)
	return c, nil
}

// RequirementStates flattens the document links into the gate evaluator's
// input shape.
func (c *Case) RequirementStates() []workflow.RequirementState {
	states := make([]workflow.RequirementState, 0, len(c.DocumentLinks))
	for _, link := range c.DocumentLinks {
		statuses := make([]workflow.SubmissionStatus, 0, len(link.Submissions))
		for _, sub := range link.Submissions {
			statuses = append(statuses, sub.Status)
		}
		states = append(states, workflow.RequirementState{
			ID:          link.RequirementID,
			Section:     link.Section,
			Mandatory:   link.IsMandatory,
			Submissions: statuses,
		})
	}
	return states
}

// IsSubmittable reports whether the case passes the document gate for
// submission out of Draft.
func (c *Case) IsSubmittable() bool {
	return workflow.IsSubmittable(c.RequirementStates())
}

// UnmetRequirements returns the mandatory requirements currently blocking
// submission.
func (c *Case) UnmetRequirements() []id.RequirementID {
	return workflow.UnmetRequirements(c.RequirementStates())
}

// ApplyTransition mutates status (and risk on escalation) per the resolved
// rule and appends the single activity entry for the move. The caller has
// already validated the rule against the table and the gate.
func (c *Case) ApplyTransition(rule workflow.Rule, actor id.UserID, actorRole workflow.Role, detail string, now time.Time) {
	c.Status = rule.To
	if rule.EscalateRisk {
		c.RiskLevel = workflow.RiskHigh
	}
	c.UpdatedAt = now
	c.appendActivity(actor, string(actorRole), string(rule.Action), detail, now)
}

// CanLinkParty validates a party-link request without mutating. Returns
// CodeInvalidRole for entity types that disallow links or roles outside the
// mapping, CodeAlreadyLinked for a duplicate party.
func (c *Case) CanLinkParty(partyID id.PartyID, role workflow.RelationshipRole) error {
	if err := workflow.CheckLinkRole(c.Entity.EntityType, role); err != nil {
		return err
	}
	for _, link := range c.RelatedParties {
		if link.PartyID == partyID {
			return dErrors.New(dErrors.CodeAlreadyLinked, "party already linked to case").
				Add("party_id", partyID.String())
		}
	}
	return nil
}

// ApplyPartyLink appends the link and its activity entry. Call CanLinkParty
// first inside the store's Execute callback.
func (c *Case) ApplyPartyLink(partyID id.PartyID, role workflow.RelationshipRole, isPrimary bool, actor id.UserID, actorRole string, now time.Time) {
	c.RelatedParties = append(c.RelatedParties, RelatedPartyLink{
		PartyID:   partyID,
		Role:      role,
		IsPrimary: isPrimary,
		LinkedAt:  now,
	})
	c.UpdatedAt = now
	c.appendActivity(actor, actorRole, "party_linked", string(role), now)
}

// ApplyAssignment reassigns the case and logs the change.
func (c *Case) ApplyAssignment(assignee id.UserID, actor id.UserID, actorRole string, now time.Time) {
	c.AssignedTo = assignee
	c.UpdatedAt = now
	c.appendActivity(actor, actorRole, "case_reassigned", assignee.String(), now)
}

// DocumentLinkByRequirement finds the link for a requirement id.
func (c *Case) DocumentLinkByRequirement(reqID id.RequirementID) (*DocumentLink, error) {
	for i := range c.DocumentLinks {
		if c.DocumentLinks[i].RequirementID == reqID {
			return &c.DocumentLinks[i], nil
		}
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "requirement not part of case").
		Add("requirement_id", reqID.String())
}

// ApplySubmissionUpload appends a fresh submission against a requirement. The
// new submission starts in checker verification; prior submissions are left in
// place (superseded, not deleted).
func (c *Case) ApplySubmissionUpload(reqID id.RequirementID, sub Submission, actor id.UserID, actorRole string, now time.Time) error {
	link, err := c.DocumentLinkByRequirement(reqID)
	if err != nil {
		return err
	}
	link.Submissions = append(link.Submissions, sub)
	c.UpdatedAt = now
	c.appendActivity(actor, actorRole, "document_uploaded", reqID.String(), now)
	return nil
}

// SubmissionByID locates one submission within a requirement's link.
func (c *Case) SubmissionByID(reqID id.RequirementID, subID id.SubmissionID) (*Submission, error) {
	link, err := c.DocumentLinkByRequirement(reqID)
	if err != nil {
		return nil, err
	}
	for i := range link.Submissions {
		if link.Submissions[i].ID == subID {
			return &link.Submissions[i], nil
		}
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "submission not found").
		Add("submission_id", subID.String())
}

// ApplySubmissionStatus performs one submission review step: validates the
// sub-state-machine move, stamps reviewer attribution (retaining earlier
// stamps), optionally appends a comment, and logs the activity. The whole
// step is one mutation under the case lock.
func (c *Case) ApplySubmissionStatus(reqID id.RequirementID, subID id.SubmissionID, to workflow.SubmissionStatus, comment *SubmissionComment, actor id.UserID, actorRole string, now time.Time) error {
	sub, err := c.SubmissionByID(reqID, subID)
	if err != nil {
		return err
	}
	if err := workflow.CheckSubmissionMove(sub.Status, to); err != nil {
		return err
	}

	sub.Status = to
	if workflow.StampsChecker(to) {
		stamp := now
		sub.CheckerReviewedAt = &stamp
		sub.CheckerReviewedBy = actor
	}
	if workflow.StampsCompliance(to) {
		stamp := now
		sub.ComplianceReviewedAt = &stamp
		sub.ComplianceReviewedBy = actor
	}
	if comment != nil {
		comment.CreatedAt = now
		sub.Comments = append(sub.Comments, *comment)
	}

	c.UpdatedAt = now
	c.appendActivity(actor, actorRole, "submission_"+string(to), reqID.String(), now)
	return nil
}

// CanActivate checks the deferred account-forms gate: a case activates only
// from Approved and only once all mandatory account-forms requirements are
// verified.
func (c *Case) CanActivate() error {
	if c.Status != workflow.StatusApproved {
		return dErrors.New(dErrors.CodeInvalidTransition, "only approved cases can be activated").
			Add("status", string(c.Status))
	}
	if unmet := workflow.UnmetAccountForms(c.RequirementStates()); len(unmet) > 0 {
		ids := make([]string, len(unmet))
		for i, u := range unmet {
			ids[i] = u.String()
		}
		return dErrors.New(dErrors.CodeRequirementsNotMet, "account forms must be verified before activation").
			Add("requirement_ids", ids)
	}
	return nil
}

// ApplyActivation moves the case to Active, activates its pending accounts,
// and logs the step. Call CanActivate first inside the Execute callback.
func (c *Case) ApplyActivation(actor id.UserID, actorRole string, now time.Time) {
	c.Status = workflow.StatusActive
	for i := range c.Accounts {
		if c.Accounts[i].Status == AccountPending {
			c.Accounts[i].Status = AccountActive
		}
	}
	c.UpdatedAt = now
	c.appendActivity(actor, actorRole, "case_activated", "", now)
}

func (c *Case) appendActivity(actor id.UserID, actorRole, action, detail string, now time.Time) {
	c.Activities = append(c.Activities, Activity{
		Actor:      actor,
		ActorRole:  actorRole,
		Action:     action,
		EntityType: activityEntityCase,
		Detail:     detail,
		Timestamp:  now,
	})
}
