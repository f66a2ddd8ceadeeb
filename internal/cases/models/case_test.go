package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/internal/workflow"
	id "caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
)

var t0 = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func corporateCase(t *testing.T) *Case {
	t.Helper()
	rm := id.NewUserID()
	c, err := NewCase(id.NewCaseID(), EntityData{
		EntityName: "Acme Trading Ltd",
		EntityType: workflow.EntityCorporate,
	}, workflow.RiskMedium, PriorityNormal, rm, string(workflow.RoleRM), []DocumentLink{
		{RequirementID: "certificate-of-incorporation", RequirementType: "corporate", Section: "corporate", IsMandatory: true},
		{RequirementID: "account-opening-form", RequirementType: "account", Section: workflow.SectionAccountForms, IsMandatory: true},
	}, t0)
	require.NoError(t, err)
	return c
}

func TestNewCase(t *testing.T) {
	c := corporateCase(t)

	assert.Equal(t, workflow.StatusDraft, c.Status)
	assert.Equal(t, int64(1), c.Version)
	require.Len(t, c.Activities, 1)
	assert.Equal(t, "case_created", c.Activities[0].Action)
	assert.Equal(t, "case", c.Activities[0].EntityType)
}

func TestNewCaseValidation(t *testing.T) {
	_, err := NewCase(id.NewCaseID(), EntityData{EntityType: workflow.EntityCorporate}, workflow.RiskLow, "", id.NewUserID(), "rm", nil, t0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "missing name: %v", err)

	_, err = NewCase(id.NewCaseID(), EntityData{EntityName: "x", EntityType: "sole-trader"}, workflow.RiskLow, "", id.NewUserID(), "rm", nil, t0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "bad entity type: %v", err)
}

func TestApplyTransitionAppendsExactlyOneActivity(t *testing.T) {
	c := corporateCase(t)
	checker := id.NewUserID()
	before := len(c.Activities)

	rule, err := workflow.Resolve(workflow.RoleChecker, workflow.StatusPendingChecker, workflow.ActionApprove, c.RiskLevel)
	require.NoError(t, err)
	c.Status = workflow.StatusPendingChecker

	c.ApplyTransition(rule, checker, workflow.RoleChecker, "", t0.Add(time.Hour))

	assert.Equal(t, workflow.StatusPendingCompliance, c.Status)
	assert.Equal(t, workflow.RiskMedium, c.RiskLevel, "approve must not touch risk")
	require.Len(t, c.Activities, before+1)
	last := c.Activities[len(c.Activities)-1]
	assert.Equal(t, checker, last.Actor)
	assert.Equal(t, "checker", last.ActorRole)
	assert.Equal(t, "approve", last.Action)
}

func TestEscalationSetsHighRisk(t *testing.T) {
	c := corporateCase(t)
	c.Status = workflow.StatusPendingCompliance

	rule, err := workflow.Resolve(workflow.RoleCompliance, workflow.StatusPendingCompliance, workflow.ActionEscalateRisk, c.RiskLevel)
	require.NoError(t, err)
	c.ApplyTransition(rule, id.NewUserID(), workflow.RoleCompliance, "sanctions hit on director", t0)

	assert.Equal(t, workflow.StatusDraft, c.Status)
	assert.Equal(t, workflow.RiskHigh, c.RiskLevel)
}

func TestGateUsesOnlyNonAccountFormRequirements(t *testing.T) {
	c := corporateCase(t)
	assert.False(t, c.IsSubmittable())
	assert.Equal(t, []id.RequirementID{"certificate-of-incorporation"}, c.UnmetRequirements())

	sub := Submission{ID: id.NewSubmissionID(), FileHandle: "blob://1", Status: workflow.SubmissionPendingChecker, UploadedAt: t0}
	require.NoError(t, c.ApplySubmissionUpload("certificate-of-incorporation", sub, id.NewUserID(), "rm", t0))

	assert.True(t, c.IsSubmittable(), "account forms must not block the case gate")
	assert.Nil(t, c.UnmetRequirements())
}

func TestPartyLinking(t *testing.T) {
	c := corporateCase(t)
	partyID := id.NewPartyID()

	require.NoError(t, c.CanLinkParty(partyID, workflow.RelationDirector))
	c.ApplyPartyLink(partyID, workflow.RelationDirector, true, id.NewUserID(), "rm", t0)

	err := c.CanLinkParty(partyID, workflow.RelationUBO)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyLinked), "got %v", err)

	err = c.CanLinkParty(id.NewPartyID(), workflow.RelationTrustee)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidRole), "got %v", err)
}

func TestPartyLinkingRejectedForIndividualAccounts(t *testing.T) {
	c, err := NewCase(id.NewCaseID(), EntityData{
		EntityName: "Jane Doe",
		EntityType: workflow.EntityIndividualAccount,
	}, workflow.RiskLow, "", id.NewUserID(), "rm", nil, t0)
	require.NoError(t, err)

	linkErr := c.CanLinkParty(id.NewPartyID(), workflow.RelationJointHolder)
	assert.True(t, dErrors.HasCode(linkErr, dErrors.CodeInvalidRole))
}

func TestSubmissionReviewProgression(t *testing.T) {
	c := corporateCase(t)
	checker := id.NewUserID()
	compliance := id.NewUserID()
	subID := id.NewSubmissionID()

	sub := Submission{ID: subID, FileHandle: "blob://1", Status: workflow.SubmissionPendingChecker, UploadedAt: t0}
	require.NoError(t, c.ApplySubmissionUpload("certificate-of-incorporation", sub, id.NewUserID(), "rm", t0))

	checkerTime := t0.Add(2 * time.Hour)
	require.NoError(t, c.ApplySubmissionStatus("certificate-of-incorporation", subID,
		workflow.SubmissionPendingCompliance, nil, checker, "checker", checkerTime))

	got, err := c.SubmissionByID("certificate-of-incorporation", subID)
	require.NoError(t, err)
	require.NotNil(t, got.CheckerReviewedAt)
	assert.Equal(t, checkerTime, *got.CheckerReviewedAt)
	assert.Equal(t, checker, got.CheckerReviewedBy)
	assert.Nil(t, got.ComplianceReviewedAt)

	complianceTime := t0.Add(4 * time.Hour)
	comment := &SubmissionComment{Author: compliance, AuthorRole: "compliance", Text: "document legible and in date", IsInternal: true}
	require.NoError(t, c.ApplySubmissionStatus("certificate-of-incorporation", subID,
		workflow.SubmissionVerified, comment, compliance, "compliance", complianceTime))

	got, err = c.SubmissionByID("certificate-of-incorporation", subID)
	require.NoError(t, err)
	assert.Equal(t, workflow.SubmissionVerified, got.Status)

	// Earlier attribution is retained, not cleared.
	require.NotNil(t, got.CheckerReviewedAt)
	assert.Equal(t, checkerTime, *got.CheckerReviewedAt)
	assert.Equal(t, checker, got.CheckerReviewedBy)
	require.NotNil(t, got.ComplianceReviewedAt)
	assert.Equal(t, complianceTime, *got.ComplianceReviewedAt)
	assert.Equal(t, compliance, got.ComplianceReviewedBy)

	require.Len(t, got.Comments, 1)
	assert.True(t, got.Comments[0].IsInternal)
	assert.Equal(t, complianceTime, got.Comments[0].CreatedAt)
}

func TestSubmissionIllegalMoveLeavesCaseUntouched(t *testing.T) {
	c := corporateCase(t)
	subID := id.NewSubmissionID()
	sub := Submission{ID: subID, FileHandle: "blob://1", Status: workflow.SubmissionPendingChecker, UploadedAt: t0}
	require.NoError(t, c.ApplySubmissionUpload("certificate-of-incorporation", sub, id.NewUserID(), "rm", t0))
	activities := len(c.Activities)

	err := c.ApplySubmissionStatus("certificate-of-incorporation", subID,
		workflow.SubmissionVerified, nil, id.NewUserID(), "checker", t0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidSubmissionTransition))

	got, _ := c.SubmissionByID("certificate-of-incorporation", subID)
	assert.Equal(t, workflow.SubmissionPendingChecker, got.Status)
	assert.Len(t, c.Activities, activities, "rejected request must not log an activity")
}

func TestUploadSupersedesButNeverDeletes(t *testing.T) {
	c := corporateCase(t)
	first := Submission{ID: id.NewSubmissionID(), FileHandle: "blob://1", Status: workflow.SubmissionRejected, UploadedAt: t0}
	second := Submission{ID: id.NewSubmissionID(), FileHandle: "blob://2", Status: workflow.SubmissionPendingChecker, UploadedAt: t0.Add(time.Hour)}

	require.NoError(t, c.ApplySubmissionUpload("certificate-of-incorporation", first, id.NewUserID(), "rm", t0))
	require.NoError(t, c.ApplySubmissionUpload("certificate-of-incorporation", second, id.NewUserID(), "rm", t0.Add(time.Hour)))

	link, err := c.DocumentLinkByRequirement("certificate-of-incorporation")
	require.NoError(t, err)
	assert.Len(t, link.Submissions, 2)
}

func TestActivationGate(t *testing.T) {
	c := corporateCase(t)
	c.Accounts = []Account{{AccountNumber: "CHF-001", AccountType: "current", Status: AccountPending}}

	err := c.CanActivate()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition), "draft case must not activate")

	c.Status = workflow.StatusApproved
	err = c.CanActivate()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeRequirementsNotMet), "unverified account forms must block activation")
	ids, ok := dErrors.Load[[]string](err, "requirement_ids")
	require.True(t, ok)
	assert.Equal(t, []string{"account-opening-form"}, ids)

	subID := id.NewSubmissionID()
	require.NoError(t, c.ApplySubmissionUpload("account-opening-form",
		Submission{ID: subID, FileHandle: "blob://3", Status: workflow.SubmissionPendingChecker, UploadedAt: t0}, id.NewUserID(), "rm", t0))
	require.NoError(t, c.ApplySubmissionStatus("account-opening-form", subID, workflow.SubmissionPendingCompliance, nil, id.NewUserID(), "checker", t0))
	require.NoError(t, c.ApplySubmissionStatus("account-opening-form", subID, workflow.SubmissionVerified, nil, id.NewUserID(), "compliance", t0))

	require.NoError(t, c.CanActivate())
	c.ApplyActivation(id.NewUserID(), "administrator", t0.Add(time.Hour))

	assert.Equal(t, workflow.StatusActive, c.Status)
	assert.Equal(t, AccountActive, c.Accounts[0].Status)
}
