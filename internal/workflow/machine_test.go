package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "caseflow/pkg/domain-errors"
)

var allRoles = []Role{RoleRM, RoleChecker, RoleCompliance, RoleGM, RoleAdministrator}

var allStatuses = []Status{
	StatusDraft, StatusPendingChecker, StatusPendingCompliance,
	StatusPendingGM, StatusApproved, StatusActive,
}

var allActions = []Action{
	ActionSubmitForReview, ActionApprove, ActionReject,
	ActionEscalateRisk, ActionFinalApprove,
}

// expectedActions mirrors the transition table from the other direction, so a
// table edit that widens or narrows permissions fails a test.
var expectedActions = map[Role]map[Status][]Action{
	RoleRM: {
		StatusDraft: {ActionSubmitForReview},
	},
	RoleChecker: {
		StatusPendingChecker: {ActionApprove, ActionReject},
	},
	RoleCompliance: {
		StatusPendingCompliance: {ActionApprove, ActionReject, ActionEscalateRisk},
	},
	RoleGM: {
		StatusPendingGM: {ActionFinalApprove, ActionReject},
	},
	RoleAdministrator: {},
}

func TestAvailableActionsExhaustive(t *testing.T) {
	for _, role := range allRoles {
		for _, status := range allStatuses {
			got := AvailableActions(role, status)
			want := expectedActions[role][status]
			if want == nil {
				assert.Empty(t, got, "role %s status %s should expose no actions", role, status)
				assert.NotNil(t, got, "empty action set must still be a non-nil slice")
			} else {
				assert.ElementsMatch(t, want, got, "role %s status %s", role, status)
			}
		}
	}
}

func TestAvailableActionsIsPure(t *testing.T) {
	first := AvailableActions(RoleCompliance, StatusPendingCompliance)
	second := AvailableActions(RoleCompliance, StatusPendingCompliance)
	assert.Equal(t, first, second)

	// Mutating a result must not leak into the table.
	first[0] = Action("tampered")
	third := AvailableActions(RoleCompliance, StatusPendingCompliance)
	assert.Equal(t, second, third)
}

func TestResolveRejectsEverythingOutsideTheTable(t *testing.T) {
	for _, role := range allRoles {
		for _, status := range allStatuses {
			allowed := make(map[Action]bool)
			for _, a := range expectedActions[role][status] {
				allowed[a] = true
			}
			for _, action := range allActions {
				if allowed[action] {
					continue
				}
				_, err := Resolve(role, status, action, RiskMedium)
				require.Error(t, err, "role %s status %s action %s", role, status, action)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
			}
		}
	}
}

func TestComplianceApprovalBranchesOnRisk(t *testing.T) {
	tests := []struct {
		name string
		risk RiskLevel
		to   Status
	}{
		{name: "low risk approves directly", risk: RiskLow, to: StatusApproved},
		{name: "medium risk approves directly", risk: RiskMedium, to: StatusApproved},
		{name: "high risk routes to GM", risk: RiskHigh, to: StatusPendingGM},
		{name: "critical risk routes to GM", risk: RiskCritical, to: StatusPendingGM},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := Resolve(RoleCompliance, StatusPendingCompliance, ActionApprove, tt.risk)
			require.NoError(t, err)
			assert.Equal(t, tt.to, rule.To)
		})
	}
}

func TestRejectionRoutesBackToDraft(t *testing.T) {
	tests := []struct {
		role   Role
		status Status
		action Action
	}{
		{RoleChecker, StatusPendingChecker, ActionReject},
		{RoleCompliance, StatusPendingCompliance, ActionReject},
		{RoleCompliance, StatusPendingCompliance, ActionEscalateRisk},
		{RoleGM, StatusPendingGM, ActionReject},
	}
	for _, tt := range tests {
		rule, err := Resolve(tt.role, tt.status, tt.action, RiskMedium)
		require.NoError(t, err)
		assert.Equal(t, StatusDraft, rule.To, "%s by %s must send the case back to draft", tt.action, tt.role)
	}
}

func TestEscalationRaisesRisk(t *testing.T) {
	rule, err := Resolve(RoleCompliance, StatusPendingCompliance, ActionEscalateRisk, RiskLow)
	require.NoError(t, err)
	assert.True(t, rule.EscalateRisk)
	assert.Equal(t, StatusDraft, rule.To)

	// No other rule escalates.
	for _, r := range Rules() {
		if r.Action != ActionEscalateRisk {
			assert.False(t, r.EscalateRisk, "unexpected escalation on %s/%s", r.Role, r.Action)
		}
	}
}

func TestOnlySubmitIsGated(t *testing.T) {
	for _, r := range Rules() {
		if r.Action == ActionSubmitForReview {
			assert.True(t, r.Gated)
		} else {
			assert.False(t, r.Gated, "only the RM submit action passes through the document gate")
		}
	}
}

func TestGMFinalApprove(t *testing.T) {
	rule, err := Resolve(RoleGM, StatusPendingGM, ActionFinalApprove, RiskHigh)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, rule.To)
}

func TestValidators(t *testing.T) {
	for _, s := range allStatuses {
		assert.True(t, ValidStatus(s))
	}
	assert.False(t, ValidStatus("rejected"), "rejected is an activity-log label, not a status")

	for _, r := range allRoles {
		assert.True(t, ValidRole(r))
	}
	assert.False(t, ValidRole("auditor"))

	assert.True(t, ValidRiskLevel(RiskCritical))
	assert.False(t, ValidRiskLevel("extreme"))
}
