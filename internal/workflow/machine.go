// Package workflow is the pure core of caseflow: the case approval state
// machine, the submittability gate, the submission review sub-state-machine,
// and the party-linking rule. Nothing in this package performs I/O; all
// functions are deterministic over their inputs so the rule set is
// exhaustively testable and the service layer can re-derive any decision at
// any time.
package workflow

import (
	dErrors "caseflow/pkg/domain-errors"
)

// Status enumerates the case lifecycle states. Rejection at any review stage
// routes the case back to Draft for rework; the rejection itself is recorded
// in the activity log rather than as a distinct terminal state.
type Status string

const (
	StatusDraft             Status = "draft"
	StatusPendingChecker    Status = "pending_checker_review"
	StatusPendingCompliance Status = "pending_compliance_review"
	StatusPendingGM         Status = "pending_gm_approval"
	StatusApproved          Status = "approved"
	StatusActive            Status = "active"
)

// Role enumerates workflow roles in ascending review authority. Administrator
// sits outside the approval chain and holds no transition rights; it exists
// for ungated administrative operations (delete, account activation).
type Role string

const (
	RoleRM            Role = "rm"
	RoleChecker       Role = "checker"
	RoleCompliance    Role = "compliance"
	RoleGM            Role = "gm"
	RoleAdministrator Role = "administrator"
)

// RiskLevel classifies a case. High-risk cases require GM sign-off after
// compliance review.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Action labels a transition request against a case.
type Action string

const (
	ActionSubmitForReview Action = "submit_for_review"
	ActionApprove         Action = "approve"
	ActionReject          Action = "reject"
	ActionEscalateRisk    Action = "escalate_to_high_risk"
	ActionFinalApprove    Action = "final_approve"
)

// riskCondition narrows a rule to a subset of risk levels. Zero value matches
// everything.
type riskCondition int

const (
	anyRisk riskCondition = iota
	highRiskOnly
	belowHighRisk
)

func (c riskCondition) matches(risk RiskLevel) bool {
	switch c {
	case highRiskOnly:
		return risk == RiskHigh || risk == RiskCritical
	case belowHighRisk:
		return risk != RiskHigh && risk != RiskCritical
	default:
		return true
	}
}

// Rule is one row of the transition table: who may move a case from where,
// under which action, and what the move does.
type Rule struct {
	Role   Role
	From   Status
	Action Action
	To     Status

	// Gated marks transitions that require the submittability gate to pass.
	Gated bool
	// EscalateRisk marks transitions that also raise the case to high risk.
	EscalateRisk bool

	when riskCondition
}

// rules is the complete transition table. Any (role, state, action) triple not
// present here is an invalid transition; there are no implicit moves.
var rules = []Rule{
	{Role: RoleRM, From: StatusDraft, Action: ActionSubmitForReview, To: StatusPendingChecker, Gated: true},

	{Role: RoleChecker, From: StatusPendingChecker, Action: ActionApprove, To: StatusPendingCompliance},
	{Role: RoleChecker, From: StatusPendingChecker, Action: ActionReject, To: StatusDraft},

	{Role: RoleCompliance, From: StatusPendingCompliance, Action: ActionApprove, To: StatusApproved, when: belowHighRisk},
	{Role: RoleCompliance, From: StatusPendingCompliance, Action: ActionApprove, To: StatusPendingGM, when: highRiskOnly},
	{Role: RoleCompliance, From: StatusPendingCompliance, Action: ActionReject, To: StatusDraft},
	{Role: RoleCompliance, From: StatusPendingCompliance, Action: ActionEscalateRisk, To: StatusDraft, EscalateRisk: true},

	{Role: RoleGM, From: StatusPendingGM, Action: ActionFinalApprove, To: StatusApproved},
	{Role: RoleGM, From: StatusPendingGM, Action: ActionReject, To: StatusDraft},
}

// AvailableActions returns the actions the given role may attempt from the
// given status. The result ignores the submittability gate: a gated action is
// listed even when the gate currently fails, because the gate outcome belongs
// to the apply step (and to UnmetRequirements for display). Pairs with no
// table entry yield an empty, non-nil slice.
func AvailableActions(role Role, status Status) []Action {
	actions := make([]Action, 0, 2)
	seen := make(map[Action]bool)
	for _, r := range rules {
		if r.Role == role && r.From == status && !seen[r.Action] {
			actions = append(actions, r.Action)
			seen[r.Action] = true
		}
	}
	return actions
}

// Resolve finds the rule for a transition attempt. Risk level disambiguates
// rules that branch on it (compliance approval). A miss is a
// CodeInvalidTransition domain error.
func Resolve(role Role, status Status, action Action, risk RiskLevel) (Rule, error) {
	for _, r := range rules {
		if r.Role == role && r.From == status && r.Action == action && r.when.matches(risk) {
			return r, nil
		}
	}
	return Rule{}, dErrors.New(dErrors.CodeInvalidTransition, "action not permitted for role and case status").
		Add("role", string(role)).
		Add("status", string(status)).
		Add("action", string(action))
}

// Rules returns a copy of the transition table, for documentation and audit
// endpoints. Mutating the result does not affect the engine.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// ValidStatus reports whether s is a known case status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusPendingChecker, StatusPendingCompliance, StatusPendingGM, StatusApproved, StatusActive:
		return true
	}
	return false
}

// ValidRole reports whether r is a known workflow role.
func ValidRole(r Role) bool {
	switch r {
	case RoleRM, RoleChecker, RoleCompliance, RoleGM, RoleAdministrator:
		return true
	}
	return false
}

// ValidRiskLevel reports whether l is a known risk level.
func ValidRiskLevel(l RiskLevel) bool {
	switch l {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}
