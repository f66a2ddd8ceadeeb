package workflow

import (
	id "caseflow/pkg/domain"
)

// SectionAccountForms is the requirement section evaluated at account
// activation rather than at case submission. Its requirements never block the
// Draft → Pending Checker Review gate.
const SectionAccountForms = "account_forms"

// RequirementState is the gate's view of one document link: which requirement
// it binds, whether it is mandatory, which section it belongs to, and the
// statuses of every submission made against it. The case aggregate flattens
// itself into this shape so the evaluator stays free of aggregate internals.
type RequirementState struct {
	ID          id.RequirementID
	Section     string
	Mandatory   bool
	Submissions []SubmissionStatus
}

// satisfied reports whether at least one submission qualifies. A requirement
// with no submissions, or only Missing/Rejected/Expired ones, is unmet.
func (r RequirementState) satisfied() bool {
	for _, s := range r.Submissions {
		if qualifying[s] {
			return true
		}
	}
	return false
}

// qualifying is the set of submission statuses that count toward the gate. A
// document does not need to be fully verified to submit the case, only
// present and in review.
var qualifying = map[SubmissionStatus]bool{
	SubmissionPendingChecker:    true,
	SubmissionPendingCompliance: true,
	SubmissionVerified:          true,
}

// UnmetRequirements returns the mandatory, non-account-forms requirements that
// currently fail the gate, in input order. Recomputed from scratch on every
// call; the result is never cached.
func UnmetRequirements(reqs []RequirementState) []id.RequirementID {
	var unmet []id.RequirementID
	for _, r := range reqs {
		if !r.Mandatory || r.Section == SectionAccountForms {
			continue
		}
		if !r.satisfied() {
			unmet = append(unmet, r.ID)
		}
	}
	return unmet
}

// IsSubmittable reports whether a case in Draft may be submitted for checker
// review: every mandatory requirement outside the account-forms section has at
// least one qualifying submission.
func IsSubmittable(reqs []RequirementState) bool {
	return len(UnmetRequirements(reqs)) == 0
}

// UnmetAccountForms returns the mandatory account-forms requirements without a
// Verified submission. This is the deferred second gate, checked at account
// activation time rather than at case submission.
func UnmetAccountForms(reqs []RequirementState) []id.RequirementID {
	var unmet []id.RequirementID
	for _, r := range reqs {
		if !r.Mandatory || r.Section != SectionAccountForms {
			continue
		}
		verified := false
		for _, s := range r.Submissions {
			if s == SubmissionVerified {
				verified = true
				break
			}
		}
		if !verified {
			unmet = append(unmet, r.ID)
		}
	}
	return unmet
}
