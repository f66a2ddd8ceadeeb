package workflow

import (
	dErrors "caseflow/pkg/domain-errors"
)

// SubmissionStatus enumerates the review states of one uploaded document.
// This machine is independent of the case-level machine: submissions progress
// through checker and compliance verification regardless of where the case
// itself sits.
type SubmissionStatus string

const (
	SubmissionMissing           SubmissionStatus = "missing"
	SubmissionPendingChecker    SubmissionStatus = "pending_checker_verification"
	SubmissionPendingCompliance SubmissionStatus = "pending_compliance_verification"
	SubmissionVerified          SubmissionStatus = "verified"
	SubmissionRejected          SubmissionStatus = "rejected"
	SubmissionExpired           SubmissionStatus = "expired"
)

// submissionMoves lists the legal submission status transitions. Rejection is
// reachable from both pending states; expiry only from Verified (time-based,
// triggered by the expiry sweep or an external feed).
var submissionMoves = map[SubmissionStatus][]SubmissionStatus{
	SubmissionMissing:           {SubmissionPendingChecker},
	SubmissionPendingChecker:    {SubmissionPendingCompliance, SubmissionRejected},
	SubmissionPendingCompliance: {SubmissionVerified, SubmissionRejected},
	SubmissionVerified:          {SubmissionExpired},
}

// CanMoveSubmission reports whether a submission may move from one status to
// another.
func CanMoveSubmission(from, to SubmissionStatus) bool {
	for _, next := range submissionMoves[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckSubmissionMove validates a submission status change, returning a
// CodeInvalidSubmissionTransition domain error on an illegal move.
func CheckSubmissionMove(from, to SubmissionStatus) error {
	if !ValidSubmissionStatus(to) {
		return dErrors.New(dErrors.CodeValidation, "unknown submission status").
			Add("status", string(to))
	}
	if !CanMoveSubmission(from, to) {
		return dErrors.New(dErrors.CodeInvalidSubmissionTransition, "submission status change not permitted").
			Add("from", string(from)).
			Add("to", string(to))
	}
	return nil
}

// StampsChecker reports whether entering the given status records checker
// attribution (reviewer and timestamp).
func StampsChecker(to SubmissionStatus) bool {
	return to == SubmissionPendingCompliance
}

// StampsCompliance reports whether entering the given status records
// compliance attribution.
func StampsCompliance(to SubmissionStatus) bool {
	return to == SubmissionVerified
}

// ValidSubmissionStatus reports whether s is a known submission status.
func ValidSubmissionStatus(s SubmissionStatus) bool {
	switch s {
	case SubmissionMissing, SubmissionPendingChecker, SubmissionPendingCompliance,
		SubmissionVerified, SubmissionRejected, SubmissionExpired:
		return true
	}
	return false
}
