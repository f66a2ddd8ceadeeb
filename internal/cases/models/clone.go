package models

// Clone returns a deep copy of the case. Stores hand out clones so snapshot
// reads never alias the committed record.
func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	out := *c

	out.RelatedParties = append([]RelatedPartyLink(nil), c.RelatedParties...)
	out.Accounts = append([]Account(nil), c.Accounts...)
	out.Activities = append([]Activity(nil), c.Activities...)

	out.DocumentLinks = make([]DocumentLink, len(c.DocumentLinks))
	for i, link := range c.DocumentLinks {
		cloned := link
		cloned.Submissions = make([]Submission, len(link.Submissions))
		for j, sub := range link.Submissions {
			s := sub
			if sub.CheckerReviewedAt != nil {
				t := *sub.CheckerReviewedAt
				s.CheckerReviewedAt = &t
			}
			if sub.ComplianceReviewedAt != nil {
				t := *sub.ComplianceReviewedAt
				s.ComplianceReviewedAt = &t
			}
			s.Comments = append([]SubmissionComment(nil), sub.Comments...)
			cloned.Submissions[j] = s
		}
		out.DocumentLinks[i] = cloned
	}
	return &out
}
