package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"caseflow/internal/cases/models"
	"caseflow/internal/cases/store/caserepo"
	"caseflow/internal/notify"
	"caseflow/internal/workflow"
	id "caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/sentinel"
	"caseflow/pkg/requestcontext"
)

// CaseService orchestrates the case lifecycle: it resolves workflow rules,
// runs mutations atomically through the store's Execute callback, translates
// store sentinels into coded domain errors, and emits feed events after the
// commit.
type CaseService struct {
	store caserepo.Store

	catalog    *serviceCatalog
	parties    PartyDirectory
	emitter    notify.Emitter
	metrics    metricsRecorder
	logger     *slog.Logger
	tracer     trace.Tracer
	maxRetries int
}

// CreateCaseInput carries the fields needed to open a case.
type CreateCaseInput struct {
	Entity    models.EntityData
	RiskLevel workflow.RiskLevel
	Priority  models.Priority
	Accounts  []AccountInput
}

// AccountInput describes a product account to open under the case. Accounts
// start pending and activate with the case.
type AccountInput struct {
	AccountNumber string
	AccountType   string
	Currency      string
}

// UploadInput registers one document submission. FileHandle is the opaque
// reference returned by the blob store; upload of the bytes themselves happens
// out of band.
type UploadInput struct {
	RequirementID id.RequirementID
	FileHandle    string
	FileName      string
}

// ReviewInput is one submission review step.
type ReviewInput struct {
	RequirementID id.RequirementID
	SubmissionID  id.SubmissionID
	Target        workflow.SubmissionStatus
	Comment       string
	Internal      bool
}

// NewCaseService wires a CaseService over the given store.
func NewCaseService(store caserepo.Store, opts ...Option) *CaseService {
	cfg := defaults()
	for _, opt := range opts {
		opt(cfg)
	}
	return &CaseService{
		store:      store,
		catalog:    &serviceCatalog{cfg.catalog},
		parties:    cfg.parties,
		emitter:    cfg.emitter,
		metrics:    metricsRecorder{cfg.metrics},
		logger:     cfg.logger,
		tracer:     cfg.tracer,
		maxRetries: cfg.maxRetries,
	}
}

// CreateCase opens a Draft case with catalog-seeded document requirements.
// The acting user becomes the initial assignee.
func (s *CaseService) CreateCase(ctx context.Context, input CreateCaseInput) (*models.Case, error) {
	ctx, span := s.tracer.Start(ctx, "cases.create")
	defer span.End()

	actor := requestcontext.UserID(ctx)
	role := requestcontext.Role(ctx)
	now := requestcontext.Now(ctx)

	links, err := s.catalog.linksFor(input.Entity.EntityType)
	if err != nil {
		return nil, err
	}
	c, err := models.NewCase(id.NewCaseID(), input.Entity, input.RiskLevel, input.Priority, actor, role, links, now)
	if err != nil {
		return nil, err
	}
	for _, acct := range input.Accounts {
		c.Accounts = append(c.Accounts, models.Account{
			AccountNumber: acct.AccountNumber,
			AccountType:   acct.AccountType,
			Status:        models.AccountPending,
			Currency:      acct.Currency,
		})
	}

	if err := s.store.Create(ctx, c); err != nil {
		return nil, s.translate(ctx, err, c.ID)
	}

	s.metrics.caseCreated()
	s.emitter.Emit(notify.Event{
		Type:      notify.EventCaseCreated,
		CaseID:    c.ID,
		Actor:     actor,
		ActorRole: role,
		NewStatus: string(c.Status),
		Timestamp: now,
	})
	s.logger.InfoContext(ctx, "case created",
		"case_id", c.ID.String(),
		"entity_type", string(input.Entity.EntityType),
		"risk_level", string(input.RiskLevel),
		"request_id", requestcontext.RequestID(ctx),
	)
	span.SetAttributes(attribute.String("case.id", c.ID.String()))
	return c, nil
}

// GetCase returns the latest committed snapshot of a case.
func (s *CaseService) GetCase(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	c, err := s.store.FindByID(ctx, caseID)
	if err != nil {
		return nil, s.translate(ctx, err, caseID)
	}
	return c, nil
}

// ListCases returns cases matching the filter, newest first.
func (s *CaseService) ListCases(ctx context.Context, filter caserepo.Filter) ([]*models.Case, error) {
	cases, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, s.translate(ctx, err, id.CaseID{})
	}
	return cases, nil
}

// AvailableActions returns the workflow actions the acting user's role may
// attempt from the case's current status. The result enumerates table rows
// only; gate and risk conditions are evaluated when the action is applied.
func (s *CaseService) AvailableActions(ctx context.Context, caseID id.CaseID) ([]workflow.Action, error) {
	role, err := actingRole(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.store.FindByID(ctx, caseID)
	if err != nil {
		return nil, s.translate(ctx, err, caseID)
	}
	return workflow.AvailableActions(role, c.Status), nil
}

// ApplyTransition resolves the requested action against the transition table
// and applies it atomically. Submit is additionally gated on the document
// requirements; a gate failure reports the unmet requirement ids.
func (s *CaseService) ApplyTransition(ctx context.Context, caseID id.CaseID, action workflow.Action, detail string) (*models.Case, error) {
	ctx, span := s.tracer.Start(ctx, "cases.transition",
		trace.WithAttributes(
			attribute.String("case.id", caseID.String()),
			attribute.String("case.action", string(action)),
		))
	defer span.End()

	role, err := actingRole(ctx)
	if err != nil {
		return nil, err
	}
	actor := requestcontext.UserID(ctx)
	now := requestcontext.Now(ctx)
	start := time.Now()

	var oldStatus workflow.Status
	updated, err := s.execute(ctx, caseID, func(c *models.Case) error {
		rule, err := workflow.Resolve(role, c.Status, action, c.RiskLevel)
		if err != nil {
			return err
		}
		if rule.Gated {
			if unmet := c.UnmetRequirements(); len(unmet) > 0 {
				s.metrics.gateFailure()
				ids := make([]string, len(unmet))
				for i, u := range unmet {
					ids[i] = u.String()
				}
				return dErrors.New(dErrors.CodeRequirementsNotMet, "mandatory document requirements are not met").
					Add("requirement_ids", ids)
			}
		}
		oldStatus = c.Status
		c.ApplyTransition(rule, actor, role, detail, now)
		return nil
	})
	if err != nil {
		terr := s.translate(ctx, err, caseID)
		s.metrics.transitionRejected(string(dErrors.CodeOf(terr)))
		s.logger.WarnContext(ctx, "transition rejected",
			"case_id", caseID.String(),
			"action", string(action),
			"role", string(role),
			"code", string(dErrors.CodeOf(terr)),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, terr
	}

	s.metrics.transition(string(action), start)
	s.emitter.Emit(notify.Event{
		Type:      notify.EventStatusChanged,
		CaseID:    caseID,
		Actor:     actor,
		ActorRole: string(role),
		Action:    string(action),
		OldStatus: string(oldStatus),
		NewStatus: string(updated.Status),
		Detail:    detail,
		Timestamp: now,
	})
	s.logger.InfoContext(ctx, "case transitioned",
		"case_id", caseID.String(),
		"action", string(action),
		"from", string(oldStatus),
		"to", string(updated.Status),
		"request_id", requestcontext.RequestID(ctx),
	)
	return updated, nil
}

// UploadSubmission registers a new document submission against a requirement.
// Prior submissions on the requirement stay in place, superseded.
func (s *CaseService) UploadSubmission(ctx context.Context, caseID id.CaseID, input UploadInput) (*models.Case, error) {
	actor := requestcontext.UserID(ctx)
	role := requestcontext.Role(ctx)
	now := requestcontext.Now(ctx)

	if input.FileHandle == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "file handle is required")
	}
	sub := models.Submission{
		ID:         id.NewSubmissionID(),
		FileHandle: input.FileHandle,
		FileName:   input.FileName,
		Status:     workflow.SubmissionPendingChecker,
		UploadedBy: actor,
		UploadedAt: now,
	}
	updated, err := s.execute(ctx, caseID, func(c *models.Case) error {
		return c.ApplySubmissionUpload(input.RequirementID, sub, actor, role, now)
	})
	if err != nil {
		return nil, s.translate(ctx, err, caseID)
	}

	s.emitter.Emit(notify.Event{
		Type:      notify.EventSubmissionUpdated,
		CaseID:    caseID,
		Actor:     actor,
		ActorRole: role,
		Action:    "document_uploaded",
		Detail:    input.RequirementID.String(),
		Timestamp: now,
	})
	return updated, nil
}

// ReviewSubmission moves one submission through the verification sub-machine.
// Checker review steps require the checker role, compliance steps the
// compliance role; administrators may perform either.
func (s *CaseService) ReviewSubmission(ctx context.Context, caseID id.CaseID, input ReviewInput) (*models.Case, error) {
	role, err := actingRole(ctx)
	if err != nil {
		return nil, err
	}
	actor := requestcontext.UserID(ctx)
	now := requestcontext.Now(ctx)

	var comment *models.SubmissionComment
	if input.Comment != "" {
		comment = &models.SubmissionComment{
			Author:     actor,
			AuthorRole: string(role),
			Text:       input.Comment,
			IsInternal: input.Internal,
		}
	}

	updated, err := s.execute(ctx, caseID, func(c *models.Case) error {
		sub, err := c.SubmissionByID(input.RequirementID, input.SubmissionID)
		if err != nil {
			return err
		}
		if !reviewerAllowed(role, sub.Status, input.Target) {
			return dErrors.New(dErrors.CodeForbidden, "role may not perform this review step").
				Add("role", string(role)).
				Add("target_status", string(input.Target))
		}
		return c.ApplySubmissionStatus(input.RequirementID, input.SubmissionID, input.Target, comment, actor, string(role), now)
	})
	if err != nil {
		return nil, s.translate(ctx, err, caseID)
	}

	s.emitter.Emit(notify.Event{
		Type:      notify.EventSubmissionUpdated,
		CaseID:    caseID,
		Actor:     actor,
		ActorRole: string(role),
		Action:    "submission_" + string(input.Target),
		Detail:    input.RequirementID.String(),
		Timestamp: now,
	})
	return updated, nil
}

// LinkParty attaches a catalog party to the case under a relationship role
// allowed for the case's entity type.
func (s *CaseService) LinkParty(ctx context.Context, caseID id.CaseID, partyID id.PartyID, relRole workflow.RelationshipRole, isPrimary bool) (*models.Case, error) {
	actor := requestcontext.UserID(ctx)
	role := requestcontext.Role(ctx)
	now := requestcontext.Now(ctx)

	if s.parties != nil {
		ok, err := s.parties.Exists(ctx, partyID)
		if err != nil {
			return nil, s.translate(ctx, err, caseID)
		}
		if !ok {
			return nil, dErrors.New(dErrors.CodeNotFound, "party not found").
				Add("party_id", partyID.String())
		}
	}

	updated, err := s.execute(ctx, caseID, func(c *models.Case) error {
		if err := c.CanLinkParty(partyID, relRole); err != nil {
			return err
		}
		c.ApplyPartyLink(partyID, relRole, isPrimary, actor, role, now)
		return nil
	})
	if err != nil {
		return nil, s.translate(ctx, err, caseID)
	}

	s.emitter.Emit(notify.Event{
		Type:      notify.EventPartyLinked,
		CaseID:    caseID,
		Actor:     actor,
		ActorRole: role,
		Detail:    string(relRole),
		Timestamp: now,
	})
	return updated, nil
}

// AssignCase reassigns the case's working owner.
func (s *CaseService) AssignCase(ctx context.Context, caseID id.CaseID, assignee id.UserID) (*models.Case, error) {
	if assignee.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "assignee is required")
	}
	actor := requestcontext.UserID(ctx)
	role := requestcontext.Role(ctx)
	now := requestcontext.Now(ctx)

	updated, err := s.execute(ctx, caseID, func(c *models.Case) error {
		c.ApplyAssignment(assignee, actor, role, now)
		return nil
	})
	if err != nil {
		return nil, s.translate(ctx, err, caseID)
	}
	return updated, nil
}

// ActivateCase moves an Approved case to Active once its account-forms
// requirements are verified, activating pending accounts. GM and
// administrator only.
func (s *CaseService) ActivateCase(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	role, err := actingRole(ctx)
	if err != nil {
		return nil, err
	}
	if role != workflow.RoleGM && role != workflow.RoleAdministrator {
		return nil, dErrors.New(dErrors.CodeForbidden, "only gm or administrator may activate a case").
			Add("role", string(role))
	}
	actor := requestcontext.UserID(ctx)
	now := requestcontext.Now(ctx)

	var oldStatus workflow.Status
	updated, err := s.execute(ctx, caseID, func(c *models.Case) error {
		if err := c.CanActivate(); err != nil {
			return err
		}
		oldStatus = c.Status
		c.ApplyActivation(actor, string(role), now)
		return nil
	})
	if err != nil {
		return nil, s.translate(ctx, err, caseID)
	}

	s.emitter.Emit(notify.Event{
		Type:      notify.EventStatusChanged,
		CaseID:    caseID,
		Actor:     actor,
		ActorRole: string(role),
		Action:    "case_activated",
		OldStatus: string(oldStatus),
		NewStatus: string(updated.Status),
		Timestamp: now,
	})
	s.logger.InfoContext(ctx, "case activated",
		"case_id", caseID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return updated, nil
}

// DeleteCase removes a case entirely. Administrator only; everyone else works
// through the workflow.
func (s *CaseService) DeleteCase(ctx context.Context, caseID id.CaseID) error {
	role, err := actingRole(ctx)
	if err != nil {
		return err
	}
	if role != workflow.RoleAdministrator {
		return dErrors.New(dErrors.CodeForbidden, "only administrator may delete a case").
			Add("role", string(role))
	}
	if err := s.store.Delete(ctx, caseID); err != nil {
		return s.translate(ctx, err, caseID)
	}

	s.emitter.Emit(notify.Event{
		Type:      notify.EventCaseDeleted,
		CaseID:    caseID,
		Actor:     requestcontext.UserID(ctx),
		ActorRole: string(role),
		Timestamp: requestcontext.Now(ctx),
	})
	s.logger.InfoContext(ctx, "case deleted",
		"case_id", caseID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// ExpireStaleSubmissions sweeps verified submissions whose upload is older
// than the validity window and marks them expired, reopening the requirement.
// Run from the background worker; returns the number of submissions expired.
func (s *CaseService) ExpireStaleSubmissions(ctx context.Context, window time.Duration) (int, error) {
	now := requestcontext.Now(ctx)
	cutoff := now.Add(-window)

	cases, err := s.store.List(ctx, caserepo.Filter{})
	if err != nil {
		return 0, s.translate(ctx, err, id.CaseID{})
	}

	total := 0
	for _, snapshot := range cases {
		if countStale(snapshot, cutoff) == 0 {
			continue
		}
		expired := 0
		_, err := s.execute(ctx, snapshot.ID, func(c *models.Case) error {
			expired = 0
			for li := range c.DocumentLinks {
				link := &c.DocumentLinks[li]
				for si := range link.Submissions {
					sub := &link.Submissions[si]
					if sub.Status != workflow.SubmissionVerified || sub.UploadedAt.After(cutoff) {
						continue
					}
					if err := c.ApplySubmissionStatus(link.RequirementID, sub.ID, workflow.SubmissionExpired, nil, id.UserID{}, "system", now); err != nil {
						return err
					}
					expired++
				}
			}
			return nil
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "submission expiry sweep failed for case",
				"case_id", snapshot.ID.String(),
				"error", err,
			)
			continue
		}
		total += expired
	}

	if total > 0 {
		s.logger.InfoContext(ctx, "expired stale submissions", "count", total)
	}
	return total, nil
}

func countStale(c *models.Case, cutoff time.Time) int {
	n := 0
	for _, link := range c.DocumentLinks {
		for _, sub := range link.Submissions {
			if sub.Status == workflow.SubmissionVerified && !sub.UploadedAt.After(cutoff) {
				n++
			}
		}
	}
	return n
}

// execute runs fn through the store with a bounded retry on version
// conflicts. fn must be idempotent against a fresh working copy.
func (s *CaseService) execute(ctx context.Context, caseID id.CaseID, fn func(*models.Case) error) (*models.Case, error) {
	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		c, err := s.store.Execute(ctx, caseID, fn)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, sentinel.ErrVersionConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *CaseService) translate(ctx context.Context, err error, caseID id.CaseID) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		e := dErrors.Wrap(err, dErrors.CodeNotFound, "case not found")
		if !caseID.IsNil() {
			e.Add("case_id", caseID.String())
		}
		return e
	case errors.Is(err, sentinel.ErrVersionConflict):
		return dErrors.Wrap(err, dErrors.CodeVersionConflict, "case was modified concurrently, retry the request")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "case already exists")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	s.logger.ErrorContext(ctx, "case store failure",
		"case_id", caseID.String(),
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.Wrap(err, dErrors.CodeInternal, "case operation failed")
}

func actingRole(ctx context.Context) (workflow.Role, error) {
	role := workflow.Role(requestcontext.Role(ctx))
	if !workflow.ValidRole(role) {
		return "", dErrors.New(dErrors.CodeInvalidRole, "unknown workflow role").
			Add("role", string(role))
	}
	return role, nil
}

// reviewerAllowed gates submission review steps by role. Checker steps act on
// submissions awaiting checker verification, compliance steps on submissions
// awaiting compliance verification; expiry is reserved for the sweep and
// administrators.
func reviewerAllowed(role workflow.Role, from, to workflow.SubmissionStatus) bool {
	if role == workflow.RoleAdministrator {
		return true
	}
	if to == workflow.SubmissionExpired {
		return false
	}
	switch from {
	case workflow.SubmissionPendingChecker:
		return role == workflow.RoleChecker
	case workflow.SubmissionPendingCompliance:
		return role == workflow.RoleCompliance
	default:
		return false
	}
}
