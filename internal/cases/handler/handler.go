// Package handler exposes the case module over HTTP. Routes assume the
// router already ran the platform middleware chain (request id, auth,
// request time), so the acting user and role are in the request context.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"caseflow/internal/cases/models"
	"caseflow/internal/cases/service"
	"caseflow/internal/cases/store/caserepo"
	"caseflow/internal/workflow"
	id "caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/httputil"
	"caseflow/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/service_mock.go -package=mocks

// Service is the case service surface the handler depends on.
type Service interface {
	CreateCase(ctx context.Context, input service.CreateCaseInput) (*models.Case, error)
	GetCase(ctx context.Context, caseID id.CaseID) (*models.Case, error)
	ListCases(ctx context.Context, filter caserepo.Filter) ([]*models.Case, error)
	AvailableActions(ctx context.Context, caseID id.CaseID) ([]workflow.Action, error)
	ApplyTransition(ctx context.Context, caseID id.CaseID, action workflow.Action, detail string) (*models.Case, error)
	UploadSubmission(ctx context.Context, caseID id.CaseID, input service.UploadInput) (*models.Case, error)
	ReviewSubmission(ctx context.Context, caseID id.CaseID, input service.ReviewInput) (*models.Case, error)
	LinkParty(ctx context.Context, caseID id.CaseID, partyID id.PartyID, role workflow.RelationshipRole, isPrimary bool) (*models.Case, error)
	AssignCase(ctx context.Context, caseID id.CaseID, assignee id.UserID) (*models.Case, error)
	ActivateCase(ctx context.Context, caseID id.CaseID) (*models.Case, error)
	DeleteCase(ctx context.Context, caseID id.CaseID) error
}

// Handler serves the case endpoints.
type Handler struct {
	cases  Service
	logger *slog.Logger
}

// New creates a case Handler.
func New(cases Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{cases: cases, logger: logger}
}

// Register mounts the case routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/cases", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Route("/{caseID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Delete("/", h.handleDelete)
			r.Get("/actions", h.handleActions)
			r.Get("/activities", h.handleActivities)
			r.Post("/transitions", h.handleTransition)
			r.Post("/assignee", h.handleAssign)
			r.Post("/activation", h.handleActivate)
			r.Post("/parties", h.handleLinkParty)
			r.Post("/documents/{requirementID}/submissions", h.handleUpload)
			r.Post("/documents/{requirementID}/submissions/{submissionID}/review", h.handleReview)
		})
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[CreateCaseRequest](w, r, h.logger)
	if !ok {
		return
	}

	input := service.CreateCaseInput{
		Entity:    req.entityData(),
		RiskLevel: workflow.RiskLevel(req.RiskLevel),
		Priority:  models.Priority(req.Priority),
	}
	for _, acct := range req.Accounts {
		input.Accounts = append(input.Accounts, service.AccountInput{
			AccountNumber: acct.AccountNumber,
			AccountType:   acct.AccountType,
			Currency:      acct.Currency,
		})
	}

	c, err := h.cases.CreateCase(r.Context(), input)
	if err != nil {
		h.writeError(w, r, "create case", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, newCaseResponse(c))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := caserepo.Filter{
		Status:    workflow.Status(r.URL.Query().Get("status")),
		RiskLevel: workflow.RiskLevel(r.URL.Query().Get("risk_level")),
	}
	if assigned := r.URL.Query().Get("assigned_to"); assigned != "" {
		userID, err := id.ParseUserID(assigned)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid assigned_to"))
			return
		}
		filter.AssignedTo = userID
	}

	cases, err := h.cases.ListCases(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, "list cases", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newListResponse(cases))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}
	c, err := h.cases.GetCase(r.Context(), caseID)
	if err != nil {
		h.writeError(w, r, "get case", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newCaseResponse(c))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}
	if err := h.cases.DeleteCase(r.Context(), caseID); err != nil {
		h.writeError(w, r, "delete case", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleActions(w http.ResponseWriter, r *http.Request) {
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}
	actions, err := h.cases.AvailableActions(r.Context(), caseID)
	if err != nil {
		h.writeError(w, r, "list actions", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ActionsResponse{Actions: actions})
}

func (h *Handler) handleActivities(w http.ResponseWriter, r *http.Request) {
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}
	c, err := h.cases.GetCase(r.Context(), caseID)
	if err != nil {
		h.writeError(w, r, "get activities", err)
		return
	}
	activities := c.Activities
	if activities == nil {
		activities = []models.Activity{}
	}
	httputil.WriteJSON(w, http.StatusOK, ActivitiesResponse{Activities: activities})
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[TransitionRequest](w, r, h.logger)
	if !ok {
		return
	}
	c, err := h.cases.ApplyTransition(r.Context(), caseID, req.Action, req.Detail)
	if err != nil {
		h.writeError(w, r, "apply transition", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newCaseResponse(c))
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[AssignRequest](w, r, h.logger)
	if !ok {
		return
	}
	c, err := h.cases.AssignCase(r.Context(), caseID, req.Assignee)
	if err != nil {
		h.writeError(w, r, "assign case", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newCaseResponse(c))
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}
	c, err := h.cases.ActivateCase(r.Context(), caseID)
	if err != nil {
		h.writeError(w, r, "activate case", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newCaseResponse(c))
}

func (h *Handler) handleLinkParty(w http.ResponseWriter, r *http.Request) {
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[LinkPartyRequest](w, r, h.logger)
	if !ok {
		return
	}
	c, err := h.cases.LinkParty(r.Context(), caseID, req.PartyID, req.Role, req.IsPrimary)
	if err != nil {
		h.writeError(w, r, "link party", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newCaseResponse(c))
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[UploadRequest](w, r, h.logger)
	if !ok {
		return
	}
	c, err := h.cases.UploadSubmission(r.Context(), caseID, service.UploadInput{
		RequirementID: id.RequirementID(chi.URLParam(r, "requirementID")),
		FileHandle:    req.FileHandle,
		FileName:      req.FileName,
	})
	if err != nil {
		h.writeError(w, r, "upload submission", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, newCaseResponse(c))
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}
	subID, err := id.ParseSubmissionID(chi.URLParam(r, "submissionID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid submission id"))
		return
	}
	req, ok := httputil.Decode[ReviewRequest](w, r, h.logger)
	if !ok {
		return
	}
	c, err := h.cases.ReviewSubmission(r.Context(), caseID, service.ReviewInput{
		RequirementID: id.RequirementID(chi.URLParam(r, "requirementID")),
		SubmissionID:  subID,
		Target:        req.Status,
		Comment:       req.Comment,
		Internal:      req.Internal,
	})
	if err != nil {
		h.writeError(w, r, "review submission", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newCaseResponse(c))
}

func (h *Handler) caseID(w http.ResponseWriter, r *http.Request) (id.CaseID, bool) {
	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid case id"))
		return id.CaseID{}, false
	}
	return caseID, true
}

// writeError logs at a level matching the error class and renders the
// envelope. Client-caused errors are warnings; everything else is an error.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "case operation failed",
			"op", op,
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
	} else {
		h.logger.WarnContext(ctx, "case operation rejected",
			"op", op,
			"code", string(code),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}
