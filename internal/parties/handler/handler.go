// Package handler exposes the party catalog over HTTP.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"caseflow/internal/parties/models"
	"caseflow/internal/parties/service"
	"caseflow/internal/parties/store/partyrepo"
	id "caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/httputil"
	"caseflow/pkg/requestcontext"
)

// Service is the party service surface the handler depends on.
type Service interface {
	CreateParty(ctx context.Context, input service.CreatePartyInput) (*models.Party, error)
	GetParty(ctx context.Context, partyID id.PartyID) (*models.Party, error)
	ListParties(ctx context.Context, filter partyrepo.Filter) ([]*models.Party, error)
	RecordScreening(ctx context.Context, partyID id.PartyID, input service.ScreeningInput) (*models.Party, error)
	DeleteParty(ctx context.Context, partyID id.PartyID) error
}

// CreatePartyRequest registers a catalog party.
type CreatePartyRequest struct {
	FullName    string           `json:"full_name"`
	PartyType   models.PartyType `json:"party_type"`
	Nationality string           `json:"nationality,omitempty"`
	DateOfBirth string           `json:"date_of_birth,omitempty"`
	IDDocument  string           `json:"id_document,omitempty"`
	PEP         bool             `json:"is_pep,omitempty"`
	Sanctioned  bool             `json:"is_sanctioned,omitempty"`
	RiskFactors []string         `json:"risk_factors,omitempty"`
	Contacts    []models.Contact `json:"contacts,omitempty"`
}

// ScreeningRequest applies a screening result to a party.
type ScreeningRequest struct {
	PEP         bool     `json:"is_pep,omitempty"`
	Sanctioned  bool     `json:"is_sanctioned,omitempty"`
	RiskFactors []string `json:"risk_factors,omitempty"`
}

// ListResponse wraps a party listing.
type ListResponse struct {
	Parties []*models.Party `json:"parties"`
}

// Handler serves the party endpoints.
type Handler struct {
	parties Service
	logger  *slog.Logger
}

// New creates a party Handler.
func New(parties Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{parties: parties, logger: logger}
}

// Register mounts the party routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/parties", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Route("/{partyID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Delete("/", h.handleDelete)
			r.Post("/screening", h.handleScreening)
		})
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[CreatePartyRequest](w, r, h.logger)
	if !ok {
		return
	}
	p, err := h.parties.CreateParty(r.Context(), service.CreatePartyInput{
		FullName:    req.FullName,
		Type:        req.PartyType,
		Nationality: req.Nationality,
		DateOfBirth: req.DateOfBirth,
		IDDocument:  req.IDDocument,
		PEP:         req.PEP,
		Sanctioned:  req.Sanctioned,
		RiskFactors: req.RiskFactors,
		Contacts:    req.Contacts,
	})
	if err != nil {
		h.writeError(w, r, "create party", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := partyrepo.Filter{
		Name:     r.URL.Query().Get("name"),
		Type:     models.PartyType(r.URL.Query().Get("party_type")),
		HighRisk: r.URL.Query().Get("high_risk") == "true",
	}
	parties, err := h.parties.ListParties(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, "list parties", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Parties: parties})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	partyID, ok := h.partyID(w, r)
	if !ok {
		return
	}
	p, err := h.parties.GetParty(r.Context(), partyID)
	if err != nil {
		h.writeError(w, r, "get party", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleScreening(w http.ResponseWriter, r *http.Request) {
	partyID, ok := h.partyID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[ScreeningRequest](w, r, h.logger)
	if !ok {
		return
	}
	p, err := h.parties.RecordScreening(r.Context(), partyID, service.ScreeningInput{
		PEP:         req.PEP,
		Sanctioned:  req.Sanctioned,
		RiskFactors: req.RiskFactors,
	})
	if err != nil {
		h.writeError(w, r, "record screening", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	partyID, ok := h.partyID(w, r)
	if !ok {
		return
	}
	if err := h.parties.DeleteParty(r.Context(), partyID); err != nil {
		h.writeError(w, r, "delete party", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) partyID(w http.ResponseWriter, r *http.Request) (id.PartyID, bool) {
	partyID, err := id.ParsePartyID(chi.URLParam(r, "partyID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid party id"))
		return id.PartyID{}, false
	}
	return partyID, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "party operation failed",
			"op", op,
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
	} else {
		h.logger.WarnContext(ctx, "party operation rejected",
			"op", op,
			"code", string(code),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}
