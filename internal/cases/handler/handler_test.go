package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"caseflow/internal/cases/handler/mocks"
	"caseflow/internal/cases/models"
	"caseflow/internal/cases/service"
	"caseflow/internal/cases/store/caserepo"
	"caseflow/internal/workflow"
	id "caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
)

type CaseHandlerSuite struct {
	suite.Suite
}

func TestCaseHandlerSuite(t *testing.T) {
	suite.Run(t, new(CaseHandlerSuite))
}

func newTestRouter(t *testing.T) (chi.Router, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	New(mockService, logger).Register(r)
	return r, mockService
}

func fixtureCase(t *testing.T) *models.Case {
	t.Helper()
	c, err := models.NewCase(id.NewCaseID(), models.EntityData{
		EntityName: "Acme Ltd",
		EntityType: workflow.EntityCorporate,
	}, workflow.RiskLow, models.PriorityNormal, id.NewUserID(), "rm", []models.DocumentLink{
		{RequirementID: "certificate-of-incorporation", Section: "corporate", IsMandatory: true},
	}, time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return c
}

func (s *CaseHandlerSuite) TestCreateCase() {
	r, mockService := newTestRouter(s.T())
	c := fixtureCase(s.T())

	mockService.EXPECT().CreateCase(gomock.Any(), service.CreateCaseInput{
		Entity: models.EntityData{
			EntityName: "Acme Ltd",
			EntityType: workflow.EntityCorporate,
		},
		RiskLevel: workflow.RiskLow,
	}).Return(c, nil)

	body, err := json.Marshal(CreateCaseRequest{
		EntityName: "Acme Ltd",
		EntityType: "corporate",
		RiskLevel:  "low",
	})
	require.NoError(s.T(), err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/cases/", bytes.NewReader(body)))

	assert.Equal(s.T(), http.StatusCreated, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "draft", resp["status"])
	assert.Equal(s.T(), false, resp["is_submittable"])
	assert.Equal(s.T(), []any{"certificate-of-incorporation"}, resp["unmet_requirements"])
}

func (s *CaseHandlerSuite) TestCreateCaseRejectsBadBody() {
	r, _ := newTestRouter(s.T())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/cases/", bytes.NewReader([]byte("{"))))

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *CaseHandlerSuite) TestGetCase() {
	r, mockService := newTestRouter(s.T())
	c := fixtureCase(s.T())

	mockService.EXPECT().GetCase(gomock.Any(), c.ID).Return(c, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cases/"+c.ID.String(), nil))

	assert.Equal(s.T(), http.StatusOK, w.Code)
}

func (s *CaseHandlerSuite) TestGetCaseInvalidID() {
	r, _ := newTestRouter(s.T())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cases/not-a-uuid", nil))

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *CaseHandlerSuite) TestGetCaseNotFound() {
	r, mockService := newTestRouter(s.T())
	caseID := id.NewCaseID()

	mockService.EXPECT().GetCase(gomock.Any(), caseID).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "case not found"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cases/"+caseID.String(), nil))

	assert.Equal(s.T(), http.StatusNotFound, w.Code)
}

func (s *CaseHandlerSuite) TestListPassesFilter() {
	r, mockService := newTestRouter(s.T())
	assignee := id.NewUserID()

	mockService.EXPECT().ListCases(gomock.Any(), caserepo.Filter{
		Status:     workflow.StatusDraft,
		AssignedTo: assignee,
	}).Return([]*models.Case{}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/cases/?status=draft&assigned_to="+assignee.String(), nil))

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp ListResponse
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(s.T(), resp.Cases)
}

func (s *CaseHandlerSuite) TestTransitionGateFailureMapsTo422() {
	r, mockService := newTestRouter(s.T())
	caseID := id.NewCaseID()

	mockService.EXPECT().ApplyTransition(gomock.Any(), caseID, workflow.ActionSubmitForReview, "").
		Return(nil, dErrors.New(dErrors.CodeRequirementsNotMet, "mandatory document requirements are not met").
			Add("requirement_ids", []string{"passport"}))

	body, err := json.Marshal(TransitionRequest{Action: workflow.ActionSubmitForReview})
	require.NoError(s.T(), err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost,
		"/cases/"+caseID.String()+"/transitions", bytes.NewReader(body)))

	assert.Equal(s.T(), http.StatusUnprocessableEntity, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "requirements_not_met", resp["error"])
	details := resp["details"].(map[string]any)
	assert.Equal(s.T(), []any{"passport"}, details["requirement_ids"])
}

func (s *CaseHandlerSuite) TestTransitionConflictMapsTo409() {
	r, mockService := newTestRouter(s.T())
	caseID := id.NewCaseID()

	mockService.EXPECT().ApplyTransition(gomock.Any(), caseID, workflow.ActionApprove, "").
		Return(nil, dErrors.New(dErrors.CodeInvalidTransition, "no transition rule matches"))

	body, err := json.Marshal(TransitionRequest{Action: workflow.ActionApprove})
	require.NoError(s.T(), err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost,
		"/cases/"+caseID.String()+"/transitions", bytes.NewReader(body)))

	assert.Equal(s.T(), http.StatusConflict, w.Code)
}

func (s *CaseHandlerSuite) TestUploadSubmission() {
	r, mockService := newTestRouter(s.T())
	c := fixtureCase(s.T())

	mockService.EXPECT().UploadSubmission(gomock.Any(), c.ID, service.UploadInput{
		RequirementID: "certificate-of-incorporation",
		FileHandle:    "blob://abc",
		FileName:      "cert.pdf",
	}).Return(c, nil)

	body, err := json.Marshal(UploadRequest{FileHandle: "blob://abc", FileName: "cert.pdf"})
	require.NoError(s.T(), err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost,
		"/cases/"+c.ID.String()+"/documents/certificate-of-incorporation/submissions",
		bytes.NewReader(body)))

	assert.Equal(s.T(), http.StatusCreated, w.Code)
}

func (s *CaseHandlerSuite) TestReviewSubmission() {
	r, mockService := newTestRouter(s.T())
	c := fixtureCase(s.T())
	subID := id.NewSubmissionID()

	mockService.EXPECT().ReviewSubmission(gomock.Any(), c.ID, service.ReviewInput{
		RequirementID: "certificate-of-incorporation",
		SubmissionID:  subID,
		Target:        workflow.SubmissionPendingCompliance,
		Comment:       "checked",
	}).Return(c, nil)

	body, err := json.Marshal(ReviewRequest{
		Status:  workflow.SubmissionPendingCompliance,
		Comment: "checked",
	})
	require.NoError(s.T(), err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost,
		"/cases/"+c.ID.String()+"/documents/certificate-of-incorporation/submissions/"+subID.String()+"/review",
		bytes.NewReader(body)))

	assert.Equal(s.T(), http.StatusOK, w.Code)
}

func (s *CaseHandlerSuite) TestLinkParty() {
	r, mockService := newTestRouter(s.T())
	c := fixtureCase(s.T())
	partyID := id.NewPartyID()

	mockService.EXPECT().LinkParty(gomock.Any(), c.ID, partyID, workflow.RelationDirector, true).
		Return(c, nil)

	body, err := json.Marshal(LinkPartyRequest{
		PartyID:   partyID,
		Role:      workflow.RelationDirector,
		IsPrimary: true,
	})
	require.NoError(s.T(), err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost,
		"/cases/"+c.ID.String()+"/parties", bytes.NewReader(body)))

	assert.Equal(s.T(), http.StatusOK, w.Code)
}

func (s *CaseHandlerSuite) TestDeleteCase() {
	r, mockService := newTestRouter(s.T())
	caseID := id.NewCaseID()

	mockService.EXPECT().DeleteCase(gomock.Any(), caseID).Return(nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/cases/"+caseID.String(), nil))

	assert.Equal(s.T(), http.StatusNoContent, w.Code)
}

func (s *CaseHandlerSuite) TestDeleteCaseForbidden() {
	r, mockService := newTestRouter(s.T())
	caseID := id.NewCaseID()

	mockService.EXPECT().DeleteCase(gomock.Any(), caseID).
		Return(dErrors.New(dErrors.CodeForbidden, "only administrator may delete a case"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/cases/"+caseID.String(), nil))

	assert.Equal(s.T(), http.StatusForbidden, w.Code)
}

func (s *CaseHandlerSuite) TestAvailableActions() {
	r, mockService := newTestRouter(s.T())
	caseID := id.NewCaseID()

	mockService.EXPECT().AvailableActions(gomock.Any(), caseID).
		Return([]workflow.Action{workflow.ActionSubmitForReview}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cases/"+caseID.String()+"/actions", nil))

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp ActionsResponse
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), []workflow.Action{workflow.ActionSubmitForReview}, resp.Actions)
}
