package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nurpe/dossiers-service/internal/auth"
	"github.com/nurpe/dossiers-service/internal/config"
	"github.com/nurpe/dossiers-service/internal/excel"
	"github.com/nurpe/dossiers-service/internal/http/middleware"
	"github.com/nurpe/dossiers-service/internal/model"
	"github.com/nurpe/dossiers-service/internal/pdf"
	"github.com/nurpe/dossiers-service/internal/repository"
	"github.com/nurpe/dossiers-service/internal/service"
	"github.com/nurpe/dossiers-service/internal/testutil"
)

const testSecret = "test-secret"

type testServer struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	parser *auth.Parser
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	repo := repository.NewDossierRepository(db)
	cfg := &config.Config{Dossiers: config.DossiersConfig{ListConcurrency: 4, EnforceUniqueNumber: true}}
	log := zerolog.Nop()

	dossiers := service.NewDossierService(repo, repo, log, cfg)
	diagnostics := service.NewDiagnosticService(dossiers, repository.NewDiagnosticRepository(db), log)
	exports := service.NewExportService(dossiers, diagnostics, pdf.NewGenerator(), excel.NewGenerator())

	parser := auth.NewParser(testSecret)
	handler := NewHandler(dossiers, diagnostics, exports, log)
	router := NewRouter(handler, middleware.Auth(parser), "test", nil, log)
	return &testServer{t: t, db: db, router: router, parser: parser}
}

func (s *testServer) token(role model.Role) string {
	s.t.Helper()
	token, err := s.parser.Issue("user-1", role, time.Hour)
	require.NoError(s.t, err)
	return token
}

func (s *testServer) do(method, path string, role model.Role, body string) *httptest.ResponseRecorder {
	s.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(role))
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func createBody(number, tenantEmail string) string {
	return `{
		"dossierNumber": "` + number + `",
		"creationDate": "2024-01-15",
		"status": "en_attente",
		"nextAction": "Appeler le bailleur",
		"tenant": {
			"firstName": "Marie",
			"lastName": "Dupont",
			"email": "` + tenantEmail + `",
			"phone": "0601020304",
			"address": "12 rue des Lilas",
			"city": "Lyon",
			"postalCode": "69003"
		},
		"landlord": {
			"type": "private",
			"name": "M. Bernard",
			"email": "bernard@example.fr",
			"phone": "0478000000"
		},
		"unpaidAmount": {
			"amount": 1200,
			"months": 3,
			"since": "2023-11-01",
			"reason": "health"
		}
	}`
}

func (s *testServer) createDossier(number string) dossierResponse {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/dossiers", model.RoleEditor, createBody(number, "marie@example.fr"))
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[dossierResponse](s.t, rec)
}

func TestCreateAndFetchDossier(t *testing.T) {
	s := newTestServer(t)
	created := s.createDossier("2024-100")

	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "2024-01-15", created.CreationDate)
	assert.Equal(t, "2023-11-01", created.UnpaidAmount.Since)
	require.Len(t, created.StatusHistory, 1)
	assert.Equal(t, "en_attente", created.StatusHistory[0].Status)

	rec := s.do(http.MethodGet, "/dossiers/"+created.ID.String(), model.RoleViewer, "")
	require.Equal(t, http.StatusOK, rec.Code)
	fetched := decode[dossierResponse](t, rec)
	assert.Equal(t, "marie@example.fr", fetched.Tenant.Email)
	assert.Equal(t, "private", fetched.Landlord.Type)
	assert.InDelta(t, 1200.0, fetched.UnpaidAmount.Amount, 0.001)
	require.NotNil(t, fetched.NextAction)
	assert.Equal(t, "Appeler le bailleur", *fetched.NextAction)

	rec = s.do(http.MethodGet, "/dossiers", model.RoleViewer, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]dossierResponse](t, rec), 1)
}

func TestCreateRejectsInvalidEmail(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/dossiers", model.RoleEditor, createBody("2024-101", "not-an-email"))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode[validationBody](t, rec)
	assert.Equal(t, "Validation error", body.Error)
	require.Len(t, body.Details, 1)
	assert.Equal(t, "tenant.email", body.Details[0].Field)
	assert.Equal(t, "email", body.Details[0].Rule)

	rec = s.do(http.MethodGet, "/dossiers", model.RoleViewer, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateRejectsMissingFieldsAndBadDates(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/dossiers", model.RoleEditor, `{"dossierNumber": "X"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"tenant.firstName"`)
	assert.Contains(t, rec.Body.String(), `"field":"unpaidAmount.amount"`)

	body := strings.Replace(createBody("2024-102", "marie@example.fr"), `"2024-01-15"`, `"15 janvier"`, 1)
	rec = s.do(http.MethodPost, "/dossiers", model.RoleEditor, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"creationDate"`)
}

type validationBody struct {
	Error   string             `json:"error"`
	Details []validationDetail `json:"details"`
}

func TestCreateRejectsWrongJSONTypes(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name  string
		from  string
		to    string
		field string
	}{
		{name: "months as string", from: `"months": 3`, to: `"months": "3"`, field: "unpaidAmount.months"},
		{name: "amount as string", from: `"amount": 1200`, to: `"amount": "abc"`, field: "unpaidAmount.amount"},
		{name: "tenant as list", from: `"tenant": {`, to: `"tenant": [], "ignored": {`, field: "tenant"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := strings.Replace(createBody("2024-120", "marie@example.fr"), tt.from, tt.to, 1)
			rec := s.do(http.MethodPost, "/dossiers", model.RoleEditor, body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			got := decode[validationBody](t, rec)
			assert.Equal(t, "Validation error", got.Error)
			require.Len(t, got.Details, 1)
			assert.Equal(t, tt.field, got.Details[0].Field)
			assert.Equal(t, "type", got.Details[0].Rule)
		})
	}

	rec := s.do(http.MethodGet, "/dossiers", model.RoleViewer, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateRejectsBlankText(t *testing.T) {
	s := newTestServer(t)

	body := strings.Replace(createBody("2024-121", "marie@example.fr"), `"2024-121"`, `"   "`, 1)
	rec := s.do(http.MethodPost, "/dossiers", model.RoleEditor, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	got := decode[validationBody](t, rec)
	require.Len(t, got.Details, 1)
	assert.Equal(t, "dossierNumber", got.Details[0].Field)
	assert.Equal(t, "notblank", got.Details[0].Rule)

	body = strings.Replace(createBody("2024-122", "marie@example.fr"), `"Lyon"`, `" "`, 1)
	rec = s.do(http.MethodPost, "/dossiers", model.RoleEditor, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	got = decode[validationBody](t, rec)
	require.Len(t, got.Details, 1)
	assert.Equal(t, "tenant.city", got.Details[0].Field)
}

func TestMalformedJSON(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/dossiers", model.RoleEditor, `{"dossierNumber":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid request data"}`, rec.Body.String())
}

func TestDuplicateNumberConflict(t *testing.T) {
	s := newTestServer(t)
	s.createDossier("2024-103")

	rec := s.do(http.MethodPost, "/dossiers", model.RoleEditor, createBody("2024-103", "autre@example.fr"))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDossierNotFound(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/dossiers/" + uuid.NewString(), "/dossiers/nonexistent"} {
		rec := s.do(http.MethodGet, path, model.RoleViewer, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.JSONEq(t, `{"error":"Dossier not found"}`, rec.Body.String())
	}

	rec := s.do(http.MethodPatch, "/dossiers/"+uuid.NewString(), model.RoleEditor, `{"status":"resolu"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(http.MethodDelete, "/dossiers/"+uuid.NewString(), model.RoleEditor, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthorization(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/dossiers", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/dossiers", model.RoleViewer, createBody("2024-104", "marie@example.fr"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/dossiers", model.RoleViewer, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestPatchDossier(t *testing.T) {
	s := newTestServer(t)
	created := s.createDossier("2024-105")
	path := "/dossiers/" + created.ID.String()

	rec := s.do(http.MethodPatch, path, model.RoleEditor, `{
		"status": "en_cours",
		"nextAction": null,
		"tenant": {"city": "Villeurbanne"},
		"unpaidAmount": {"months": 4}
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[dossierResponse](t, rec)
	assert.Equal(t, "en_cours", updated.Status)
	assert.Nil(t, updated.NextAction)
	assert.Equal(t, "Villeurbanne", updated.Tenant.City)
	assert.Equal(t, "Marie", updated.Tenant.FirstName)
	assert.Equal(t, 4, updated.UnpaidAmount.Months)
	require.Len(t, updated.StatusHistory, 2)
	assert.Equal(t, "en_cours", updated.StatusHistory[0].Status)

	rec = s.do(http.MethodPatch, path, model.RoleEditor, `{"status": "en_cours"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[dossierResponse](t, rec).StatusHistory, 2)
}

func TestPatchValidation(t *testing.T) {
	s := newTestServer(t)
	created := s.createDossier("2024-106")
	path := "/dossiers/" + created.ID.String()

	rec := s.do(http.MethodPatch, path, model.RoleEditor, `{"tenant": {"firstName": null}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"tenant.firstName"`)

	rec = s.do(http.MethodPatch, path, model.RoleEditor, `{"status": "archive"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rule":"oneof"`)

	rec = s.do(http.MethodPatch, path, model.RoleEditor, `{"unpaidAmount": {"since": "hier"}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"unpaidAmount.since"`)

	rec = s.do(http.MethodPatch, path, model.RoleEditor, `{"unpaidAmount": {"months": "x"}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	got := decode[validationBody](t, rec)
	require.Len(t, got.Details, 1)
	assert.Equal(t, "unpaidAmount.months", got.Details[0].Field)
	assert.Equal(t, "type", got.Details[0].Rule)

	rec = s.do(http.MethodPatch, path, model.RoleEditor, `{"unpaidAmount": {"amount": null}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	got = decode[validationBody](t, rec)
	require.Len(t, got.Details, 1)
	assert.Equal(t, "unpaidAmount.amount", got.Details[0].Field)

	rec = s.do(http.MethodPatch, path, model.RoleEditor, `{"tenant": {"city": "  "}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"tenant.city"`)

	rec = s.do(http.MethodGet, path, model.RoleViewer, "")
	require.Equal(t, http.StatusOK, rec.Code)
	fetched := decode[dossierResponse](t, rec)
	assert.Equal(t, "Marie", fetched.Tenant.FirstName)
	assert.Equal(t, "en_attente", fetched.Status)
}

func TestDeleteDossierTwice(t *testing.T) {
	s := newTestServer(t)
	created := s.createDossier("2024-107")
	path := "/dossiers/" + created.ID.String()

	rec := s.do(http.MethodDelete, path, model.RoleEditor, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Dossier deleted successfully"}`, rec.Body.String())

	rec = s.do(http.MethodDelete, path, model.RoleEditor, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDiagnosticRoutes(t *testing.T) {
	s := newTestServer(t)
	created := s.createDossier("2024-108")
	path := "/dossiers/" + created.ID.String() + "/diagnostic"

	rec := s.do(http.MethodGet, path, model.RoleViewer, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Diagnostic not found"}`, rec.Body.String())

	rec = s.do(http.MethodPut, path, model.RoleEditor, `{
		"situationFinanciere": {
			"ressources": {"salaire": 1600, "caf": 400},
			"charges": {"loyer": 700, "credits": [100, 50]}
		}
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	saved := decode[diagnosticResponse](t, rec)
	assert.InDelta(t, 2000.0, saved.Bilan.TotalRessources, 1e-9)
	assert.InDelta(t, 850.0, saved.Bilan.TotalCharges, 1e-9)
	assert.InDelta(t, 1150.0, saved.Bilan.ResteAVivre, 1e-9)
	assert.InDelta(t, 0.35, saved.Bilan.TauxEffort, 1e-9)

	rec = s.do(http.MethodGet, path, model.RoleViewer, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"bilanFinancier"`)

	rec = s.do(http.MethodPut, path, model.RoleEditor, `[1, 2]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExports(t *testing.T) {
	s := newTestServer(t)
	created := s.createDossier("2024/109")

	rec := s.do(http.MethodGet, "/dossiers/"+created.ID.String()+"/pdf", model.RoleViewer, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pdfContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="dossier-2024-109-`)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = s.do(http.MethodGet, "/exports/dossiers", model.RoleViewer, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestHealthAndStorageFailure(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Database connection ok"}`, rec.Body.String())

	sqlDB, err := s.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	rec = s.do(http.MethodGet, "/dossiers", model.RoleViewer, "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "Failed to fetch dossiers", body["error"])
	assert.Contains(t, body["details"], rec.Header().Get("X-Request-ID"))
	assert.NotContains(t, body["details"], "closed")

	rec = s.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
