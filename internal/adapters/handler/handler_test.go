package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/civicgov/birth-registry/certificate-service/internal/adapters/middleware"
	"github.com/civicgov/birth-registry/certificate-service/internal/core/domain"
	"github.com/civicgov/birth-registry/certificate-service/internal/core/services"
	"github.com/civicgov/birth-registry/certificate-service/internal/core/token"
	"github.com/civicgov/birth-registry/certificate-service/test/mocks"
)

var handlerSecret = []byte("handler-test-secret")

type testServer struct {
	mux      *http.ServeMux
	userRepo *mocks.MockUserRepository
	appRepo  *mocks.MockApplicationRepository
	cache    *mocks.MockVerificationCache
}

// newTestServer wires the real services and handlers behind the same route
// table the binary uses, with the repositories swapped for mocks.
func newTestServer() *testServer {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	userRepo := mocks.NewMockUserRepository()
	appRepo := mocks.NewMockApplicationRepository()
	cache := mocks.NewMockVerificationCache()

	authService := services.NewAuthService(userRepo, handlerSecret)
	applicationService := services.NewApplicationService(appRepo)
	certificateService := services.NewCertificateService(appRepo, cache)
	reportService := services.NewReportService(appRepo)

	authHandler := NewAuthHandler(authService, logger)
	applicationHandler := NewApplicationHandler(applicationService, logger)
	certificateHandler := NewCertificateHandler(certificateService, logger)
	reportHandler := NewReportHandler(reportService, logger)
	authMiddleware := middleware.NewAuthMiddleware(handlerSecret, logger)

	parentOnly := []domain.Role{domain.RoleParent}
	adminOnly := []domain.Role{domain.RoleAdmin}
	parentOrAdmin := []domain.Role{domain.RoleParent, domain.RoleAdmin}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/logout", authMiddleware.RequireRole(nil, authHandler.Logout))
	mux.HandleFunc("GET /api/certificate/verify/{certificateId}", certificateHandler.Verify)
	mux.HandleFunc("POST /api/applications", authMiddleware.RequireRole(parentOnly, applicationHandler.Submit))
	mux.HandleFunc("GET /api/applications/my", authMiddleware.RequireRole(parentOnly, applicationHandler.ListMine))
	mux.HandleFunc("GET /api/applications/all", authMiddleware.RequireRole(adminOnly, applicationHandler.ListAll))
	mux.HandleFunc("GET /api/applications/{id}", authMiddleware.RequireRole(parentOrAdmin, applicationHandler.Get))
	mux.HandleFunc("PUT /api/applications/verify/{id}", authMiddleware.RequireRole(adminOnly, applicationHandler.Verify))
	mux.HandleFunc("PUT /api/applications/approve/{id}", authMiddleware.RequireRole(adminOnly, applicationHandler.Approve))
	mux.HandleFunc("PUT /api/applications/reject/{id}", authMiddleware.RequireRole(adminOnly, applicationHandler.Reject))
	mux.HandleFunc("GET /api/certificate/{applicationId}", authMiddleware.RequireRole(parentOrAdmin, certificateHandler.Download))
	mux.HandleFunc("GET /api/admin/stats", authMiddleware.RequireRole(adminOnly, applicationHandler.Stats))
	mux.HandleFunc("GET /api/admin/reports/csv", authMiddleware.RequireRole(adminOnly, reportHandler.CSV))
	mux.HandleFunc("GET /api/admin/reports/pdf", authMiddleware.RequireRole(adminOnly, reportHandler.PDF))

	return &testServer{mux: mux, userRepo: userRepo, appRepo: appRepo, cache: cache}
}

func (s *testServer) do(t *testing.T, method, path, credential string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if credential != "" {
		req.Header.Set(middleware.CredentialHeader, credential)
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func credentialFor(t *testing.T, userID string, role domain.Role) string {
	t.Helper()
	signed, err := token.Sign(userID, role, handlerSecret, time.Now())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return body.Msg
}

func submitBody() map[string]any {
	return map[string]any{
		"childName":          "Ava Lee",
		"childDOB":           "2025-01-15",
		"placeOfBirth":       "Central Hospital",
		"gender":             "female",
		"cityOfBirth":        "Springfield",
		"stateOfBirth":       "Western",
		"countryOfBirth":     "Freedonia",
		"motherName":         "Grace Lee",
		"motherDOB":          "1992-06-30",
		"motherNationality":  "Freedonian",
		"motherIDNumber":     "M-1029384",
		"contactEmail":       "grace.lee@example.com",
		"phoneNumber":        "+1-555-0142",
		"residentialAddress": "12 Elm Street, Springfield",
	}
}

// submitApplication drives POST /api/applications and returns the new id.
func submitApplication(t *testing.T, s *testServer, parentCredential string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/applications", parentCredential, submitBody())
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Msg         string `json:"msg"`
		Application struct {
			ID string `json:"id"`
		} `json:"application"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode submit response: %v", err)
	}
	if resp.Msg != "Application submitted successfully" {
		t.Errorf("msg = %q", resp.Msg)
	}
	return resp.Application.ID
}

func TestRegisterAndLoginEndpoints(t *testing.T) {
	s := newTestServer()

	rec := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Grace Lee",
		"email":    "grace.lee@example.com",
		"password": "s3cret-pass",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode register: %v", err)
	}
	if created.Token == "" || created.User.Role != domain.RoleParent {
		t.Errorf("register response = %+v", created)
	}
	if strings.Contains(rec.Body.String(), "s3cret-pass") {
		t.Error("response must not leak the password")
	}

	rec = s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Copy Cat",
		"email":    "grace.lee@example.com",
		"password": "other-pass",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "grace.lee@example.com",
		"password": "s3cret-pass",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "grace.lee@example.com",
		"password": "wrong-pass",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login status = %d, want 401", rec.Code)
	}
	if got := decodeError(t, rec); got != "invalid credentials" {
		t.Errorf("msg = %q", got)
	}
}

func TestLogoutRequiresCredential(t *testing.T) {
	s := newTestServer()

	if rec := s.do(t, http.MethodPost, "/api/auth/logout", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous logout status = %d, want 401", rec.Code)
	}
	rec := s.do(t, http.MethodPost, "/api/auth/logout", credentialFor(t, "user-1", domain.RoleParent), nil)
	if rec.Code != http.StatusOK {
		t.Errorf("logout status = %d, want 200", rec.Code)
	}
}

func TestSubmitEndpoint(t *testing.T) {
	s := newTestServer()
	parent := credentialFor(t, "parent-1", domain.RoleParent)

	id := submitApplication(t, s, parent)
	if id == "" {
		t.Fatal("expected an application id")
	}

	// Admins cannot submit.
	if rec := s.do(t, http.MethodPost, "/api/applications", credentialFor(t, "admin-1", domain.RoleAdmin), submitBody()); rec.Code != http.StatusForbidden {
		t.Errorf("admin submit status = %d, want 403", rec.Code)
	}

	// Validation failures surface as 400 with the first message.
	body := submitBody()
	delete(body, "childName")
	rec := s.do(t, http.MethodPost, "/api/applications", parent, body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid submit status = %d, want 400", rec.Code)
	}
	if got := decodeError(t, rec); got != "Child name is required" {
		t.Errorf("msg = %q", got)
	}
}

func TestListAndGetEndpoints(t *testing.T) {
	s := newTestServer()
	parent := credentialFor(t, "parent-1", domain.RoleParent)
	admin := credentialFor(t, "admin-1", domain.RoleAdmin)
	stranger := credentialFor(t, "parent-2", domain.RoleParent)

	id := submitApplication(t, s, parent)

	rec := s.do(t, http.MethodGet, "/api/applications/my", parent, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("my status = %d", rec.Code)
	}
	var mine []json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &mine); err != nil {
		t.Fatalf("decode my: %v", err)
	}
	if len(mine) != 1 {
		t.Errorf("my applications = %d, want 1", len(mine))
	}

	if rec := s.do(t, http.MethodGet, "/api/applications/all", parent, nil); rec.Code != http.StatusForbidden {
		t.Errorf("parent list-all status = %d, want 403", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/api/applications/all", admin, nil); rec.Code != http.StatusOK {
		t.Errorf("admin list-all status = %d, want 200", rec.Code)
	}

	if rec := s.do(t, http.MethodGet, "/api/applications/"+id, parent, nil); rec.Code != http.StatusOK {
		t.Errorf("owner get status = %d, want 200", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/api/applications/"+id, stranger, nil); rec.Code != http.StatusForbidden {
		t.Errorf("stranger get status = %d, want 403", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/api/applications/missing", admin, nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing get status = %d, want 404", rec.Code)
	}
}

func TestWorkflowEndpoints(t *testing.T) {
	s := newTestServer()
	parent := credentialFor(t, "parent-1", domain.RoleParent)
	admin := credentialFor(t, "admin-1", domain.RoleAdmin)

	id := submitApplication(t, s, parent)

	// Parents cannot drive the workflow.
	if rec := s.do(t, http.MethodPut, "/api/applications/verify/"+id, parent, map[string]string{"status": "verified"}); rec.Code != http.StatusForbidden {
		t.Errorf("parent verify status = %d, want 403", rec.Code)
	}

	// Approve before verify conflicts.
	rec := s.do(t, http.MethodPut, "/api/applications/approve/"+id, admin, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("early approve status = %d, want 409", rec.Code)
	}
	if got := decodeError(t, rec); got != "application must be verified before approval" {
		t.Errorf("msg = %q", got)
	}

	rec = s.do(t, http.MethodPut, "/api/applications/verify/"+id, admin, map[string]string{
		"status":           "verified",
		"digitalSignature": "Dr. J. Smith",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d, body %s", rec.Code, rec.Body.String())
	}

	// A second verify hits the status guard.
	rec = s.do(t, http.MethodPut, "/api/applications/verify/"+id, admin, map[string]string{"status": "verified"})
	if rec.Code != http.StatusConflict {
		t.Errorf("second verify status = %d, want 409", rec.Code)
	}

	rec = s.do(t, http.MethodPut, "/api/applications/approve/"+id, admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve status = %d, body %s", rec.Code, rec.Body.String())
	}
	var approved struct {
		Status        string `json:"status"`
		CertificateID string `json:"certificateId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &approved); err != nil {
		t.Fatalf("decode approve: %v", err)
	}
	if approved.Status != "approved" || !strings.HasPrefix(approved.CertificateID, "DBC-") {
		t.Errorf("approve response = %+v", approved)
	}

	// Approved records cannot be rejected.
	rec = s.do(t, http.MethodPut, "/api/applications/reject/"+id, admin, map[string]string{"reviewNotes": "too late"})
	if rec.Code != http.StatusConflict {
		t.Errorf("reject approved status = %d, want 409", rec.Code)
	}
	if got := decodeError(t, rec); got != "approved applications cannot be rejected" {
		t.Errorf("msg = %q", got)
	}
}

func TestRejectEndpointWithoutBody(t *testing.T) {
	s := newTestServer()
	parent := credentialFor(t, "parent-1", domain.RoleParent)
	admin := credentialFor(t, "admin-1", domain.RoleAdmin)

	id := submitApplication(t, s, parent)
	rec := s.do(t, http.MethodPut, "/api/applications/reject/"+id, admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reject status = %d, body %s", rec.Code, rec.Body.String())
	}
	var rejected struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &rejected); err != nil {
		t.Fatalf("decode reject: %v", err)
	}
	if rejected.Status != "rejected" {
		t.Errorf("status = %q, want rejected", rejected.Status)
	}
}

func TestCertificateEndpoints(t *testing.T) {
	s := newTestServer()
	parent := credentialFor(t, "parent-1", domain.RoleParent)
	admin := credentialFor(t, "admin-1", domain.RoleAdmin)

	id := submitApplication(t, s, parent)

	// Not yet approved.
	if rec := s.do(t, http.MethodGet, "/api/certificate/"+id, parent, nil); rec.Code != http.StatusConflict {
		t.Errorf("early download status = %d, want 409", rec.Code)
	}

	s.do(t, http.MethodPut, "/api/applications/verify/"+id, admin, map[string]string{"status": "verified", "digitalSignature": "Dr. J. Smith"})
	rec := s.do(t, http.MethodPut, "/api/applications/approve/"+id, admin, nil)
	var approved struct {
		CertificateID string `json:"certificateId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &approved); err != nil {
		t.Fatalf("decode approve: %v", err)
	}

	rec = s.do(t, http.MethodGet, "/api/certificate/"+id, parent, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("download status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), approved.CertificateID) {
		t.Errorf("disposition = %q", rec.Header().Get("Content-Disposition"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Error("body does not look like a PDF")
	}

	// Other parents cannot download it.
	if rec := s.do(t, http.MethodGet, "/api/certificate/"+id, credentialFor(t, "parent-2", domain.RoleParent), nil); rec.Code != http.StatusForbidden {
		t.Errorf("stranger download status = %d, want 403", rec.Code)
	}

	// The verification lookup is public.
	rec = s.do(t, http.MethodGet, "/api/certificate/verify/"+approved.CertificateID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify lookup status = %d, body %s", rec.Code, rec.Body.String())
	}
	var result struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode verify: %v", err)
	}
	if result.Status != string(domain.VerificationVerified) {
		t.Errorf("verification status = %q, want verified", result.Status)
	}

	if rec := s.do(t, http.MethodGet, "/api/certificate/verify/DBC-0-000", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown certificate status = %d, want 404", rec.Code)
	}
}

func TestAdminEndpoints(t *testing.T) {
	s := newTestServer()
	parent := credentialFor(t, "parent-1", domain.RoleParent)
	admin := credentialFor(t, "admin-1", domain.RoleAdmin)

	submitApplication(t, s, parent)

	rec := s.do(t, http.MethodGet, "/api/admin/stats", admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}
	var stats struct {
		Total int `json:"totalApplications"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Total != 1 {
		t.Errorf("total = %d, want 1", stats.Total)
	}

	rec = s.do(t, http.MethodGet, "/api/admin/reports/csv", admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("csv status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("csv content type = %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "Application ID,") {
		t.Errorf("csv body starts with %q", rec.Body.String()[:min(24, rec.Body.Len())])
	}

	rec = s.do(t, http.MethodGet, "/api/admin/reports/pdf", admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("pdf status = %d", rec.Code)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Error("pdf body does not look like a PDF")
	}

	// All admin surfaces reject parents.
	for _, path := range []string{"/api/admin/stats", "/api/admin/reports/csv", "/api/admin/reports/pdf"} {
		if rec := s.do(t, http.MethodGet, path, parent, nil); rec.Code != http.StatusForbidden {
			t.Errorf("%s as parent status = %d, want 403", path, rec.Code)
		}
	}
}

func TestMalformedJSONBody(t *testing.T) {
	s := newTestServer()
	parent := credentialFor(t, "parent-1", domain.RoleParent)

	req := httptest.NewRequest(http.MethodPost, "/api/applications", strings.NewReader("{not json"))
	req.Header.Set(middleware.CredentialHeader, parent)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if got := decodeError(t, rec); got != "invalid request body" {
		t.Errorf("msg = %q", got)
	}
}
