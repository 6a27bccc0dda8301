package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/campuslf/lostfound/internal/backend/fake"
	"github.com/campuslf/lostfound/internal/models"
)

type testEnv struct {
	router  *mux.Router
	auth    *fake.Auth
	reports *fake.Reports
	blobs   *fake.Blobs
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	auth := fake.NewAuth()
	reports := fake.NewReports()
	blobs := fake.NewBlobs()
	h := NewHandler(auth, reports, blobs, nil, nil)

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/signup", h.SignUpHandler).Methods("POST")
	api.HandleFunc("/auth/login", h.SignInHandler).Methods("POST")
	api.HandleFunc("/auth/session", h.SessionHandler).Methods("GET")
	api.HandleFunc("/auth/logout", h.SignOutHandler).Methods("POST")
	api.HandleFunc("/reports", h.ListReportsHandler).Methods("GET")
	api.HandleFunc("/reports/{id}", h.GetReportHandler).Methods("GET")
	api.HandleFunc("/categories", h.CategoriesHandler).Methods("GET")

	gate := RequireSession(auth)
	api.Handle("/reports", gate(http.HandlerFunc(h.CreateReportHandler))).Methods("POST")
	api.Handle("/reports/{id}", gate(http.HandlerFunc(h.DeleteReportHandler))).Methods("DELETE")

	return &testEnv{router: r, auth: auth, reports: reports, blobs: blobs}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) signUp(t *testing.T, email string) string {
	t.Helper()

	w := e.do(t, "POST", "/api/auth/signup", "", map[string]string{
		"email":     email,
		"password":  "hunter2",
		"full_name": "Test User",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Session struct {
			Token string `json:"token"`
		} `json:"session"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding signup response: %v", err)
	}
	return resp.Session.Token
}

func reportBody() map[string]string {
	return map[string]string{
		"title":        "Blue Backpack",
		"description":  "Navy blue backpack with two zippers",
		"category":     "Bags",
		"location":     "Library",
		"date":         "2024-04-01",
		"time":         "09:15",
		"contact_info": "a@b.com",
		"status":       "lost",
	}
}

func TestSubmissionRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "POST", "/api/reports", "", reportBody())
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if env.reports.Len() != 0 {
		t.Error("unauthenticated submission must perform zero store writes")
	}
}

func TestReportLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "u@campus.edu")

	// Submit.
	w := env.do(t, "POST", "/api/reports", token, reportBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created struct {
		Report  models.ItemReport `json:"report"`
		Message string            `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding create response: %v", err)
	}
	if created.Message != "Item Lost Report Submitted" {
		t.Errorf("confirmation must echo the status, got %q", created.Message)
	}

	// List the lost partition.
	w = env.do(t, "GET", "/api/reports?status=lost", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	var listed struct {
		Items []models.ItemReport `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decoding list response: %v", err)
	}
	if len(listed.Items) != 1 || listed.Items[0].ID != created.Report.ID {
		t.Fatalf("expected the submitted report in the lost partition, got %v", listed.Items)
	}

	// The found partition stays empty.
	w = env.do(t, "GET", "/api/reports?status=found", "", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decoding list response: %v", err)
	}
	if len(listed.Items) != 0 {
		t.Errorf("found partition must not contain lost reports: %v", listed.Items)
	}

	// Detail.
	w = env.do(t, "GET", "/api/reports/"+created.Report.ID, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("detail: expected 200, got %d", w.Code)
	}

	// Delete, then the detail is gone.
	w = env.do(t, "DELETE", "/api/reports/"+created.Report.ID, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = env.do(t, "GET", "/api/reports/"+created.Report.ID, "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("detail after delete: expected 404, got %d", w.Code)
	}
}

func TestMultipartSubmissionWithImage(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "u@campus.edu")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, value := range reportBody() {
		mw.WriteField(key, value)
	}
	part, err := mw.CreateFormFile("image", "backpack.jpg")
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	fmt.Fprint(part, "fake image data")
	mw.Close()

	req := httptest.NewRequest("POST", "/api/reports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created struct {
		Report models.ItemReport `json:"report"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !strings.HasPrefix(created.Report.ImageURL, env.blobs.BaseURL+"/") {
		t.Errorf("expected a blob store URL, got %q", created.Report.ImageURL)
	}
	if !strings.HasSuffix(created.Report.ImageURL, ".jpg") {
		t.Errorf("expected the extension preserved, got %q", created.Report.ImageURL)
	}
}

func TestMultipartRejectsNonImage(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "u@campus.edu")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, value := range reportBody() {
		mw.WriteField(key, value)
	}
	part, _ := mw.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="image"; filename="notes.txt"`},
		"Content-Type":        {"text/plain"},
	})
	fmt.Fprint(part, "not an image")
	mw.Close()

	req := httptest.NewRequest("POST", "/api/reports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-image upload, got %d", w.Code)
	}
	if env.reports.Len() != 0 {
		t.Error("rejected upload must not persist a report")
	}
}

func TestListRejectsInvalidStatus(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/api/reports?status=banana", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestListEmptyStates(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "u@campus.edu")

	w := env.do(t, "GET", "/api/reports?status=lost", "", nil)
	var resp struct {
		EmptyReason  string `json:"empty_reason"`
		EmptyMessage string `json:"empty_message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.EmptyReason != "empty" {
		t.Errorf("expected reason 'empty', got %q", resp.EmptyReason)
	}

	env.do(t, "POST", "/api/reports", token, reportBody())

	w = env.do(t, "GET", "/api/reports?status=lost&search=zzz", "", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.EmptyReason != "filtered" {
		t.Errorf("expected reason 'filtered', got %q", resp.EmptyReason)
	}
}

func TestSessionEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/api/auth/session", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Session *struct {
			Email string `json:"email"`
		} `json:"session"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Session != nil {
		t.Errorf("expected null session without a token, got %+v", resp.Session)
	}

	token := env.signUp(t, "u@campus.edu")
	w = env.do(t, "GET", "/api/auth/session", token, nil)
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Session == nil || resp.Session.Email != "u@campus.edu" {
		t.Errorf("expected session for u@campus.edu, got %+v", resp.Session)
	}

	// After logout the token no longer resolves.
	if w := env.do(t, "POST", "/api/auth/logout", token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", w.Code)
	}
	w = env.do(t, "GET", "/api/auth/session", token, nil)
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Session != nil {
		t.Errorf("expected null session after logout, got %+v", resp.Session)
	}
}

func TestDetailUnknownID(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/api/reports/no-such-id", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestDeleteTwice(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "u@campus.edu")

	w := env.do(t, "POST", "/api/reports", token, reportBody())
	var created struct {
		Report models.ItemReport `json:"report"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding response: %v", err)
	}

	if w := env.do(t, "DELETE", "/api/reports/"+created.Report.ID, token, nil); w.Code != http.StatusOK {
		t.Fatalf("first delete: expected 200, got %d", w.Code)
	}
	if w := env.do(t, "DELETE", "/api/reports/"+created.Report.ID, token, nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", w.Code)
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/api/categories", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Categories       []string `json:"categories"`
		FilterCategories []string `json:"filter_categories"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.FilterCategories) != len(resp.Categories)+1 {
		t.Error("filter categories must prepend the All Categories sentinel")
	}
	if resp.FilterCategories[0] != models.AllCategories {
		t.Errorf("expected %q first, got %q", models.AllCategories, resp.FilterCategories[0])
	}
}
