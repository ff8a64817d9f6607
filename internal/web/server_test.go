package web

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/postimport/internal/config"
	"github.com/JonMunkholm/postimport/internal/core"
	"github.com/google/uuid"
)

const testKey = "test-key"

var (
	testActor  = uuid.MustParse("00000000-0000-0000-0000-00000000d001")
	testTenant = uuid.MustParse("00000000-0000-0000-0000-00000000e001")
)

// memStore is an in-memory core.Store.
type memStore struct {
	mu        sync.Mutex
	lookupErr error
	inserted  []core.CandidateRecord
}

func (m *memStore) LoadLookups(context.Context, uuid.UUID) (core.LookupData, error) {
	if m.lookupErr != nil {
		return core.LookupData{}, m.lookupErr
	}
	return core.LookupData{
		Clients:  []core.Client{{ID: uuid.New(), Name: "Acme"}},
		Channels: []core.Channel{{ID: uuid.New(), Name: "Instagram", Key: "instagram"}},
	}, nil
}

func (m *memStore) InsertPost(_ context.Context, rec core.CandidateRecord) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserted = append(m.inserted, rec)
	return uuid.New(), nil
}

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Database.URL = "postgres://localhost/test"
	cfg.Security.APIKeys = []string{testKey + ":" + testActor.String()}
	cfg.Rate.Enabled = false
	return cfg
}

func newTestServer(t *testing.T, store core.Store, cfg *config.Config) *Server {
	t.Helper()
	svc, err := core.NewService(store, core.Options{MaxWait: time.Second, MaxFileSize: cfg.Import.MaxFileSize})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	s := NewServer(svc, cfg)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func importBody(t *testing.T, file, tenant string) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(map[string]string{
		"file":     base64.StdEncoding.EncodeToString([]byte(file)),
		"filename": "posts.csv",
		"tenantId": tenant,
	})
	if err != nil {
		t.Fatal(err)
	}
	return bytes.NewReader(body)
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHandleImport(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		tenant      string
		wantStatus  int
		wantSuccess int
		wantFailed  int
		wantCode    string
	}{
		{
			name:        "mixed rows",
			file:        "Cliente,Canal,Data\nAcme,Instagram,03/01/2025\nNope,Instagram,03/01/2025\n",
			tenant:      testTenant.String(),
			wantStatus:  http.StatusOK,
			wantSuccess: 1,
			wantFailed:  1,
		},
		{
			name:       "every row failing is still a report",
			file:       "Cliente\nNope\nNada\n",
			tenant:     testTenant.String(),
			wantStatus: http.StatusOK,
			wantFailed: 2,
		},
		{
			name:       "header only",
			file:       "Cliente,Data\n",
			tenant:     testTenant.String(),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "FILE005",
		},
		{
			name:       "tenant missing",
			file:       "Cliente\nAcme\n",
			tenant:     "",
			wantStatus: http.StatusBadRequest,
			wantCode:   "REQ001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &memStore{}, testConfig())
			req := httptest.NewRequest(http.MethodPost, "/api/imports/", importBody(t, tt.file, tt.tenant))
			req.Header.Set("X-API-Key", testKey)
			rec := do(s, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body)
			}
			if tt.wantCode != "" {
				var resp ErrorResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("decode error response: %v", err)
				}
				if resp.Code != tt.wantCode {
					t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
				}
				return
			}

			var report core.ImportReport
			if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
				t.Fatalf("decode report: %v", err)
			}
			if report.SuccessCount != tt.wantSuccess || report.FailedCount != tt.wantFailed {
				t.Errorf("report = %+v", report)
			}
			if len(report.Errors) != tt.wantFailed {
				t.Errorf("errors = %+v", report.Errors)
			}
		})
	}
}

func TestHandleImport_ReportShape(t *testing.T) {
	s := newTestServer(t, &memStore{}, testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/imports/", importBody(t, "Cliente\nAcme\n", testTenant.String()))
	req.Header.Set("X-API-Key", testKey)
	rec := do(s, req)

	var raw map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"success", "failed", "warnings", "errors"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("response missing %q: %s", key, rec.Body)
		}
	}
	if errs, ok := raw["errors"].([]any); !ok || len(errs) != 0 {
		t.Errorf("errors = %v, want empty array", raw["errors"])
	}
}

func TestHandleImport_BadBase64(t *testing.T) {
	s := newTestServer(t, &memStore{}, testConfig())
	body := `{"file":"%%%","filename":"x.csv","tenantId":"` + testTenant.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/imports/", strings.NewReader(body))
	req.Header.Set("X-API-Key", testKey)
	rec := do(s, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleImport_NoFile(t *testing.T) {
	s := newTestServer(t, &memStore{}, testConfig())
	body := `{"filename":"x.csv","tenantId":"` + testTenant.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/imports/", strings.NewReader(body))
	req.Header.Set("X-API-Key", testKey)
	rec := do(s, req)

	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "FILE004") {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body)
	}
}

func TestHandleImport_LookupsUnavailable(t *testing.T) {
	s := newTestServer(t, &memStore{lookupErr: errors.New("connection refused")}, testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/imports/", importBody(t, "Cliente\nAcme\n", testTenant.String()))
	req.Header.Set("X-API-Key", testKey)
	rec := do(s, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

func TestHandleImport_TooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Import.MaxFileSize = 16
	s := newTestServer(t, &memStore{}, cfg)
	req := httptest.NewRequest(http.MethodPost, "/api/imports/",
		importBody(t, "Cliente\n"+strings.Repeat("Acme\n", 10), testTenant.String()))
	req.Header.Set("X-API-Key", testKey)
	rec := do(s, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestHandleImport_Auth(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		wantStatus int
	}{
		{"missing key", "", http.StatusUnauthorized},
		{"wrong key", "nope", http.StatusUnauthorized},
		{"valid key", testKey, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &memStore{}, testConfig())
			req := httptest.NewRequest(http.MethodPost, "/api/imports/", importBody(t, "Cliente\nAcme\n", testTenant.String()))
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			if rec := do(s, req); rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestHandleImport_ActorRecorded(t *testing.T) {
	store := &memStore{}
	s := newTestServer(t, store, testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/imports/", importBody(t, "Cliente\nAcme\n", testTenant.String()))
	req.Header.Set("X-API-Key", testKey)
	do(s, req)

	if len(store.inserted) != 1 {
		t.Fatalf("inserted = %d, want 1", len(store.inserted))
	}
	got := store.inserted[0]
	if got.CreatedBy != testActor || got.TenantID != testTenant {
		t.Errorf("record = %+v", got)
	}
}

func TestHandleImport_AuthDisabledNeedsActor(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = false
	s := newTestServer(t, &memStore{}, cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/imports/", importBody(t, "Cliente\nAcme\n", testTenant.String()))
	if rec := do(s, req); rec.Code != http.StatusUnauthorized {
		t.Errorf("without actor: status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/imports/", importBody(t, "Cliente\nAcme\n", testTenant.String()))
	req.Header.Set("X-Actor-ID", testActor.String())
	if rec := do(s, req); rec.Code != http.StatusOK {
		t.Errorf("with actor: status = %d, want 200", rec.Code)
	}
}

func TestHandleImport_HTMX(t *testing.T) {
	s := newTestServer(t, &memStore{}, testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/imports/",
		importBody(t, "Cliente\nAcme\n<b>Evil</b>\n", testTenant.String()))
	req.Header.Set("X-API-Key", testKey)
	req.Header.Set("HX-Request", "true")
	rec := do(s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Imported: <strong>1</strong>") {
		t.Errorf("body = %s", body)
	}
	if strings.Contains(body, "<b>Evil</b>") {
		t.Errorf("client name not escaped: %s", body)
	}
}

func TestHandleImport_HTMXError(t *testing.T) {
	s := newTestServer(t, &memStore{}, testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/imports/", importBody(t, "Cliente\n", testTenant.String()))
	req.Header.Set("X-API-Key", testKey)
	req.Header.Set("HX-Request", "true")
	rec := do(s, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `role="alert"`) || !strings.Contains(rec.Body.String(), "FILE005") {
		t.Errorf("body = %s", rec.Body)
	}
}

func multipartRequest(t *testing.T, filename, content, tenant string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if tenant != "" {
		_ = mw.WriteField("tenantId", tenant)
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = part.Write([]byte(content))
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/imports/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-API-Key", testKey)
	return req
}

func TestHandleImportUpload(t *testing.T) {
	store := &memStore{}
	s := newTestServer(t, store, testConfig())
	rec := do(s, multipartRequest(t, "posts.csv", "Client;Channel\nAcme;instagram\n", testTenant.String()))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var report core.ImportReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if report.SuccessCount != 1 || len(store.inserted) != 1 {
		t.Errorf("report = %+v, inserted = %d", report, len(store.inserted))
	}
	if !store.inserted[0].ChannelID.Valid {
		t.Error("channel should resolve by key")
	}
}

func TestHandleImportUpload_Errors(t *testing.T) {
	tests := []struct {
		name       string
		filename   string
		tenant     string
		wantStatus int
	}{
		{"no file", "", testTenant.String(), http.StatusBadRequest},
		{"no tenant", "posts.csv", "", http.StatusBadRequest},
		{"legacy xls", "posts.xls", testTenant.String(), http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &memStore{}, testConfig())
			rec := do(s, multipartRequest(t, tt.filename, "Cliente\nAcme\n", tt.tenant))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body)
			}
		})
	}
}

func TestHandleAliases(t *testing.T) {
	s := newTestServer(t, &memStore{}, testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/aliases", nil)
	req.Header.Set("X-API-Key", testKey)
	rec := do(s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "client: [Cliente, Client]") {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, &memStore{}, testConfig())
	rec := do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, &memStore{}, testConfig())
	rec := do(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrUnauthenticated, http.StatusUnauthorized},
		{core.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{core.ErrInvalidEncoding, http.StatusBadRequest},
		{core.ErrEmptySpreadsheet, http.StatusUnprocessableEntity},
		{core.ErrTooManyImports, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestLogLevelFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		want   slog.Level
	}{
		{"known client error", core.ErrEmptySpreadsheet, http.StatusUnprocessableEntity, slog.LevelWarn},
		{"known server error", core.ErrTooManyImports, http.StatusServiceUnavailable, slog.LevelError},
		{"unknown client error", errors.New("strange header"), http.StatusBadRequest, slog.LevelError},
		{"unknown server error", errors.New("boom"), http.StatusInternalServerError, slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := logLevelFor(tt.err, tt.status); got != tt.want {
				t.Errorf("logLevelFor(%v, %d) = %v, want %v", tt.err, tt.status, got, tt.want)
			}
		})
	}
}
