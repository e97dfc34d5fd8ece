package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"protestwatch/api/internal/auth"
	"protestwatch/api/internal/store"
)

type fakeStore struct {
	opinions  map[string][]store.Opinion
	nextID    int64
	listErr   error
	insertErr error
	pingErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{opinions: map[string][]store.Opinion{}, nextID: 1}
}

func (f *fakeStore) ListOpinions(_ context.Context, eventID string) ([]store.Opinion, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	rows := f.opinions[eventID]
	out := make([]store.Opinion, len(rows))
	copy(out, rows)
	return out, nil
}

func (f *fakeStore) InsertOpinion(_ context.Context, eventID, comment string) (store.Opinion, error) {
	if f.insertErr != nil {
		return store.Opinion{}, f.insertErr
	}
	row := store.Opinion{
		ID:        f.nextID,
		EventID:   eventID,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	}
	f.nextID++
	f.opinions[eventID] = append([]store.Opinion{row}, f.opinions[eventID]...)
	return row, nil
}

func (f *fakeStore) CountOpinions(_ context.Context, eventID string) (int, error) {
	if f.listErr != nil {
		return 0, f.listErr
	}
	return len(f.opinions[eventID]), nil
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func newTestServer(fs *fakeStore) *HTTPServer {
	return NewHTTPServer(NewService(fs), "*")
}

func doRequest(t *testing.T, server *HTTPServer, method, path string, body any) *httptest.ResponseRecorder {
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
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestRootReportsRunning(t *testing.T) {
	rec := doRequest(t, newTestServer(newFakeStore()), http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "API is running" {
		t.Fatalf("status message = %q", body["status"])
	}
}

func TestReadyReflectsDatabase(t *testing.T) {
	fs := newFakeStore()
	server := newTestServer(fs)

	if rec := doRequest(t, server, http.MethodGet, "/api/ready", nil); rec.Code != http.StatusOK {
		t.Fatalf("ready status = %d, want 200", rec.Code)
	}

	fs.pingErr = errors.New("connection refused")
	if rec := doRequest(t, server, http.MethodGet, "/api/ready", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready status with down db = %d, want 503", rec.Code)
	}
}

func TestListOpinionsReturnsStoredOrder(t *testing.T) {
	fs := newFakeStore()
	fs.opinions["5"] = []store.Opinion{
		{ID: 2, EventID: "5", Comment: "newer"},
		{ID: 1, EventID: "5", Comment: "older"},
	}
	rec := doRequest(t, newTestServer(fs), http.MethodGet, "/api/opinions/5", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var rows []store.Opinion
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(rows) != 2 || rows[0].Comment != "newer" || rows[1].Comment != "older" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestListOpinionsUnknownEventIsEmptyArray(t *testing.T) {
	rec := doRequest(t, newTestServer(newFakeStore()), http.MethodGet, "/api/opinions/nope", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("body = %q, want empty array", got)
	}
}

func TestListOpinionsStoreFailure(t *testing.T) {
	fs := newFakeStore()
	fs.listErr = errors.New("relation does not exist")
	rec := doRequest(t, newTestServer(fs), http.MethodGet, "/api/opinions/5", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "Failed to fetch opinions" {
		t.Fatalf("error = %v", body["error"])
	}
	if details, _ := body["details"].(string); !strings.Contains(details, "relation") {
		t.Fatalf("details = %v", body["details"])
	}
}

func TestAddOpinionStoresAndReturnsRow(t *testing.T) {
	fs := newFakeStore()
	rec := doRequest(t, newTestServer(fs), http.MethodPost, "/api/opinions", map[string]string{
		"event_id": "5",
		"comment":  "Stay peaceful out there",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var row store.Opinion
	if err := json.Unmarshal(rec.Body.Bytes(), &row); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if row.ID == 0 || row.EventID != "5" || row.Comment != "Stay peaceful out there" {
		t.Fatalf("unexpected row: %+v", row)
	}
	if row.CreatedAt.IsZero() {
		t.Fatal("created_at not set")
	}
	if len(fs.opinions["5"]) != 1 {
		t.Fatalf("stored %d rows, want 1", len(fs.opinions["5"]))
	}
}

func TestAddOpinionValidatesRequiredFields(t *testing.T) {
	cases := []struct {
		name string
		body map[string]string
	}{
		{"missing comment", map[string]string{"event_id": "5"}},
		{"missing event_id", map[string]string{"comment": "hello"}},
		{"blank comment", map[string]string{"event_id": "5", "comment": "   "}},
		{"empty body", map[string]string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fs := newFakeStore()
			rec := doRequest(t, newTestServer(fs), http.MethodPost, "/api/opinions", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["error"] != "event_id and comment are required" {
				t.Fatalf("error = %v", body["error"])
			}
			if len(fs.opinions) != 0 {
				t.Fatal("invalid opinion reached the store")
			}
		})
	}
}

func TestAddOpinionStoreFailure(t *testing.T) {
	fs := newFakeStore()
	fs.insertErr = errors.New("deadlock detected")
	rec := doRequest(t, newTestServer(fs), http.MethodPost, "/api/opinions", map[string]string{
		"event_id": "5",
		"comment":  "hello",
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "Failed to add opinion" {
		t.Fatalf("error = %v", body["error"])
	}
}

func TestAddOpinionStripsMarkup(t *testing.T) {
	fs := newFakeStore()
	rec := doRequest(t, newTestServer(fs), http.MethodPost, "/api/opinions", map[string]string{
		"event_id": "5",
		"comment":  `march was calm <script>alert("x")</script>`,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var row store.Opinion
	if err := json.Unmarshal(rec.Body.Bytes(), &row); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if strings.Contains(row.Comment, "<script>") {
		t.Fatalf("markup survived sanitization: %q", row.Comment)
	}
	if !strings.Contains(row.Comment, "march was calm") {
		t.Fatalf("text content lost: %q", row.Comment)
	}
}

func TestAddOpinionRejectsMarkupOnlyComment(t *testing.T) {
	rec := doRequest(t, newTestServer(newFakeStore()), http.MethodPost, "/api/opinions", map[string]string{
		"event_id": "5",
		"comment":  `<script>alert("x")</script>`,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCountOpinions(t *testing.T) {
	fs := newFakeStore()
	fs.opinions["5"] = []store.Opinion{{ID: 1}, {ID: 2}, {ID: 3}}
	rec := doRequest(t, newTestServer(fs), http.MethodGet, "/api/opinions/5/count", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		EventID string `json:"event_id"`
		Count   int    `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.EventID != "5" || body.Count != 3 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestOptionsPreflight(t *testing.T) {
	rec := doRequest(t, newTestServer(newFakeStore()), http.MethodOptions, "/api/opinions", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Fatalf("CORS origin = %q", origin)
	}
}

func TestMapErrorDefaultsToServerError(t *testing.T) {
	status, code, _, _ := mapError(errors.New("boom"))
	if status != http.StatusInternalServerError || code != "SERVER_ERROR" {
		t.Fatalf("mapError = %d %q, want 500 SERVER_ERROR", status, code)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	rec := doRequest(t, newTestServer(newFakeStore()), http.MethodGet, "/api/protests", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestIdentityGateBlocksAnonymousPosting(t *testing.T) {
	server := newTestServer(newFakeStore()).RequireIdentity("gate-secret")

	rec := doRequest(t, server, http.MethodPost, "/api/opinions", map[string]string{
		"event_id": "5",
		"comment":  "hello",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d, want 401", rec.Code)
	}

	token, err := auth.IssueIdentityToken([]byte("gate-secret"), auth.Claims{Subject: "reporter-1"}, time.Hour)
	if err != nil {
		t.Fatalf("IssueIdentityToken() error = %v", err)
	}
	raw, _ := json.Marshal(map[string]string{"event_id": "5", "comment": "hello"})
	req := httptest.NewRequest(http.MethodPost, "/api/opinions", bytes.NewReader(raw))
	req.Header.Set("Authorization", "Bearer "+token)
	out := httptest.NewRecorder()
	server.Handler().ServeHTTP(out, req)
	if out.Code != http.StatusCreated {
		t.Fatalf("status with token = %d, want 201: %s", out.Code, out.Body.String())
	}
}

func TestIdentityGateLeavesReadsOpen(t *testing.T) {
	server := newTestServer(newFakeStore()).RequireIdentity("gate-secret")
	rec := doRequest(t, server, http.MethodGet, "/api/opinions/5", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

type fakeAttachments struct {
	putErr error
	names  []string
}

func (f *fakeAttachments) Put(_ context.Context, name, _ string, _ io.Reader, _ int64) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	f.names = append(f.names, name)
	return "https://files.example/" + name, nil
}

func multipartImage(t *testing.T, field, filename string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	header.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte("png-bytes")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func TestAttachmentUpload(t *testing.T) {
	attach := &fakeAttachments{}
	server := NewHTTPServer(NewService(newFakeStore()).WithAttachments(attach), "*")

	body, contentType := multipartImage(t, "image", "march.png")
	req := httptest.NewRequest(http.MethodPost, "/api/attachments", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var out map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if out["url"] != "https://files.example/march.png" {
		t.Fatalf("url = %q", out["url"])
	}
}

func TestAttachmentUploadUnavailableWithoutStorage(t *testing.T) {
	server := newTestServer(newFakeStore())
	body, contentType := multipartImage(t, "image", "march.png")
	req := httptest.NewRequest(http.MethodPost, "/api/attachments", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
