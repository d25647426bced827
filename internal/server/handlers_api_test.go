package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/THE3-EDU/web-the3meetup/internal/broadcast"
	"github.com/THE3-EDU/web-the3meetup/internal/config"
	"github.com/THE3-EDU/web-the3meetup/internal/domain"
	"github.com/THE3-EDU/web-the3meetup/internal/intake"
	"github.com/THE3-EDU/web-the3meetup/internal/moderation"
	"github.com/THE3-EDU/web-the3meetup/internal/registry"
	"github.com/THE3-EDU/web-the3meetup/internal/ws"
)

type memStore struct {
	mu     sync.Mutex
	nextID int64
	subs   map[int64]*domain.Submission
}

func newMemStore() *memStore {
	return &memStore{nextID: 1, subs: make(map[int64]*domain.Submission)}
}

func (m *memStore) Insert(_ context.Context, imageName *string, textContent string) (*domain.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := &domain.Submission{
		ID:          m.nextID,
		ImageName:   imageName,
		TextContent: textContent,
		Status:      domain.StatusPending,
		CreatedAt:   time.Now(),
	}
	m.subs[sub.ID] = sub
	m.nextID++
	copied := *sub
	return &copied, nil
}

func (m *memStore) GetByID(_ context.Context, id int64) (*domain.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[id]
	if !ok {
		return nil, domain.ErrSubmissionNotFound
	}
	copied := *sub
	return &copied, nil
}

func (m *memStore) ListByStatus(_ context.Context, status domain.Status) ([]domain.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Submission{}
	for _, sub := range m.subs {
		if sub.Status == status {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (m *memStore) ListAll(_ context.Context) ([]domain.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Submission{}
	for _, sub := range m.subs {
		out = append(out, *sub)
	}
	return out, nil
}

func (m *memStore) SetReviewed(_ context.Context, id int64, status domain.Status, comment *string) (*domain.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[id]
	if !ok {
		return nil, domain.ErrSubmissionNotFound
	}
	if sub.Status != domain.StatusPending {
		return nil, domain.ErrAlreadyReviewed
	}
	now := time.Now()
	sub.Status = status
	sub.ReviewedAt = &now
	sub.ReviewComment = comment
	copied := *sub
	return &copied, nil
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[id]; !ok {
		return domain.ErrSubmissionNotFound
	}
	delete(m.subs, id)
	return nil
}

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(context.Context) error { return f.err }

func newTestServer(t *testing.T) (*Server, *memStore) {
	t.Helper()
	return newTestServerWithDB(t, &fakePinger{})
}

func newTestServerWithDB(t *testing.T, db postgresHealthChecker) (*Server, *memStore) {
	t.Helper()

	cfg := &config.Config{
		AppEnv:              "test",
		Port:                "0",
		LivenessInterval:    30 * time.Second,
		UploadRatePerSecond: 1000,
		UploadRateBurst:     1000,
	}

	clock := clockwork.NewRealClock()
	reg := registry.New(clock)
	router := broadcast.NewRouter(reg)
	store := newMemStore()
	moderationSvc := moderation.NewService(store, router)
	intakeSvc := intake.NewService(nil, store, moderationSvc, clock)
	gateway := ws.NewGateway(reg, intakeSvc, moderationSvc, clock)

	return NewServer(cfg, reg, intakeSvc, moderationSvc, gateway, db), store
}

func doRequest(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandleUpload(t *testing.T) {
	srv, store := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/api/upload", `{"textContent": "hello"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]any)
	assert.Equal(t, "hello", data["textContent"])
	assert.Equal(t, "pending", data["status"])

	subs, err := store.ListByStatus(context.Background(), domain.StatusPending)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestHandleUpload_ValidationErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty text", `{"textContent": "   "}`, "text content must not be empty"},
		{"too long", `{"textContent": "this text is too long"}`, "text content must not exceed 10 characters"},
		{"bad image type", `{"textContent": "ok", "image": {"data": "aGk=", "type": "text/plain", "name": "x.txt"}}`, "please upload a valid image file"},
		{"malformed body", `{not json`, "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(srv, http.MethodPost, "/api/upload", tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, tt.want, body["error"])
			assert.Equal(t, "validation", body["type"])
		})
	}
}

func TestHandleUpload_ImageWithoutObjectStoreIs502(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/api/upload",
		`{"textContent": "ok", "image": {"data": "aGk=", "type": "image/png", "name": "x.png"}}`)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "external", body["type"])
}

func TestHandleReview(t *testing.T) {
	srv, store := newTestServer(t)
	sub, err := store.Insert(context.Background(), nil, "hello")
	require.NoError(t, err)

	rec := doRequest(srv, http.MethodPost, "/api/review/1", `{"status": "approved"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "approved", body["data"].(map[string]any)["status"])

	got, err := store.GetByID(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, got.Status)
}

func TestHandleReview_WithComment(t *testing.T) {
	srv, store := newTestServer(t)
	sub, err := store.Insert(context.Background(), nil, "hello")
	require.NoError(t, err)

	rec := doRequest(srv, http.MethodPost, "/api/review/1", `{"status": "rejected", "comment": "off topic"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	got, err := store.GetByID(context.Background(), sub.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReviewComment)
	assert.Equal(t, "off topic", *got.ReviewComment)
}

func TestHandleReview_Errors(t *testing.T) {
	srv, store := newTestServer(t)
	_, err := store.Insert(context.Background(), nil, "hello")
	require.NoError(t, err)

	rec := doRequest(srv, http.MethodPost, "/api/review/1", `{"status": "maybe"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(srv, http.MethodPost, "/api/review/999", `{"status": "approved"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(srv, http.MethodPost, "/api/review/abc", `{"status": "approved"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// First review wins, second conflicts.
	rec = doRequest(srv, http.MethodPost, "/api/review/1", `{"status": "approved"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(srv, http.MethodPost, "/api/review/1", `{"status": "rejected"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "conflict", body["type"])
}

func TestHandleDelete(t *testing.T) {
	srv, store := newTestServer(t)
	sub, err := store.Insert(context.Background(), nil, "hello")
	require.NoError(t, err)

	rec := doRequest(srv, http.MethodDelete, "/api/uploads/delete/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	_, err = store.GetByID(context.Background(), sub.ID)
	assert.ErrorIs(t, err, domain.ErrSubmissionNotFound)

	rec = doRequest(srv, http.MethodDelete, "/api/uploads/delete/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListEndpoints(t *testing.T) {
	srv, store := newTestServer(t)

	approved, err := store.Insert(context.Background(), nil, "approved")
	require.NoError(t, err)
	_, err = store.SetReviewed(context.Background(), approved.ID, domain.StatusApproved, nil)
	require.NoError(t, err)
	_, err = store.Insert(context.Background(), nil, "pending")
	require.NoError(t, err)

	rec := doRequest(srv, http.MethodGet, "/api/uploads", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Len(t, body["data"].([]any), 1)
	first := body["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "approved", first["text_content"])

	rec = doRequest(srv, http.MethodGet, "/api/pending", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	require.Len(t, body["data"].([]any), 1)
	assert.Equal(t, "pending", body["data"].([]any)[0].(map[string]any)["text_content"])

	rec = doRequest(srv, http.MethodGet, "/api/uploads/all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Len(t, body["data"].([]any), 2)
}

func TestHandleStatus(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/status", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(0), body["totalClients"])
	assert.Equal(t, float64(0), body["installationClients"])
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(srv, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(srv, http.MethodGet, "/version", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(srv, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleReadiness_DatabaseDown(t *testing.T) {
	srv, _ := newTestServerWithDB(t, &fakePinger{err: errors.New("connection refused")})

	rec := doRequest(srv, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
