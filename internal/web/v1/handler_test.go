package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparknet/session-service/internal/core/domain"
	logicv1 "github.com/sparknet/session-service/internal/logic/v1"
)

const tokenHeader = "X-Session-Token"

// stubStore is an in-memory domain.SessionStore good enough for
// handler tests: one well-known token with a fixed owner, payload and
// optional credential tag.
type stubStore struct {
	validToken string
	owner      string
	credTag    *string
	payload    map[string]string

	savedPayload map[string]string
	destroyedID  string
}

func newStubStore() *stubStore {
	return &stubStore{
		validToken: "feedfacefeedfacefeedfacefeedface",
		owner:      "alice",
		payload:    map[string]string{"theme": "dark"},
	}
}

func (s *stubStore) InitSchema(ctx context.Context) error { return nil }

func (s *stubStore) Create(ctx context.Context, uid string, cred *string, device, app, ip string, timeoutMinutes int) (string, error) {
	return "0123456789abcdef0123456789abcdef", nil
}

func (s *stubStore) Validate(ctx context.Context, id string, cred *string, device, app, ip string) (bool, error) {
	if id != s.validToken {
		return false, nil
	}
	if s.credTag == nil || cred == nil {
		return s.credTag == nil && cred == nil, nil
	}
	return *s.credTag == *cred, nil
}

func (s *stubStore) LoadPayload(ctx context.Context, id string) (map[string]string, error) {
	if id != s.validToken {
		return map[string]string{}, nil
	}
	copied := make(map[string]string, len(s.payload))
	for k, v := range s.payload {
		copied[k] = v
	}
	return copied, nil
}

func (s *stubStore) SavePayload(ctx context.Context, id string, data map[string]string) error {
	s.savedPayload = data
	return nil
}

func (s *stubStore) Destroy(ctx context.Context, id string) error {
	s.destroyedID = id
	return nil
}

func (s *stubStore) SweepExpired(ctx context.Context) (int64, error) { return 0, nil }

func (s *stubStore) GetOwner(ctx context.Context, id string) (*string, error) {
	if id == s.validToken {
		return &s.owner, nil
	}
	return nil, nil
}

func (s *stubStore) GetCred(ctx context.Context, id string) (*string, error) {
	return nil, nil
}

func (s *stubStore) ListActive(ctx context.Context, uid string, cred *string) ([]domain.SessionSummary, error) {
	if uid != s.owner {
		return nil, nil
	}
	return []domain.SessionSummary{{ID: s.validToken, Device: "laptop"}}, nil
}

func newTestRouter(store *stubStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	sessions := logicv1.NewSessionService(store, 30)
	NewHandler(sessions, tokenHeader).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doRequest(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set(tokenHeader, token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateSession(t *testing.T) {
	store := newStubStore()
	r := newTestRouter(store)

	w := doRequest(r, http.MethodPost, "/api/v1/sessions", "", gin.H{
		"uid":             "alice",
		"timeout_minutes": 30,
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp["id"], 32)
}

func TestCreateSessionRequiresUID(t *testing.T) {
	r := newTestRouter(newStubStore())

	w := doRequest(r, http.MethodPost, "/api/v1/sessions", "", gin.H{
		"timeout_minutes": 30,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateSession(t *testing.T) {
	store := newStubStore()
	r := newTestRouter(store)

	w := doRequest(r, http.MethodPost, "/api/v1/sessions/validate", store.validToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodPost, "/api/v1/sessions/validate", "wrong-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// No token at all is the same normal "not authenticated" answer.
	w = doRequest(r, http.MethodPost, "/api/v1/sessions/validate", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestValidateSessionWithCredHeader(t *testing.T) {
	tag := "v1"
	store := newStubStore()
	store.credTag = &tag
	r := newTestRouter(store)

	validate := func(credValue *string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/validate", bytes.NewReader(nil))
		req.Header.Set(tokenHeader, store.validToken)
		if credValue != nil {
			req.Header.Set(CredHeader, *credValue)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	good := "v1"
	wrong := "v2"
	assert.Equal(t, http.StatusOK, validate(&good))
	assert.Equal(t, http.StatusUnauthorized, validate(&wrong))

	// Omitting the header means no credential dimension, which a
	// tagged session must reject.
	assert.Equal(t, http.StatusUnauthorized, validate(nil))
}

func TestGetValue(t *testing.T) {
	store := newStubStore()
	r := newTestRouter(store)

	w := doRequest(r, http.MethodGet, "/api/v1/sessions/data/theme", store.validToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "dark", resp["value"])

	w = doRequest(r, http.MethodGet, "/api/v1/sessions/data/missing", store.validToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(r, http.MethodGet, "/api/v1/sessions/data/theme", "bad-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSetValuePersists(t *testing.T) {
	store := newStubStore()
	r := newTestRouter(store)

	w := doRequest(r, http.MethodPut, "/api/v1/sessions/data/lang", store.validToken, gin.H{
		"value": "de",
	})
	require.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, map[string]string{"theme": "dark", "lang": "de"}, store.savedPayload)
}

func TestRemoveValuePersists(t *testing.T) {
	store := newStubStore()
	r := newTestRouter(store)

	w := doRequest(r, http.MethodDelete, "/api/v1/sessions/data/theme", store.validToken, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, map[string]string{}, store.savedPayload)
}

func TestOwnerLookup(t *testing.T) {
	store := newStubStore()
	r := newTestRouter(store)

	w := doRequest(r, http.MethodGet, "/api/v1/sessions/owner", store.validToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp["uid"])

	w = doRequest(r, http.MethodGet, "/api/v1/sessions/owner", "unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListSessions(t *testing.T) {
	store := newStubStore()
	r := newTestRouter(store)

	w := doRequest(r, http.MethodGet, "/api/v1/sessions?uid=alice", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Sessions []domain.SessionSummary `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Sessions, 1)
	assert.Equal(t, "laptop", resp.Sessions[0].Device)

	w = doRequest(r, http.MethodGet, "/api/v1/sessions", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDestroySession(t *testing.T) {
	store := newStubStore()
	r := newTestRouter(store)

	w := doRequest(r, http.MethodDelete, "/api/v1/sessions", store.validToken, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, store.validToken, store.destroyedID)
}
