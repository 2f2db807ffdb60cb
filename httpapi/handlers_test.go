package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/saulfrancisco-ruizacevedo/go-friendgraph"
	"github.com/saulfrancisco-ruizacevedo/go-friendgraph/memstore"
	"github.com/saulfrancisco-ruizacevedo/go-friendgraph/models"
	"github.com/saulfrancisco-ruizacevedo/go-friendgraph/observability"
)

func newTestRouter(t *testing.T, store friendgraph.Store, opts Options) http.Handler {
	t.Helper()
	return NewServer(store, zap.NewNop(), opts).Router()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// seeded returns a router over alice-bob-carol plus an isolated dave.
func seeded(t *testing.T) http.Handler {
	t.Helper()
	h := newTestRouter(t, memstore.New(), Options{})
	for _, name := range []string{"alice", "bob", "carol", "dave"} {
		rec := do(t, h, http.MethodPost, "/users", fmt.Sprintf(`{"name":%q}`, name))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	for _, pair := range [][2]string{{"alice", "bob"}, {"bob", "carol"}} {
		rec := do(t, h, http.MethodPost, "/friendship", fmt.Sprintf(`{"user1":%q,"user2":%q}`, pair[0], pair[1]))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	return h
}

func TestUsers(t *testing.T) {
	h := seeded(t)

	rec := do(t, h, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"alice", "bob", "carol", "dave"}, decodeBody[[]string](t, rec))

	rec = do(t, h, http.MethodPost, "/users", `{"name":"alice"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	errBody := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, typeConflict, errBody.Type)
	assert.NotEmpty(t, errBody.RequestID)

	rec = do(t, h, http.MethodDelete, "/users/bob", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/friends/alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.FriendsResult{Friends: []string{}, FriendsOfFriends: []string{}},
		decodeBody[models.FriendsResult](t, rec))

	rec = do(t, h, http.MethodDelete, "/users/bob", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateUser_BadRequests(t *testing.T) {
	h := newTestRouter(t, memstore.New(), Options{})

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"name":`},
		{"missing name", `{}`},
		{"blank name", `{"name":"   "}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/users", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, typeValidation, decodeBody[ErrorResponse](t, rec).Type)
		})
	}
}

func TestFriendship(t *testing.T) {
	h := seeded(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"repeat is idempotent", `{"user1":"bob","user2":"alice"}`, http.StatusCreated},
		{"self loop", `{"user1":"alice","user2":"alice"}`, http.StatusBadRequest},
		{"unknown user", `{"user1":"alice","user2":"ghost"}`, http.StatusNotFound},
		{"missing user2", `{"user1":"alice"}`, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/friendship", tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}

	rec := do(t, h, http.MethodDelete, "/friendship/bob/alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodGet, "/friends/alice", "")
	assert.Empty(t, decodeBody[models.FriendsResult](t, rec).Friends)

	rec = do(t, h, http.MethodDelete, "/friendship/alice/ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFriends(t *testing.T) {
	h := seeded(t)

	rec := do(t, h, http.MethodGet, "/friends/alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"friends":["bob"],"friendsOfFriends":["carol"]}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/friends/ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGraph(t *testing.T) {
	h := seeded(t)

	rec := do(t, h, http.MethodGet, "/graph", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"nodes": [
			{"id":"alice","label":"alice"},
			{"id":"bob","label":"bob"},
			{"id":"carol","label":"carol"},
			{"id":"dave","label":"dave"}
		],
		"edges": [
			{"source":"alice","target":"bob"},
			{"source":"bob","target":"carol"}
		]
	}`, rec.Body.String())
}

func TestPath(t *testing.T) {
	h := seeded(t)

	tests := []struct {
		name   string
		target string
		code   int
		want   string
	}{
		{"two hops", "/path?from=alice&to=carol", http.StatusOK, `{"path":["alice","bob","carol"],"hops":2}`},
		{"same user", "/path?from=dave&to=dave", http.StatusOK, `{"path":["dave"],"hops":0}`},
		{"disconnected", "/path?from=alice&to=dave", http.StatusOK, `{"path":[],"hops":0}`},
		{"unknown", "/path?from=ghost&to=alice", http.StatusOK, `{"path":[],"hops":0}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tc.target, "")
			require.Equal(t, tc.code, rec.Code)
			assert.JSONEq(t, tc.want, rec.Body.String())
		})
	}

	rec := do(t, h, http.MethodGet, "/path?from=alice", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// brokenStore fails every call with err and reports pingErr from Ping.
type brokenStore struct {
	*memstore.Store
	err     error
	pingErr error
}

func (s brokenStore) ListNodes(context.Context) ([]string, error) { return nil, s.err }
func (s brokenStore) Ping(context.Context) error                  { return s.pingErr }

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		errType string
		message string
	}{
		{"breaker open", fmt.Errorf("%w: circuit breaker is open", friendgraph.ErrStoreUnavailable),
			http.StatusServiceUnavailable, typeUnavailable, "store unavailable: circuit breaker is open"},
		{"internal", errors.New("disk on fire"),
			http.StatusInternalServerError, typeInternal, "internal server error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestRouter(t, brokenStore{Store: memstore.New(), err: tc.err}, Options{})
			rec := do(t, h, http.MethodGet, "/users", "")
			require.Equal(t, tc.code, rec.Code)
			body := decodeBody[ErrorResponse](t, rec)
			assert.Equal(t, tc.errType, body.Type)
			assert.Equal(t, tc.message, body.Message)
		})
	}
}

func TestHealthAndReady(t *testing.T) {
	h := newTestRouter(t, memstore.New(), Options{})
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/ready", "").Code)

	down := newTestRouter(t, brokenStore{Store: memstore.New(), pingErr: errors.New("no route to host")}, Options{})
	rec := do(t, down, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "no route to host", decodeBody[HealthResponse](t, rec).Error)
}

func TestMetricsAndCORS(t *testing.T) {
	collector := observability.NewCollector("friendgraph")
	h := newTestRouter(t, memstore.New(), Options{
		Metrics:     collector,
		CORSOrigins: []string{"http://localhost:3000"},
	})

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	do(t, h, http.MethodGet, "/friends/ghost", "")

	rec = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `friendgraph_http_requests_total{method="GET",route="/users",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), `friendgraph_http_requests_total{method="GET",route="/friends/{name}",status="404"} 1`)
}

func TestPathParams_EscapedNames(t *testing.T) {
	h := newTestRouter(t, memstore.New(), Options{})
	for _, name := range []string{"a%41", "aA", "50%", "a/b", "c"} {
		rec := do(t, h, http.MethodPost, "/users", fmt.Sprintf(`{"name":%q}`, name))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	rec := do(t, h, http.MethodPost, "/friendship", `{"user1":"50%","user2":"a/b"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/friends/50%25", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"a/b"}, decodeBody[models.FriendsResult](t, rec).Friends)

	rec = do(t, h, http.MethodGet, "/friends/a%2Fb", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"50%"}, decodeBody[models.FriendsResult](t, rec).Friends)

	// Only the literal name "a%41" goes; "aA" must survive.
	rec = do(t, h, http.MethodDelete, "/users/a%2541", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodDelete, "/friendship/50%25/a%2Fb", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodDelete, "/users/a%2Fb", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"50%", "aA", "c"}, decodeBody[[]string](t, rec))
}
