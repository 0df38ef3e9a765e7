package handler

import (
	"agribot/internal/core/domain"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockChat struct {
	resp domain.ChatResponse
	err  error
	req  domain.ChatRequest
	hits int
}

func (m *mockChat) Respond(_ context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	m.req = req
	m.hits++
	return m.resp, m.err
}

type mockStats struct{ stats domain.Stats }

func (m *mockStats) Respond(_ context.Context) domain.Stats { return m.stats }

type mockClear struct{ hits int }

func (m *mockClear) Respond(_ context.Context) int {
	m.hits++
	return 3
}

type mockModels struct{}

func (m *mockModels) Respond(_ context.Context) []domain.ModelStatus {
	return []domain.ModelStatus{{Identifier: "google/gemini-flash-1.5", State: "closed"}}
}

type observed struct {
	route string
	code  int
}

type mockObserver struct {
	requests []observed
	cost     float64
}

func (m *mockObserver) ObserveRequest(route string, code int, _ time.Duration) {
	m.requests = append(m.requests, observed{route: route, code: code})
}

func (m *mockObserver) AddCost(cost float64) {
	m.cost += cost
}

var origins = []string{"http://localhost:5173", "https://agribot-ai.vercel.app"}

func newTestRouter(chat *mockChat, obs *mockObserver) (http.Handler, *mockClear) {
	clear := &mockClear{}
	h := NewHTTP(HTTPParams{
		Chat:    chat,
		Stats:   &mockStats{stats: domain.Stats{TotalCostUSD: "$0.000150", SessionMessages: 2}},
		Clear:   clear,
		Models:  &mockModels{},
		Metrics: obs,
		Expose: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}),
	})

	return h.Router(origins), clear
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func TestHandleChat(t *testing.T) {
	cost := 0.00015
	testCases := []struct {
		name       string
		body       string
		chat       *mockChat
		wantStatus int
		wantBody   string
		wantHits   int
	}{
		{
			name:       "success",
			body:       `{"query":"yellow leaves","language":"Hindi"}`,
			chat:       &mockChat{resp: domain.ChatResponse{Reply: "nitrogen deficiency", Cost: &cost}},
			wantStatus: http.StatusOK,
			wantBody:   `{"reply":"nitrogen deficiency","error":false,"cost":0.00015}`,
			wantHits:   1,
		},
		{
			name:       "empty query",
			body:       `{"query":"   "}`,
			chat:       &mockChat{err: domain.ErrEmptyInput},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":{"code":"empty_query","message":"Empty query"}}`,
			wantHits:   1,
		},
		{
			name:       "malformed json",
			body:       `{"query":`,
			chat:       &mockChat{},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":{"code":"invalid_request","message":"Invalid JSON body"}}`,
			wantHits:   0,
		},
		{
			name: "config error is a normal reply",
			body: `{"query":"hi"}`,
			chat: &mockChat{resp: domain.ChatResponse{
				Reply: domain.MissingKeyReply, Error: true, ErrorType: domain.ConfigError}},
			wantStatus: http.StatusOK,
			wantBody:   `{"reply":"API Key missing","error":true,"error_type":"config_error"}`,
			wantHits:   1,
		},
		{
			name:       "unexpected error",
			body:       `{"query":"hi"}`,
			chat:       &mockChat{err: errors.New("boom")},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":{"code":"internal_error","message":"Internal server error"}}`,
			wantHits:   1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router, _ := newTestRouter(tc.chat, &mockObserver{})

			rec := doRequest(t, router, http.MethodPost, "/api/chat", tc.body)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.JSONEq(t, tc.wantBody, rec.Body.String())
			assert.Equal(t, tc.wantHits, tc.chat.hits)
		})
	}
}

func TestHandleChatPassesRequest(t *testing.T) {
	chat := &mockChat{}
	router, _ := newTestRouter(chat, &mockObserver{})

	rec := doRequest(t, router, http.MethodPost, "/api/chat",
		`{"query":"","image_url":"data:image/png;base64,AAAA","language":"Tamil"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.ChatRequest{ImageURL: "data:image/png;base64,AAAA", Language: "Tamil"}, chat.req)
}

func TestHandleStats(t *testing.T) {
	router, _ := newTestRouter(&mockChat{}, &mockObserver{})

	rec := doRequest(t, router, http.MethodGet, "/api/stats", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total_cost_usd":"$0.000150","session_messages":2}`, rec.Body.String())
}

func TestHandleClearHistory(t *testing.T) {
	router, clear := newTestRouter(&mockChat{}, &mockObserver{})

	rec := doRequest(t, router, http.MethodPost, "/api/clear-history", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"cleared"}`, rec.Body.String())
	assert.Equal(t, 1, clear.hits)
}

func TestHandleModels(t *testing.T) {
	router, _ := newTestRouter(&mockChat{}, &mockObserver{})

	rec := doRequest(t, router, http.MethodGet, "/api/models", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"models":[{"identifier":"google/gemini-flash-1.5","state":"closed"}]}`,
		rec.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	router, _ := newTestRouter(&mockChat{}, &mockObserver{})

	rec := doRequest(t, router, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = doRequest(t, router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# metrics", rec.Body.String())
}

func TestWrongMethod(t *testing.T) {
	router, _ := newTestRouter(&mockChat{}, &mockObserver{})

	rec := doRequest(t, router, http.MethodGet, "/api/chat", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestInstrumentation(t *testing.T) {
	cost := 0.0002
	obs := &mockObserver{}
	router, _ := newTestRouter(&mockChat{resp: domain.ChatResponse{Reply: "ok", Cost: &cost}}, obs)

	doRequest(t, router, http.MethodPost, "/api/chat", `{"query":"hi"}`)
	doRequest(t, router, http.MethodPost, "/api/chat", `{"query":`)

	assert.Equal(t, []observed{
		{route: "/api/chat", code: http.StatusOK},
		{route: "/api/chat", code: http.StatusBadRequest},
	}, obs.requests)
	assert.InDelta(t, 0.0002, obs.cost, 1e-12)
}

func TestRequestID(t *testing.T) {
	router, _ := newTestRouter(&mockChat{}, &mockObserver{})

	rec := doRequest(t, router, http.MethodGet, "/healthz", "")
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "client-supplied")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "client-supplied", rec.Header().Get(requestIDHeader))
}

func TestCORS(t *testing.T) {
	router, _ := newTestRouter(&mockChat{}, &mockObserver{})

	testCases := []struct {
		name   string
		origin string
		want   string
	}{
		{name: "local dev origin", origin: "http://localhost:5173", want: "http://localhost:5173"},
		{name: "deployed origin", origin: "https://agribot-ai.vercel.app", want: "https://agribot-ai.vercel.app"},
		{name: "unknown origin", origin: "https://evil.example", want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
			req.Header.Set("Origin", tc.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestChatResponseEncoding(t *testing.T) {
	zero := 0.0
	b, err := json.Marshal(domain.ChatResponse{
		Reply: domain.OverloadedReply, Error: true, ErrorType: domain.APIError, Cost: &zero})
	require.NoError(t, err)

	assert.JSONEq(t, `{"reply":"Server overloaded. Try again.","error":true,"error_type":"api_error","cost":0}`,
		string(b))
}

func TestUnmatchedRequestsAreTaggedAndCounted(t *testing.T) {
	testCases := []struct {
		name     string
		method   string
		path     string
		wantCode int
	}{
		{name: "unknown path", method: http.MethodGet, path: "/api/unknown", wantCode: http.StatusNotFound},
		{name: "unknown root path", method: http.MethodGet, path: "/nope", wantCode: http.StatusNotFound},
		{name: "wrong method", method: http.MethodGet, path: "/api/chat", wantCode: http.StatusMethodNotAllowed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			obs := &mockObserver{}
			router, _ := newTestRouter(&mockChat{}, obs)

			rec := doRequest(t, router, tc.method, tc.path, "")

			assert.Equal(t, tc.wantCode, rec.Code)
			assert.Len(t, rec.Header().Get(requestIDHeader), 36)
			assert.Equal(t, []observed{{route: unmatchedRoute, code: tc.wantCode}}, obs.requests)
		})
	}
}

func TestHandleChatBodyLimit(t *testing.T) {
	testCases := []struct {
		name       string
		limit      int64
		body       string
		wantStatus int
		wantHits   int
	}{
		{
			name:       "oversized body",
			limit:      64,
			body:       `{"query":"hi","image_url":"data:image/png;base64,` + strings.Repeat("A", 256) + `"}`,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantHits:   0,
		},
		{
			name:       "body within limit",
			limit:      64,
			body:       `{"query":"hi"}`,
			wantStatus: http.StatusOK,
			wantHits:   1,
		},
		{
			name:       "default limit accepts a large image",
			limit:      0,
			body:       `{"query":"hi","image_url":"data:image/png;base64,` + strings.Repeat("A", 1<<20) + `"}`,
			wantStatus: http.StatusOK,
			wantHits:   1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			chat := &mockChat{resp: domain.ChatResponse{Reply: "ok"}}
			router := NewHTTP(HTTPParams{
				Chat:         chat,
				Stats:        &mockStats{},
				Clear:        &mockClear{},
				Models:       &mockModels{},
				MaxBodyBytes: tc.limit,
			}).Router(origins)

			rec := doRequest(t, router, http.MethodPost, "/api/chat", tc.body)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantHits, chat.hits)
			if tc.wantStatus == http.StatusRequestEntityTooLarge {
				assert.JSONEq(t, `{"error":{"code":"body_too_large","message":"Request body too large"}}`,
					rec.Body.String())
			}
		})
	}
}
