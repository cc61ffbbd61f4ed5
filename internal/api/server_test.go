package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GALIB-Dev/AI-Extension/internal/analysis"
	"github.com/GALIB-Dev/AI-Extension/internal/cache"
	"github.com/GALIB-Dev/AI-Extension/internal/config"
	"github.com/GALIB-Dev/AI-Extension/internal/orchestrator"
	"github.com/GALIB-Dev/AI-Extension/internal/protocol"
)

// setupTestServer builds a server over the default chain with no remote
// credentials, so every request resolves through the local analyzer.
func setupTestServer(t *testing.T) (*Server, *cache.Manager) {
	t.Helper()

	cfg := &config.Config{
		Port:            "0",
		Version:         "test",
		CacheBaseTTL:    time.Minute,
		ProviderTimeout: time.Second,
		CloudEnabled:    false,
	}

	cacheManager, err := cache.NewManager(t.TempDir(), 10, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = cacheManager.Close()
	})

	orch := orchestrator.NewDefault(cacheManager, cfg, zerolog.Nop())
	return NewServer(cfg, cacheManager, orch, zerolog.Nop()), cacheManager
}

func explainEnvelopeBody(t *testing.T, text, correlationID string) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(protocol.Request{
		Type:          protocol.MsgExplainText,
		Payload:       protocol.ExplainPayload{Text: text},
		CorrelationID: correlationID,
	})
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	server.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.Contains(t, body, "cache")
}

func TestExplainEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	t.Run("valid request resolves through the local analyzer", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/explain",
			explainEnvelopeBody(t, "The Federal Reserve raised interest rates by 0.25%", "corr-42"))
		req.Header.Set("Content-Type", "application/json")
		server.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp protocol.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "corr-42", resp.CorrelationID)
		assert.Empty(t, resp.Error)
		assert.NotEmpty(t, resp.Explanation)
		require.NotNil(t, resp.Analysis)
		assert.Equal(t, analysis.ProviderLocal, resp.Analysis.Source)
		assert.Contains(t, resp.Analysis.Topics, "Interest Rates")
	})

	t.Run("short input is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/explain",
			explainEnvelopeBody(t, "too short", "corr-43"))
		req.Header.Set("Content-Type", "application/json")
		server.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp protocol.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "corr-43", resp.CorrelationID)
		assert.Equal(t, string(analysis.CodeInputTooShort), resp.ErrorCode)
		assert.NotEmpty(t, resp.Error)
	})

	t.Run("malformed envelope", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/explain", strings.NewReader("{not json"))
		req.Header.Set("Content-Type", "application/json")
		server.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unsupported message type", func(t *testing.T) {
		body, err := json.Marshal(protocol.Request{Type: "PING", CorrelationID: "corr-44"})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/explain", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		server.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp protocol.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, string(analysis.CodeTransport), resp.ErrorCode)
	})

	t.Run("missing correlation id gets one assigned", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/explain",
			explainEnvelopeBody(t, "Bond yields climbed sharply this quarter", ""))
		req.Header.Set("Content-Type", "application/json")
		server.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp protocol.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.CorrelationID)
	})
}

func TestProvidersEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/providers", nil)
	server.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Providers []analysis.Descriptor `json:"providers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Providers, 5)

	byID := make(map[analysis.ProviderID]analysis.Descriptor)
	for _, d := range body.Providers {
		byID[d.ID] = d
	}
	assert.True(t, byID[analysis.ProviderLocal].Available)
	assert.False(t, byID[analysis.ProviderAnthropic].Available, "no key configured")
	assert.False(t, byID[analysis.ProviderBuiltIn].Available, "not probed yet")
}

func TestCacheAdminEndpoints(t *testing.T) {
	server, cacheManager := setupTestServer(t)

	seed := &analysis.Result{ExplanationText: "seeded", Source: analysis.ProviderLocal, AnalyzedAt: time.Now()}
	require.NoError(t, cacheManager.Set("seed-key", seed, time.Minute))

	t.Run("stats", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil)
		server.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Stats cache.Stats `json:"stats"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, 1, body.Stats.PersistentSize)
	})

	t.Run("delete key", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/cache/key/seed-key", nil)
		server.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, cacheManager.Get("seed-key"))
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, cacheManager.Set("another", seed, time.Minute))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/cache", nil)
		server.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 0, cacheManager.Stats().PersistentSize)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	server.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestCORSPreflight(t *testing.T) {
	server, _ := setupTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/explain", nil)
	server.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDMiddleware(t *testing.T) {
	server, _ := setupTestServer(t)

	t.Run("propagates the caller's id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "caller-supplied")
		server.router.ServeHTTP(w, req)

		assert.Equal(t, "caller-supplied", w.Header().Get("X-Request-ID"))
	})

	t.Run("generates one when absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		server.router.ServeHTTP(w, req)

		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})
}

func TestWebSocketExplain(t *testing.T) {
	server, _ := setupTestServer(t)

	ts := httptest.NewServer(server.router)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/explain"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer func() {
		_ = conn.Close()
	}()

	t.Run("round trip with correlation", func(t *testing.T) {
		req := protocol.Request{
			Type:          protocol.MsgExplainText,
			Payload:       protocol.ExplainPayload{Text: "Inflation eased while mortgage rates held steady"},
			CorrelationID: "ws-corr-1",
		}
		require.NoError(t, conn.WriteJSON(req))

		var got protocol.Response
		require.NoError(t, conn.ReadJSON(&got))

		assert.Equal(t, "ws-corr-1", got.CorrelationID)
		assert.Empty(t, got.Error)
		require.NotNil(t, got.Analysis)
		assert.Equal(t, analysis.ProviderLocal, got.Analysis.Source)
	})

	t.Run("short input returns an error envelope", func(t *testing.T) {
		req := protocol.Request{
			Type:          protocol.MsgExplainText,
			Payload:       protocol.ExplainPayload{Text: "tiny"},
			CorrelationID: "ws-corr-2",
		}
		require.NoError(t, conn.WriteJSON(req))

		var got protocol.Response
		require.NoError(t, conn.ReadJSON(&got))

		assert.Equal(t, "ws-corr-2", got.CorrelationID)
		assert.Equal(t, string(analysis.CodeInputTooShort), got.ErrorCode)
	})

	t.Run("unsupported type returns an error envelope", func(t *testing.T) {
		req := protocol.Request{Type: "PING", CorrelationID: "ws-corr-3"}
		require.NoError(t, conn.WriteJSON(req))

		var got protocol.Response
		require.NoError(t, conn.ReadJSON(&got))

		assert.Equal(t, "ws-corr-3", got.CorrelationID)
		assert.Equal(t, string(analysis.CodeTransport), got.ErrorCode)
	})
}
