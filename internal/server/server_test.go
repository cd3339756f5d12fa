package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content_integrity/internal/aidetect"
	"content_integrity/internal/db"
	"content_integrity/internal/enhance"
	"content_integrity/internal/integrity"
	"content_integrity/internal/observability"
	"content_integrity/internal/similarity"
)

var humanDraft = strings.Join([]string{
	"I love my garden. Honestly, I'm so happy with how it turned out this year, even after that awful storm in May flattened half of my tomatoes and I nearly gave up on the whole thing.",
	"We ate salad for a week.",
	"My neighbor thinks I'm crazy. She's probably right! But you know what? I don't care, because digging in the dirt after work makes me feel calm and a bit proud, and my kids love picking the strawberries with me on Sunday mornings while the dog runs around barking at bees.",
}, "\n\n")

const copiedDraft = "In today's digital world, it is important to note that artificial intelligence plays a crucial role in modern society. " +
	"Furthermore, it is worth mentioning that machine learning algorithms are becoming increasingly sophisticated. " +
	"Moreover, the landscape of technology continues to evolve at an unprecedented rate."

type testServer struct {
	srv     *Server
	metrics *observability.Metrics
	reg     *prometheus.Registry
}

func newTestServer(t *testing.T, mutate func(*Config)) testServer {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg, "integrity")
	checker := integrity.NewChecker(zerolog.Nop(), metrics, integrity.Options{MinChars: 100, MaxEnhancements: 10})
	cfg := Config{
		MaxBodyBytes: 1 << 20,
		MetricsPath:  "/metrics",
		DBPath:       filepath.Join(t.TempDir(), "integrity.db"),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return testServer{srv: NewServer(cfg, checker, metrics, reg, zerolog.Nop()), metrics: metrics, reg: reg}
}

func (ts testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody[map[string]string](t, rec)["status"])
}

func TestCheckPersistsReport(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/v1/check", map[string]any{"text": humanDraft, "label": "garden.md"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decodeBody[integrity.Report](t, rec)
	assert.True(t, report.Acceptable)
	assert.Equal(t, "garden.md", report.Label)
	assert.Equal(t, aidetect.ClassLikelyHuman, report.AI.Classification)

	rec = ts.do(t, http.MethodGet, "/api/v1/reports", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decodeBody[[]db.ReportRow](t, rec)
	require.Len(t, rows, 1)
	assert.Equal(t, report.ID, rows[0].ID)

	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.HTTPRequests.WithLabelValues("/api/v1/check", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.ChecksTotal.WithLabelValues(integrity.VerdictAcceptable)))
}

func TestCheckErrors(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/v1/check", map[string]any{"text": "Too short."})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeBody[map[string]string](t, rec)["error"], "not enough text")

	rec = ts.do(t, http.MethodPost, "/api/v1/check", map[string]any{"sources": []string{"a"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[map[string]string](t, rec)["error"], "required")

	rec = ts.do(t, http.MethodPost, "/api/v1/check", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBodyLimit(t *testing.T) {
	ts := newTestServer(t, func(c *Config) { c.MaxBodyBytes = 64 })
	rec := ts.do(t, http.MethodPost, "/api/v1/ai", map[string]any{"text": humanDraft})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestSimilarityRoutes(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/v1/similarity", map[string]any{"text": copiedDraft, "sources": []string{copiedDraft}})
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[similarityResponse](t, rec)
	assert.True(t, got.Result.IsFlagged)
	assert.NotEmpty(t, got.Result.Matches)
	require.NotEmpty(t, got.Suggestions)
	assert.Contains(t, got.Suggestions[0], "High similarity")

	rec = ts.do(t, http.MethodPost, "/api/v1/self-similarity", map[string]any{"text": humanDraft})
	require.Equal(t, http.StatusOK, rec.Code)
	self := decodeBody[similarityResponse](t, rec)
	assert.False(t, self.Result.IsFlagged)

	rec = ts.do(t, http.MethodPost, "/api/v1/patterns", map[string]any{"text": "According to experts, the result is very clear."})
	require.Equal(t, http.StatusOK, rec.Code)
	patterns := decodeBody[[]similarity.PatternReport](t, rec)
	assert.NotEmpty(t, patterns)
}

func TestAIAndEnhancementRoutes(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/v1/ai", map[string]any{"text": humanDraft})
	require.Equal(t, http.StatusOK, rec.Code)
	ai := decodeBody[aidetect.Result](t, rec)
	assert.Len(t, ai.Indicators, 10)
	assert.InDelta(t, 1.0, ai.AIProbability+ai.HumanProbability, 1e-9)

	rec = ts.do(t, http.MethodPost, "/api/v1/enhancements", map[string]any{"text": copiedDraft})
	require.Equal(t, http.StatusOK, rec.Code)
	suggestions := decodeBody[[]enhance.Suggestion](t, rec)
	assert.NotEmpty(t, suggestions)

	rec = ts.do(t, http.MethodPost, "/api/v1/paraphrase", map[string]any{"text": "Moreover, it works."})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Also, it works.", decodeBody[textResponse](t, rec).Text)

	rec = ts.do(t, http.MethodPost, "/api/v1/humanize", map[string]any{"text": "It is late. It is cold. It is dark."})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "It is late. It is cold. It's dark.", decodeBody[textResponse](t, rec).Text)
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, func(c *Config) {
		c.RateLimitRPS = 0.001
		c.RateLimitBurst = 1
	})

	rec := ts.do(t, http.MethodPost, "/api/v1/paraphrase", map[string]any{"text": "one"})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodPost, "/api/v1/paraphrase", map[string]any{"text": "two"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.RateLimited))

	// health and history stay reachable
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/v1/reports", nil).Code)
}

func TestReports(t *testing.T) {
	ts := newTestServer(t, func(c *Config) { c.DBPath = "" })
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/v1/reports", nil).Code)

	ts = newTestServer(t, nil)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/v1/reports?limit=zero", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/v1/reports?limit=0", nil).Code)
	rec := ts.do(t, http.MethodGet, "/api/v1/reports?limit=500", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]db.ReportRow](t, rec))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.do(t, http.MethodGet, "/healthz", nil)

	rec := ts.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `integrity_http_requests_total{route="/healthz",status="200"} 1`)

	ts = newTestServer(t, func(c *Config) { c.MetricsPath = "" })
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/metrics", nil).Code)
}
