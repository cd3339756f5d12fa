package integrity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content_integrity/internal/aidetect"
	"content_integrity/internal/observability"
	"content_integrity/internal/similarity"
	"content_integrity/internal/textstat"
)

var humanDraft = strings.Join([]string{
	"I love my garden. Honestly, I'm so happy with how it turned out this year, even after that awful storm in May flattened half of my tomatoes and I nearly gave up on the whole thing.",
	"We ate salad for a week.",
	"My neighbor thinks I'm crazy. She's probably right! But you know what? I don't care, because digging in the dirt after work makes me feel calm and a bit proud, and my kids love picking the strawberries with me on Sunday mornings while the dog runs around barking at bees.",
}, "\n\n")

const copiedDraft = "In today's digital world, it is important to note that artificial intelligence plays a crucial role in modern society. " +
	"Furthermore, it is worth mentioning that machine learning algorithms are becoming increasingly sophisticated. " +
	"Moreover, the landscape of technology continues to evolve at an unprecedented rate."

func newTestChecker(t *testing.T, opts Options) (*Checker, *observability.Metrics, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := observability.NewLoggerTo(&logs, observability.LoggingConfig{Level: "debug"})
	metrics := observability.NewMetrics(prometheus.NewRegistry(), "integrity")
	return NewChecker(logger, metrics, opts), metrics, &logs
}

func TestCheckHumanDraftIsAcceptable(t *testing.T) {
	c, metrics, logs := newTestChecker(t, Options{MinChars: 100})

	report, err := c.Check(context.Background(), Request{Candidate: humanDraft, Label: "garden.md"})
	require.NoError(t, err)

	_, err = uuid.Parse(report.ID)
	require.NoError(t, err)
	assert.Equal(t, "garden.md", report.Label)
	assert.Equal(t, 92, report.Words)
	assert.False(t, report.Similarity.IsFlagged)
	assert.Empty(t, report.Similarity.Matches)
	assert.Less(t, report.SelfSimilarity.OverallScorePercent, SelfSimilarityLimit)
	assert.Equal(t, aidetect.ClassLikelyHuman, report.AI.Classification)
	assert.True(t, report.Acceptable)
	assert.Equal(t, VerdictAcceptable, report.Verdict())
	assert.NotEmpty(t, report.SimilaritySuggestions)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ChecksTotal.WithLabelValues(VerdictAcceptable)))
	assert.Contains(t, logs.String(), `"message":"check completed"`)
	assert.Contains(t, logs.String(), `"engine":"self_similarity"`)
}

func TestCheckCopiedDraftNeedsRevision(t *testing.T) {
	c, metrics, _ := newTestChecker(t, Options{MinChars: 100, MaxEnhancements: 2})

	report, err := c.Check(context.Background(), Request{Candidate: copiedDraft, Sources: []string{copiedDraft}})
	require.NoError(t, err)

	assert.True(t, report.Similarity.IsFlagged)
	assert.Equal(t, 1, report.SourceCount)
	assert.False(t, report.Acceptable)
	assert.Len(t, report.Enhancements, 2)
	assert.Greater(t, report.TotalEnhancements, 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ChecksTotal.WithLabelValues(VerdictNeedsRevision)))
}

func TestCheckRejectsShortText(t *testing.T) {
	c, _, _ := newTestChecker(t, Options{MinChars: 100})
	_, err := c.Check(context.Background(), Request{Candidate: "Too short."})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooShort))
	assert.Contains(t, err.Error(), "10 characters")
}

func TestCheckRejectsInvalidSource(t *testing.T) {
	c, _, _ := newTestChecker(t, Options{})
	_, err := c.Check(context.Background(), Request{Candidate: humanDraft, Sources: []string{"ok", "\xff"}})
	var inv *textstat.InvalidInputError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, "sources[1]", inv.Field)
}

func TestCheckHonoursCancelledContext(t *testing.T) {
	c, _, _ := newTestChecker(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Check(ctx, Request{Candidate: humanDraft})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAcceptableRule(t *testing.T) {
	clean := similarity.Result{}
	human := aidetect.Result{AIProbability: 0.3}
	assert.True(t, Acceptable(clean, clean, human))
	assert.False(t, Acceptable(similarity.Result{IsFlagged: true}, clean, human))
	assert.False(t, Acceptable(clean, similarity.Result{OverallScorePercent: 25}, human))
	assert.True(t, Acceptable(clean, similarity.Result{OverallScorePercent: 24.9}, human))
	assert.False(t, Acceptable(clean, clean, aidetect.Result{AIProbability: 0.6}))
}

func TestCheckAll(t *testing.T) {
	c, _, _ := newTestChecker(t, Options{MinChars: 100})
	reqs := []Request{
		{Candidate: humanDraft, Label: "a.md"},
		{Candidate: "short", Label: "b.md"},
		{Candidate: copiedDraft, Label: "c.md"},
	}
	results, errs := c.CheckAll(context.Background(), reqs, 2)
	require.Len(t, results, 3)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "b.md")

	assert.NoError(t, results[0].Err)
	assert.Equal(t, "a.md", results[0].Report.Label)
	assert.ErrorIs(t, results[1].Err, ErrTooShort)
	assert.NoError(t, results[2].Err)
	assert.NotEqual(t, results[0].Report.ID, results[2].Report.ID)
}

func TestRenderFormats(t *testing.T) {
	c, _, _ := newTestChecker(t, Options{})
	c.newID = func() string { return "report-1" }
	report, err := c.Check(context.Background(), Request{Candidate: copiedDraft, Label: "draft.txt"})
	require.NoError(t, err)

	var text bytes.Buffer
	require.NoError(t, Render(&text, report, FormatText))
	out := text.String()
	assert.Contains(t, out, "Content integrity report report-1")
	assert.Contains(t, out, "Verdict: NEEDS REVISION")
	assert.Contains(t, out, "AI probability")
	assert.Contains(t, out, "Indicators:")
	assert.Contains(t, out, "Enhancements (")

	var js bytes.Buffer
	require.NoError(t, Render(&js, report, FormatJSON))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, "report-1", decoded["id"])
	assert.Equal(t, false, decoded["acceptable"])

	var y bytes.Buffer
	require.NoError(t, Render(&y, report, FormatYAML))
	assert.Contains(t, y.String(), "id: report-1")
	assert.Contains(t, y.String(), "acceptable: false")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)
	f, err = ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)
	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestNewCheckerWithoutMetrics(t *testing.T) {
	c := NewChecker(zerolog.Nop(), nil, Options{})
	_, err := c.Check(context.Background(), Request{Candidate: humanDraft})
	assert.NoError(t, err)
}
