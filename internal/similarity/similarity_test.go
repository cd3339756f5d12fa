package similarity

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content_integrity/internal/textstat"
)

const sourceParagraph = "Coastal wetlands absorb storm surge and filter runoff before it reaches the sea. " +
	"Their dense root systems trap sediment, which slowly builds new land and protects nearby towns. " +
	"When wetlands are drained for development, flooding becomes more frequent and water quality declines sharply."

func TestCheckAgainstSourcesCopiedText(t *testing.T) {
	res, err := CheckAgainstSources(sourceParagraph, []string{sourceParagraph})
	require.NoError(t, err)
	require.NotEmpty(t, res.Matches)
	assert.True(t, res.IsFlagged)
	assert.Greater(t, res.OverallScorePercent, SourceFlagThreshold)
	assert.LessOrEqual(t, res.OverallScorePercent, 100.0)

	kinds := map[MatchKind]bool{}
	for i, m := range res.Matches {
		kinds[m.Kind] = true
		assert.Equal(t, "source 1", m.SourceLabel)
		assert.Equal(t, m.MatchedText, sourceParagraph[m.StartIndex:m.EndIndex])
		if i > 0 {
			assert.GreaterOrEqual(t, res.Matches[i-1].SimilarityPercent, m.SimilarityPercent)
		}
	}
	assert.True(t, kinds[KindChunk])
	assert.True(t, kinds[KindNGram])
}

func TestCheckAgainstSourcesShortVerbatimPhrase(t *testing.T) {
	candidate := "The quick brown fox jumps over it."
	res, err := CheckAgainstSources(candidate, []string{"Yesterday the quick  brown fox jumps over the fence."})
	require.NoError(t, err)
	require.Len(t, res.Matches, 2)
	for _, m := range res.Matches {
		assert.Equal(t, KindNGram, m.Kind)
		assert.Equal(t, 100.0, m.SimilarityPercent)
	}
	assert.Equal(t, "The quick brown fox jumps", res.Matches[0].MatchedText)
	assert.Equal(t, 0, res.Matches[0].StartIndex)
	assert.Equal(t, 25, res.Matches[0].EndIndex)
	assert.Equal(t, "quick brown fox jumps over", res.Matches[1].MatchedText)
	assert.True(t, res.IsFlagged)
}

func TestCheckAgainstSourcesUnrelated(t *testing.T) {
	candidate := "My grandmother kept bees behind the barn and sold honey at the Saturday market every summer."
	res, err := CheckAgainstSources(candidate, []string{sourceParagraph})
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.Equal(t, 0.0, res.OverallScorePercent)
	assert.False(t, res.IsFlagged)
}

func TestCheckAgainstSourcesEmptyInput(t *testing.T) {
	res, err := CheckAgainstSources("", []string{sourceParagraph})
	require.NoError(t, err)
	assert.NotNil(t, res.Matches)
	assert.Empty(t, res.Matches)
	assert.False(t, res.IsFlagged)

	res, err = CheckAgainstSources(sourceParagraph, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.Equal(t, 0.0, res.OverallScorePercent)
}

func TestCheckAgainstSourcesInvalidUTF8(t *testing.T) {
	_, err := CheckAgainstSources("fine", []string{string([]byte{0xff})})
	require.Error(t, err)
	assert.True(t, errors.Is(err, textstat.ErrInvalidInput))

	_, err = CheckSelfSimilarity(string([]byte{0xc3, 0x28}))
	assert.True(t, errors.Is(err, textstat.ErrInvalidInput))
}

func TestCheckAgainstSourcesDeterministic(t *testing.T) {
	sources := []string{sourceParagraph, "Wetlands protect towns. " + sourceParagraph}
	first, err := CheckAgainstSources(sourceParagraph, sources)
	require.NoError(t, err)
	second, err := CheckAgainstSources(sourceParagraph, sources)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCheckSelfSimilarityRepeatedSentences(t *testing.T) {
	text := "The study shows that the ocean temperature is rising quickly. " +
		"The study shows that the ocean temperature is rising slowly. " +
		"The study shows that the ocean temperature is rising steadily. " +
		"The study shows that the ocean temperature is rising sharply."
	res, err := CheckSelfSimilarity(text)
	require.NoError(t, err)
	require.Len(t, res.Matches, 6)
	assert.True(t, res.IsFlagged)
	assert.Greater(t, res.OverallScorePercent, SelfFlagThreshold)

	seen := map[string]bool{}
	for _, m := range res.Matches {
		assert.Equal(t, KindSentence, m.Kind)
		assert.NotEqual(t, m.MatchedText, m.SourceText)
		assert.GreaterOrEqual(t, m.SimilarityPercent, SimilarityThreshold*100)
		pair := m.MatchedText + "|" + m.SourceText
		assert.False(t, seen[pair], "pair reported twice: %s", pair)
		seen[pair] = true
		assert.True(t, strings.HasPrefix(m.SourceLabel, "sentence "))
	}
}

func TestCheckSelfSimilarityFewSentences(t *testing.T) {
	res, err := CheckSelfSimilarity("Only one sentence that is long enough here.")
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.Equal(t, 0.0, res.OverallScorePercent)
	assert.False(t, res.IsFlagged)
}

func TestCheckSelfSimilarityIgnoresShortMultibyteFragments(t *testing.T) {
	// each fragment is 12 characters, under the sentence minimum, though 24 bytes long
	got, err := CheckSelfSimilarity("αβγδεζηθικλμ. αβγδεζηθικλμ. αβγδεζηθικλμ.")
	require.NoError(t, err)
	assert.Empty(t, got.Matches)
	assert.Zero(t, got.OverallScorePercent)
	assert.False(t, got.IsFlagged)
}

func TestIsFlaggedBoundary(t *testing.T) {
	assert.False(t, IsFlagged(15, SourceFlagThreshold))
	assert.True(t, IsFlagged(15.0001, SourceFlagThreshold))
	assert.False(t, IsFlagged(20, SelfFlagThreshold))
}

func TestCoveredLengthMergesOverlaps(t *testing.T) {
	assert.Equal(t, 0, coveredLength(nil))
	assert.Equal(t, 15, coveredLength([][2]int{{0, 10}, {5, 15}}))
	assert.Equal(t, 12, coveredLength([][2]int{{20, 22}, {0, 10}, {10, 10}}))
}

func TestDetectCommonPatterns(t *testing.T) {
	text := "According to research, it is widely known that sleep is very important. " +
		"In conclusion, rest matters. In conclusion, sleep more."
	got, err := DetectCommonPatterns(text)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, PatternReport{Pattern: "vague attribution", Count: 1, Severity: textstat.SeverityMedium}, got[0])
	assert.Equal(t, "unsupported claim", got[1].Pattern)
	assert.Equal(t, PatternReport{Pattern: "weak qualifiers", Count: 1, Severity: textstat.SeverityLow}, got[2])
	assert.Equal(t, PatternReport{Pattern: "duplicate conclusion", Count: 1, Severity: textstat.SeverityHigh}, got[3])

	none, err := DetectCommonPatterns("Plain words only.")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestGenerateSuggestions(t *testing.T) {
	many := make([]Match, 11)
	got := GenerateSuggestions(Result{OverallScorePercent: 35, IsFlagged: true, Matches: many})
	require.Len(t, got, 3)
	assert.Contains(t, got[0], "High similarity detected")
	assert.Contains(t, got[1], "Multiple matches found")
	assert.Contains(t, got[2], "Critical")

	assert.Equal(t, []string{"🟡 Warning: Over 15% similarity. Some rewriting recommended."},
		GenerateSuggestions(Result{OverallScorePercent: 16}))
	assert.Contains(t, GenerateSuggestions(Result{OverallScorePercent: 10})[0], "Good")
	assert.Contains(t, GenerateSuggestions(Result{})[0], "Excellent")
}

func TestCheckAgainstSourcesNearParaphrase(t *testing.T) {
	candidate := "Machine learning is a subset of artificial intelligence that enables computers to learn from data without being explicitly programmed."
	source := "Machine learning is a branch of artificial intelligence that allows computers to learn from data without explicit programming."

	got, err := CheckAgainstSources(candidate, []string{source})
	require.NoError(t, err)

	assert.Greater(t, got.OverallScorePercent, 60.0)
	assert.True(t, got.IsFlagged)

	var phrases []string
	for _, m := range got.Matches {
		if m.Kind == KindNGram {
			phrases = append(phrases, m.MatchedText)
		}
	}
	assert.ElementsMatch(t, []string{"computers to learn from data", "to learn from data without"}, phrases)
}
