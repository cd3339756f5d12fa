// Package similarity scores a candidate text for overlap with reference sources
// and for repetition within itself.
package similarity

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"content_integrity/internal/chunk"
	"content_integrity/internal/textstat"
)

const (
	// SimilarityThreshold is the minimum Dice similarity for a chunk or sentence pair to count as a match.
	SimilarityThreshold = 0.70
	// MinPhraseLength is the shortest chunk, in characters, worth comparing.
	MinPhraseLength = 50
	// ChunkSize is the window length in characters.
	ChunkSize = 200
	// ChunkOverlapPercent makes windows advance by 140 characters.
	ChunkOverlapPercent = 30
	// NGramSize is the phrase length, in words, checked for verbatim reuse.
	NGramSize = 5
	// MinSentenceLength drops sentence fragments of this many characters or fewer.
	MinSentenceLength = 20

	// SourceFlagThreshold flags CheckAgainstSources results scoring strictly above it.
	SourceFlagThreshold = 15.0
	// SelfFlagThreshold flags CheckSelfSimilarity results scoring strictly above it.
	SelfFlagThreshold = 20.0
)

type MatchKind string

const (
	KindChunk    MatchKind = "chunk"
	KindNGram    MatchKind = "ngram"
	KindSentence MatchKind = "sentence"
)

// Match is one span of the candidate that resembles a source or another sentence.
// StartIndex and EndIndex are byte offsets into the candidate.
type Match struct {
	Kind              MatchKind `json:"kind"`
	MatchedText       string    `json:"matched_text"`
	SourceLabel       string    `json:"source_label"`
	SourceText        string    `json:"source_text,omitempty"`
	SimilarityPercent float64   `json:"similarity_percent"`
	StartIndex        int       `json:"start_index"`
	EndIndex          int       `json:"end_index"`
}

type Result struct {
	OverallScorePercent float64 `json:"overall_score_percent"`
	Matches             []Match `json:"matches"`
	IsFlagged           bool    `json:"is_flagged"`
}

// IsFlagged reports whether score is strictly above threshold.
func IsFlagged(score, threshold float64) bool {
	return score > threshold
}

func SourceLabel(i int) string {
	return fmt.Sprintf("source %d", i+1)
}

// CheckAgainstSources compares candidate with each source in two passes: overlapping
// character chunks scored by bigram similarity, then exact five-word phrases. The
// phrase pass catches short verbatim copies that chunk scoring misses or averages away.
func CheckAgainstSources(candidate string, sources []string) (Result, error) {
	if err := textstat.Validate("candidate", candidate); err != nil {
		return Result{}, err
	}
	if err := textstat.ValidateAll("sources", sources); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(candidate) == "" || len(sources) == 0 {
		return emptyResult(), nil
	}

	overlap := chunk.Overlap(ChunkSize, ChunkOverlapPercent)
	candidateChunks := chunk.SlidingWindow(candidate, ChunkSize, overlap, MinPhraseLength)
	normCandidate := make([]string, len(candidateChunks))
	for i, c := range candidateChunks {
		normCandidate[i] = textstat.Normalize(c.Text)
	}

	matches := []Match{}
	for si, source := range sources {
		sourceChunks := chunk.SlidingWindow(source, ChunkSize, overlap, MinPhraseLength)
		normSource := make([]string, len(sourceChunks))
		for i, c := range sourceChunks {
			normSource[i] = textstat.Normalize(c.Text)
		}
		for ci, c := range candidateChunks {
			for sj, sc := range sourceChunks {
				sim := textstat.Dice(normCandidate[ci], normSource[sj])
				if sim < SimilarityThreshold {
					continue
				}
				matches = append(matches, Match{
					Kind:              KindChunk,
					MatchedText:       c.Text,
					SourceLabel:       SourceLabel(si),
					SourceText:        sc.Text,
					SimilarityPercent: sim * 100,
					StartIndex:        c.Start,
					EndIndex:          c.End,
				})
			}
		}
	}

	matches = append(matches, nGramMatches(candidate, sources)...)
	matches = dedupe(matches)
	sortMatches(matches)

	score := overallScore(matches, len(candidate))
	return Result{
		OverallScorePercent: score,
		Matches:             matches,
		IsFlagged:           IsFlagged(score, SourceFlagThreshold),
	}, nil
}

// CheckSelfSimilarity compares every unordered pair of distinct sentences once.
func CheckSelfSimilarity(candidate string) (Result, error) {
	if err := textstat.Validate("candidate", candidate); err != nil {
		return Result{}, err
	}
	sentences := textstat.Sentences(candidate, MinSentenceLength)
	if len(sentences) < 2 {
		return emptyResult(), nil
	}

	norm := make([]string, len(sentences))
	for i, s := range sentences {
		norm[i] = textstat.Normalize(s.Text)
	}

	matches := []Match{}
	for i := 0; i < len(sentences); i++ {
		for j := i + 1; j < len(sentences); j++ {
			sim := textstat.Dice(norm[i], norm[j])
			if sim < SimilarityThreshold {
				continue
			}
			matches = append(matches, Match{
				Kind:              KindSentence,
				MatchedText:       sentences[i].Text,
				SourceLabel:       fmt.Sprintf("sentence %d", j+1),
				SourceText:        sentences[j].Text,
				SimilarityPercent: sim * 100,
				StartIndex:        sentences[i].Start,
				EndIndex:          sentences[i].End,
			})
		}
	}
	sortMatches(matches)

	score := overallScore(matches, len(candidate))
	return Result{
		OverallScorePercent: score,
		Matches:             matches,
		IsFlagged:           IsFlagged(score, SelfFlagThreshold),
	}, nil
}

func nGramMatches(candidate string, sources []string) []Match {
	lowered := make([]string, len(sources))
	for i, s := range sources {
		lowered[i] = strings.Join(strings.Fields(strings.ToLower(s)), " ")
	}

	out := []Match{}
	for _, sentence := range textstat.Sentences(candidate, MinSentenceLength) {
		words := fieldSpans(sentence.Text)
		if len(words) < NGramSize {
			continue
		}
		for i := 0; i+NGramSize <= len(words); i++ {
			parts := make([]string, NGramSize)
			for k := range parts {
				w := words[i+k]
				parts[k] = sentence.Text[w[0]:w[1]]
			}
			phrase := strings.Join(parts, " ")
			needle := strings.ToLower(phrase)
			for si := range sources {
				if !strings.Contains(lowered[si], needle) {
					continue
				}
				out = append(out, Match{
					Kind:              KindNGram,
					MatchedText:       phrase,
					SourceLabel:       SourceLabel(si),
					SimilarityPercent: 100,
					StartIndex:        sentence.Start + words[i][0],
					EndIndex:          sentence.Start + words[i+NGramSize-1][1],
				})
			}
		}
	}
	return out
}

// fieldSpans returns [start, end) byte offsets of each whitespace-separated field.
func fieldSpans(s string) [][2]int {
	out := [][2]int{}
	start := -1
	for i, r := range s {
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = append(out, [2]int{start, i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, [2]int{start, len(s)})
	}
	return out
}

func dedupe(matches []Match) []Match {
	type key struct {
		text string
		sim  float64
	}
	seen := map[key]struct{}{}
	out := make([]Match, 0, len(matches))
	for _, m := range matches {
		k := key{text: m.MatchedText, sim: m.SimilarityPercent}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, m)
	}
	return out
}

func sortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].SimilarityPercent > matches[j].SimilarityPercent
	})
}

// overallScore averages the share of candidate bytes covered by any match with the
// mean match similarity, capped at 100.
func overallScore(matches []Match, totalLength int) float64 {
	if len(matches) == 0 || totalLength == 0 {
		return 0
	}
	spans := make([][2]int, 0, len(matches))
	sum := 0.0
	for _, m := range matches {
		spans = append(spans, [2]int{m.StartIndex, m.EndIndex})
		sum += m.SimilarityPercent
	}
	coverage := float64(coveredLength(spans)) / float64(totalLength) * 100
	avg := sum / float64(len(matches))
	return textstat.ClampPercent((coverage + avg) / 2)
}

func coveredLength(spans [][2]int) int {
	sort.Slice(spans, func(i, j int) bool { return spans[i][0] < spans[j][0] })
	total := 0
	curStart, curEnd := -1, -1
	for _, s := range spans {
		if s[1] <= s[0] {
			continue
		}
		if curEnd < 0 || s[0] > curEnd {
			if curEnd > curStart {
				total += curEnd - curStart
			}
			curStart, curEnd = s[0], s[1]
			continue
		}
		if s[1] > curEnd {
			curEnd = s[1]
		}
	}
	if curEnd > curStart {
		total += curEnd - curStart
	}
	return total
}

func emptyResult() Result {
	return Result{Matches: []Match{}}
}
