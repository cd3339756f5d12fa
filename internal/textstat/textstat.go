// Package textstat holds the tokenization and statistics helpers shared by the
// similarity, AI-likelihood and enhancement engines.
package textstat

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	sentenceSplit  = regexp.MustCompile(`[.!?]+`)
	paragraphSplit = regexp.MustCompile(`\n\n+`)
	letterWord     = regexp.MustCompile(`\b[a-z]+\b`)
	contractedWord = regexp.MustCompile(`[a-z]+(?:'[a-z]+)?`)
	anyCaseWord    = regexp.MustCompile(`(?i)[a-z]+(?:'[a-z]+)?`)
	nonWord        = regexp.MustCompile(`[^\w\s]`)
	whitespace     = regexp.MustCompile(`\s+`)
)

// Span is a trimmed fragment of a larger text with its byte offsets.
type Span struct {
	Text  string
	Start int
	End   int
}

// Sentences splits text on runs of '.', '!' and '?' and keeps trimmed
// fragments longer than minLen characters. Pass 0 to keep every non-empty one.
func Sentences(text string, minLen int) []Span {
	return splitSpans(text, sentenceSplit, minLen)
}

// Paragraphs splits text on blank lines and keeps trimmed blocks longer than minLen characters.
func Paragraphs(text string, minLen int) []Span {
	return splitSpans(text, paragraphSplit, minLen)
}

func splitSpans(text string, sep *regexp.Regexp, minLen int) []Span {
	out := []Span{}
	cursor := 0
	bounds := sep.FindAllStringIndex(text, -1)
	bounds = append(bounds, []int{len(text), len(text)})
	for _, b := range bounds {
		raw := text[cursor:b[0]]
		cursor = b[1]
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || utf8.RuneCountInString(trimmed) <= minLen {
			continue
		}
		start := b[0] - len(raw) + strings.Index(raw, trimmed)
		out = append(out, Span{Text: trimmed, Start: start, End: start + len(trimmed)})
	}
	return out
}

// Texts drops offsets.
func Texts(spans []Span) []string {
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = s.Text
	}
	return out
}

// Fields splits on any whitespace.
func Fields(text string) []string {
	return strings.Fields(text)
}

// LetterWords returns lower-cased runs of ASCII letters bounded by non-word characters.
func LetterWords(text string) []string {
	return letterWord.FindAllString(strings.ToLower(text), -1)
}

// Words returns lower-cased words, keeping a single apostrophe suffix ("it's", "we've").
func Words(text string) []string {
	return contractedWord.FindAllString(strings.ToLower(text), -1)
}

// WordIndexes is Words with the byte offsets of each match.
func WordIndexes(text string) [][]int {
	return anyCaseWord.FindAllStringIndex(text, -1)
}

// Normalize lower-cases text, strips punctuation and collapses whitespace.
func Normalize(text string) string {
	text = strings.ToLower(text)
	text = nonWord.ReplaceAllString(text, "")
	text = whitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Mean returns 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Variance is the population variance; 0 for an empty slice.
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}

// WordCounts maps each text to its whitespace word count.
func WordCounts(texts []string) []float64 {
	out := make([]float64, len(texts))
	for i, t := range texts {
		out[i] = float64(len(strings.Fields(t)))
	}
	return out
}

// Frequency counts items and remembers first-seen order so callers can iterate deterministically.
type Frequency struct {
	counts map[string]int
	order  []string
}

func NewFrequency() *Frequency {
	return &Frequency{counts: map[string]int{}}
}

func (f *Frequency) Add(item string) {
	if _, ok := f.counts[item]; !ok {
		f.order = append(f.order, item)
	}
	f.counts[item]++
}

func (f *Frequency) Count(item string) int {
	return f.counts[item]
}

// Keys returns items in first-seen order.
func (f *Frequency) Keys() []string {
	return f.order
}

// Max returns the highest count, 0 when empty.
func (f *Frequency) Max() int {
	m := 0
	for _, c := range f.counts {
		if c > m {
			m = c
		}
	}
	return m
}

func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func ClampPercent(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
