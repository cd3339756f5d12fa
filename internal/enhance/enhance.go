// Package enhance suggests concrete rewrites that make a draft read as more original:
// replacing stock phrases, varying repeated words and sentence shapes, and citing claims.
package enhance

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"content_integrity/internal/textstat"
)

//go:embed lexicon.json
var lexiconJSON []byte

type lexicon struct {
	Synonyms  map[string][]string `json:"synonyms"`
	Stopwords []string            `json:"stopwords"`
}

var (
	synonyms  map[string][]string
	stopwords map[string]struct{}
)

func init() {
	var lx lexicon
	if err := json.Unmarshal(lexiconJSON, &lx); err != nil {
		panic(fmt.Sprintf("enhance: bad lexicon: %v", err))
	}
	synonyms = lx.Synonyms
	stopwords = make(map[string]struct{}, len(lx.Stopwords))
	for _, w := range lx.Stopwords {
		stopwords[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
}

type Kind string

const (
	KindParaphrase Kind = "paraphrase"
	KindSynonym    Kind = "synonym"
	KindStructure  Kind = "structure"
	KindCitation   Kind = "citation"
	KindVariation  Kind = "variation"
)

// Suggestion is one proposed rewrite. Position is a byte offset into the text.
type Suggestion struct {
	Kind         Kind     `json:"kind"`
	OriginalSpan string   `json:"original"`
	Alternatives []string `json:"alternatives"`
	Rationale    string   `json:"rationale"`
	Position     int      `json:"position"`
}

const (
	// Words repeated more than this many times get a synonym suggestion.
	RepeatLimit = 5
	// Minimum word length considered for synonyms.
	minSynonymWordLen = 4
	// More than this many sentences sharing a first word is flagged.
	StarterLimit = 3
	// Sentence word-count variance below this is flagged as uniform.
	UniformVariance = 20.0

	citationLookBehind = 50
	citationLookAhead  = 100
)

type clicheRule struct {
	re           *regexp.Regexp
	alternatives []string
}

var clicheRules = []clicheRule{
	{regexp.MustCompile(`(?i)in today['’]s (digital|modern|fast-paced) (world|age|era)`),
		[]string{"currently", "nowadays", "in recent times", "at present"}},
	{regexp.MustCompile(`(?i)it is important to (note|understand|recognize|acknowledge)`),
		[]string{"notably", "crucially", "worth noting", "significantly"}},
	{regexp.MustCompile(`(?i)plays? a (crucial|vital|important|significant) role`),
		[]string{"matters significantly", "is essential", "proves critical", "holds importance"}},
	{regexp.MustCompile(`(?i)delve into|diving deep|explore the intricacies`),
		[]string{"examine", "investigate", "study", "analyze"}},
	{regexp.MustCompile(`(?i)(landscape|realm|sphere) of`),
		[]string{"field of", "area of", "domain of", "in"}},
}

var citationClaims = []*regexp.Regexp{
	regexp.MustCompile(`\d+(\.\d+)?%`),
	regexp.MustCompile(`(?i)studies (show|indicate|suggest|reveal)`),
	regexp.MustCompile(`(?i)research (shows|indicates|suggests|reveals)`),
	regexp.MustCompile(`(?i)according to`),
	regexp.MustCompile(`(?i)evidence (shows|indicates|suggests|reveals)`),
	regexp.MustCompile(`(?i)data (shows|indicates|suggests|reveals)`),
}

var citationMarker = regexp.MustCompile(`\[\d+\]|\(\w+,?\s*\d{4}\)`)

// Generate runs the cliché, repeated-word, structure and citation passes in that order.
// Text without findings yields an empty, non-nil slice.
func Generate(text string) ([]Suggestion, error) {
	if err := textstat.Validate("candidate", text); err != nil {
		return nil, err
	}
	out := []Suggestion{}
	out = append(out, clichePass(text)...)
	out = append(out, synonymPass(text)...)
	out = append(out, structurePass(text)...)
	out = append(out, citationPass(text)...)
	return out, nil
}

func clichePass(text string) []Suggestion {
	var out []Suggestion
	for _, rule := range clicheRules {
		for _, loc := range rule.re.FindAllStringIndex(text, -1) {
			out = append(out, Suggestion{
				Kind:         KindParaphrase,
				OriginalSpan: text[loc[0]:loc[1]],
				Alternatives: rule.alternatives,
				Rationale:    "This phrase is commonly used by AI. Consider a more natural alternative.",
				Position:     loc[0],
			})
		}
	}
	return out
}

func synonymPass(text string) []Suggestion {
	freq := textstat.NewFrequency()
	first := map[string]int{}
	for _, loc := range textstat.WordIndexes(text) {
		w := strings.ToLower(text[loc[0]:loc[1]])
		if len(w) < minSynonymWordLen {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		if _, seen := first[w]; !seen {
			first[w] = loc[0]
		}
		freq.Add(w)
	}

	var out []Suggestion
	for _, w := range freq.Keys() {
		n := freq.Count(w)
		if n <= RepeatLimit {
			continue
		}
		alts, ok := synonyms[w]
		if !ok {
			continue
		}
		out = append(out, Suggestion{
			Kind:         KindSynonym,
			OriginalSpan: w,
			Alternatives: alts,
			Rationale:    fmt.Sprintf("The word %q appears %d times. Consider using synonyms for variety.", w, n),
			Position:     first[w],
		})
	}
	return out
}

func structurePass(text string) []Suggestion {
	sentences := textstat.Sentences(text, 0)
	starters := textstat.NewFrequency()
	for _, s := range sentences {
		starters.Add(strings.ToLower(textstat.Fields(s.Text)[0]))
	}

	var out []Suggestion
	for _, w := range starters.Keys() {
		n := starters.Count(w)
		if n <= StarterLimit || w == "the" || w == "this" {
			continue
		}
		out = append(out, Suggestion{
			Kind:         KindStructure,
			OriginalSpan: fmt.Sprintf("Multiple sentences starting with %q", w),
			Alternatives: []string{
				"Vary your sentence starters",
				"Use different opening words",
				"Combine some sentences",
				"Start with different parts of speech",
			},
			Rationale: fmt.Sprintf("%d sentences start with %q. This creates repetitive structure.", n, w),
			Position:  0,
		})
	}

	if len(sentences) >= 2 && textstat.Variance(textstat.WordCounts(textstat.Texts(sentences))) < UniformVariance {
		out = append(out, Suggestion{
			Kind:         KindVariation,
			OriginalSpan: "Uniform sentence lengths",
			Alternatives: []string{
				"Mix short, punchy sentences with longer, more detailed ones",
				"Vary sentence complexity",
				"Use different sentence structures",
				"Combine or split sentences for rhythm",
			},
			Rationale: "Sentences are too uniform in length. Human writing has more variation.",
			Position:  0,
		})
	}
	return out
}

func citationPass(text string) []Suggestion {
	var out []Suggestion
	for _, re := range citationClaims {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if hasNearbyCitation(text, loc[0]) {
				continue
			}
			out = append(out, Suggestion{
				Kind:         KindCitation,
				OriginalSpan: text[loc[0]:loc[1]],
				Alternatives: []string{
					"Add citation [1]",
					"Add source (Author, Year)",
					"Reference supporting research",
					"Cite data source",
				},
				Rationale: "This claim should be supported with a citation.",
				Position:  loc[0],
			})
		}
	}
	return out
}

func hasNearbyCitation(text string, at int) bool {
	from := max(0, at-citationLookBehind)
	to := min(len(text), at+citationLookAhead)
	return citationMarker.MatchString(text[from:to])
}
