package enhance

import (
	"regexp"
	"strings"
)

type substitution struct {
	from *regexp.Regexp
	to   string
}

var paraphraseRules = []substitution{
	{regexp.MustCompile(`(?i)furthermore,`), "Additionally,"},
	{regexp.MustCompile(`(?i)moreover,`), "Also,"},
	{regexp.MustCompile(`(?i)in conclusion,`), "To summarize,"},
	{regexp.MustCompile(`(?i)it is important to note that`), "Notably,"},
	{regexp.MustCompile(`(?i)it should be noted that`), "Note that"},
}

// Paraphrase applies the fixed substitution table in order.
func Paraphrase(text string) string {
	for _, r := range paraphraseRules {
		text = r.from.ReplaceAllLiteralString(text, r.to)
	}
	return text
}

var contractionRules = []substitution{
	{regexp.MustCompile(`(?i)\bit is\b`), "it's"},
	{regexp.MustCompile(`(?i)\bthat is\b`), "that's"},
	{regexp.MustCompile(`(?i)\bthere is\b`), "there's"},
	{regexp.MustCompile(`(?i)\bcannot\b`), "can't"},
	{regexp.MustCompile(`(?i)\bwill not\b`), "won't"},
}

// contractEvery means only every third occurrence is contracted.
const contractEvery = 3

// Humanize contracts every third occurrence of a phrase, and only for phrases that
// appear more than twice. The result is deterministic.
//
// Phrases match on whole words only, so "habit is" is never rewritten, and a
// capitalized phrase keeps its capital ("It is" becomes "It's", not "it's").
func Humanize(text string) string {
	for _, r := range contractionRules {
		if len(r.from.FindAllStringIndex(text, contractEvery)) < contractEvery {
			continue
		}
		n := 0
		text = r.from.ReplaceAllStringFunc(text, func(m string) string {
			n++
			if n%contractEvery != 0 {
				return m
			}
			return matchCase(m, r.to)
		})
	}
	return text
}

func matchCase(original, replacement string) string {
	if original != "" && original[0] >= 'A' && original[0] <= 'Z' {
		return strings.ToUpper(replacement[:1]) + replacement[1:]
	}
	return replacement
}
