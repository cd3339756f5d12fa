package integrity

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"content_integrity/internal/aidetect"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, json or yaml)", s)
	}
}

// Render writes v in the given format. Reports get the scorecard in text format; any other
// value is written as indented JSON for text.
func Render(w io.Writer, v any, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		return writeYAML(w, v)
	case FormatText, "":
		if r, ok := v.(Report); ok {
			return WriteScorecard(w, r)
		}
		if r, ok := v.(*Report); ok {
			return WriteScorecard(w, *r)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// writeYAML goes through JSON so field names match the json tags.
func writeYAML(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

// WriteScorecard prints the human-readable summary of a report.
func WriteScorecard(w io.Writer, r Report) error {
	var b strings.Builder

	verdict := "NEEDS REVISION"
	if r.Acceptable {
		verdict = "ACCEPTABLE"
	}
	label := r.Label
	if label == "" {
		label = "(stdin)"
	}
	fmt.Fprintf(&b, "Content integrity report %s\n", r.ID)
	fmt.Fprintf(&b, "%s: %d words, %d characters, %d sources\n", label, r.Words, r.Chars, r.SourceCount)
	fmt.Fprintf(&b, "Verdict: %s\n\n", verdict)

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Originality\t%.1f%%\t(similarity %.1f%%, %d matches%s)\n",
		100-r.Similarity.OverallScorePercent, r.Similarity.OverallScorePercent,
		len(r.Similarity.Matches), flaggedSuffix(r.Similarity.IsFlagged))
	fmt.Fprintf(tw, "Self-repetition\t%.1f%%\t(%d repeated sentence pairs%s)\n",
		r.SelfSimilarity.OverallScorePercent, len(r.SelfSimilarity.Matches), flaggedSuffix(r.SelfSimilarity.IsFlagged))
	fmt.Fprintf(tw, "AI probability\t%.1f%%\t(%s)\n", r.AI.AIProbability*100, r.AI.Classification)
	tw.Flush()

	if len(r.AI.Indicators) > 0 {
		b.WriteString("\nIndicators:\n")
		tw = tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		for _, ind := range sortedIndicators(r.AI.Indicators) {
			fmt.Fprintf(tw, "  %s\t%.1f\t%s\t%s\n", ind.Name, ind.ScorePercent, ind.Severity, ind.Description)
		}
		tw.Flush()
	}

	if len(r.Patterns) > 0 {
		b.WriteString("\nCommon patterns:\n")
		for _, p := range r.Patterns {
			fmt.Fprintf(&b, "  - %s: %d (%s)\n", p.Pattern, p.Count, p.Severity)
		}
	}

	writeList(&b, "Similarity notes", r.SimilaritySuggestions)
	writeList(&b, "AI notes", r.AI.Suggestions)

	if len(r.Enhancements) > 0 {
		fmt.Fprintf(&b, "\nEnhancements (%d of %d):\n", len(r.Enhancements), r.TotalEnhancements)
		for i, e := range r.Enhancements {
			fmt.Fprintf(&b, "  %d. [%s] %q -> %s\n", i+1, e.Kind, e.OriginalSpan, strings.Join(e.Alternatives, ", "))
			fmt.Fprintf(&b, "     %s\n", e.Rationale)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func flaggedSuffix(flagged bool) string {
	if flagged {
		return ", flagged"
	}
	return ""
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", title)
	for _, s := range items {
		fmt.Fprintf(b, "  - %s\n", s)
	}
}

func sortedIndicators(in []aidetect.Indicator) []aidetect.Indicator {
	out := append([]aidetect.Indicator(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ScorePercent > out[j].ScorePercent })
	return out
}
