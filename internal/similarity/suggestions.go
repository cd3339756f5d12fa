package similarity

const (
	criticalScore = 30.0
	warningScore  = 15.0
	minorScore    = 5.0
	manyMatches   = 10
)

// GenerateSuggestions turns a result into advisory lines for display.
func GenerateSuggestions(result Result) []string {
	out := []string{}
	if result.IsFlagged {
		out = append(out, "⚠️ High similarity detected. Consider paraphrasing the highlighted sections.")
	}
	if len(result.Matches) > manyMatches {
		out = append(out, "📝 Multiple matches found. Review and rewrite similar passages in your own words.")
	}
	switch {
	case result.OverallScorePercent > criticalScore:
		out = append(out, "🔴 Critical: Over 30% similarity. Significant rewriting required.")
	case result.OverallScorePercent > warningScore:
		out = append(out, "🟡 Warning: Over 15% similarity. Some rewriting recommended.")
	case result.OverallScorePercent > minorScore:
		out = append(out, "🟢 Good: Low similarity detected. Minor adjustments may help.")
	default:
		out = append(out, "✅ Excellent: Very low similarity. Content appears original.")
	}
	return out
}
