package aidetect

const tipThreshold = 70.0

var tips = map[IndicatorName]string{
	Perplexity:          "💡 Add more variety in word choice and sentence structure.",
	Burstiness:          "💡 Vary your sentence lengths - mix short and long sentences.",
	VocabularyDiversity: "💡 Let key terms repeat naturally instead of cycling through synonyms.",
	SentenceStructure:   "💡 Start sentences in different ways.",
	RepetitivePatterns:  "💡 Avoid repetitive phrasing and sentence structures.",
	FormalTransitions:   "💡 Use more casual transitions and connectors.",
	ClichePhrases:       "💡 Replace common AI phrases with original expressions.",
	ParagraphUniformity: "💡 Mix paragraph lengths to follow the flow of ideas.",
	PersonalPronouns:    "💡 Add personal voice with \"I\", \"we\", or \"you\" where appropriate.",
	EmotionalLanguage:   "💡 Include more personal opinions and emotional expressions.",
}

// Tip returns the canned advice for an indicator, empty for unknown names.
func Tip(name IndicatorName) string {
	return tips[name]
}

func headline(p float64) string {
	switch {
	case p > 0.7:
		return "🔴 High AI probability detected. Consider significant revisions."
	case p > 0.5:
		return "🟡 Moderate AI indicators. Review and personalize the content."
	case p > 0.3:
		return "🟢 Low AI indicators. Minor adjustments recommended."
	default:
		return "✅ Appears human-written. Content looks authentic."
	}
}

func suggestions(indicators []Indicator, p float64) []string {
	out := []string{headline(p)}
	for _, ind := range indicators {
		if ind.ScorePercent <= tipThreshold {
			continue
		}
		if tip := Tip(ind.Name); tip != "" {
			out = append(out, tip)
		}
	}
	return out
}
