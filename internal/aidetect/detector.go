// Package aidetect estimates how likely a text is to be machine-generated from ten
// lexical and statistical indicators.
package aidetect

import (
	"content_integrity/internal/textstat"
)

type IndicatorName string

const (
	Perplexity          IndicatorName = "Perplexity"
	Burstiness          IndicatorName = "Burstiness"
	VocabularyDiversity IndicatorName = "Vocabulary Diversity"
	SentenceStructure   IndicatorName = "Sentence Structure"
	RepetitivePatterns  IndicatorName = "Repetitive Patterns"
	FormalTransitions   IndicatorName = "Formal Transitions"
	ClichePhrases       IndicatorName = "AI Cliché Phrases"
	ParagraphUniformity IndicatorName = "Paragraph Uniformity"
	PersonalPronouns    IndicatorName = "Personal Pronouns"
	EmotionalLanguage   IndicatorName = "Emotional Language"
)

type Indicator struct {
	Name         IndicatorName     `json:"name"`
	ScorePercent float64           `json:"score"`
	Severity     textstat.Severity `json:"severity"`
	Description  string            `json:"description"`
}

type Classification string

const (
	ClassHuman       Classification = "human"
	ClassLikelyHuman Classification = "likely-human"
	ClassUncertain   Classification = "uncertain"
	ClassLikelyAI    Classification = "likely-ai"
	ClassAI          Classification = "ai"
)

type Result struct {
	AIProbability    float64        `json:"ai_probability"`
	HumanProbability float64        `json:"human_probability"`
	Indicators       []Indicator    `json:"indicators"`
	Classification   Classification `json:"classification"`
	Suggestions      []string       `json:"suggestions"`
}

var weights = map[IndicatorName]float64{
	Perplexity:          0.15,
	Burstiness:          0.15,
	VocabularyDiversity: 0.10,
	SentenceStructure:   0.10,
	RepetitivePatterns:  0.15,
	FormalTransitions:   0.10,
	ClichePhrases:       0.15,
	ParagraphUniformity: 0.05,
	PersonalPronouns:    0.03,
	EmotionalLanguage:   0.02,
}

// fallbackWeight applies to indicators missing from the weight table.
const fallbackWeight = 0.05

const (
	aiCut          = 0.8
	likelyAICut    = 0.6
	uncertainCut   = 0.4
	likelyHumanCut = 0.2
)

func Weight(name IndicatorName) float64 {
	if w, ok := weights[name]; ok {
		return w
	}
	return fallbackWeight
}

var indicatorFuncs = []func(string) Indicator{
	checkPerplexity,
	checkBurstiness,
	checkVocabularyDiversity,
	checkSentenceStructure,
	checkRepetitivePatterns,
	checkFormalTransitions,
	checkClichePhrases,
	checkParagraphUniformity,
	checkPersonalPronouns,
	checkEmotionalLanguage,
}

// Analyze never fails on short or empty text; indicators without enough material
// report a neutral score instead. The only error is invalid UTF-8.
func Analyze(text string) (Result, error) {
	if err := textstat.Validate("candidate", text); err != nil {
		return Result{}, err
	}
	indicators := make([]Indicator, 0, len(indicatorFuncs))
	for _, fn := range indicatorFuncs {
		indicators = append(indicators, fn(text))
	}
	p := Probability(indicators)
	return Result{
		AIProbability:    p,
		HumanProbability: 1 - p,
		Indicators:       indicators,
		Classification:   Classify(p),
		Suggestions:      suggestions(indicators, p),
	}, nil
}

// Probability is the weighted mean of the indicator scores scaled to [0,1].
func Probability(indicators []Indicator) float64 {
	sum, total := 0.0, 0.0
	for _, ind := range indicators {
		w := Weight(ind.Name)
		sum += ind.ScorePercent / 100 * w
		total += w
	}
	if total == 0 {
		return 0
	}
	return textstat.Clamp01(sum / total)
}

func Classify(p float64) Classification {
	switch {
	case p >= aiCut:
		return ClassAI
	case p >= likelyAICut:
		return ClassLikelyAI
	case p >= uncertainCut:
		return ClassUncertain
	case p >= likelyHumanCut:
		return ClassLikelyHuman
	default:
		return ClassHuman
	}
}
