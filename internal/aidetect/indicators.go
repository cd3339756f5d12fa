package aidetect

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"content_integrity/internal/textstat"
)

const neutralScore = 50.0

var connectivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(furthermore|moreover|additionally|in addition)\b`),
	regexp.MustCompile(`(?i)\b(however|nevertheless|nonetheless)\b`),
	regexp.MustCompile(`(?i)\b(therefore|thus|hence|consequently)\b`),
	regexp.MustCompile(`(?i)\b(it is important to note|it should be noted|it is worth mentioning)\b`),
}

var clichePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)in today['’]s (digital|modern|fast-paced) (world|age|era)`),
	regexp.MustCompile(`(?i)it is important to (note|understand|recognize|acknowledge)`),
	regexp.MustCompile(`(?i)plays? a (crucial|vital|important|significant) role`),
	regexp.MustCompile(`(?i)in conclusion,? it (can be|is) (said|noted|concluded)`),
	regexp.MustCompile(`(?i)delve into|diving deep|explore the intricacies`),
	regexp.MustCompile(`(?i)landscape of|realm of|sphere of`),
	regexp.MustCompile(`(?i)cutting[- ]edge|state[- ]of[- ]the[- ]art`),
}

var formalTransitionWords = wordSet(
	"furthermore", "moreover", "nevertheless", "nonetheless", "accordingly",
	"consequently", "subsequently", "notwithstanding", "henceforth",
)

var pronounWords = wordSet(
	"i", "me", "my", "mine", "myself",
	"we", "us", "our", "ours", "ourselves",
	"you", "your", "yours", "yourself", "yourselves",
	"he", "him", "his", "himself",
	"she", "her", "hers", "herself",
	"it", "its", "itself",
	"they", "them", "their", "theirs", "themselves",
)

var emotionWords = wordSet(
	"amazing", "terrible", "wonderful", "horrible", "fantastic", "awful",
	"love", "hate", "excited", "disappointed", "thrilled", "frustrated",
	"happy", "sad", "angry", "joyful", "miserable", "delighted",
)

func wordSet(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}

func neutral(name IndicatorName, description string) Indicator {
	return Indicator{
		Name:         name,
		ScorePercent: neutralScore,
		Severity:     textstat.SeverityMedium,
		Description:  description,
	}
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}

// Low variance of word lengths reads as predictable text.
func checkPerplexity(text string) Indicator {
	words := textstat.Fields(text)
	if len(words) == 0 {
		return neutral(Perplexity, "Insufficient text to analyze predictability")
	}
	lengths := make([]float64, len(words))
	for i, w := range words {
		lengths[i] = float64(utf8.RuneCountInString(w))
	}
	score := textstat.Clamp01(1 - textstat.Variance(lengths)/50)
	return Indicator{
		Name:         Perplexity,
		ScorePercent: score * 100,
		Severity:     textstat.Band(score, 0.4, 0.7),
		Description:  pick(score > 0.6, "Text is highly predictable (AI-like)", "Text has good variety (human-like)"),
	}
}

func checkBurstiness(text string) Indicator {
	sentences := textstat.Sentences(text, 10)
	if len(sentences) < 3 {
		return neutral(Burstiness, "Insufficient text to analyze burstiness")
	}
	score := textstat.Clamp01(1 - textstat.Variance(textstat.WordCounts(textstat.Texts(sentences)))/200)
	return Indicator{
		Name:         Burstiness,
		ScorePercent: score * 100,
		Severity:     textstat.Band(score, 0.4, 0.7),
		Description:  pick(score > 0.6, "Sentences are too uniform in length (AI-like)", "Good sentence length variation (human-like)"),
	}
}

// Unusually diverse vocabulary counts toward AI, which is a heuristic rather than an
// established signal. Ordinary repetition scores zero.
func checkVocabularyDiversity(text string) Indicator {
	words := textstat.LetterWords(text)
	if len(words) == 0 {
		return neutral(VocabularyDiversity, "Insufficient text to analyze vocabulary")
	}
	unique := map[string]struct{}{}
	for _, w := range words {
		unique[w] = struct{}{}
	}
	diversity := float64(len(unique)) / float64(len(words))
	score := 0.0
	if diversity > 0.6 {
		score = (diversity - 0.5) * 2
	}
	return Indicator{
		Name:         VocabularyDiversity,
		ScorePercent: textstat.ClampPercent(score * 100),
		Severity:     textstat.Band(diversity, 0.6, 0.7),
		Description:  pick(diversity > 0.7, "Unusually high vocabulary diversity (AI-like)", "Natural vocabulary repetition (human-like)"),
	}
}

func checkSentenceStructure(text string) Indicator {
	sentences := textstat.Sentences(text, 0)
	if len(sentences) < 3 {
		return neutral(SentenceStructure, "Insufficient sentences to analyze")
	}
	starters := textstat.NewFrequency()
	for _, s := range sentences {
		fields := textstat.Fields(s.Text)
		starters.Add(strings.ToLower(fields[0]))
	}
	ratio := float64(starters.Max()) / float64(len(sentences))
	return Indicator{
		Name:         SentenceStructure,
		ScorePercent: ratio * 100,
		Severity:     textstat.Band(ratio, 0.3, 0.5),
		Description:  pick(ratio > 0.4, "Repetitive sentence starters (AI-like)", "Varied sentence structures (human-like)"),
	}
}

func countMatches(patterns []*regexp.Regexp, text string) int {
	n := 0
	for _, re := range patterns {
		n += len(re.FindAllStringIndex(text, -1))
	}
	return n
}

func perSentence(count int, text string) float64 {
	sentences := textstat.Sentences(text, 0)
	if len(sentences) == 0 {
		return 0
	}
	return float64(count) / float64(len(sentences))
}

func checkRepetitivePatterns(text string) Indicator {
	ratio := perSentence(countMatches(connectivePatterns, text), text)
	return Indicator{
		Name:         RepetitivePatterns,
		ScorePercent: math.Min(100, ratio*200),
		Severity:     textstat.Band(ratio, 0.15, 0.3),
		Description:  pick(ratio > 0.2, "Excessive use of transition words (AI-like)", "Natural use of transitions (human-like)"),
	}
}

func wordRatio(words []string, set map[string]struct{}) float64 {
	n := 0
	for _, w := range words {
		if _, ok := set[w]; ok {
			n++
		}
	}
	return float64(n) / float64(len(words))
}

func checkFormalTransitions(text string) Indicator {
	words := textstat.LetterWords(text)
	if len(words) == 0 {
		return neutral(FormalTransitions, "Insufficient text to analyze transitions")
	}
	ratio := wordRatio(words, formalTransitionWords)
	return Indicator{
		Name:         FormalTransitions,
		ScorePercent: math.Min(100, ratio*500),
		Severity:     textstat.Band(ratio, 0.01, 0.02),
		Description:  pick(ratio > 0.015, "Overuse of formal transitions (AI-like)", "Natural transition usage (human-like)"),
	}
}

func checkClichePhrases(text string) Indicator {
	ratio := perSentence(countMatches(clichePatterns, text), text)
	return Indicator{
		Name:         ClichePhrases,
		ScorePercent: math.Min(100, ratio*300),
		Severity:     textstat.Band(ratio, 0.1, 0.2),
		Description:  pick(ratio > 0.15, "Contains common AI phrases (AI-like)", "Original phrasing (human-like)"),
	}
}

func checkParagraphUniformity(text string) Indicator {
	paragraphs := textstat.Paragraphs(text, 20)
	if len(paragraphs) < 3 {
		return neutral(ParagraphUniformity, "Insufficient paragraphs to analyze")
	}
	score := textstat.Clamp01(1 - textstat.Variance(textstat.WordCounts(textstat.Texts(paragraphs)))/500)
	return Indicator{
		Name:         ParagraphUniformity,
		ScorePercent: score * 100,
		Severity:     textstat.Band(score, 0.4, 0.7),
		Description:  pick(score > 0.6, "Paragraphs too uniform in length (AI-like)", "Natural paragraph variation (human-like)"),
	}
}

// Pronouns are matched on the part before an apostrophe, so "I've" and "it's" count.
func checkPersonalPronouns(text string) Indicator {
	total := len(textstat.Fields(text))
	if total == 0 {
		return neutral(PersonalPronouns, "Insufficient text to analyze pronouns")
	}
	n := 0
	for _, w := range textstat.Words(text) {
		if i := strings.IndexByte(w, '\''); i >= 0 {
			w = w[:i]
		}
		if _, ok := pronounWords[w]; ok {
			n++
		}
	}
	ratio := float64(n) / float64(total)
	score := 20.0
	switch {
	case ratio < 0.02:
		score = 80
	case ratio < 0.05:
		score = 50
	}
	return Indicator{
		Name:         PersonalPronouns,
		ScorePercent: score,
		Severity:     textstat.Band(score, 40, 60),
		Description:  pick(ratio < 0.02, "Very few personal pronouns (AI-like)", "Natural pronoun usage (human-like)"),
	}
}

func checkEmotionalLanguage(text string) Indicator {
	words := textstat.LetterWords(text)
	if len(words) == 0 {
		return neutral(EmotionalLanguage, "Insufficient text to analyze emotional language")
	}
	ratio := wordRatio(words, emotionWords)
	score := 15.0
	switch {
	case ratio < 0.005:
		score = 70
	case ratio < 0.01:
		score = 40
	}
	return Indicator{
		Name:         EmotionalLanguage,
		ScorePercent: score,
		Severity:     textstat.Band(score, 35, 60),
		Description:  pick(ratio < 0.005, "Lacks emotional language (AI-like)", "Contains emotional expressions (human-like)"),
	}
}
