package similarity

import (
	"regexp"

	"content_integrity/internal/textstat"
)

// PatternReport counts one family of phrasing that often accompanies copied or unsupported text.
type PatternReport struct {
	Pattern  string            `json:"pattern"`
	Count    int               `json:"count"`
	Severity textstat.Severity `json:"severity"`
}

type commonPattern struct {
	name     string
	re       *regexp.Regexp
	severity textstat.Severity
}

var commonPatterns = []commonPattern{
	{"vague attribution", regexp.MustCompile(`(?i)according to (research|studies|experts)`), textstat.SeverityMedium},
	{"unsupported claim", regexp.MustCompile(`(?i)it is (widely|generally|commonly) (known|accepted|believed)`), textstat.SeverityMedium},
	{"weak qualifiers", regexp.MustCompile(`(?i)\b(very|extremely|highly|quite|rather|somewhat)\b`), textstat.SeverityLow},
	{"duplicate conclusion", regexp.MustCompile(`(?is)\bin conclusion\b.*\bin conclusion\b`), textstat.SeverityHigh},
	{"copy-paste indicators", regexp.MustCompile(`(?i)\b(copy|paste|duplicate)\b`), textstat.SeverityHigh},
}

// DetectCommonPatterns returns the patterns found at least once, in table order.
func DetectCommonPatterns(candidate string) ([]PatternReport, error) {
	if err := textstat.Validate("candidate", candidate); err != nil {
		return nil, err
	}
	out := []PatternReport{}
	for _, p := range commonPatterns {
		n := len(p.re.FindAllStringIndex(candidate, -1))
		if n == 0 {
			continue
		}
		out = append(out, PatternReport{Pattern: p.name, Count: n, Severity: p.severity})
	}
	return out, nil
}
