package offline

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"content_integrity/internal/chunk"
	"content_integrity/internal/enhance"
	"content_integrity/internal/integrity"
)

type failTransport struct{}

func (f failTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("network disabled for offline test")
}

func TestOfflineMode(t *testing.T) {
	original := http.DefaultTransport
	http.DefaultTransport = failTransport{}
	t.Cleanup(func() { http.DefaultTransport = original })

	text := strings.Repeat("This is a sentence about the harbour at dawn. ", 50)
	segments := chunk.SlidingWindow(text, 200, 60, 50)
	if len(segments) == 0 {
		t.Fatal("expected chunking to work offline")
	}

	checker := integrity.NewChecker(zerolog.Nop(), nil, integrity.Options{MinChars: 100})
	report, err := checker.Check(context.Background(), integrity.Request{
		Candidate: text,
		Sources:   []string{text},
	})
	if err != nil {
		t.Fatalf("expected check to work offline: %v", err)
	}
	if !report.Similarity.IsFlagged {
		t.Fatal("expected copied text to be flagged offline")
	}
	if len(report.AI.Indicators) != 10 {
		t.Fatalf("expected 10 indicators, got %d", len(report.AI.Indicators))
	}

	if got := enhance.Paraphrase("Moreover, it rained."); got != "Also, it rained." {
		t.Fatalf("expected paraphrase to work offline, got %q", got)
	}
}
