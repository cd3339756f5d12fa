// Package integrity runs the similarity, AI-likelihood and enhancement engines over
// one draft and combines their results into a single report.
package integrity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"content_integrity/internal/aidetect"
	"content_integrity/internal/enhance"
	"content_integrity/internal/observability"
	"content_integrity/internal/similarity"
	"content_integrity/internal/textstat"
)

// ErrTooShort means the draft has fewer characters than the configured minimum.
var ErrTooShort = errors.New("not enough text to analyze yet")

const (
	// SelfSimilarityLimit is the self-repetition percentage at which a draft stops being acceptable.
	SelfSimilarityLimit = 25.0
	// AIProbabilityLimit is the AI probability at which a draft stops being acceptable.
	AIProbabilityLimit = 0.6
)

const (
	VerdictAcceptable    = "acceptable"
	VerdictNeedsRevision = "needs_revision"
)

const (
	engineSimilarity     = "similarity"
	engineSelfSimilarity = "self_similarity"
	engineAI             = "ai"
	enginePatterns       = "patterns"
	engineEnhancements   = "enhancements"
)

type Request struct {
	Candidate string   `json:"text"`
	Sources   []string `json:"sources"`
	// Label names the draft in logs and history, usually a file name.
	Label string `json:"label"`
}

type Report struct {
	ID                    string                     `json:"id"`
	CreatedAt             time.Time                  `json:"created_at"`
	Label                 string                     `json:"label"`
	Words                 int                        `json:"words"`
	Chars                 int                        `json:"chars"`
	SourceCount           int                        `json:"source_count"`
	Similarity            similarity.Result          `json:"similarity"`
	SimilaritySuggestions []string                   `json:"similarity_suggestions"`
	SelfSimilarity        similarity.Result          `json:"self_similarity"`
	Patterns              []similarity.PatternReport `json:"patterns"`
	AI                    aidetect.Result            `json:"ai"`
	Enhancements          []enhance.Suggestion       `json:"enhancements"`
	TotalEnhancements     int                        `json:"total_enhancements"`
	Acceptable            bool                       `json:"acceptable"`
}

// Verdict is the metric label for the report.
func (r Report) Verdict() string {
	if r.Acceptable {
		return VerdictAcceptable
	}
	return VerdictNeedsRevision
}

// Acceptable combines the three engine verdicts: no flagged source overlap, self-repetition
// under 25% and AI probability under 0.6.
func Acceptable(sources, self similarity.Result, ai aidetect.Result) bool {
	return !sources.IsFlagged &&
		self.OverallScorePercent < SelfSimilarityLimit &&
		ai.AIProbability < AIProbabilityLimit
}

type Options struct {
	// MinChars rejects shorter drafts with ErrTooShort; 0 accepts anything.
	MinChars int
	// MaxEnhancements caps Report.Enhancements; 0 keeps all.
	MaxEnhancements int
}

type Checker struct {
	logger  zerolog.Logger
	metrics *observability.Metrics
	opts    Options
	now     func() time.Time
	newID   func() string
}

// NewChecker builds a Checker. metrics may be nil.
func NewChecker(logger zerolog.Logger, metrics *observability.Metrics, opts Options) *Checker {
	return &Checker{
		logger:  logger,
		metrics: metrics,
		opts:    opts,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// EnsureLength returns ErrTooShort when text has fewer than MinChars characters.
func (c *Checker) EnsureLength(text string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	if n < c.opts.MinChars {
		return fmt.Errorf("%w: %d characters, need at least %d", ErrTooShort, n, c.opts.MinChars)
	}
	return nil
}

// Check runs both similarity passes and the AI analysis concurrently, then the pattern,
// suggestion and enhancement passes, and returns the combined report.
func (c *Checker) Check(ctx context.Context, req Request) (Report, error) {
	if err := textstat.Validate("text", req.Candidate); err != nil {
		return Report{}, err
	}
	if err := textstat.ValidateAll("sources", req.Sources); err != nil {
		return Report{}, err
	}
	if err := c.EnsureLength(req.Candidate); err != nil {
		return Report{}, err
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	report := Report{
		ID:          c.newID(),
		CreatedAt:   c.now().UTC(),
		Label:       req.Label,
		Words:       len(textstat.Fields(req.Candidate)),
		Chars:       utf8.RuneCountInString(req.Candidate),
		SourceCount: len(req.Sources),
	}
	logger := observability.WithCheckContext(c.logger, report.ID, req.Label)
	start := c.now()

	var (
		wg                     sync.WaitGroup
		simErr, selfErr, aiErr error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		simErr = c.timed(logger, engineSimilarity, func() (err error) {
			report.Similarity, err = similarity.CheckAgainstSources(req.Candidate, req.Sources)
			return err
		})
	}()
	go func() {
		defer wg.Done()
		selfErr = c.timed(logger, engineSelfSimilarity, func() (err error) {
			report.SelfSimilarity, err = similarity.CheckSelfSimilarity(req.Candidate)
			return err
		})
	}()
	go func() {
		defer wg.Done()
		aiErr = c.timed(logger, engineAI, func() (err error) {
			report.AI, err = aidetect.Analyze(req.Candidate)
			return err
		})
	}()
	wg.Wait()
	if err := errors.Join(simErr, selfErr, aiErr); err != nil {
		return Report{}, err
	}

	err := c.timed(logger, enginePatterns, func() (err error) {
		report.Patterns, err = similarity.DetectCommonPatterns(req.Candidate)
		return err
	})
	if err != nil {
		return Report{}, err
	}
	report.SimilaritySuggestions = similarity.GenerateSuggestions(report.Similarity)

	var enhancements []enhance.Suggestion
	err = c.timed(logger, engineEnhancements, func() (err error) {
		enhancements, err = enhance.Generate(req.Candidate)
		return err
	})
	if err != nil {
		return Report{}, err
	}
	report.TotalEnhancements = len(enhancements)
	if limit := c.opts.MaxEnhancements; limit > 0 && len(enhancements) > limit {
		enhancements = enhancements[:limit]
	}
	report.Enhancements = enhancements

	report.Acceptable = Acceptable(report.Similarity, report.SelfSimilarity, report.AI)
	c.metrics.RecordCheck(report.Verdict(), report.AI.AIProbability, report.Similarity.OverallScorePercent)

	logger.Info().
		Int("words", report.Words).
		Int("sources", report.SourceCount).
		Float64("similarity", report.Similarity.OverallScorePercent).
		Float64("self_similarity", report.SelfSimilarity.OverallScorePercent).
		Float64("ai_probability", report.AI.AIProbability).
		Str("classification", string(report.AI.Classification)).
		Str("verdict", report.Verdict()).
		Dur("duration", c.now().Sub(start)).
		Msg("check completed")
	return report, nil
}

func (c *Checker) timed(logger zerolog.Logger, engine string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	c.metrics.ObserveEngine(engine, d)
	ev := logger.Debug()
	if err != nil {
		ev = logger.Warn().Err(err)
	}
	ev.Str("engine", engine).Dur("duration", d).Msg("engine finished")
	if err != nil {
		return fmt.Errorf("%s: %w", engine, err)
	}
	return nil
}
