package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"content_integrity/internal/aidetect"
	"content_integrity/internal/db"
	"content_integrity/internal/enhance"
	"content_integrity/internal/integrity"
	"content_integrity/internal/similarity"
	"content_integrity/internal/textstat"
)

const (
	defaultReportLimit = 20
	maxReportLimit     = 100
)

type textRequest struct {
	Text string `json:"text" validate:"required"`
}

type sourcesRequest struct {
	Text    string   `json:"text" validate:"required"`
	Sources []string `json:"sources" validate:"max=100"`
	Label   string   `json:"label" validate:"max=256"`
}

type similarityResponse struct {
	Result      similarity.Result `json:"result"`
	Suggestions []string          `json:"suggestions"`
}

type textResponse struct {
	Text string `json:"text"`
}

// decode reads a size-limited JSON body into v and validates it. It writes the error
// response itself and reports whether the handler should continue.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s fails %q", strings.ToLower(fe.Field()), fe.Tag()))
			return false
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// writeEngineError maps analysis errors onto status codes.
func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, textstat.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, integrity.ErrTooShort):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case r.Context().Err() != nil:
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("analysis failed")
		writeError(w, http.StatusInternalServerError, "analysis failed")
	}
}

// check handles POST /api/v1/check.
func (s *Server) check(w http.ResponseWriter, r *http.Request) {
	var req sourcesRequest
	if !s.decode(w, r, &req) {
		return
	}
	report, err := s.checker.Check(r.Context(), integrity.Request{
		Candidate: req.Text,
		Sources:   req.Sources,
		Label:     req.Label,
	})
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	if s.cfg.DBPath != "" {
		if err := db.PersistReport(s.cfg.DBPath, report); err != nil {
			s.logger.Warn().Err(err).Str("report_id", report.ID).Msg("persist report")
		}
	}
	writeJSON(w, http.StatusOK, report)
}

// checkSimilarity handles POST /api/v1/similarity.
func (s *Server) checkSimilarity(w http.ResponseWriter, r *http.Request) {
	var req sourcesRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := similarity.CheckAgainstSources(req.Text, req.Sources)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, similarityResponse{Result: result, Suggestions: similarity.GenerateSuggestions(result)})
}

// checkSelfSimilarity handles POST /api/v1/self-similarity.
func (s *Server) checkSelfSimilarity(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := similarity.CheckSelfSimilarity(req.Text)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, similarityResponse{Result: result, Suggestions: similarity.GenerateSuggestions(result)})
}

func (s *Server) patterns(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decode(w, r, &req) {
		return
	}
	reports, err := similarity.DetectCommonPatterns(req.Text)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) aiLikelihood(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := aidetect.Analyze(req.Text)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) enhancements(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decode(w, r, &req) {
		return
	}
	suggestions, err := enhance.Generate(req.Text)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}

func (s *Server) paraphrase(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, textResponse{Text: enhance.Paraphrase(req.Text)})
}

func (s *Server) humanize(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, textResponse{Text: enhance.Humanize(req.Text)})
}

// listReports handles GET /api/v1/reports?limit=N.
func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	if s.cfg.DBPath == "" {
		writeError(w, http.StatusNotFound, "report history is disabled")
		return
	}
	limit := defaultReportLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxReportLimit)
	}
	rows, err := db.ListReports(s.cfg.DBPath, limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("list reports")
		writeError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
