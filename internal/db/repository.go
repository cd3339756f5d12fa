package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"content_integrity/internal/integrity"
	"content_integrity/internal/similarity"
)

var ErrNotFound = errors.New("report not found")

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ReportRow is the summary kept for each stored report.
type ReportRow struct {
	ID                  string    `json:"id"`
	Label               string    `json:"label"`
	CreatedAt           time.Time `json:"created_at"`
	Words               int       `json:"words"`
	SimilarityScore     float64   `json:"similarity_score"`
	SimilarityFlagged   bool      `json:"similarity_flagged"`
	SelfSimilarityScore float64   `json:"self_similarity_score"`
	AIProbability       float64   `json:"ai_probability"`
	Classification      string    `json:"classification"`
	Acceptable          bool      `json:"acceptable"`
}

// PersistReport stores the report summary, its matches and its indicators in one transaction.
// Storing a report with an existing id replaces it.
func PersistReport(dbPath string, report integrity.Report) error {
	conn, err := Open(dbPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"matches", "indicators"} {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE report_id = ?`, report.ID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO reports(id, label, created_at, words, chars, similarity_score, similarity_flagged,
			self_similarity_score, ai_probability, classification, acceptable, payload)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`,
		report.ID,
		report.Label,
		report.CreatedAt.UTC().Format(timeLayout),
		report.Words,
		report.Chars,
		report.Similarity.OverallScorePercent,
		report.Similarity.IsFlagged,
		report.SelfSimilarity.OverallScorePercent,
		report.AI.AIProbability,
		string(report.AI.Classification),
		report.Acceptable,
		string(payload),
	); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	if err := insertMatches(tx, report.ID, "sources", report.Similarity.Matches); err != nil {
		return err
	}
	if err := insertMatches(tx, report.ID, "self", report.SelfSimilarity.Matches); err != nil {
		return err
	}
	for _, ind := range report.AI.Indicators {
		if _, err := tx.Exec(
			`INSERT INTO indicators(report_id, name, score, severity) VALUES(?,?,?,?)`,
			report.ID,
			string(ind.Name),
			ind.ScorePercent,
			string(ind.Severity),
		); err != nil {
			return fmt.Errorf("insert indicator: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func insertMatches(tx *sql.Tx, reportID, scope string, matches []similarity.Match) error {
	for _, m := range matches {
		if _, err := tx.Exec(
			`INSERT INTO matches(report_id, scope, kind, source_label, similarity, start_index, end_index, matched_text) VALUES(?,?,?,?,?,?,?,?)`,
			reportID,
			scope,
			string(m.Kind),
			m.SourceLabel,
			m.SimilarityPercent,
			m.StartIndex,
			m.EndIndex,
			m.MatchedText,
		); err != nil {
			return fmt.Errorf("insert match: %w", err)
		}
	}
	return nil
}

// ListReports returns up to limit report summaries, newest first. limit <= 0 means 20.
func ListReports(dbPath string, limit int) ([]ReportRow, error) {
	if limit <= 0 {
		limit = 20
	}
	conn, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.Query(
		`SELECT id, label, created_at, words, similarity_score, similarity_flagged, self_similarity_score,
			ai_probability, classification, acceptable
		FROM reports ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	out := []ReportRow{}
	for rows.Next() {
		var (
			r       ReportRow
			created string
		)
		if err := rows.Scan(&r.ID, &r.Label, &created, &r.Words, &r.SimilarityScore, &r.SimilarityFlagged,
			&r.SelfSimilarityScore, &r.AIProbability, &r.Classification, &r.Acceptable); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		r.CreatedAt, err = time.Parse(timeLayout, created)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadReport returns the full stored report.
func LoadReport(dbPath, id string) (integrity.Report, error) {
	conn, err := Open(dbPath)
	if err != nil {
		return integrity.Report{}, err
	}
	defer conn.Close()

	var payload string
	err = conn.QueryRow(`SELECT payload FROM reports WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return integrity.Report{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return integrity.Report{}, fmt.Errorf("query report: %w", err)
	}
	var report integrity.Report
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return integrity.Report{}, fmt.Errorf("decode report: %w", err)
	}
	return report, nil
}

func CountRows(dbPath, table string) (int, error) {
	conn, err := Open(dbPath)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	return countRowsConn(conn, table)
}

func countRowsConn(conn *sql.DB, table string) (int, error) {
	if !tables[table] {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	row := conn.QueryRow(`SELECT COUNT(*) FROM ` + table)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("scan count: %w", err)
	}
	return count, nil
}
