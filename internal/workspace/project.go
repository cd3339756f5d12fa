package workspace

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"content_integrity/internal/ingest"
	"content_integrity/internal/integrity"
)

// ProjectInfo locates one draft's files: the draft copy, its reference sources and the
// latest report.
type ProjectInfo struct {
	ID         string
	Title      string
	Root       string
	DraftPath  string
	SourcesDir string
	ReportPath string
}

func CreateProject(workspaceRoot, title string, draft []byte) (*ProjectInfo, error) {
	return CreateProjectWithDraft(workspaceRoot, title, "draft.txt", draft)
}

// CreateProjectWithDraft creates or reopens the project for title. A non-empty draft
// replaces the stored copy; an empty one keeps whatever is there.
func CreateProjectWithDraft(workspaceRoot, title, draftFileName string, draft []byte) (*ProjectInfo, error) {
	id := ProjectID(title)
	projectRoot := filepath.Join(workspaceRoot, "projects", id)
	sourcesDir := filepath.Join(projectRoot, "sources")
	if err := os.MkdirAll(sourcesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create project dir: %w", err)
	}

	draftPath := filepath.Join(projectRoot, sanitizeFileName(draftFileName, "draft.txt"))
	if len(draft) > 0 {
		if err := os.WriteFile(draftPath, draft, 0o644); err != nil {
			return nil, fmt.Errorf("write draft file: %w", err)
		}
	} else if _, err := os.Stat(draftPath); os.IsNotExist(err) {
		if err := os.WriteFile(draftPath, nil, 0o644); err != nil {
			return nil, fmt.Errorf("create empty draft file: %w", err)
		}
	}

	return &ProjectInfo{
		ID:         id,
		Title:      strings.TrimSpace(title),
		Root:       projectRoot,
		DraftPath:  draftPath,
		SourcesDir: sourcesDir,
		ReportPath: filepath.Join(projectRoot, "report.json"),
	}, nil
}

// AddSource copies a reference document into the project's sources directory.
func (p *ProjectInfo) AddSource(name string, data []byte) (string, error) {
	path := filepath.Join(p.SourcesDir, sanitizeFileName(name, "source.txt"))
	if !ingest.Supported(path) {
		return "", fmt.Errorf("%w: %s", ingest.ErrUnsupported, filepath.Ext(path))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write source file: %w", err)
	}
	return path, nil
}

// Sources parses every supported document in the sources directory, sorted by name.
func (p *ProjectInfo) Sources() ([]*ingest.Document, error) {
	paths, err := ingest.ListSupported(p.SourcesDir)
	if err != nil {
		return nil, err
	}
	return ingest.ParseFiles(paths)
}

func (p *ProjectInfo) SaveReport(report integrity.Report) error {
	return SaveReport(p.ReportPath, report)
}

func SaveReport(path string, report integrity.Report) error {
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func LoadReport(path string) (integrity.Report, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return integrity.Report{}, fmt.Errorf("read report: %w", err)
	}
	var report integrity.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return integrity.Report{}, fmt.Errorf("decode report: %w", err)
	}
	return report, nil
}

// ProjectID is stable per title, ignoring case and surrounding space.
func ProjectID(title string) string {
	trimmed := strings.TrimSpace(strings.ToLower(title))
	sum := sha256.Sum256([]byte(trimmed))
	return hex.EncodeToString(sum[:])[:12]
}

func sanitizeFileName(name, fallback string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return fallback
	}
	return strings.ReplaceAll(base, "..", "")
}
