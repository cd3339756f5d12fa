package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"content_integrity/internal/db"
	"content_integrity/internal/enhance"
	"content_integrity/internal/ingest"
	"content_integrity/internal/integrity"
	"content_integrity/internal/observability"
	"content_integrity/internal/server"
	"content_integrity/internal/similarity"
	"content_integrity/internal/watch"
	"content_integrity/internal/workspace"
)

// stringList collects a repeatable flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func (a *app) checker(metrics *observability.Metrics) *integrity.Checker {
	return integrity.NewChecker(a.logger, metrics, integrity.Options{
		MinChars:        a.cfg.Analysis.MinChars,
		MaxEnhancements: a.cfg.Analysis.MaxEnhancements,
	})
}

// readInput returns the text of a supported file, or of stdin for "-".
func (a *app) readInput(path string) (*ingest.Document, error) {
	if path == "-" {
		raw, err := io.ReadAll(a.stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return &ingest.Document{Title: "stdin", Path: "-", Text: string(raw)}, nil
	}
	return ingest.ParseFile(path)
}

func sourceTexts(docs []*ingest.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Text
	}
	return out
}

// loadSources parses each -source argument; directories contribute every supported file.
func loadSources(args []string) ([]*ingest.Document, error) {
	var paths []string
	for _, p := range args {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", p, err)
		}
		if !info.IsDir() {
			paths = append(paths, p)
			continue
		}
		found, err := ingest.ListSupported(p)
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}
	return ingest.ParseFiles(paths)
}

func (a *app) persist(report integrity.Report) {
	if err := db.PersistReport(a.cfg.Storage.DBPath, report); err != nil {
		a.logger.Warn().Err(err).Str("report_id", report.ID).Msg("persist report")
	}
}

func (a *app) cmdInit(_ context.Context, _ []string) error {
	fmt.Fprintf(a.stdout, "Workspace ready at: %s\n", filepath.Clean(a.root))
	fmt.Fprintf(a.stdout, "Config: %s\n", workspace.ConfigPath(a.root))
	fmt.Fprintf(a.stdout, "History: %s\n", a.cfg.Storage.DBPath)
	return nil
}

func (a *app) cmdCheck(ctx context.Context, args []string) error {
	fs := a.flagSet("check")
	var sources stringList
	fs.Var(&sources, "source", "reference document or directory (repeatable)")
	project := fs.String("project", "", "store the draft, sources and report under this project title")
	label := fs.String("label", "", "label for the report (default: file name)")
	noSave := fs.Bool("no-save", false, "do not record the report in history")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(a.stderr, "Usage: integrity check [-source path]... [-project title] [-label name] [-no-save] <file|->")
		return errUsage
	}

	doc, err := a.readInput(fs.Arg(0))
	if err != nil {
		return err
	}
	srcDocs, err := loadSources(sources)
	if err != nil {
		return err
	}

	var proj *workspace.ProjectInfo
	if *project != "" {
		proj, err = workspace.CreateProjectWithDraft(a.root, *project, doc.Title+".txt", []byte(doc.Text))
		if err != nil {
			return err
		}
		for _, s := range srcDocs {
			if _, err := proj.AddSource(s.Title+".txt", []byte(s.Text)); err != nil {
				return err
			}
		}
		// the project keeps sources from earlier runs too
		if srcDocs, err = proj.Sources(); err != nil {
			return err
		}
	}

	name := *label
	if name == "" {
		name = filepath.Base(doc.Path)
	}
	report, err := a.checker(nil).Check(ctx, integrity.Request{
		Candidate: doc.Text,
		Sources:   sourceTexts(srcDocs),
		Label:     name,
	})
	if err != nil {
		return err
	}

	if !*noSave {
		a.persist(report)
	}
	if proj != nil {
		if err := proj.SaveReport(report); err != nil {
			return err
		}
	}
	return integrity.Render(a.stdout, report, a.format)
}

type batchRow struct {
	Label          string  `json:"label"`
	ReportID       string  `json:"report_id,omitempty"`
	Verdict        string  `json:"verdict,omitempty"`
	Similarity     float64 `json:"similarity"`
	SelfSimilarity float64 `json:"self_similarity"`
	AIProbability  float64 `json:"ai_probability"`
	Error          string  `json:"error,omitempty"`
}

func (a *app) cmdBatch(ctx context.Context, args []string) error {
	fs := a.flagSet("batch")
	var sources stringList
	fs.Var(&sources, "source", "reference document or directory (repeatable)")
	workers := fs.Int("workers", 0, "parallel checks (default: analysis.workers)")
	noSave := fs.Bool("no-save", false, "do not record reports in history")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(a.stderr, "Usage: integrity batch [-source path]... [-workers n] [-no-save] <dir>")
		return errUsage
	}

	paths, err := ingest.ListSupported(fs.Arg(0))
	if err != nil {
		return err
	}
	srcDocs, err := loadSources(sources)
	if err != nil {
		return err
	}
	refs := sourceTexts(srcDocs)

	// An unreadable document becomes an error row instead of aborting the batch.
	rows := make([]batchRow, len(paths))
	var (
		reqs   []integrity.Request
		rowIdx []int
	)
	for i, p := range paths {
		rows[i] = batchRow{Label: filepath.Base(p)}
		doc, err := ingest.ParseFile(p)
		if err != nil {
			rows[i].Error = err.Error()
			continue
		}
		reqs = append(reqs, integrity.Request{Candidate: doc.Text, Sources: refs, Label: rows[i].Label})
		rowIdx = append(rowIdx, i)
	}

	n := *workers
	if n <= 0 {
		n = a.cfg.Analysis.Workers
	}
	results, errs := a.checker(nil).CheckAll(ctx, reqs, n)
	if err := ctx.Err(); err != nil {
		return err
	}

	for k, r := range results {
		row := &rows[rowIdx[k]]
		if r.Err != nil {
			row.Error = r.Err.Error()
			continue
		}
		if !*noSave {
			a.persist(r.Report)
		}
		row.ReportID = r.Report.ID
		row.Verdict = r.Report.Verdict()
		row.Similarity = r.Report.Similarity.OverallScorePercent
		row.SelfSimilarity = r.Report.SelfSimilarity.OverallScorePercent
		row.AIProbability = r.Report.AI.AIProbability
	}
	a.logger.Info().
		Int("documents", len(paths)).
		Int("unreadable", len(paths)-len(reqs)).
		Int("failed", len(errs)).
		Msg("batch finished")

	if a.format != integrity.FormatText {
		return integrity.Render(a.stdout, rows, a.format)
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DOCUMENT\tVERDICT\tSIMILARITY\tSELF\tAI")
	for _, r := range rows {
		if r.Error != "" {
			fmt.Fprintf(tw, "%s\terror: %s\t\t\t\n", r.Label, r.Error)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%.1f%%\t%.1f%%\t%.1f%%\n", r.Label, r.Verdict, r.Similarity, r.SelfSimilarity, r.AIProbability*100)
	}
	return tw.Flush()
}

func (a *app) cmdWatch(ctx context.Context, args []string) error {
	fs := a.flagSet("watch")
	var sources stringList
	fs.Var(&sources, "source", "reference document or directory (repeatable)")
	initial := fs.Bool("initial", false, "check every watched draft once at start")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(a.stderr, "Usage: integrity watch [-source path]... [-initial] <path>...")
		return errUsage
	}
	srcDocs, err := loadSources(sources)
	if err != nil {
		return err
	}
	refs := sourceTexts(srcDocs)
	checker := a.checker(nil)

	handler := func(ctx context.Context, path, text string) error {
		report, err := checker.Check(ctx, integrity.Request{Candidate: text, Sources: refs, Label: filepath.Base(path)})
		if err != nil {
			return err
		}
		a.persist(report)
		return integrity.Render(a.stdout, report, a.format)
	}

	w, err := watch.New(fs.Args(), watch.Options{
		Debounce: a.cfg.Watch.Debounce,
		MinChars: a.cfg.Watch.MinChars,
		Initial:  *initial,
	}, handler, a.logger)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

func (a *app) cmdServe(ctx context.Context, _ []string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	var metrics *observability.Metrics
	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(reg, a.cfg.Metrics.Namespace)
		metricsPath = a.cfg.Metrics.Path
	}

	srv := server.NewServer(server.Config{
		Address:         a.cfg.Server.Address(),
		ReadTimeout:     a.cfg.Server.ReadTimeout,
		WriteTimeout:    a.cfg.Server.WriteTimeout,
		ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
		RateLimitRPS:    a.cfg.Server.RateLimitRPS,
		RateLimitBurst:  a.cfg.Server.RateLimitBurst,
		MaxBodyBytes:    a.cfg.Server.MaxBodyBytes,
		MetricsPath:     metricsPath,
		DBPath:          a.cfg.Storage.DBPath,
	}, a.checker(metrics), metrics, reg, a.logger)
	return srv.Run(ctx)
}

func (a *app) cmdHistory(_ context.Context, args []string) error {
	fs := a.flagSet("history")
	limit := fs.Int("limit", 20, "number of reports to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() == 1 {
		report, err := db.LoadReport(a.cfg.Storage.DBPath, fs.Arg(0))
		if err != nil {
			return err
		}
		return integrity.Render(a.stdout, report, a.format)
	}

	rows, err := db.ListReports(a.cfg.Storage.DBPath, *limit)
	if err != nil {
		return err
	}
	if a.format != integrity.FormatText {
		return integrity.Render(a.stdout, rows, a.format)
	}
	if len(rows) == 0 {
		fmt.Fprintln(a.stdout, "No reports yet.")
		return nil
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tLABEL\tVERDICT\tSIMILARITY\tAI")
	for _, r := range rows {
		verdict := integrity.VerdictNeedsRevision
		if r.Acceptable {
			verdict = integrity.VerdictAcceptable
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f%%\t%.1f%%\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Label, verdict, r.SimilarityScore, r.AIProbability*100)
	}
	return tw.Flush()
}

func (a *app) textArg(name string, args []string) (string, error) {
	if len(args) != 1 {
		fmt.Fprintf(a.stderr, "Usage: integrity %s <file|->\n", name)
		return "", errUsage
	}
	doc, err := a.readInput(args[0])
	if err != nil {
		return "", err
	}
	return doc.Text, nil
}

func (a *app) cmdPatterns(_ context.Context, args []string) error {
	text, err := a.textArg("patterns", args)
	if err != nil {
		return err
	}
	reports, err := similarity.DetectCommonPatterns(text)
	if err != nil {
		return err
	}
	if a.format != integrity.FormatText {
		return integrity.Render(a.stdout, reports, a.format)
	}
	if len(reports) == 0 {
		fmt.Fprintln(a.stdout, "No common patterns found.")
		return nil
	}
	for _, p := range reports {
		fmt.Fprintf(a.stdout, "%s: %d (%s)\n", p.Pattern, p.Count, p.Severity)
	}
	return nil
}

func (a *app) cmdParaphrase(_ context.Context, args []string) error {
	text, err := a.textArg("paraphrase", args)
	if err != nil {
		return err
	}
	return a.writeText(enhance.Paraphrase(text))
}

func (a *app) cmdHumanize(_ context.Context, args []string) error {
	text, err := a.textArg("humanize", args)
	if err != nil {
		return err
	}
	return a.writeText(enhance.Humanize(text))
}

func (a *app) writeText(text string) error {
	if a.format != integrity.FormatText {
		return integrity.Render(a.stdout, map[string]string{"text": text}, a.format)
	}
	_, err := fmt.Fprintln(a.stdout, text)
	return err
}
