// integrity checks drafts for source overlap, self-repetition and AI-like phrasing.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"content_integrity/internal/config"
	"content_integrity/internal/integrity"
	"content_integrity/internal/observability"
	"content_integrity/internal/workspace"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	format     integrity.Format
	cfg        *config.Config
	root       string
	logger     zerolog.Logger
}

// errUsage is returned after usage text has been printed.
var errUsage = errors.New("usage")

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("integrity", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file")
	format := fs.String("format", "text", "output format: text, json or yaml")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		usage(stderr)
		return 2
	}

	a := &app{stdin: stdin, stdout: stdout, stderr: stderr, configPath: *configPath}
	f, err := integrity.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	a.format = f

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	var handler func(context.Context, []string) error
	switch cmd {
	case "init":
		handler = a.cmdInit
	case "check":
		handler = a.cmdCheck
	case "batch":
		handler = a.cmdBatch
	case "watch":
		handler = a.cmdWatch
	case "serve":
		handler = a.cmdServe
	case "history":
		handler = a.cmdHistory
	case "patterns":
		handler = a.cmdPatterns
	case "paraphrase":
		handler = a.cmdParaphrase
	case "humanize":
		handler = a.cmdHumanize
	case "help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", cmd)
		usage(stderr)
		return 2
	}

	if err := a.setup(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := handler(ctx, rest); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			return 2
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `integrity - content integrity checks for drafts

Usage: integrity [options] <command> [args]

Commands:
  init                         Create the workspace and default config
  check [flags] <file|->       Check one draft against optional reference sources
  batch [flags] <dir>          Check every supported draft in a directory
  watch [flags] <path>...      Re-check drafts after they stop changing
  serve                        Run the HTTP API
  history [-limit n] [id]      List stored reports, or print one
  patterns <file|->            Count common problem phrasings
  paraphrase <file|->          Rewrite stock transitions
  humanize <file|->            Contract repeated formal phrases
  help                         Show this help message

Options:
  -config <path>   Path to config file (default: ./config.yaml or ~/.content-integrity/configs/config.yaml)
  -format <fmt>    Output format: text, json or yaml (default: text)`)
}

// setup loads configuration, prepares the workspace and builds the logger.
// Without -config, a config.yaml in . or ./configs wins over the workspace one.
func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	root := cfg.Storage.WorkspaceDir
	if root == "" {
		root, err = workspace.EnsureDefault()
	} else {
		root, err = workspace.EnsureAt(expandHome(root))
	}
	if err != nil {
		return fmt.Errorf("workspace initialization failed: %w", err)
	}

	if a.configPath == "" && !localConfigExists() {
		if cfg, err = config.Load(workspace.ConfigPath(root)); err != nil {
			return err
		}
	}
	if cfg.Storage.DBPath == "" {
		cfg.Storage.DBPath = workspace.DBPath(root)
	}

	a.cfg = cfg
	a.root = root
	a.logger = observability.NewLogger(cfg.Logging.Observability())
	return nil
}

func localConfigExists() bool {
	for _, p := range []string{"config.yaml", filepath.Join("configs", "config.yaml")} {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
