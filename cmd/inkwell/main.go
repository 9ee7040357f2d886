// Package main is the entry point for the inkwell command line tool.
//
// inkwell runs the editor's find and replace over files without a UI:
//
//	inkwell -find TODO notes.txt
//	inkwell -find 'v(\d+)' -regex -replace v2 -dry-run a.go b.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	json "github.com/goccy/go-json"

	"github.com/dshills/inkwell/internal/app"
	"github.com/dshills/inkwell/internal/config"
	"github.com/dshills/inkwell/internal/document"
	"github.com/dshills/inkwell/internal/finder"
	"github.com/dshills/inkwell/internal/search"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Exit codes follow grep: 1 means nothing matched.
const (
	exitOK      = 0
	exitNoMatch = 1
	exitError   = 2
)

type options struct {
	Find          string
	Replace       string
	HasReplace    bool
	CaseSensitive bool
	Regex         bool
	JSON          bool
	DryRun        bool
	ConfigPath    string
	LogLevel      string
	Files         []string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, code, ok := parseFlags(args, stdout, stderr)
	if !ok {
		return code
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	// A one-shot run has no use for change notifications.
	cfg.Files.WatchExternal = false

	logger := app.NewLogger(app.LoggerConfig{
		Level:  app.ParseLogLevel(cfg.Logging.Level),
		Output: stderr,
		Prefix: "inkwell",
	})
	editor, err := app.NewEditor(cfg, app.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	defer func() {
		if err := editor.Shutdown(); err != nil {
			logger.Warn("shutdown: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rep, err := execute(ctx, editor, opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	logMetrics(logger, editor.Metrics())

	if opts.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitError
		}
	} else {
		rep.writeText(stdout)
	}

	if rep.Total == 0 {
		return exitNoMatch
	}
	return exitOK
}

func parseFlags(args []string, stdout, stderr io.Writer) (options, int, bool) {
	var opts options
	var showVersion bool

	fs := flag.NewFlagSet("inkwell", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.Find, "find", "", "Text or pattern to search for")
	fs.StringVar(&opts.Replace, "replace", "", "Replace every match with this literal text")
	fs.BoolVar(&opts.CaseSensitive, "case", false, "Match case")
	fs.BoolVar(&opts.Regex, "regex", false, "Treat -find as a regular expression")
	fs.BoolVar(&opts.JSON, "json", false, "Write the report as JSON")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Report replacements without writing files")
	fs.StringVar(&opts.ConfigPath, "config", "", "Path to a TOML or YAML configuration file")
	fs.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.BoolVar(&showVersion, "version", false, "Show version information")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "inkwell - find and replace with the inkwell editor core\n\n")
		fmt.Fprintf(stderr, "Usage: inkwell -find TEXT [options] FILE...\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExit status is 0 if anything matched, 1 if nothing did, 2 on error.\n")
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, exitOK, false
		}
		return opts, exitError, false
	}

	if showVersion {
		fmt.Fprintf(stdout, "inkwell %s (commit %s, built %s)\n", version, commit, date)
		return opts, exitOK, false
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "replace" {
			opts.HasReplace = true
		}
	})

	switch opts.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		fmt.Fprintf(stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
		return opts, exitError, false
	}

	opts.Files = fs.Args()
	if opts.Find == "" || len(opts.Files) == 0 {
		fs.Usage()
		return opts, exitError, false
	}
	return opts, exitOK, true
}

// report is the result of one run.
type report struct {
	Query    string       `json:"query"`
	Regex    bool         `json:"regex"`
	Case     bool         `json:"case_sensitive"`
	Replace  *string      `json:"replace,omitempty"`
	DryRun   bool         `json:"dry_run,omitempty"`
	Files    []fileReport `json:"files"`
	Total    int          `json:"total"`
	Elapsed  string       `json:"elapsed"`
	replaced bool
}

type fileReport struct {
	Path     string        `json:"path"`
	Matches  []matchReport `json:"matches,omitempty"`
	Replaced int           `json:"replaced,omitempty"`
}

type matchReport struct {
	Line   int    `json:"line"`
	Column int64  `json:"column"`
	Start  int64  `json:"start"`
	End    int64  `json:"end"`
	Text   string `json:"text"`
}

func execute(ctx context.Context, editor *app.Editor, opts options) (*report, error) {
	start := time.Now()
	q := search.NewQuery(opts.Find, opts.CaseSensitive, opts.Regex)
	if err := q.Validate(); err != nil {
		return nil, err
	}

	docs := make([]*document.Document, 0, len(opts.Files))
	for _, path := range opts.Files {
		doc, err := editor.Open(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	cfg := editor.Config()
	engine := search.NewEngine(search.WithCancelCheckBytes(cfg.Search.CancelCheckBytes))
	rep := &report{Query: opts.Find, Regex: opts.Regex, Case: opts.CaseSensitive, DryRun: opts.DryRun}

	var err error
	if opts.HasReplace {
		err = replaceFiles(ctx, editor, engine, docs, q, opts, rep)
	} else {
		err = findFiles(ctx, editor, engine, docs, q, rep)
	}
	if err != nil {
		return nil, err
	}

	rep.Elapsed = time.Since(start).String()
	return rep, nil
}

func findFiles(ctx context.Context, editor *app.Editor, engine *search.Engine, docs []*document.Document, q search.Query, rep *report) error {
	searchable := make([]finder.Searchable, len(docs))
	for i, doc := range docs {
		searchable[i] = doc
	}

	start := time.Now()
	results, err := finder.FindInDocuments(ctx, engine, searchable, q)
	if err != nil {
		return err
	}
	editor.Metrics().Record(app.OpSearch, time.Since(start))

	for _, r := range results {
		fr := fileReport{Path: r.Path}
		for _, m := range r.Matches {
			fr.Matches = append(fr.Matches, matchReport{
				Line:   m.Line,
				Column: m.Column,
				Start:  m.Start,
				End:    m.End,
				Text:   m.LineText,
			})
		}
		rep.Files = append(rep.Files, fr)
		rep.Total += len(fr.Matches)
	}
	return nil
}

func replaceFiles(ctx context.Context, editor *app.Editor, engine *search.Engine, docs []*document.Document, q search.Query, opts options, rep *report) error {
	rep.replaced = true
	rep.Replace = &opts.Replace

	editable := make([]finder.Replaceable, len(docs))
	for i, doc := range docs {
		editable[i] = doc
	}

	replacer := search.NewReplacer(editor.Config().Search.BulkReplaceThreshold)
	start := time.Now()
	results, err := finder.ReplaceInDocuments(ctx, engine, replacer, editable, q, opts.Replace)
	if err != nil {
		return err
	}
	editor.Metrics().Record(app.OpReplace, time.Since(start))

	for _, r := range results {
		doc, err := editor.Get(r.DocumentID)
		if err != nil {
			return err
		}
		if !opts.DryRun {
			if err := editor.Save(doc.ID()); err != nil {
				return err
			}
		}
		rep.Files = append(rep.Files, fileReport{Path: doc.Path(), Replaced: r.Count})
		rep.Total += r.Count
	}
	return nil
}

func (r *report) writeText(w io.Writer) {
	for _, f := range r.Files {
		if r.replaced {
			verb := "replaced"
			if r.DryRun {
				verb = "would replace"
			}
			fmt.Fprintf(w, "%s: %s %d occurrence(s)\n", f.Path, verb, f.Replaced)
			continue
		}
		for _, m := range f.Matches {
			fmt.Fprintf(w, "%s:%d:%d:%s\n", f.Path, m.Line, m.Column+1, m.Text)
		}
	}
}

func logMetrics(logger *app.Logger, m *app.Metrics) {
	for op, s := range m.Snapshot().Ops {
		logger.WithComponent("metrics").Debug("%s: n=%d last=%v avg=%v max=%v stalls=%d", op, s.Count, s.Last, s.Avg, s.Max, s.Stalls)
	}
}
