// Command docpersona submits a collection of PDFs to the analysis service
// and prints the persona-driven report as Markdown.
//
//	docpersona -persona "Travel Planner" -job "Plan a 4-day trip" a.pdf b.pdf c.pdf
//	docpersona -batch collection.yaml
//	docpersona -outline guide.pdf
//	docpersona -library
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/dgallion1/docpersona/internal/analysis"
	"github.com/dgallion1/docpersona/internal/config"
	"github.com/dgallion1/docpersona/internal/fileset"
	"github.com/dgallion1/docpersona/internal/render"
	"github.com/dgallion1/docpersona/internal/submit"
	"github.com/dgallion1/docpersona/internal/workflow"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	persona    string
	job        string
	batchPath  string
	outline    string
	library    bool
	jsonOut    bool
	serviceURL string
	verbose    bool
}

func parseFlags(args []string, stderr io.Writer) (*options, []string, error) {
	fs := flag.NewFlagSet("docpersona", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var o options
	fs.StringVar(&o.persona, "persona", "", "persona role, e.g. \"Travel Planner\"")
	fs.StringVar(&o.job, "job", "", "job to be done")
	fs.StringVar(&o.batchPath, "batch", "", "YAML or JSON collection file")
	fs.StringVar(&o.outline, "outline", "", "print the outline of one PDF and exit")
	fs.BoolVar(&o.library, "library", false, "list documents held by the service and exit")
	fs.BoolVar(&o.jsonOut, "json", false, "print the raw JSON result instead of Markdown")
	fs.StringVar(&o.serviceURL, "service", "", "analysis service URL (default $SERVICE_URL)")
	fs.BoolVar(&o.verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return &o, fs.Args(), nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, paths, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg := config.Load()
	if opts.serviceURL != "" {
		cfg.ServiceURL = opts.serviceURL
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	client := analysis.NewClient(cfg.ServiceURL, analysis.WithAPIKey(cfg.ServiceAPIKey))
	defer client.Close()

	switch {
	case opts.library:
		return listLibrary(ctx, client, stdout, stderr)
	case opts.outline != "":
		return printOutline(ctx, client, opts, cfg, stdout, stderr)
	}

	if opts.batchPath != "" {
		b, err := loadBatch(opts.batchPath)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 2
		}
		paths = append(b.paths(), paths...)
		opts.persona = firstNonEmpty(opts.persona, b.Persona.Role)
		opts.job = firstNonEmpty(opts.job, b.JobToBeDone.Task)
		cfg.ChallengeID = firstNonEmpty(b.ChallengeInfo.ChallengeID, cfg.ChallengeID)
		cfg.TestCaseName = firstNonEmpty(b.ChallengeInfo.TestCaseName, cfg.TestCaseName)
	}

	pipe := submit.NewPipeline(client, submit.Config{
		ChallengeID:    cfg.ChallengeID,
		TestCaseName:   cfg.TestCaseName,
		UploadTimeout:  cfg.UploadTimeout,
		AnalyzeTimeout: cfg.AnalyzeTimeout,
		StatsWindow:    cfg.StatsWindow,
	}, log)
	ctrl := workflow.NewController(pipe, log)

	for _, p := range paths {
		h, err := readFile(p, cfg.MaxFileBytes)
		if err != nil {
			fmt.Fprintf(stderr, "skipping %v\n", err)
			continue
		}
		if !ctrl.AddFile(h) {
			fmt.Fprintf(stderr, "skipping %s: already selected\n", h.Name)
		}
	}

	ctrl.Subscribe(func(st workflow.State) {
		if st.Message != "" {
			fmt.Fprintf(stderr, "[%s] %s\n", st.Status, st.Message)
			return
		}
		fmt.Fprintf(stderr, "[%s]\n", st.Status)
	})

	st, err := ctrl.Run(ctx, opts.persona, opts.job)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if st.Status != workflow.StatusSuccess {
		return 1
	}

	if opts.jsonOut {
		return writeJSON(stdout, stderr, st.Result)
	}
	if err := (render.Markdown{}).RenderResult(stdout, st.Result); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// readFile loads one selected path and admits it through the intake check.
func readFile(path string, maxBytes int64) (fileset.FileHandle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileset.FileHandle{}, err
	}
	name := filepath.Base(path)
	if info.Size() > maxBytes {
		return fileset.FileHandle{}, &fileset.IntakeError{Name: name, Reason: fmt.Sprintf("file exceeds max size (%d bytes)", maxBytes)}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fileset.FileHandle{}, err
	}
	return fileset.Intake(name, data, maxBytes)
}

func printOutline(ctx context.Context, client *analysis.Client, opts *options, cfg config.Config, stdout, stderr io.Writer) int {
	h, err := readFile(opts.outline, cfg.MaxFileBytes)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.AnalyzeTimeout)
	defer cancel()
	outline, err := client.ExtractOutline(ctx, h)
	if err != nil {
		fmt.Fprintf(stderr, "error: outline %s: %v\n", h.Name, err)
		return 1
	}
	if opts.jsonOut {
		return writeJSON(stdout, stderr, outline)
	}
	if err := (render.Markdown{}).RenderOutline(stdout, outline); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func listLibrary(ctx context.Context, client *analysis.Client, stdout, stderr io.Writer) int {
	docs, err := client.ListDocuments(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "error: list documents: %v\n", err)
		return 1
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILENAME\tSIZE")
	for _, d := range docs {
		fmt.Fprintf(tw, "%s\t%s\n", d.Filename, render.FormatSize(d.Size))
	}
	tw.Flush()
	return 0
}

func writeJSON(stdout, stderr io.Writer, v any) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
