package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/flowsem/internal/chain"
	"github.com/kingrea/flowsem/internal/config"
	"github.com/kingrea/flowsem/internal/diag"
	"github.com/kingrea/flowsem/internal/flow/resolver"
	"github.com/kingrea/flowsem/internal/logbook"
	"github.com/kingrea/flowsem/internal/logging"
	"github.com/kingrea/flowsem/internal/metrics"
	"github.com/kingrea/flowsem/plugins"
)

func runResolve(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	projectDir := fs.String("project", "", "path to the project directory (defaults to cwd)")
	metricsFile := fs.String("metrics-file", "", "write resolver metrics here (defaults to .flowsem/state/metrics.prom)")
	format := fs.String("format", "summary", "output format: summary, yaml or json")
	noColor := fs.Bool("no-color", false, "disable colored diagnostics")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() > 1 {
		fmt.Fprint(stderr, usageText)
		return exitUsage
	}
	switch *format {
	case "summary", "yaml", "json":
	default:
		fmt.Fprintf(stderr, "unknown format %q\n", *format)
		return exitUsage
	}

	project, err := projectRoot(*projectDir)
	if err != nil {
		return fail(stderr, "%v", err)
	}
	cfg, err := config.NewConfig(project)
	if err != nil {
		return fail(stderr, "load config: %v", err)
	}
	logger, err := logging.New(project)
	if err != nil {
		return fail(stderr, "open log: %v", err)
	}
	defer logger.Close()
	lb, err := logbook.New(cfg.RunLogPath())
	if err != nil {
		return fail(stderr, "open run log: %v", err)
	}

	source := cfg.SourcesDir()
	if fs.NArg() == 1 {
		source = fs.Arg(0)
	}
	doc, err := plugins.LoadSource(source, plugins.Options{SkipSchema: !cfg.Project.Input.ValidateSchema})
	if err != nil {
		lb.Error("resolve %s: %v", source, err)
		return fail(stderr, "load %s: %v", source, err)
	}

	opts, err := resolver.OptionsFromConfig(cfg.Project.Resolver)
	if err != nil {
		return fail(stderr, "%v", err)
	}
	m := metrics.New()
	opts.Logf = logger.Printf
	opts.Metrics = m

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	result, err := resolver.ResolveFile(ctx, doc, opts)
	color := cfg.Project.Output.Color && !*noColor
	fmt.Fprint(stderr, diag.Render(result.Diagnostics, color))
	if err != nil {
		logger.Printf("run %s: %v", result.RunID, err)
		lb.Error("resolve %s run %s failed: %v", source, result.RunID, err)
		return fail(stderr, "resolve %s: %v", source, err)
	}

	if err := writeResult(stdout, *format, result); err != nil {
		return fail(stderr, "write output: %v", err)
	}

	metricsPath := *metricsFile
	if metricsPath == "" {
		metricsPath = cfg.MetricsPath()
	}
	if err := os.MkdirAll(filepath.Dir(metricsPath), 0o755); err != nil {
		return fail(stderr, "ensure metrics dir: %v", err)
	}
	if err := m.WriteTextfile(metricsPath); err != nil {
		return fail(stderr, "%v", err)
	}

	summary := diag.Summary(result.Diagnostics)
	s := result.Stats
	logger.Printf("run %s: %d flow(s), %d chain(s), %d skipped, %d connection(s) in %s", result.RunID, s.Flows, s.Chains, s.Skipped, s.Connections, s.Elapsed)
	if result.HasErrors() {
		lb.Warn("resolve %s run %s: %s", source, result.RunID, summary)
		return exitFail
	}
	lb.Info("resolve %s run %s: %d flow(s), %s", source, result.RunID, s.Flows, summary)
	return exitOK
}

func writeResult(w io.Writer, format string, result resolver.Result) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result.File); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result.File)
	default:
		writeSummary(w, result)
		return nil
	}
}

func writeSummary(w io.Writer, result resolver.Result) {
	file := result.File
	fmt.Fprintf(w, "%s (version %s)\n", file.FileName, file.Version)
	for _, f := range file.Flows {
		fmt.Fprintf(w, "flow %s: %d operation(s), %d connection(s)\n", f.Name, len(f.Operations), len(f.Connections))
		for _, op := range f.Operations {
			fmt.Fprintf(w, "  op %s %s\n", op.Name, op.Type)
		}
		for _, c := range f.Connections {
			fmt.Fprintf(w, "  %s\n", c)
		}
	}
	s := result.Stats
	fmt.Fprintf(w, "%d chain(s), %d skipped, %s\n", s.Chains, s.Skipped, diag.Summary(result.Diagnostics))
}

func runValidate(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "Usage: flowsem validate /path/to/doc.yaml")
		return exitUsage
	}
	doc, err := plugins.LoadSource(args[0], plugins.Options{})
	if err != nil {
		return fail(stderr, "Validation failed: %v", err)
	}
	if err := doc.Validate(); err != nil {
		return fail(stderr, "Validation failed: %v", err)
	}
	fmt.Fprintf(stdout, "OK: %s (%d flow(s), %d chain(s))\n", args[0], len(doc.Flows), countChains(doc.Flows))
	return exitOK
}

func countChains(units []chain.FlowUnit) int {
	n := 0
	for _, u := range units {
		n += len(u.Chains)
	}
	return n
}
