package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kingrea/flowsem/internal/config"
	"github.com/kingrea/flowsem/internal/flow"
)

const cleanDocument = `
file: clean.flow
version: {political: 0, major: 1}
flows:
  - name: main
    pos: 1
    chains:
      - - op: {name: read, type: ReadFile, pos: 2}
        - link: {type: Text, pos: 4}
        - op: {name: parse, type: Parse, pos: 6}
        - link: {pos: 8}
        - op: {name: store, type: Store, pos: 10}
      - - op: {name: store, pos: 20}
        - link: {out: {name: done}, type: bool, pos: 22}
        - op: {name: sink, type: Sink, pos: 24}
`

const conflictDocument = `
file: conflict.flow
version: {political: 0, major: 1}
flows:
  - name: broken
    pos: 1
    chains:
      - - op: {name: a, type: X, pos: 2}
        - link: {type: int, pos: 4}
        - op: {name: b, pos: 6}
      - - op: {name: a, type: Y, pos: 8}
        - link: {type: int, pos: 10}
        - op: {name: c, pos: 12}
`

func writeDocument(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.TrimSpace(body)), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestResolveCleanDocument(t *testing.T) {
	project := t.TempDir()
	doc := writeDocument(t, project, "clean.yaml", cleanDocument)

	code, stdout, stderr := runCLI(t, "resolve", "-project", project, "-no-color", doc)
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr)
	}
	for _, want := range []string{
		"clean.flow (version 0.1)",
		"flow main: 4 operation(s), 3 connection(s)",
		"read.out -[Text]-> parse.in",
		"parse.out -[Text]-> store.in",
		"store.done -[bool]-> sink.in",
		"2 chain(s), 0 skipped, 0 error(s), 0 warning(s)",
	} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("expected output to contain %q:\n%s", want, stdout)
		}
	}

	cfg, err := config.NewConfig(project)
	if err != nil {
		t.Fatal(err)
	}
	metricsText, err := os.ReadFile(cfg.MetricsPath())
	if err != nil {
		t.Fatalf("expected metrics textfile: %v", err)
	}
	if !strings.Contains(string(metricsText), `flowsem_resolver_chains_total{outcome="resolved"} 2`) {
		t.Fatalf("unexpected metrics:\n%s", metricsText)
	}
	runLog, err := os.ReadFile(cfg.RunLogPath())
	if err != nil {
		t.Fatalf("expected run log: %v", err)
	}
	if !strings.Contains(string(runLog), "INFO") || !strings.Contains(string(runLog), "1 flow(s)") {
		t.Fatalf("unexpected run log: %s", runLog)
	}
}

func TestResolveReportsConflicts(t *testing.T) {
	project := t.TempDir()
	doc := writeDocument(t, project, "conflict.yaml", conflictDocument)
	metricsPath := filepath.Join(project, "out", "resolve.prom")

	code, stdout, stderr := runCLI(t, "resolve", "-project", project, "-no-color", "-metrics-file", metricsPath, doc)
	if code != exitFail {
		t.Fatalf("expected exit 1 on error diagnostics, got %d", code)
	}
	if !strings.Contains(stderr, "conflict.flow:8: error: flow broken chain 2") {
		t.Fatalf("expected conflict diagnostic, got:\n%s", stderr)
	}
	if !strings.Contains(stdout, "2 chain(s), 1 skipped") {
		t.Fatalf("expected skipped chain in summary:\n%s", stdout)
	}
	if _, err := os.Stat(metricsPath); err != nil {
		t.Fatalf("expected metrics at custom path: %v", err)
	}
	flowLog, err := os.ReadFile(filepath.Join(project, config.ProjectDirName, "logs", "flowsem.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(flowLog), "skipped") {
		t.Fatalf("expected skipped chain to be logged:\n%s", flowLog)
	}
}

func TestResolveJSONOutput(t *testing.T) {
	project := t.TempDir()
	doc := writeDocument(t, project, "clean.yaml", cleanDocument)
	code, stdout, stderr := runCLI(t, "resolve", "-project", project, "-format", "json", doc)
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr)
	}
	var file flow.FlowFile
	if err := json.Unmarshal([]byte(stdout), &file); err != nil {
		t.Fatalf("decode output: %v\n%s", err, stdout)
	}
	if len(file.Flows) != 1 || len(file.Flows[0].Connections) != 3 {
		t.Fatalf("unexpected flow file: %+v", file)
	}
	if got := file.Flows[0].Connections[1]; got.DataType != "Text" || got.ShowDataType {
		t.Fatalf("expected inherited type on second connection, got %+v", got)
	}
}

func TestResolveUsesSourcesDir(t *testing.T) {
	project := t.TempDir()
	sources := filepath.Join(project, "flows")
	if err := os.MkdirAll(sources, 0o755); err != nil {
		t.Fatal(err)
	}
	writeDocument(t, sources, "clean.yaml", cleanDocument)
	code, stdout, stderr := runCLI(t, "resolve", "-project", project, "-no-color")
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "flow main") {
		t.Fatalf("expected flows from sources dir:\n%s", stdout)
	}
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeDocument(t, dir, "clean.yaml", cleanDocument)
	code, stdout, _ := runCLI(t, "validate", good)
	if code != exitOK || !strings.Contains(stdout, "OK: "+good+" (1 flow(s), 2 chain(s))") {
		t.Fatalf("unexpected validate result %d: %s", code, stdout)
	}

	bad := writeDocument(t, dir, "bad.yaml", "flows: 12")
	code, _, stderr := runCLI(t, "validate", bad)
	if code != exitFail || !strings.Contains(stderr, "Validation failed") {
		t.Fatalf("expected validation failure, got %d: %s", code, stderr)
	}
}

func TestInitCommandPersistsPolicy(t *testing.T) {
	project := t.TempDir()
	code, stdout, stderr := runCLI(t, "init", "-project", project, "-type-policy", "last")
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "type policy last") {
		t.Fatalf("unexpected output: %s", stdout)
	}
	cfg, err := config.NewConfig(project)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Project.Resolver.TypePolicy != "last" {
		t.Fatalf("expected persisted policy, got %q", cfg.Project.Resolver.TypePolicy)
	}

	code, _, _ = runCLI(t, "init", "-project", project, "-type-policy", "sometimes")
	if code != exitFail {
		t.Fatalf("expected invalid policy to fail, got %d", code)
	}
}

func TestUsageErrors(t *testing.T) {
	cases := [][]string{
		nil,
		{"frobnicate"},
		{"resolve", "-format", "xml", "doc.yaml"},
		{"resolve", "a.yaml", "b.yaml"},
		{"validate"},
	}
	for _, args := range cases {
		if code, _, _ := runCLI(t, args...); code != exitUsage {
			t.Fatalf("%v: expected exit 2, got %d", args, code)
		}
	}
}
