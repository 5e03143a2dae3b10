package plugins

import (
	"path/filepath"
	"testing"
)

const goSource = `package main

import "fmt"

func Flows() ([]map[string]any, error) {
	var chains []any
	for i := 0; i < 3; i++ {
		chains = append(chains, []any{
			map[string]any{"op": map[string]any{"name": "gen", "type": "Generator", "pos": 0}},
			map[string]any{"link": map[string]any{"out": map[string]any{"name": "out", "index": i}, "type": "int", "pos": 10 + i}},
			map[string]any{"op": map[string]any{"name": fmt.Sprintf("sink%d", i), "type": "Sink", "pos": 20 + i}},
		})
	}
	return []map[string]any{{"name": "generated", "chains": chains}}, nil
}
`

func TestLoadGoSourceDir(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "generated.go", goSource)

	files, err := LoadGoSourceDir(dir, Options{})
	if err != nil {
		t.Fatalf("load go sources: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 source, got %d", len(files))
	}
	doc := files[0].Document
	if doc.File != "generated.go" || len(doc.Flows) != 1 {
		t.Fatalf("unexpected document: %+v", doc)
	}
	unit := doc.Flows[0]
	if unit.Name != "generated" || len(unit.Chains) != 3 {
		t.Fatalf("unexpected flow unit: %+v", unit)
	}
	last := unit.Chains[2].Links[0]
	if !last.OutPort.HasIndex || last.OutPort.Index != 2 || last.Op.Name != "sink2" {
		t.Fatalf("unexpected generated link: %+v", last)
	}
}

func TestLoadGoSourceMissingFunc(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "broken.go", "package main\n")
	if _, err := LoadGoSourceDir(dir, Options{}); err == nil {
		t.Fatalf("expected error for missing Flows function")
	}
}

func TestLoadGoSourceReturnedError(t *testing.T) {
	path := writeSource(t, t.TempDir(), "failing.go", `package main

import "errors"

func Flows() ([]map[string]any, error) {
	return nil, errors.New("no flows today")
}
`)
	if _, err := LoadGoSourceFile(path, Options{}); err == nil {
		t.Fatalf("expected returned error to surface")
	}
}

func TestLoadGoSourceDirMissing(t *testing.T) {
	files, err := LoadGoSourceDir(filepath.Join(t.TempDir(), "missing"), Options{})
	if err != nil || files != nil {
		t.Fatalf("expected no sources for missing dir, got %v %v", files, err)
	}
}
