package plugins

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleDocument = `version: {political: 0, major: 1}
flows:
  - name: main
    chains:
      - - op: {name: read, type: ReadFile, pos: 0}
        - link: {type: string, pos: 8}
        - op: {name: parse, type: Parse, pos: 16}
`

func writeSource(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadDocumentFileDefaultsName(t *testing.T) {
	path := writeSource(t, t.TempDir(), "main.yaml", sampleDocument)
	file, err := LoadDocumentFile(path, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if file.Document.File != "main.yaml" || file.Path != path {
		t.Fatalf("unexpected source file: %+v", file)
	}
	if len(file.Document.Flows) != 1 || len(file.Document.Flows[0].Chains) != 1 {
		t.Fatalf("unexpected flows: %+v", file.Document.Flows)
	}
}

func TestLoadDocumentFileSchema(t *testing.T) {
	// "colour" is not part of the schema but is ignored by plain decoding.
	body := strings.Replace(sampleDocument, "flows:", "colour: blue\nflows:", 1)
	path := writeSource(t, t.TempDir(), "main.yaml", body)
	if _, err := LoadDocumentFile(path, Options{}); err == nil {
		t.Fatalf("expected schema violation")
	}
	if _, err := LoadDocumentFile(path, Options{SkipSchema: true}); err != nil {
		t.Fatalf("expected decode without schema to pass: %v", err)
	}
}

func TestLoadDocumentDir(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "b.yml", strings.Replace(sampleDocument, "name: main", "name: second", 1))
	writeSource(t, root, "a.yaml", sampleDocument)
	writeSource(t, root, "notes.txt", "ignored")

	files, err := LoadDocumentDir(root, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(files))
	}
	if filepath.Base(files[0].Path) != "a.yaml" || filepath.Base(files[1].Path) != "b.yml" {
		t.Fatalf("expected path order, got %s, %s", files[0].Path, files[1].Path)
	}
}

func TestLoadDocumentDirMissing(t *testing.T) {
	files, err := LoadDocumentDir(filepath.Join(t.TempDir(), "missing"), Options{})
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if files != nil {
		t.Fatalf("expected nil slice for missing dir, got %v", files)
	}
}
