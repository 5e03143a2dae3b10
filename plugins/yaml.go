package plugins

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kingrea/flowsem/internal/chain"
)

// SourceFile pairs a parsed chain document with its on-disk source.
type SourceFile struct {
	Document chain.Document
	Path     string
}

// Options controls how sources are decoded.
type Options struct {
	// SkipSchema decodes documents without JSON schema validation.
	// Structural checks still apply.
	SkipSchema bool
}

func (o Options) parse(data []byte) (chain.Document, error) {
	if o.SkipSchema {
		return chain.DecodeDocumentYAML(data)
	}
	return chain.ParseDocumentYAML(data)
}

// LoadDocumentFile reads a YAML chain document from disk. A document that
// does not name its file gets the base name of path.
func LoadDocumentFile(path string, opts Options) (SourceFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return SourceFile{}, fmt.Errorf("plugin: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return SourceFile{}, fmt.Errorf("plugin: %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return SourceFile{}, fmt.Errorf("plugin: read %s: %w", path, err)
	}
	doc, err := opts.parse(data)
	if err != nil {
		return SourceFile{}, fmt.Errorf("plugin: %s: %w", path, err)
	}
	if doc.File == "" {
		doc.File = filepath.Base(path)
	}
	return SourceFile{Document: doc, Path: filepath.Clean(path)}, nil
}

// LoadDocumentDir scans a directory for *.yaml and *.yml chain documents.
// Missing directories are treated as "no sources".
func LoadDocumentDir(dir string, opts Options) ([]SourceFile, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("plugin: read %s: %w", trimmed, err)
	}
	var files []SourceFile
	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}
		file, err := LoadDocumentFile(filepath.Join(trimmed, entry.Name()), opts)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	if len(files) == 0 {
		return nil, nil
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func isYAMLFile(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}
