package plugins

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kingrea/flowsem/internal/chain"
)

// LoadSourceDir merges the YAML documents and Go sources of dir into one
// chain document named after the directory. Flows keep path order. Two
// sources declaring the same flow, or YAML documents declaring different
// versions, are an error.
func LoadSourceDir(dir string, opts Options) (chain.Document, []SourceFile, error) {
	files, err := loadAllSourceFiles(dir, opts)
	if err != nil {
		return chain.Document{}, nil, err
	}
	doc := chain.Document{File: filepath.Base(filepath.Clean(dir))}
	versionFrom := ""
	seen := make(map[string]string)
	for _, file := range files {
		if isYAMLFile(file.Path) {
			if versionFrom != "" && file.Document.Version != doc.Version {
				return chain.Document{}, nil, fmt.Errorf("plugin: version %s in %s differs from %s in %s",
					file.Document.Version, file.Path, doc.Version, versionFrom)
			}
			doc.Version = file.Document.Version
			versionFrom = file.Path
		}
		for _, unit := range file.Document.Flows {
			if existing, ok := seen[unit.Name]; ok {
				return chain.Document{}, nil, fmt.Errorf("plugin: duplicate flow %s (%s and %s)", unit.Name, existing, file.Path)
			}
			seen[unit.Name] = file.Path
			doc.Flows = append(doc.Flows, unit)
		}
	}
	return doc, files, nil
}

// LoadSource loads a directory, a Go source or a YAML document, picking the
// loader from the path.
func LoadSource(path string, opts Options) (chain.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return chain.Document{}, fmt.Errorf("plugin: stat %s: %w", path, err)
	}
	if info.IsDir() {
		doc, _, err := LoadSourceDir(path, opts)
		return doc, err
	}
	var file SourceFile
	if strings.EqualFold(filepath.Ext(path), ".go") {
		file, err = LoadGoSourceFile(path, opts)
	} else {
		file, err = LoadDocumentFile(path, opts)
	}
	if err != nil {
		return chain.Document{}, err
	}
	return file.Document, nil
}

func loadAllSourceFiles(dir string, opts Options) ([]SourceFile, error) {
	yamlFiles, err := LoadDocumentDir(dir, opts)
	if err != nil {
		return nil, err
	}
	goFiles, err := LoadGoSourceDir(dir, opts)
	if err != nil {
		return nil, err
	}
	files := append(yamlFiles, goFiles...)
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}
