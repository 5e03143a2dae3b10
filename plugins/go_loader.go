package plugins

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"gopkg.in/yaml.v3"
)

const goSourceFuncName = "Flows"

// LoadGoSourceDir evaluates every .go file in dir and collects the flow
// units each one declares via Flows().
func LoadGoSourceDir(dir string, opts Options) ([]SourceFile, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("plugin: read %s: %w", trimmed, err)
	}
	var files []SourceFile
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".go" {
			continue
		}
		file, err := LoadGoSourceFile(filepath.Join(trimmed, entry.Name()), opts)
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

// LoadGoSourceFile interprets one Go source. The file must define
// Flows() ([]map[string]any, error); every map is a flow unit in the chain
// document format.
func LoadGoSourceFile(path string, opts Options) (SourceFile, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return SourceFile{}, fmt.Errorf("plugin: read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(code))) == 0 {
		return SourceFile{}, fmt.Errorf("plugin: %s is empty", path)
	}
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return SourceFile{}, fmt.Errorf("plugin: load stdlib symbols: %w", err)
	}
	if _, err := i.EvalPath(path); err != nil {
		return SourceFile{}, fmt.Errorf("plugin: interpret %s: %w", path, err)
	}
	fnValue, err := i.Eval(goSourceFuncName)
	if err != nil {
		return SourceFile{}, fmt.Errorf("plugin: %s must define %s() ([]map[string]any, error): %w", path, goSourceFuncName, err)
	}
	units, callErr := invokeSourceFunc(fnValue)
	if callErr != nil {
		return SourceFile{}, fmt.Errorf("plugin: %s: %w", path, callErr)
	}
	payload, err := yaml.Marshal(map[string]any{"flows": units})
	if err != nil {
		return SourceFile{}, fmt.Errorf("plugin: %s: encode flows: %w", path, err)
	}
	doc, err := opts.parse(payload)
	if err != nil {
		return SourceFile{}, fmt.Errorf("plugin: %s: %w", path, err)
	}
	doc.File = filepath.Base(path)
	return SourceFile{Document: doc, Path: filepath.Clean(path)}, nil
}

func invokeSourceFunc(value reflect.Value) ([]map[string]any, error) {
	if !value.IsValid() {
		return nil, fmt.Errorf("missing %s function", goSourceFuncName)
	}
	fn := value
	if fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("%s is not a function", goSourceFuncName)
	}
	if fn.Type().NumIn() != 0 {
		return nil, fmt.Errorf("%s must not take arguments", goSourceFuncName)
	}
	results := fn.Call(nil)
	if len(results) == 0 || len(results) > 2 {
		return nil, fmt.Errorf("%s must return ([]map[string]any[, error])", goSourceFuncName)
	}
	unitsVal := results[0]
	if len(results) == 2 {
		if !results[1].IsNil() {
			if e, ok := results[1].Interface().(error); ok && e != nil {
				return nil, e
			}
			return nil, fmt.Errorf("%s returned non-error second value", goSourceFuncName)
		}
	}
	units, ok := unitsVal.Interface().([]map[string]any)
	if ok {
		return units, nil
	}
	if unitsVal.Kind() == reflect.Slice {
		result := make([]map[string]any, unitsVal.Len())
		for i := 0; i < unitsVal.Len(); i++ {
			m, ok := unitsVal.Index(i).Interface().(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s[%d] is not map[string]any", goSourceFuncName, i)
			}
			result[i] = m
		}
		return result, nil
	}
	return nil, fmt.Errorf("%s must return []map[string]any", goSourceFuncName)
}
