package chain

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ParseDocumentYAML validates a chain document against the schema and decodes
// it. JSON payloads are accepted as well.
func ParseDocumentYAML(data []byte) (Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Document{}, fmt.Errorf("chain: document payload is empty")
	}
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return Document{}, fmt.Errorf("chain: decode document: %w", err)
	}
	if err := ValidateSchema(generic); err != nil {
		return Document{}, err
	}
	return DecodeDocumentYAML(data)
}

// DecodeDocumentYAML decodes a chain document without schema validation.
// Structural rules (element order, names, duplicate flows) still apply.
func DecodeDocumentYAML(data []byte) (Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Document{}, fmt.Errorf("chain: document payload is empty")
	}
	var raw rawDocument
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Document{}, fmt.Errorf("chain: decode document: %w", err)
	}
	doc, err := raw.document()
	if err != nil {
		return Document{}, err
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// LoadDocumentReader reads chain document data from an io.Reader.
func LoadDocumentReader(r io.Reader) (Document, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("chain: read document: %w", err)
	}
	return ParseDocumentYAML(content)
}

// LoadDocumentFile loads a chain document from path. When the document does
// not name its source file, the base name of path is used.
func LoadDocumentFile(path string) (Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("chain: read %s: %w", path, err)
	}
	doc, parseErr := ParseDocumentYAML(content)
	if parseErr != nil {
		return Document{}, fmt.Errorf("chain: %s: %w", path, parseErr)
	}
	if doc.File == "" {
		doc.File = filepath.Base(path)
	}
	return doc, nil
}
