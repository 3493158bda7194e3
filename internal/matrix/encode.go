package matrix

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// Encode serializes a document to indented JSON with a trailing newline.
// Struct field order keeps the key order stable across invocations.
func Encode(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode matrix document: %w", err)
	}
	return append(data, '\n'), nil
}

// AppendToFile appends an encoded document to path, creating the file and
// its parent directory if needed. Append mode matches the one-document-per-
// invocation bookkeeping model: earlier documents are never rewritten.
func AppendToFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create matrix directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open matrix file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("failed to append to matrix file: %w", err)
	}
	return nil
}
