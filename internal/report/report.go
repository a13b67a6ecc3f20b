// Package report persists chunk and hit lists as JSON files.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"codescope/internal/chunker"
)

// SaveJSON writes v to path as two-space indented JSON, creating parent
// directories as needed.
func SaveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// LoadChunks reads a chunk list previously written by SaveJSON.
func LoadChunks(path string) ([]chunker.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chunks: %w", err)
	}
	var chunks []chunker.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("decode chunks %s: %w", path, err)
	}
	return chunks, nil
}
