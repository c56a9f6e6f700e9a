package report

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFiles persists the rendered report as <date>.md and <date>.json
// in dir, so reports stay readable without the database or the server.
func WriteFiles(dir, dateKey, markdown, jsonContent string) (mdPath, jsonPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating report directory: %w", err)
	}

	mdPath = filepath.Join(dir, dateKey+".md")
	if err := os.WriteFile(mdPath, []byte(markdown), 0o644); err != nil {
		return "", "", fmt.Errorf("writing markdown report: %w", err)
	}

	jsonPath = filepath.Join(dir, dateKey+".json")
	if err := os.WriteFile(jsonPath, []byte(jsonContent), 0o644); err != nil {
		return "", "", fmt.Errorf("writing json report: %w", err)
	}
	return mdPath, jsonPath, nil
}
