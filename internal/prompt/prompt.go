// Package prompt assembles the summarization prompt for an analysis.
package prompt

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/kevinmichaelchen/repo-analyzer/internal/models"
)

const closing = "Provide a concise summary of the repository, key features, and technologies used."

// Build renders the metadata block, the README and the file snippets in the
// order given. Inputs are expected to be truncated already.
func Build(meta models.RepoMeta, readme string, files []models.FileSnippet) (string, error) {
	metaJSON, err := renderMeta(meta)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Analyze the following GitHub repository:\n\nMetadata:\n")
	b.WriteString(metaJSON)
	b.WriteString("\n\n")

	if readme != "" {
		b.WriteString("README (truncated):\n")
		b.WriteString(readme)
		b.WriteString("\n\n")
	}

	if len(files) > 0 {
		b.WriteString("Code snippets:\n")
		for _, f := range files {
			b.WriteString("\n--- File: ")
			b.WriteString(f.Path)
			b.WriteString(" ---\n")
			b.WriteString(f.Snippet)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(closing)
	return b.String(), nil
}

func renderMeta(meta models.RepoMeta) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
