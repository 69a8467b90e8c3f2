package main

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/kevinmichaelchen/repo-analyzer/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestPrintReport(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	desc := "A cat"
	res := &models.AnalysisResult{
		Meta: models.RepoMeta{
			FullName:      "octo/cat",
			Description:   &desc,
			HTMLURL:       "https://github.com/octo/cat",
			Stars:         1200,
			Topics:        []string{"cats", "go"},
			DefaultBranch: "main",
			HealthScore:   42,
		},
		Languages:      map[string]int{"Go": 750, "Shell": 250},
		Contributors:   []models.Contributor{{Login: "alice", Contributions: 10}},
		CommitActivity: []models.CommitWeek{{Total: 3}, {Total: 4}},
		Files:          []models.FileSnippet{{Path: "src/main.go"}},
		LLMSummary:     "LLM summarization disabled for this request",
	}

	var buf bytes.Buffer
	printReport(&buf, res)
	out := buf.String()

	assert.Contains(t, out, "octo/cat\nA cat\n")
	assert.Contains(t, out, "Health score: 42/100")
	assert.Contains(t, out, "License: none")
	assert.Contains(t, out, "Topics: cats, go")
	assert.Contains(t, out, "75.0%")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "Commits in the last year: 7")
	assert.Contains(t, out, "src/main.go")
	assert.Contains(t, out, "LLM summarization disabled for this request")
}

func TestLanguageShares(t *testing.T) {
	got := languageShares(map[string]int{"Shell": 100, "Go": 300, "C": 100})
	assert.Equal(t, []languageShare{
		{name: "Go", share: 60},
		{name: "C", share: 20},
		{name: "Shell", share: 20},
	}, got)

	assert.Empty(t, languageShares(map[string]int{}))
}
