package prompt

import (
	"strings"
	"testing"

	"github.com/kevinmichaelchen/repo-analyzer/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMeta() models.RepoMeta {
	desc := "Cats & <dogs>"
	return models.RepoMeta{
		FullName:      "octo/cat",
		Description:   &desc,
		HTMLURL:       "https://github.com/octo/cat",
		Stars:         10,
		Topics:        []string{"go"},
		DefaultBranch: "main",
		HealthScore:   7,
	}
}

func TestBuildMetadataOnly(t *testing.T) {
	got, err := Build(testMeta(), "", nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "Analyze the following GitHub repository:\n\nMetadata:\n{\n  \"full_name\": \"octo/cat\",\n"))
	assert.Contains(t, got, `"description": "Cats & <dogs>"`)
	assert.Contains(t, got, `"license": null`)
	assert.Contains(t, got, `"healthScore": 7`)
	assert.NotContains(t, got, "README")
	assert.NotContains(t, got, "Code snippets")
	assert.True(t, strings.HasSuffix(got, "}\n\n\n"+closing))
}

func TestBuildKeepsInputOrder(t *testing.T) {
	files := []models.FileSnippet{
		{Path: "src/b.go", Snippet: "package b"},
		{Path: "src/a.go", Snippet: "package a"},
	}
	got, err := Build(testMeta(), "# Cat", files)
	require.NoError(t, err)

	readme := strings.Index(got, "README (truncated):\n# Cat\n\n")
	snippets := strings.Index(got, "Code snippets:\n")
	b := strings.Index(got, "\n--- File: src/b.go ---\npackage b\n")
	a := strings.Index(got, "\n--- File: src/a.go ---\npackage a\n")

	require.NotEqual(t, -1, readme)
	require.NotEqual(t, -1, snippets)
	require.NotEqual(t, -1, b)
	require.NotEqual(t, -1, a)
	assert.Less(t, readme, snippets)
	assert.Less(t, snippets, b)
	assert.Less(t, b, a)
	assert.True(t, strings.HasSuffix(got, "package a\n\n"+closing))
}

func TestBuildDoesNotTruncate(t *testing.T) {
	readme := strings.Repeat("r", 120_000)
	got, err := Build(testMeta(), readme, nil)
	require.NoError(t, err)
	assert.Contains(t, got, readme)
}

func TestBuildIsDeterministic(t *testing.T) {
	files := []models.FileSnippet{{Path: "main.go", Snippet: "package main"}}
	first, err := Build(testMeta(), "readme", files)
	require.NoError(t, err)
	second, err := Build(testMeta(), "readme", files)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
