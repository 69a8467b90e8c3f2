// Package selector picks the handful of source files whose leading bytes are
// shown to the language model.
package selector

import (
	"path"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/kevinmichaelchen/repo-analyzer/internal/models"
)

const (
	// FetchLimit is the maximum number of files selected per analysis.
	FetchLimit = 5
	// SnippetBytes is the byte budget of a fetched file.
	SnippetBytes = 5000
	// ResultSnippetChars is the character budget of a snippet in the emitted
	// result.
	ResultSnippetChars = 2000
	// ReadmeChars is the character budget of the README fed to the prompt.
	ReadmeChars = 50000
)

const lowestRank = 10

// ranks are tried in order; the first match wins.
var ranks = []struct {
	pattern *regexp.Regexp
	rank    int
}{
	{regexp.MustCompile(`^src/`), 0},
	{regexp.MustCompile(`^lib/`), 1},
	{regexp.MustCompile(`index\.`), 2},
	{regexp.MustCompile(`main\.`), 3},
	{regexp.MustCompile(`^app\.`), 4},
}

var excludedExt = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true, ".svg": true,
	".woff": true, ".ttf": true, ".pdf": true, ".zip": true, ".exe": true,
}

// Rank returns the priority of a path; lower ranks are selected first.
func Rank(p string) int {
	for _, r := range ranks {
		if r.pattern.MatchString(p) {
			return r.rank
		}
	}
	return lowestRank
}

// Excluded reports whether p has a binary or media extension.
func Excluded(p string) bool {
	return excludedExt[strings.ToLower(path.Ext(p))]
}

// Select keeps regular files, orders them by rank (stable), drops excluded
// extensions and returns at most limit entries.
func Select(entries []models.TreeEntry, limit int) []models.TreeEntry {
	files := make([]models.TreeEntry, 0, len(entries))
	for _, e := range entries {
		if e.Type == models.TreeEntryBlob {
			files = append(files, e)
		}
	}

	slices.SortStableFunc(files, func(a, b models.TreeEntry) int {
		return Rank(a.Path) - Rank(b.Path)
	})

	selected := make([]models.TreeEntry, 0, min(limit, len(files)))
	for _, f := range files {
		if len(selected) >= limit {
			break
		}
		if Excluded(f.Path) {
			continue
		}
		selected = append(selected, f)
	}
	return selected
}

// Snippet truncates raw to budget bytes and decodes it as UTF-8. A rune split
// by the cut is dropped; any other invalid sequence fails the decode.
func Snippet(raw []byte, budget int) (string, bool) {
	if len(raw) > budget {
		raw = raw[:budget]
	}
	raw = trimPartialRune(raw)
	if !utf8.Valid(raw) {
		return "", false
	}
	return string(raw), true
}

func trimPartialRune(b []byte) []byte {
	// a rune is at most utf8.UTFMax bytes, so only the tail can be partial
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		c := b[len(b)-i]
		if utf8.RuneStart(c) {
			if !utf8.FullRune(b[len(b)-i:]) {
				return b[:len(b)-i]
			}
			return b
		}
	}
	return b
}

// Trim returns the first n characters of s.
func Trim(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		// fewer bytes than n means fewer runes too
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
