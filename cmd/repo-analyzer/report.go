package main

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/kevinmichaelchen/repo-analyzer/internal/models"
)

const topContributors = 5

var (
	heading = color.New(color.Bold, color.FgCyan)
	label   = color.New(color.Bold)
	faint   = color.New(color.Faint)
)

func printReport(w io.Writer, res *models.AnalysisResult) {
	m := res.Meta

	heading.Fprintf(w, "%s\n", m.FullName)
	if m.Description != nil && *m.Description != "" {
		fmt.Fprintf(w, "%s\n", *m.Description)
	}
	faint.Fprintf(w, "%s\n\n", m.HTMLURL)

	label.Fprint(w, "Health score: ")
	scoreColor(m.HealthScore).Fprintf(w, "%d/100\n", m.HealthScore)
	fmt.Fprintf(w, "★ %d   forks %d   open issues %d\n", m.Stars, m.Forks, m.OpenIssues)
	license := "none"
	if m.License != nil {
		license = *m.License
	}
	fmt.Fprintf(w, "License: %s   Default branch: %s\n", license, m.DefaultBranch)
	if len(m.Topics) > 0 {
		fmt.Fprintf(w, "Topics: %s\n", strings.Join(m.Topics, ", "))
	}

	if len(res.Languages) > 0 {
		heading.Fprintln(w, "\nLanguages")
		for _, l := range languageShares(res.Languages) {
			fmt.Fprintf(w, "  %-20s %5.1f%%\n", l.name, l.share)
		}
	}

	if len(res.Contributors) > 0 {
		heading.Fprintln(w, "\nTop contributors")
		for _, c := range res.Contributors[:min(topContributors, len(res.Contributors))] {
			fmt.Fprintf(w, "  %-20s %d\n", c.Login, c.Contributions)
		}
	}

	commits := 0
	for _, wk := range res.CommitActivity {
		commits += wk.Total
	}
	fmt.Fprintf(w, "\nCommits in the last year: %d\n", commits)

	if len(res.Files) > 0 {
		heading.Fprintln(w, "\nSampled files")
		for _, f := range res.Files {
			fmt.Fprintf(w, "  %s\n", f.Path)
		}
	}

	heading.Fprintln(w, "\nSummary")
	fmt.Fprintln(w, res.LLMSummary)
}

func scoreColor(score int) *color.Color {
	switch {
	case score >= 70:
		return color.New(color.FgGreen, color.Bold)
	case score >= 40:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

type languageShare struct {
	name  string
	share float64
}

// languageShares orders languages by byte count, largest first.
func languageShares(langs map[string]int) []languageShare {
	total := 0
	for _, n := range langs {
		total += n
	}
	out := make([]languageShare, 0, len(langs))
	for name, n := range langs {
		share := 0.0
		if total > 0 {
			share = float64(n) * 100 / float64(total)
		}
		out = append(out, languageShare{name: name, share: share})
	}
	slices.SortFunc(out, func(a, b languageShare) int {
		if c := cmp.Compare(b.share, a.share); c != 0 {
			return c
		}
		return cmp.Compare(a.name, b.name)
	})
	return out
}
