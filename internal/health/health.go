// Package health derives a bounded popularity and activity score for a
// repository.
package health

import (
	"math"

	"github.com/kevinmichaelchen/repo-analyzer/internal/models"
)

const (
	StarsCap        = 5000
	ForksCap        = 500
	CommitsCap      = 1000
	ContributorsCap = 50

	starsWeight        = 0.30
	forksWeight        = 0.20
	commitsWeight      = 0.30
	contributorsWeight = 0.20
)

// Score maps the signals to an integer in [0,100]. Nil activity or
// contributors contribute nothing.
func Score(stars, forks int, activity []models.CommitWeek, contributors []models.Contributor) int {
	commits := 0
	for _, w := range activity {
		commits += w.Total
	}

	s := starsWeight*normalize(stars, StarsCap) +
		forksWeight*normalize(forks, ForksCap) +
		commitsWeight*normalize(commits, CommitsCap) +
		contributorsWeight*normalize(len(contributors), ContributorsCap)

	score := int(math.Round(s * 100))
	return max(0, min(100, score))
}

func normalize(v, limit int) float64 {
	if v <= 0 {
		return 0
	}
	return min(1, float64(v)/float64(limit))
}
