// Package scoring holds the ranking formulas shared by the feed, the trending
// list and their SQL mirrors in the repository package.
package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/Luismorlan/factfeed/model"
)

const (
	// HotAgeOffset keeps brand new articles from dividing by a tiny number.
	HotAgeOffset = 2.0
	// Gravity is the exponent applied to the age in both formulas.
	Gravity = 1.5
	// TrendingAgeFloor replaces ages below it in the trending formula.
	TrendingAgeFloor = 0.01
	// CommentWeight is how many votes a comment is worth when trending.
	CommentWeight = 2
	// Tolerance under which two scores are treated as equal.
	Tolerance = 1e-9
)

// AgeHours is the age of an article at now, negative ages (clock skew) clamp
// to zero.
func AgeHours(publishedAt, now time.Time) float64 {
	age := now.Sub(publishedAt).Hours()
	if age < 0 {
		return 0
	}
	return age
}

// HotScore = voteScore / (age + 2)^1.5
func HotScore(voteScore int, ageHours float64) float64 {
	if ageHours < 0 {
		ageHours = 0
	}
	return float64(voteScore) / math.Pow(ageHours+HotAgeOffset, Gravity)
}

// TrendingScore = (voteScore + 2*comments) / max(age, 0.01)^1.5
func TrendingScore(voteScore, commentCount int, ageHours float64) float64 {
	if ageHours < TrendingAgeFloor {
		ageHours = TrendingAgeFloor
	}
	engagement := float64(voteScore + CommentWeight*commentCount)
	return engagement / math.Pow(ageHours, Gravity)
}

// Normalize divides every score by the maximum of the set and clamps the
// result to [0, 1]. When the maximum is not positive every entry is 0.
func Normalize(scores []float64) []float64 {
	out := make([]float64, len(scores))
	max := math.Inf(-1)
	for _, s := range scores {
		if s > max {
			max = s
		}
	}
	if len(scores) == 0 || max <= 0 || math.IsInf(max, 0) || math.IsNaN(max) {
		return out
	}
	for i, s := range scores {
		out[i] = math.Min(1, math.Max(0, s/max))
	}
	return out
}

// ScoresEqual compares two scores within Tolerance.
func ScoresEqual(a, b float64) bool {
	return math.Abs(a-b) <= Tolerance
}

// Less orders by score desc, then newer first, then id asc. It is the
// in-memory twin of the ORDER BY used for hot and trending feeds.
func Less(scoreI, scoreJ float64, publishedI, publishedJ time.Time, idI, idJ string) bool {
	if !ScoresEqual(scoreI, scoreJ) {
		return scoreI > scoreJ
	}
	if !publishedI.Equal(publishedJ) {
		return publishedI.After(publishedJ)
	}
	return idI < idJ
}

// SortByHot sorts articles in place by hot score at now. It is the reference
// ordering for the hot ORDER BY in repository.ArticleRepository, which must
// return rows in the same order.
func SortByHot(articles []model.Article, now time.Time) {
	scores := make(map[string]float64, len(articles))
	for _, a := range articles {
		scores[a.Id] = HotScore(a.VoteScore, AgeHours(a.PublishedAt, now))
	}
	sort.SliceStable(articles, func(i, j int) bool {
		a, b := articles[i], articles[j]
		return Less(scores[a.Id], scores[b.Id], a.PublishedAt, b.PublishedAt, a.Id, b.Id)
	})
}

// FilterTop keeps articles with at least minVotes votes and orders them by
// vote score, newer first on ties. Reference ordering for the top feed query
// in repository.ArticleRepository.
func FilterTop(articles []model.Article, minVotes int) []model.Article {
	out := make([]model.Article, 0, len(articles))
	for _, a := range articles {
		if a.VoteCount >= minVotes {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		return Less(float64(a.VoteScore), float64(b.VoteScore), a.PublishedAt, b.PublishedAt, a.Id, b.Id)
	})
	return out
}
