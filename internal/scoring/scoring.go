// Package scoring implements the rule-based content quality score and the
// revenue split derived from it.
package scoring

import (
	"github.com/therealutkarshpriyadarshi/creatorhub/pkg/models"
)

// MaxScore is the upper bound of a quality score
const MaxScore = 100.0

// Breakdown holds the contribution of each scoring factor
type Breakdown struct {
	Originality  float64 `json:"originality"`
	WatchTime    float64 `json:"watch_time"`
	Engagement   float64 `json:"engagement"`
	SearchValue  float64 `json:"search_value"`
	QualityBonus float64 `json:"quality_bonus"`
	Total        float64 `json:"total"`
}

// threshold awards points when a count reaches min. Lists are ordered from the
// highest threshold down and only the first match counts.
type threshold struct {
	min    int64
	points float64
}

var (
	likeThresholds = []threshold{
		{min: 1000, points: 10},
		{min: 500, points: 7},
		{min: 100, points: 5},
	}
	commentThresholds = []threshold{
		{min: 100, points: 10},
		{min: 50, points: 7},
		{min: 10, points: 5},
	}
	shareThresholds = []threshold{
		{min: 50, points: 5},
		{min: 20, points: 3},
		{min: 5, points: 1},
	}
)

// splitBrackets maps the lower bound of each score bracket to its split
var splitBrackets = []struct {
	minScore float64
	split    float64
}{
	{minScore: 90, split: 0.75},
	{minScore: 80, split: 0.70},
	{minScore: 70, split: 0.65},
	{minScore: 60, split: 0.60},
	{minScore: 50, split: 0.55},
}

// MinSplit is the split granted below the lowest bracket
const MinSplit = 0.50

// Evaluate scores signals and returns the per-factor breakdown
func Evaluate(signals models.QualitySignals) Breakdown {
	b := Breakdown{
		Originality:  originality(signals),
		WatchTime:    watchTime(signals.WatchTimeSeconds),
		Engagement:   engagement(signals),
		SearchValue:  searchValue(signals),
		QualityBonus: qualityBonus(signals),
	}

	total := b.Originality + b.WatchTime + b.Engagement + b.SearchValue + b.QualityBonus
	if total > MaxScore {
		total = MaxScore
	}
	b.Total = total

	return b
}

// Score returns the quality score of signals, in [0, 100]
func Score(signals models.QualitySignals) float64 {
	return Evaluate(signals).Total
}

// RevenueSplit maps a quality score to the creator's share of revenue.
// Each bracket includes its lower bound.
func RevenueSplit(score float64) float64 {
	for _, b := range splitBrackets {
		if score >= b.minScore {
			return b.split
		}
	}
	return MinSplit
}

func originality(s models.QualitySignals) float64 {
	var points float64
	if s.IsOriginal {
		points += 15
	}
	if s.UniquePerspective {
		points += 10
	}
	return points
}

// watchTime awards 10 points from one minute and 15 more from two minutes
func watchTime(seconds int64) float64 {
	switch {
	case seconds >= 120:
		return 10 + 15
	case seconds >= 60:
		return 10
	default:
		return 0
	}
}

func engagement(s models.QualitySignals) float64 {
	return tiered(s.Likes, likeThresholds) +
		tiered(s.Comments, commentThresholds) +
		tiered(s.Shares, shareThresholds)
}

func searchValue(s models.QualitySignals) float64 {
	var points float64
	if s.TrendingTopic {
		points += 15
	}
	if s.SearchableContent {
		points += 10
	}
	return points
}

func qualityBonus(s models.QualitySignals) float64 {
	var points float64
	if s.NoAds {
		points += 5
	}
	if s.PolicyCompliant {
		points += 5
	}
	return points
}

func tiered(value int64, thresholds []threshold) float64 {
	for _, t := range thresholds {
		if value >= t.min {
			return t.points
		}
	}
	return 0
}
