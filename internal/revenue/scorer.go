package revenue

import (
	"context"
	"fmt"

	"github.com/therealutkarshpriyadarshi/creatorhub/internal/scoring"
	"github.com/therealutkarshpriyadarshi/creatorhub/pkg/models"
)

// DefaultPerformanceScore is used when no better signal exists
const DefaultPerformanceScore = 0.75

// PerformanceScorer rates a creator's performance as a multiplier on revenue
type PerformanceScorer interface {
	PerformanceScore(ctx context.Context, creatorID string) (float64, error)
}

// StaticScorer returns the same score for every creator
type StaticScorer float64

// PerformanceScore implements PerformanceScorer
func (s StaticScorer) PerformanceScore(ctx context.Context, creatorID string) (float64, error) {
	return float64(s), nil
}

// ContentLister lists a creator's content
type ContentLister interface {
	ListContentByCreator(ctx context.Context, creatorID string) ([]*models.Content, error)
}

// ContentQualityScorer uses the mean quality score of the creator's content,
// scaled to [0,1]. Creators without content get the fallback.
type ContentQualityScorer struct {
	content  ContentLister
	fallback float64
}

// NewContentQualityScorer creates a content-based performance scorer
func NewContentQualityScorer(content ContentLister, fallback float64) *ContentQualityScorer {
	return &ContentQualityScorer{content: content, fallback: fallback}
}

// PerformanceScore implements PerformanceScorer
func (s *ContentQualityScorer) PerformanceScore(ctx context.Context, creatorID string) (float64, error) {
	items, err := s.content.ListContentByCreator(ctx, creatorID)
	if err != nil {
		return 0, fmt.Errorf("failed to list content: %w", err)
	}
	if len(items) == 0 {
		return s.fallback, nil
	}

	var total float64
	for _, c := range items {
		total += c.QualityScore
	}
	return total / float64(len(items)) / scoring.MaxScore, nil
}
