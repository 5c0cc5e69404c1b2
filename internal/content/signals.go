package content

import (
	"github.com/therealutkarshpriyadarshi/creatorhub/pkg/models"
)

// SignalsInput is the request form of quality signals. NoAds and
// PolicyCompliant default to true when omitted.
type SignalsInput struct {
	IsOriginal        bool  `json:"is_original" form:"is_original"`
	UniquePerspective bool  `json:"unique_perspective" form:"unique_perspective"`
	TrendingTopic     bool  `json:"trending_topic" form:"trending_topic"`
	SearchableContent bool  `json:"searchable_content" form:"searchable_content"`
	NoAds             *bool `json:"no_ads" form:"no_ads"`
	PolicyCompliant   *bool `json:"policy_compliant" form:"policy_compliant"`
	WatchTimeSeconds  int64 `json:"watch_time_seconds" form:"watch_time_seconds"`
	Likes             int64 `json:"likes" form:"likes"`
	Comments          int64 `json:"comments" form:"comments"`
	Shares            int64 `json:"shares" form:"shares"`
}

// Signals converts the input, applying defaults
func (in SignalsInput) Signals() models.QualitySignals {
	return models.QualitySignals{
		IsOriginal:        in.IsOriginal,
		UniquePerspective: in.UniquePerspective,
		TrendingTopic:     in.TrendingTopic,
		SearchableContent: in.SearchableContent,
		NoAds:             boolOr(in.NoAds, true),
		PolicyCompliant:   boolOr(in.PolicyCompliant, true),
		WatchTimeSeconds:  in.WatchTimeSeconds,
		Likes:             in.Likes,
		Comments:          in.Comments,
		Shares:            in.Shares,
	}
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
