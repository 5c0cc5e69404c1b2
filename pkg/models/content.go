package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Content represents a piece of uploaded creator content
type Content struct {
	ID             string         `json:"id" db:"id"`
	CreatorID      string         `json:"creator_id" db:"creator_id"`
	Title          string         `json:"title" db:"title"`
	Description    string         `json:"description" db:"description"`
	VideoURL       string         `json:"video_url,omitempty" db:"video_url"`
	Filename       string         `json:"filename,omitempty" db:"filename"`
	FileKey        string         `json:"-" db:"file_key"`
	Visibility     Visibility     `json:"visibility" db:"visibility"`
	AllowedTierIDs []string       `json:"allowed_tier_ids" db:"allowed_tier_ids"`
	Signals        QualitySignals `json:"quality_signals" db:"quality_signals"`
	QualityScore   float64        `json:"quality_score" db:"quality_score"`
	RevenueSplit   float64        `json:"revenue_split" db:"revenue_split"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// Visibility controls who may view a piece of content
type Visibility string

// Visibility constants
const (
	VisibilityPublic      Visibility = "PUBLIC"
	VisibilityMembersOnly Visibility = "MEMBERS_ONLY"
)

// Valid reports whether v is a known visibility
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityMembersOnly
}

// QualitySignals holds the engagement and quality inputs of the scoring rules
type QualitySignals struct {
	IsOriginal        bool  `json:"is_original"`
	UniquePerspective bool  `json:"unique_perspective"`
	TrendingTopic     bool  `json:"trending_topic"`
	SearchableContent bool  `json:"searchable_content"`
	NoAds             bool  `json:"no_ads"`
	PolicyCompliant   bool  `json:"policy_compliant"`
	WatchTimeSeconds  int64 `json:"watch_time_seconds"`
	Likes             int64 `json:"likes"`
	Comments          int64 `json:"comments"`
	Shares            int64 `json:"shares"`
}

// Value implements driver.Valuer for database storage
func (s QualitySignals) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner for database retrieval
func (s *QualitySignals) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	}
	return nil
}

// Clone returns a copy of the content that shares no slices with c
func (c *Content) Clone() *Content {
	if c == nil {
		return nil
	}
	out := *c
	out.AllowedTierIDs = append([]string(nil), c.AllowedTierIDs...)
	return &out
}
