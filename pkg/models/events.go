package models

import (
	"time"
)

// Event routing keys
const (
	EventSubscriptionCreated = "subscription.created"
	EventPurchaseCompleted   = "purchase.completed"
	EventContentUploaded     = "content.uploaded"
	EventContentRescored     = "content.rescored"
	EventPayoutComputed      = "payout.computed"
)

// Event is the envelope published for every domain event
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// EngagementUpdate carries fresh signals for a content item
type EngagementUpdate struct {
	ContentID string         `json:"content_id"`
	Signals   QualitySignals `json:"signals"`
}
