package models

import (
	"time"
)

// Tier is a paid membership level offered by a creator
type Tier struct {
	ID              string    `json:"id" db:"id"`
	CreatorID       string    `json:"creator_id" db:"creator_id"`
	Name            string    `json:"name" db:"name"`
	Price           float64   `json:"price" db:"price"`
	Benefits        []string  `json:"benefits" db:"benefits"`
	SubscriberCount int64     `json:"subscriberCount" db:"subscriber_count"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Clone returns a copy of the tier that shares no slices with t
func (t *Tier) Clone() *Tier {
	if t == nil {
		return nil
	}
	out := *t
	out.Benefits = append([]string(nil), t.Benefits...)
	return &out
}

// TierUpdate holds the mutable fields of a tier; nil fields are left unchanged
type TierUpdate struct {
	Name     *string
	Price    *float64
	Benefits []string
}

// Subscription links a user to a creator's tier. Subscriptions are append-only.
type Subscription struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	TierID    string    `json:"tier_id" db:"tier_id"`
	CreatorID string    `json:"creator_id" db:"creator_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
