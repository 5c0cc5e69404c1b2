package models

import (
	"time"
)

// OneTimePurchase is an item a creator sells outside of tiers
type OneTimePurchase struct {
	ID            string    `json:"id" db:"id"`
	CreatorID     string    `json:"creator_id" db:"creator_id"`
	Name          string    `json:"name" db:"name"`
	Price         float64   `json:"price" db:"price"`
	Description   string    `json:"description" db:"description"`
	Type          string    `json:"type" db:"type"`
	PurchaseCount int64     `json:"purchaseCount" db:"purchase_count"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// PurchaseUpdate holds the mutable fields of a one-time purchase
type PurchaseUpdate struct {
	Name        *string
	Price       *float64
	Description *string
	Type        *string
}

// PurchaseRecord is a single completed purchase by a user
type PurchaseRecord struct {
	ID         string    `json:"id" db:"id"`
	PurchaseID string    `json:"purchase_id" db:"purchase_id"`
	UserID     string    `json:"user_id" db:"user_id"`
	CreatorID  string    `json:"creator_id" db:"creator_id"`
	Price      float64   `json:"price" db:"price"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
