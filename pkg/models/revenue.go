package models

import (
	"time"
)

// RevenueSummary aggregates a creator's revenue across tiers and purchases
type RevenueSummary struct {
	CreatorID           string  `json:"creator_id"`
	SubscriptionRevenue float64 `json:"subscription_revenue"`
	OneTimeRevenue      float64 `json:"one_time_revenue"`
	TotalRevenue        float64 `json:"total_revenue"`
	TotalSubscribers    int64   `json:"total_subscribers"`
	TotalTiers          int     `json:"total_tiers"`
	TotalPurchases      int64   `json:"total_purchases"`
}

// Payout is a computed, smoothed payout for a creator
type Payout struct {
	ID                  string    `json:"id" db:"id"`
	CreatorID           string    `json:"creator_id" db:"creator_id"`
	TotalRevenue        float64   `json:"total_revenue" db:"total_revenue"`
	PerformanceScore    float64   `json:"performance_score" db:"performance_score"`
	SmoothingWindowDays int       `json:"smoothing_window_days" db:"smoothing_window_days"`
	Amount              float64   `json:"smoothed_payout_amount" db:"amount"`
	KycStatus           KycStatus `json:"kyc_status" db:"kyc_status"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}

// RevenueSnapshot is a creator's revenue recorded for a calendar month
type RevenueSnapshot struct {
	CreatorID           string    `json:"creator_id" db:"creator_id"`
	Year                int       `json:"year" db:"year"`
	Month               int       `json:"month" db:"month"`
	SubscriptionRevenue float64   `json:"subscription_revenue" db:"subscription_revenue"`
	OneTimeRevenue      float64   `json:"one_time_revenue" db:"one_time_revenue"`
	TotalRevenue        float64   `json:"total_revenue" db:"total_revenue"`
	TotalSubscribers    int64     `json:"total_subscribers" db:"total_subscribers"`
	RecordedAt          time.Time `json:"recorded_at" db:"recorded_at"`
}
