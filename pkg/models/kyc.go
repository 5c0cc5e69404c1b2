package models

import (
	"time"
)

// KycStatus is the identity verification state of a creator
type KycStatus string

// KycStatus constants
const (
	KycNotStarted KycStatus = "not_started"
	KycPending    KycStatus = "pending"
	KycVerified   KycStatus = "verified"
	KycRejected   KycStatus = "rejected"
)

// Valid reports whether s is a known KYC status
func (s KycStatus) Valid() bool {
	switch s {
	case KycNotStarted, KycPending, KycVerified, KycRejected:
		return true
	}
	return false
}

// KycRecord is the stored KYC state of a creator
type KycRecord struct {
	CreatorID string     `json:"creator_id" db:"creator_id"`
	Status    KycStatus  `json:"status" db:"status"`
	Reason    string     `json:"rejection_reason,omitempty" db:"reason"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}
