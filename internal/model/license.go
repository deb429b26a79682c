package model

import (
	"strings"
	"time"
)

// License tiers.
const (
	TierFree               = "free"
	TierProLifetime        = "pro_lifetime"
	TierProAnnual          = "pro_annual"
	TierEnterpriseLifetime = "enterprise_lifetime"
	TierEnterpriseAnnual   = "enterprise_annual"
)

// License types derived from the tier prefix.
const (
	TypeFree       = "free"
	TypePro        = "pro"
	TypeEnterprise = "enterprise"
)

// Billing models.
const (
	BillingOneTime = "one-time"
	BillingAnnual  = "annual"
)

// License statuses.
const (
	LicenseStatusActive    = "active"
	LicenseStatusSuspended = "suspended"
	LicenseStatusRevoked   = "revoked"
)

type License struct {
	ID                 uint       `json:"id" gorm:"primaryKey"`
	Key                string     `json:"license_key" gorm:"column:license_key;uniqueIndex;not null"`
	Email              string     `json:"email" gorm:"not null"`
	Type               string     `json:"type" gorm:"not null"`
	Tier               string     `json:"tier" gorm:"not null"`
	BillingType        string     `json:"billing_type" gorm:"not null"`
	Status             string     `json:"status" gorm:"not null;default:'active'"`
	CreatedAt          time.Time  `json:"created_at"`
	ActivatedAt        *time.Time `json:"activated_at"`
	ExpiresAt          *time.Time `json:"expires_at"`
	MaxActivations     int        `json:"max_activations" gorm:"default:1"`
	CurrentActivations int        `json:"current_activations" gorm:"default:0"`
}

// ValidTier reports whether tier is one of the five recognized tiers.
func ValidTier(tier string) bool {
	switch tier {
	case TierFree, TierProLifetime, TierProAnnual, TierEnterpriseLifetime, TierEnterpriseAnnual:
		return true
	}
	return false
}

// TypeForTier derives the license type from the tier prefix.
func TypeForTier(tier string) string {
	switch {
	case strings.HasPrefix(tier, "pro"):
		return TypePro
	case strings.HasPrefix(tier, "enterprise"):
		return TypeEnterprise
	default:
		return TypeFree
	}
}

// BillingForTier derives the billing model from the tier name. Lifetime
// tiers are billed once and never expire.
func BillingForTier(tier string) string {
	if strings.Contains(tier, "lifetime") {
		return BillingOneTime
	}
	return BillingAnnual
}
