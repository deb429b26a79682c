package service

import (
	"time"

	"upager-license-server/internal/model"
	"upager-license-server/internal/store"

	"gorm.io/gorm"
)

type TierCount struct {
	Tier    string `json:"tier"`
	Billing string `json:"billing"`
	Count   int64  `json:"count"`
}

type Stats struct {
	ByTier              []TierCount `json:"by_tier"`
	TotalActivations    int64       `json:"total_activations"`
	RecentVerifications int64       `json:"recent_verifications"`
}

// Stats aggregates active licenses by tier and billing model, counts
// active activations, and counts verification attempts from the last
// seven days.
func (l *Lifecycle) Stats() (*Stats, error) {
	stats := &Stats{ByTier: make([]TierCount, 0)}

	err := l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.License{}).
			Select("tier, billing_type as billing, count(*) as count").
			Where("status = ?", model.LicenseStatusActive).
			Group("tier, billing_type").
			Scan(&stats.ByTier).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.Activation{}).
			Where("status = ?", model.ActivationStatusActive).
			Count(&stats.TotalActivations).Error; err != nil {
			return err
		}

		weekAgo := time.Now().UTC().AddDate(0, 0, -7)
		recent, err := store.NewVerificationLogStore(tx).CountSince(weekAgo)
		if err != nil {
			return err
		}
		stats.RecentVerifications = recent
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
