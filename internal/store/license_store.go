// Package store holds thin persistence wrappers around the three license
// tables. A store is constructed over the calling transaction handle and
// carries no business logic of its own.
package store

import (
	"time"

	"upager-license-server/internal/model"

	"gorm.io/gorm"
)

type LicenseStore struct {
	db *gorm.DB
}

func NewLicenseStore(db *gorm.DB) *LicenseStore {
	return &LicenseStore{db: db}
}

// FindByKey resolves a license by key, case-insensitively. Returns
// gorm.ErrRecordNotFound when no row matches.
func (s *LicenseStore) FindByKey(key string) (*model.License, error) {
	var license model.License
	err := s.db.Where("UPPER(license_key) = UPPER(?)", key).First(&license).Error
	if err != nil {
		return nil, err
	}
	return &license, nil
}

func (s *LicenseStore) Insert(license *model.License) error {
	return s.db.Create(license).Error
}

// IncrementActivations consumes one activation slot and stamps
// activated_at if it is still unset (first-write-wins).
func (s *LicenseStore) IncrementActivations(key string, now time.Time) error {
	return s.db.Model(&model.License{}).
		Where("UPPER(license_key) = UPPER(?)", key).
		Updates(map[string]interface{}{
			"current_activations": gorm.Expr("current_activations + 1"),
			"activated_at":        gorm.Expr("COALESCE(activated_at, ?)", now),
		}).Error
}

// SetExpiryIfUnset persists the license expiry once; later calls are no-ops.
func (s *LicenseStore) SetExpiryIfUnset(key string, expiresAt time.Time) error {
	return s.db.Model(&model.License{}).
		Where("UPPER(license_key) = UPPER(?) AND expires_at IS NULL", key).
		Update("expires_at", expiresAt).Error
}

// DecrementActivations releases one activation slot, clamped at zero.
func (s *LicenseStore) DecrementActivations(key string) error {
	return s.db.Model(&model.License{}).
		Where("UPPER(license_key) = UPPER(?)", key).
		Update("current_activations", gorm.Expr("MAX(current_activations - 1, 0)")).Error
}

// ListAll returns every license, newest first.
func (s *LicenseStore) ListAll() ([]model.License, error) {
	var licenses []model.License
	err := s.db.Order("created_at DESC").Find(&licenses).Error
	return licenses, err
}
