package store

import (
	"time"

	"upager-license-server/internal/model"

	"gorm.io/gorm"
)

type ActivationStore struct {
	db *gorm.DB
}

func NewActivationStore(db *gorm.DB) *ActivationStore {
	return &ActivationStore{db: db}
}

// FindByKeyAndMachine returns the single activation row for the
// (license_key, machine_id) pair, regardless of its status.
func (s *ActivationStore) FindByKeyAndMachine(key, machineID string) (*model.Activation, error) {
	var activation model.Activation
	err := s.db.Where("UPPER(license_key) = UPPER(?) AND machine_id = ?", key, machineID).
		First(&activation).Error
	if err != nil {
		return nil, err
	}
	return &activation, nil
}

func (s *ActivationStore) Insert(activation *model.Activation) error {
	return s.db.Create(activation).Error
}

// Refresh updates last_verified and the caller's IP on a re-activation.
func (s *ActivationStore) Refresh(id uint, ip string, now time.Time) error {
	return s.db.Model(&model.Activation{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_verified": now,
			"ip_address":    ip,
		}).Error
}

// Reactivate flips a deactivated row back to active.
func (s *ActivationStore) Reactivate(id uint, ip string, now time.Time) error {
	return s.db.Model(&model.Activation{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        model.ActivationStatusActive,
			"last_verified": now,
			"ip_address":    ip,
		}).Error
}

// TouchVerified bumps last_verified after a successful verify.
func (s *ActivationStore) TouchVerified(key, machineID string, now time.Time) error {
	return s.db.Model(&model.Activation{}).
		Where("UPPER(license_key) = UPPER(?) AND machine_id = ?", key, machineID).
		Update("last_verified", now).Error
}

// Deactivate marks the row deactivated. Deactivation is one-way; the row
// stays behind so the pair's history is preserved.
func (s *ActivationStore) Deactivate(key, machineID string) error {
	return s.db.Model(&model.Activation{}).
		Where("UPPER(license_key) = UPPER(?) AND machine_id = ?", key, machineID).
		Update("status", model.ActivationStatusDeactivated).Error
}
