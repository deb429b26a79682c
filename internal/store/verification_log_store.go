package store

import (
	"time"

	"upager-license-server/internal/model"

	"gorm.io/gorm"
)

// VerificationLogStore appends to the verification audit trail. There are
// no update or delete operations.
type VerificationLogStore struct {
	db *gorm.DB
}

func NewVerificationLogStore(db *gorm.DB) *VerificationLogStore {
	return &VerificationLogStore{db: db}
}

func (s *VerificationLogStore) Append(entry *model.VerificationLog) error {
	return s.db.Create(entry).Error
}

// CountSince returns the number of verification attempts logged after t.
func (s *VerificationLogStore) CountSince(t time.Time) (int64, error) {
	var count int64
	err := s.db.Model(&model.VerificationLog{}).Where("timestamp > ?", t).Count(&count).Error
	return count, err
}
