package service

import (
	"time"

	"upager-license-server/internal/model"

	"gorm.io/gorm"
)

type SnapshotCounts struct {
	Licenses    int `json:"licenses"`
	Activations int `json:"activations"`
}

// Snapshot is the JSON backup format: a full dump of the licenses and
// activations tables. The verification log is audit data and is not part
// of a backup.
type Snapshot struct {
	BackupDate  time.Time          `json:"backup_date"`
	Counts      SnapshotCounts     `json:"counts"`
	Licenses    []model.License    `json:"licenses"`
	Activations []model.Activation `json:"activations"`
}

// BackupSnapshot reads both tables inside one transaction so the snapshot
// is internally consistent.
func (l *Lifecycle) BackupSnapshot() (*Snapshot, error) {
	snapshot := &Snapshot{BackupDate: time.Now().UTC()}

	err := l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Order("created_at ASC").Find(&snapshot.Licenses).Error; err != nil {
			return err
		}
		if err := tx.Order("id ASC").Find(&snapshot.Activations).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	snapshot.Counts = SnapshotCounts{
		Licenses:    len(snapshot.Licenses),
		Activations: len(snapshot.Activations),
	}
	return snapshot, nil
}

// RestoreSnapshot replaces all license and activation rows with the
// snapshot's contents. The wipe and the reload commit together.
func (l *Lifecycle) RestoreSnapshot(snapshot *Snapshot) (*SnapshotCounts, error) {
	if snapshot == nil {
		return nil, ErrValidation
	}

	err := l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.Activation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&model.License{}).Error; err != nil {
			return err
		}

		if len(snapshot.Licenses) > 0 {
			if err := tx.CreateInBatches(snapshot.Licenses, 100).Error; err != nil {
				return err
			}
		}
		if len(snapshot.Activations) > 0 {
			if err := tx.CreateInBatches(snapshot.Activations, 100).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &SnapshotCounts{
		Licenses:    len(snapshot.Licenses),
		Activations: len(snapshot.Activations),
	}, nil
}
