package database

import (
	"os"
	"path/filepath"
	"time"

	"upager-license-server/internal/model"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Open connects to the sqlite database at path, creating the parent
// directory if needed, and migrates the schema. The handle is returned to
// the caller; nothing in this package holds process-wide state.
func Open(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.License{},
		&model.Activation{},
		&model.VerificationLog{},
		&model.AdminUser{},
	)
}

// SeedAdmin creates the shared admin account if it does not exist yet.
// The password is stored as a bcrypt hash.
func SeedAdmin(db *gorm.DB, username, password string) error {
	var count int64
	if err := db.Model(&model.AdminUser{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &model.AdminUser{
		Username:  username,
		Password:  string(hashed),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	return db.Create(admin).Error
}
