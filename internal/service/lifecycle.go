// Package service holds the license lifecycle state machine. Every
// operation runs as one transaction against the injected database handle;
// no partial state is ever visible to concurrent callers.
package service

import (
	"errors"
	"log"
	"strings"
	"time"

	"upager-license-server/internal/keygen"
	"upager-license-server/internal/model"
	"upager-license-server/internal/store"

	"gorm.io/gorm"
)

// Licenses expire (and maintenance windows run) 365 days out.
const termDays = 365

type Lifecycle struct {
	db *gorm.DB
}

func NewLifecycle(db *gorm.DB) *Lifecycle {
	return &Lifecycle{db: db}
}

type ActivationResult struct {
	Type               string     `json:"type"`
	Tier               string     `json:"tier"`
	BillingType        string     `json:"billing_type"`
	Expires            *time.Time `json:"expires"`
	MaintenanceExpires *time.Time `json:"maintenance_expires"`
}

type VerificationResult struct {
	Valid              bool       `json:"valid"`
	Type               string     `json:"type,omitempty"`
	Tier               string     `json:"tier,omitempty"`
	BillingType        string     `json:"billing_type,omitempty"`
	Expires            *time.Time `json:"expires,omitempty"`
	MaintenanceExpires *time.Time `json:"maintenance_expires,omitempty"`
	Error              string     `json:"error,omitempty"`
}

// Create issues a new license and returns its key. Unknown tiers are
// rejected rather than silently mapped to free/annual. A key collision
// surfaces as ErrDuplicateKey; the caller retries with a fresh key.
func (l *Lifecycle) Create(email, tier string, maxActivations int) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrValidation
	}
	if !model.ValidTier(tier) {
		return "", ErrInvalidTier
	}
	if maxActivations < 1 {
		maxActivations = 1
	}

	key, err := keygen.Generate()
	if err != nil {
		return "", err
	}

	license := &model.License{
		Key:            key,
		Email:          email,
		Type:           model.TypeForTier(tier),
		Tier:           tier,
		BillingType:    model.BillingForTier(tier),
		Status:         model.LicenseStatusActive,
		CreatedAt:      time.Now().UTC(),
		MaxActivations: maxActivations,
	}

	err = l.db.Transaction(func(tx *gorm.DB) error {
		return store.NewLicenseStore(tx).Insert(license)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint") {
			return "", ErrDuplicateKey
		}
		return "", err
	}

	log.Printf("created %s license %s for %s", tier, key, email)
	return key, nil
}

// Activate binds a license to a machine. Re-running it for a machine that
// is already active only refreshes timestamps; a machine whose activation
// was deactivated goes back through the limit check and consumes a slot
// again. The count-check-then-insert-then-increment sequence runs inside
// one transaction so concurrent calls can never oversell the limit.
func (l *Lifecycle) Activate(key, email, machineID, ip string) (*ActivationResult, error) {
	key = keygen.Normalize(key)
	email = strings.TrimSpace(email)
	machineID = strings.TrimSpace(machineID)
	if key == "" || email == "" || machineID == "" {
		return nil, ErrValidation
	}

	var result *ActivationResult
	err := l.db.Transaction(func(tx *gorm.DB) error {
		licenses := store.NewLicenseStore(tx)
		activations := store.NewActivationStore(tx)

		license, err := licenses.FindByKey(key)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("activation failed: invalid key %s", key)
			return ErrInvalidKey
		} else if err != nil {
			return err
		}

		if license.Status != model.LicenseStatusActive {
			return &NotActiveError{Status: license.Status}
		}
		if !strings.EqualFold(email, license.Email) {
			return ErrEmailMismatch
		}

		now := time.Now().UTC()

		existing, err := activations.FindByKeyAndMachine(license.Key, machineID)
		switch {
		case err == nil && existing.Status == model.ActivationStatusActive:
			// Re-activation: refresh timestamps, leave the counter alone.
			if err := activations.Refresh(existing.ID, ip, now); err != nil {
				return err
			}
			log.Printf("re-activation: %s on %s", license.Key, machineID)

		case err == nil:
			// The machine was deactivated earlier; coming back consumes a
			// slot again and is subject to the limit.
			if license.CurrentActivations >= license.MaxActivations {
				return &ActivationLimitError{Max: license.MaxActivations}
			}
			if err := activations.Reactivate(existing.ID, ip, now); err != nil {
				return err
			}
			if err := licenses.IncrementActivations(license.Key, now); err != nil {
				return err
			}
			log.Printf("reactivated: %s on %s", license.Key, machineID)

		case errors.Is(err, gorm.ErrRecordNotFound):
			if license.CurrentActivations >= license.MaxActivations {
				return &ActivationLimitError{Max: license.MaxActivations}
			}
			activation := &model.Activation{
				LicenseKey:   license.Key,
				MachineID:    machineID,
				IPAddress:    ip,
				ActivatedAt:  now,
				LastVerified: now,
				Status:       model.ActivationStatusActive,
			}
			if err := activations.Insert(activation); err != nil {
				return err
			}
			if err := licenses.IncrementActivations(license.Key, now); err != nil {
				return err
			}
			log.Printf("new activation: %s on %s", license.Key, machineID)

		default:
			return err
		}

		expires, maintenance := computeExpiry(license.BillingType, now)
		if license.ExpiresAt == nil && expires != nil {
			if err := licenses.SetExpiryIfUnset(license.Key, *expires); err != nil {
				return err
			}
		}

		result = &ActivationResult{
			Type:               license.Type,
			Tier:               license.Tier,
			BillingType:        license.BillingType,
			Expires:            expires,
			MaintenanceExpires: maintenance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// computeExpiry returns the license expiry and the maintenance-window
// expiry as of now. One-time licenses never expire themselves; their
// maintenance window is recomputed fresh on every call and never stored.
func computeExpiry(billingType string, now time.Time) (expires, maintenance *time.Time) {
	end := now.AddDate(0, 0, termDays)
	if billingType == model.BillingOneTime {
		return nil, &end
	}
	return &end, &end
}

// Verify checks whether a license is valid on a machine and appends the
// attempt to the audit trail. Invalid determinations come back in the
// result, not as errors; only validation and storage failures error out.
func (l *Lifecycle) Verify(key, machineID, ip string) (*VerificationResult, error) {
	key = keygen.Normalize(key)
	machineID = strings.TrimSpace(machineID)
	if key == "" || machineID == "" {
		return nil, ErrValidation
	}

	var result *VerificationResult
	err := l.db.Transaction(func(tx *gorm.DB) error {
		licenses := store.NewLicenseStore(tx)
		activations := store.NewActivationStore(tx)
		logs := store.NewVerificationLogStore(tx)

		now := time.Now().UTC()

		license, err := licenses.FindByKey(key)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("verification failed: invalid key %s", key)
			if err := logs.Append(&model.VerificationLog{
				LicenseKey: key,
				MachineID:  machineID,
				IPAddress:  ip,
				Timestamp:  now,
				Result:     model.VerificationResultFailed,
				Message:    "Invalid key",
			}); err != nil {
				return err
			}
			result = &VerificationResult{Valid: false, Error: "Invalid license key"}
			return nil
		} else if err != nil {
			return err
		}

		if license.Status != model.LicenseStatusActive {
			result = &VerificationResult{Valid: false, Error: "License is " + license.Status}
			return nil
		}

		activation, err := activations.FindByKeyAndMachine(license.Key, machineID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result = &VerificationResult{Valid: false, Error: "License not activated on this machine"}
			return nil
		} else if err != nil {
			return err
		}
		if activation.Status != model.ActivationStatusActive {
			result = &VerificationResult{Valid: false, Error: "License not activated on this machine"}
			return nil
		}

		if license.BillingType == model.BillingAnnual && license.ExpiresAt != nil && now.After(*license.ExpiresAt) {
			result = &VerificationResult{Valid: false, Error: "License has expired"}
			return nil
		}

		if err := activations.TouchVerified(license.Key, machineID, now); err != nil {
			return err
		}
		if err := logs.Append(&model.VerificationLog{
			LicenseKey: license.Key,
			MachineID:  machineID,
			IPAddress:  ip,
			Timestamp:  now,
			Result:     model.VerificationResultSuccess,
			Message:    "Verified " + license.Tier,
		}); err != nil {
			return err
		}

		var maintenance *time.Time
		if license.BillingType == model.BillingOneTime {
			end := activation.ActivatedAt.AddDate(0, 0, termDays)
			maintenance = &end
		} else {
			maintenance = license.ExpiresAt
		}

		result = &VerificationResult{
			Valid:              true,
			Type:               license.Type,
			Tier:               license.Tier,
			BillingType:        license.BillingType,
			Expires:            license.ExpiresAt,
			MaintenanceExpires: maintenance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Deactivate releases a machine's activation slot. Both the status flip
// and the counter decrement commit together or not at all.
func (l *Lifecycle) Deactivate(key, machineID string) error {
	key = keygen.Normalize(key)
	machineID = strings.TrimSpace(machineID)
	if key == "" || machineID == "" {
		return ErrValidation
	}

	return l.db.Transaction(func(tx *gorm.DB) error {
		licenses := store.NewLicenseStore(tx)
		activations := store.NewActivationStore(tx)

		activation, err := activations.FindByKeyAndMachine(key, machineID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoActiveActivation
		} else if err != nil {
			return err
		}
		if activation.Status != model.ActivationStatusActive {
			return ErrNoActiveActivation
		}

		if err := activations.Deactivate(key, machineID); err != nil {
			return err
		}
		if err := licenses.DecrementActivations(key); err != nil {
			return err
		}

		log.Printf("deactivated: %s from %s", activation.LicenseKey, machineID)
		return nil
	})
}

// ListLicenses returns every license, newest first.
func (l *Lifecycle) ListLicenses() ([]model.License, error) {
	return store.NewLicenseStore(l.db).ListAll()
}

// GetLicense resolves a single license by key, case-insensitively.
func (l *Lifecycle) GetLicense(key string) (*model.License, error) {
	license, err := store.NewLicenseStore(l.db).FindByKey(key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidKey
	}
	return license, err
}
