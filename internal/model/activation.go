package model

import "time"

// Activation statuses.
const (
	ActivationStatusActive      = "active"
	ActivationStatusDeactivated = "deactivated"
)

// Activation binds a license to one machine. The (license_key, machine_id)
// pair is unique; keys are stored in canonical uppercase form.
type Activation struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	LicenseKey   string    `json:"license_key" gorm:"not null;uniqueIndex:idx_license_machine"`
	MachineID    string    `json:"machine_id" gorm:"not null;uniqueIndex:idx_license_machine"`
	IPAddress    string    `json:"ip_address"`
	ActivatedAt  time.Time `json:"activated_at"`
	LastVerified time.Time `json:"last_verified"`
	Status       string    `json:"status" gorm:"not null"`
}
