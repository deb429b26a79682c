package model

import "time"

// Verification outcomes.
const (
	VerificationResultSuccess = "success"
	VerificationResultFailed  = "failed"
)

// VerificationLog is the append-only audit trail of verify attempts.
// Rows are never updated or deleted.
type VerificationLog struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	LicenseKey string    `json:"license_key" gorm:"index"`
	MachineID  string    `json:"machine_id"`
	IPAddress  string    `json:"ip_address"`
	Timestamp  time.Time `json:"timestamp"`
	Result     string    `json:"result"`
	Message    string    `json:"message"`
}
