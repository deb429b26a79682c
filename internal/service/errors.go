package service

import (
	"errors"
	"fmt"
)

// Sentinel errors for lifecycle operations. Handlers map these to HTTP
// status codes; everything else surfaces as a persistence failure.
var (
	ErrValidation         = errors.New("missing required fields")
	ErrInvalidTier        = errors.New("unknown license tier")
	ErrInvalidKey         = errors.New("invalid license key")
	ErrLicenseNotActive   = errors.New("license is not active")
	ErrEmailMismatch      = errors.New("email does not match license")
	ErrActivationLimit    = errors.New("maximum activations reached")
	ErrNotActivatedHere   = errors.New("license not activated on this machine")
	ErrExpired            = errors.New("license has expired")
	ErrNoActiveActivation = errors.New("no active activation found")
	ErrDuplicateKey       = errors.New("license key already exists")
)

// NotActiveError carries the actual status of a suspended or revoked
// license. errors.Is(err, ErrLicenseNotActive) matches it.
type NotActiveError struct {
	Status string
}

func (e *NotActiveError) Error() string {
	return fmt.Sprintf("license is %s", e.Status)
}

func (e *NotActiveError) Is(target error) bool {
	return target == ErrLicenseNotActive
}

// ActivationLimitError carries the license's activation cap.
// errors.Is(err, ErrActivationLimit) matches it.
type ActivationLimitError struct {
	Max int
}

func (e *ActivationLimitError) Error() string {
	return fmt.Sprintf("maximum activations (%d) reached", e.Max)
}

func (e *ActivationLimitError) Is(target error) bool {
	return target == ErrActivationLimit
}
