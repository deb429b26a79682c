package handler

import (
	"errors"
	"time"

	"upager-license-server/internal/service"

	"github.com/gofiber/fiber/v2"
)

// LicenseHandler serves the public activation endpoints used by the
// desktop application.
type LicenseHandler struct {
	svc    *service.Lifecycle
	sheets *service.SheetSyncService
}

func NewLicenseHandler(svc *service.Lifecycle, sheets *service.SheetSyncService) *LicenseHandler {
	return &LicenseHandler{svc: svc, sheets: sheets}
}

type activateInput struct {
	Key       string `json:"key"`
	Email     string `json:"email"`
	MachineID string `json:"machine_id"`
	IP        string `json:"ip"`
}

type verifyInput struct {
	Key       string `json:"key"`
	MachineID string `json:"machine_id"`
}

func (h *LicenseHandler) HandleActivate(c *fiber.Ctx) error {
	input := new(activateInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	ip := input.IP
	if ip == "" {
		ip = c.IP()
	}

	result, err := h.svc.Activate(input.Key, input.Email, input.MachineID, ip)
	if err != nil {
		return respondError(c, err)
	}

	h.mirrorLicense(input.Key)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "License activated successfully",
		"license": result,
	})
}

func (h *LicenseHandler) HandleVerify(c *fiber.Ctx) error {
	input := new(verifyInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"valid": false,
			"error": "Invalid request body",
		})
	}

	result, err := h.svc.Verify(input.Key, input.MachineID, c.IP())
	if errors.Is(err, service.ErrValidation) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"valid": false,
			"error": "Missing required fields",
		})
	} else if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"valid": false,
			"error": "Internal server error",
		})
	}

	return c.JSON(result)
}

func (h *LicenseHandler) HandleDeactivate(c *fiber.Ctx) error {
	input := new(verifyInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if err := h.svc.Deactivate(input.Key, input.MachineID); err != nil {
		return respondError(c, err)
	}

	h.mirrorLicense(input.Key)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "License deactivated successfully",
	})
}

func (h *LicenseHandler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

// mirrorLicense pushes the license's current row to the sheet mirror in
// the background. Best-effort; failures only log.
func (h *LicenseHandler) mirrorLicense(key string) {
	if h.sheets == nil {
		return
	}
	license, err := h.svc.GetLicense(key)
	if err != nil {
		return
	}
	go h.sheets.SyncLicense(license)
}

// respondError maps lifecycle errors to HTTP responses: validation 400,
// unknown key or activation 404, business-rule refusals 403, anything
// else an internal error.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, service.ErrValidation):
		status, message = fiber.StatusBadRequest, "Missing required fields"
	case errors.Is(err, service.ErrInvalidTier):
		status, message = fiber.StatusBadRequest, "Unknown license tier"
	case errors.Is(err, service.ErrInvalidKey):
		status, message = fiber.StatusNotFound, "Invalid license key"
	case errors.Is(err, service.ErrLicenseNotActive):
		status, message = fiber.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrEmailMismatch):
		status, message = fiber.StatusForbidden, "Email does not match license"
	case errors.Is(err, service.ErrActivationLimit):
		status, message = fiber.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrNoActiveActivation):
		status, message = fiber.StatusNotFound, "No active activation found"
	case errors.Is(err, service.ErrDuplicateKey):
		status, message = fiber.StatusInternalServerError, "Failed to create license"
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}
