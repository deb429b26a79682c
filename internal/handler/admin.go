package handler

import (
	"errors"
	"time"

	"upager-license-server/internal/config"
	"upager-license-server/internal/model"
	"upager-license-server/internal/service"
	"upager-license-server/internal/util"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// createAttempts bounds the retry loop on license-key collisions. With 8
// bytes of entropy a second collision in a row is effectively impossible.
const createAttempts = 3

// AdminHandler serves the authenticated admin surface: issuing licenses,
// listing, stats, and backup/restore.
type AdminHandler struct {
	db     *gorm.DB
	svc    *service.Lifecycle
	sheets *service.SheetSyncService
	cfg    *config.Config
}

func NewAdminHandler(db *gorm.DB, svc *service.Lifecycle, sheets *service.SheetSyncService, cfg *config.Config) *AdminHandler {
	return &AdminHandler{db: db, svc: svc, sheets: sheets, cfg: cfg}
}

type loginInput struct {
	Secret string `json:"secret"`
}

type createInput struct {
	Email          string `json:"email"`
	Tier           string `json:"tier"`
	MaxActivations int    `json:"max_activations"`
}

type restoreInput struct {
	Backup *service.Snapshot `json:"backup"`
}

// HandleLogin exchanges the shared admin secret for a bearer token.
func (h *AdminHandler) HandleLogin(c *fiber.Ctx) error {
	input := new(loginInput)
	if err := c.BodyParser(input); err != nil || input.Secret == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Secret required",
		})
	}

	var admin model.AdminUser
	if err := h.db.Where("username = ?", h.cfg.AdminUsername).First(&admin).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Unauthorized",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(input.Secret)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Unauthorized",
		})
	}

	h.db.Model(&admin).Update("last_login", time.Now().UTC())

	token, err := util.GenerateToken(admin.ID, h.cfg.JWTSecret, h.cfg.JWTExpireHours)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Internal server error",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"token":   token,
	})
}

// HandleCreate issues a new license. A key collision gets a fresh key and
// another attempt.
func (h *AdminHandler) HandleCreate(c *fiber.Ctx) error {
	input := new(createInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if input.Tier == "" {
		input.Tier = model.TierProLifetime
	}
	if input.MaxActivations == 0 {
		input.MaxActivations = 1
	}

	var key string
	var err error
	for attempt := 0; attempt < createAttempts; attempt++ {
		key, err = h.svc.Create(input.Email, input.Tier, input.MaxActivations)
		if !errors.Is(err, service.ErrDuplicateKey) {
			break
		}
	}
	if err != nil {
		return respondError(c, err)
	}

	if h.sheets != nil {
		if license, lookupErr := h.svc.GetLicense(key); lookupErr == nil {
			go h.sheets.SyncLicense(license)
		}
	}

	return c.JSON(fiber.Map{
		"success":         true,
		"license_key":     key,
		"email":           input.Email,
		"tier":            input.Tier,
		"max_activations": input.MaxActivations,
	})
}

func (h *AdminHandler) HandleLicenses(c *fiber.Ctx) error {
	licenses, err := h.svc.ListLicenses()
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"licenses": licenses,
	})
}

func (h *AdminHandler) HandleStats(c *fiber.Ctx) error {
	stats, err := h.svc.Stats()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

func (h *AdminHandler) HandleBackup(c *fiber.Ctx) error {
	snapshot, err := h.svc.BackupSnapshot()
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"backup":  snapshot,
	})
}

// HandleRestore replaces all license data with an uploaded snapshot.
func (h *AdminHandler) HandleRestore(c *fiber.Ctx) error {
	input := new(restoreInput)
	if err := c.BodyParser(input); err != nil || input.Backup == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Backup payload required",
		})
	}

	counts, err := h.svc.RestoreSnapshot(input.Backup)
	if err != nil {
		return respondError(c, err)
	}

	if h.sheets != nil {
		go h.sheets.SyncAll(h.db)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"counts":  counts,
	})
}
