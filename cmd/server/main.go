package main

import (
	"log"

	"upager-license-server/internal/config"
	"upager-license-server/internal/database"
	"upager-license-server/internal/handler"
	"upager-license-server/internal/middleware"
	"upager-license-server/internal/model"
	"upager-license-server/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatal("database connection failed:", err)
	}
	if err := database.SeedAdmin(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatal("seeding admin account failed:", err)
	}

	lifecycle := service.NewLifecycle(db)

	if cfg.SeedSamples {
		seedSampleLicenses(db, lifecycle)
	}

	sheets, err := service.NewSheetSyncService(cfg.SheetSyncEnabled, cfg.SheetCredential, cfg.SpreadsheetID, cfg.SheetName)
	if err != nil {
		log.Fatal("sheet sync initialization failed:", err)
	}
	if sheets != nil {
		if err := sheets.SyncAll(db); err != nil {
			log.Printf("initial sheet sync failed: %v", err)
		}
	}

	licenseHandler := handler.NewLicenseHandler(lifecycle, sheets)
	adminHandler := handler.NewAdminHandler(db, lifecycle, sheets, cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New())

	app.Post("/activate", licenseHandler.HandleActivate)
	app.Post("/verify", licenseHandler.HandleVerify)
	app.Post("/deactivate", licenseHandler.HandleDeactivate)
	app.Get("/health", licenseHandler.HandleHealth)

	admin := app.Group("/admin")
	admin.Post("/login", adminHandler.HandleLogin)

	protected := admin.Group("/", middleware.Auth(cfg.JWTSecret))
	protected.Post("/create", adminHandler.HandleCreate)
	protected.Get("/licenses", adminHandler.HandleLicenses)
	protected.Get("/stats", adminHandler.HandleStats)
	protected.Get("/backup", adminHandler.HandleBackup)
	protected.Post("/restore", adminHandler.HandleRestore)

	log.Printf("starting UPager license server on :%s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}

// seedSampleLicenses creates one license per tier the first time the
// server starts against an empty database. Development convenience only.
func seedSampleLicenses(db *gorm.DB, lifecycle *service.Lifecycle) {
	var count int64
	if err := db.Model(&model.License{}).Count(&count).Error; err != nil || count > 0 {
		return
	}

	log.Println("creating sample licenses...")
	samples := []struct {
		email string
		tier  string
	}{
		{"free@example.com", model.TierFree},
		{"pro_lifetime@example.com", model.TierProLifetime},
		{"pro_annual@example.com", model.TierProAnnual},
		{"enterprise@example.com", model.TierEnterpriseLifetime},
	}
	for _, s := range samples {
		if _, err := lifecycle.Create(s.email, s.tier, 1); err != nil {
			log.Printf("sample license %s failed: %v", s.tier, err)
		}
	}
}
