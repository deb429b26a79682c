package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	// Server
	Port string

	// Database
	DBPath string

	// Admin
	AdminUsername  string
	AdminPassword  string
	JWTSecret      string
	JWTExpireHours int

	// Seed a few sample licenses on first start (development only)
	SeedSamples bool

	// Google Sheets mirror
	SheetSyncEnabled bool
	SheetCredential  string
	SpreadsheetID    string
	SheetName        string
}

func Load() *Config {
	adminPassword := getEnv("UPAGER_ADMIN_SECRET", "")
	if adminPassword == "" {
		log.Println("WARNING: UPAGER_ADMIN_SECRET not set - using insecure default!")
		adminPassword = "change-me"
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		log.Println("WARNING: JWT_SECRET not set - admin sessions will not survive restarts")
		jwtSecret = adminPassword
	}

	return &Config{
		Port: getEnv("PORT", "5001"),

		DBPath: getEnv("DB_PATH", "data/licenses.db"),

		AdminUsername:  getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:  adminPassword,
		JWTSecret:      jwtSecret,
		JWTExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),

		SeedSamples: getEnvBool("SEED_SAMPLE_LICENSES", false),

		SheetSyncEnabled: getEnvBool("SHEET_SYNC_ENABLED", false),
		SheetCredential:  getEnv("SHEET_CREDENTIAL_PATH", "credentials.json"),
		SpreadsheetID:    getEnv("SPREADSHEET_ID", ""),
		SheetName:        getEnv("SHEET_NAME", "Licenses"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
