package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"testing"

	"upager-license-server/internal/config"
	"upager-license-server/internal/database"
	"upager-license-server/internal/middleware"
	"upager-license-server/internal/model"
	"upager-license-server/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminTestApp(t *testing.T) (*fiber.App, *service.Lifecycle) {
	t.Helper()

	db, err := database.OpenTest()
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseTest(db) })

	cfg := &config.Config{
		AdminUsername:  "admin",
		AdminPassword:  "test-secret",
		JWTSecret:      "jwt-test-secret",
		JWTExpireHours: 1,
	}
	require.NoError(t, database.SeedAdmin(db, cfg.AdminUsername, cfg.AdminPassword))

	svc := service.NewLifecycle(db)
	h := NewAdminHandler(db, svc, nil, cfg)

	app := fiber.New()
	admin := app.Group("/admin")
	admin.Post("/login", h.HandleLogin)

	protected := admin.Group("/", middleware.Auth(cfg.JWTSecret))
	protected.Post("/create", h.HandleCreate)
	protected.Get("/licenses", h.HandleLicenses)
	protected.Get("/stats", h.HandleStats)
	protected.Get("/backup", h.HandleBackup)
	protected.Post("/restore", h.HandleRestore)

	return app, svc
}

func adminRequest(t *testing.T, app *fiber.App, method, path, token string, payload interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reqBody *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(raw)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, reqBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := make(map[string]interface{})
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp, body
}

func login(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp, body := adminRequest(t, app, "POST", "/admin/login", "", map[string]interface{}{"secret": "test-secret"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	token, ok := body["token"].(string)
	require.True(t, ok)
	return token
}

func TestHandleLogin(t *testing.T) {
	app, _ := newAdminTestApp(t)

	tests := []struct {
		name       string
		secret     string
		wantStatus int
	}{
		{"valid_secret", "test-secret", fiber.StatusOK},
		{"wrong_secret", "nope", fiber.StatusUnauthorized},
		{"empty_secret", "", fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := adminRequest(t, app, "POST", "/admin/login", "", map[string]interface{}{"secret": tt.secret})
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	app, _ := newAdminTestApp(t)

	resp, _ := adminRequest(t, app, "POST", "/admin/create", "", map[string]interface{}{"email": "a@x.com"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = adminRequest(t, app, "GET", "/admin/stats", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestHandleCreate(t *testing.T) {
	app, _ := newAdminTestApp(t)
	token := login(t, app)

	resp, body := adminRequest(t, app, "POST", "/admin/create", token, map[string]interface{}{
		"email": "customer@example.com",
		"tier":  "enterprise_annual",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Regexp(t, regexp.MustCompile(`^UPAGER(-[0-9A-F]{4}){4}$`), body["license_key"])
	assert.Equal(t, "enterprise_annual", body["tier"])

	// Tier defaults to pro_lifetime when omitted.
	resp, body = adminRequest(t, app, "POST", "/admin/create", token, map[string]interface{}{
		"email": "customer2@example.com",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "pro_lifetime", body["tier"])

	resp, _ = adminRequest(t, app, "POST", "/admin/create", token, map[string]interface{}{
		"email": "customer@example.com",
		"tier":  "deluxe",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleLicensesAndStats(t *testing.T) {
	app, svc := newAdminTestApp(t)
	token := login(t, app)

	key, err := svc.Create("a@x.com", model.TierProAnnual, 1)
	require.NoError(t, err)
	_, err = svc.Activate(key, "a@x.com", "M1", "1.2.3.4")
	require.NoError(t, err)

	resp, body := adminRequest(t, app, "GET", "/admin/licenses", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	licenses, ok := body["licenses"].([]interface{})
	require.True(t, ok)
	assert.Len(t, licenses, 1)

	resp, body = adminRequest(t, app, "GET", "/admin/stats", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["total_activations"])
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	app, svc := newAdminTestApp(t)
	token := login(t, app)

	key, err := svc.Create("a@x.com", model.TierProLifetime, 1)
	require.NoError(t, err)
	_, err = svc.Activate(key, "a@x.com", "M1", "1.2.3.4")
	require.NoError(t, err)

	resp, body := adminRequest(t, app, "GET", "/admin/backup", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	backup, ok := body["backup"].(map[string]interface{})
	require.True(t, ok)

	// A license issued after the backup vanishes on restore.
	_, err = svc.Create("late@x.com", model.TierFree, 1)
	require.NoError(t, err)

	resp, body = adminRequest(t, app, "POST", "/admin/restore", token, map[string]interface{}{"backup": backup})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	licenses, err := svc.ListLicenses()
	require.NoError(t, err)
	require.Len(t, licenses, 1)
	assert.Equal(t, key, licenses[0].Key)
}
