package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"insights-service/internal/middleware"
	"insights-service/internal/model"
	"insights-service/internal/repository"
	"insights-service/pkg/config"
	"insights-service/pkg/jwtutil"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestHandler(t *testing.T) (*AuthHandler, *gorm.DB) {
	t.Helper()

	jwtutil.Initialize(&config.JWTConfig{
		SigningKey:      "test-signing-key",
		ExpirationHours: 1,
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.Tenant{}))

	return NewAuthHandler(repository.NewTenantRepository(db)), db
}

func doJSON(t *testing.T, e *echo.Echo, handler echo.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, handler(e.NewContext(req, rec)))
	return rec
}

const signupBody = `{
	"name": "Acme Store",
	"storeUrl": "acme.example.com",
	"email": "admin@acme.example.com",
	"password": "secret123"
}`

func TestSignupAndLogin(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()

	rec := doJSON(t, e, h.Signup, signupBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	var signupResp struct {
		Token  string `json:"token"`
		Tenant struct {
			ID    uint   `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"tenant"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signupResp))
	assert.NotEmpty(t, signupResp.Token)
	assert.Equal(t, "Acme Store", signupResp.Tenant.Name)
	assert.Equal(t, "admin@acme.example.com", signupResp.Tenant.Email)

	claims, err := jwtutil.ValidateToken(signupResp.Token)
	require.NoError(t, err)
	assert.Equal(t, signupResp.Tenant.ID, claims.TenantID)

	rec = doJSON(t, e, h.Login, `{"email": "admin@acme.example.com", "password": "secret123"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var loginResp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loginResp))
	assert.NotEmpty(t, loginResp.Token)
}

func TestSignupRejectsIncompleteData(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()

	rec := doJSON(t, e, h.Signup, `{"email": "admin@acme.example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignupRejectsDuplicateTenant(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()

	rec := doJSON(t, e, h.Signup, signupBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, e, h.Signup, signupBody)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSignupSetsFaviconLogo(t *testing.T) {
	h, db := newTestHandler(t)
	e := echo.New()

	rec := doJSON(t, e, h.Signup, signupBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	var tenant model.Tenant
	require.NoError(t, db.Where("admin_email = ?", "admin@acme.example.com").First(&tenant).Error)
	assert.Equal(t, "https://www.google.com/s2/favicons?domain=acme.example.com&sz=128", tenant.LogoURL)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()

	rec := doJSON(t, e, h.Signup, signupBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, e, h.Login, `{"email": "admin@acme.example.com", "password": "wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, e, h.Login, `{"email": "nobody@example.com", "password": "secret123"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTenantAuthMiddleware(t *testing.T) {
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})

	token, err := jwtutil.GenerateToken(7, "admin@acme.example.com")
	require.NoError(t, err)

	e := echo.New()
	protected := middleware.TenantAuth(func(c echo.Context) error {
		tenantID, ok := middleware.TenantID(c)
		require.True(t, ok)
		return c.JSON(http.StatusOK, echo.Map{"tenant": tenantID})
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	require.NoError(t, protected(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"tenant":7`)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	require.NoError(t, protected(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	require.NoError(t, protected(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
