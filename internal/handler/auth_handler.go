package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"insights-service/internal/model"
	"insights-service/internal/repository"
	"insights-service/pkg/jwtutil"
	"insights-service/pkg/logger"
	"insights-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler serves tenant signup and login.
type AuthHandler struct {
	tenants *repository.TenantRepository
}

func NewAuthHandler(tenants *repository.TenantRepository) *AuthHandler {
	return &AuthHandler{tenants: tenants}
}

// Signup registers a new tenant and issues a token for it.
func (h *AuthHandler) Signup(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.SignupCounter.Inc()

	var req struct {
		Name        string `json:"name"`
		StoreURL    string `json:"storeUrl"`
		StoreDomain string `json:"storeDomain"`
		AccessToken string `json:"accessToken"`
		Email       string `json:"email"`
		Password    string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse signup request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name == "" || req.StoreURL == "" || req.Email == "" || req.Password == "" {
		log.Error("Incomplete signup data", zap.String("email", req.Email))
		prometheus.RecordAuthError("incomplete_signup")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, storeUrl, email and password are required"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "signup failed"})
	}

	tenant := model.Tenant{
		Name:              req.Name,
		StoreURL:          req.StoreURL,
		AdminEmail:        req.Email,
		AdminPasswordHash: string(hashedPassword),
		LogoURL:           fmt.Sprintf("https://www.google.com/s2/favicons?domain=%s&sz=128", req.StoreURL),
	}
	if req.StoreDomain != "" {
		tenant.StoreDomain = &req.StoreDomain
	}
	if req.AccessToken != "" {
		tenant.AccessToken = &req.AccessToken
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.tenants.Create(c.Request().Context(), &tenant); err != nil {
		if errors.Is(err, repository.ErrDuplicateTenant) {
			log.Warn("Duplicate tenant signup", zap.String("email", req.Email))
			prometheus.RecordAuthError("duplicate_tenant")
			return c.JSON(http.StatusConflict, echo.Map{"error": "a tenant with this email or store URL already exists"})
		}
		log.Error("Failed to create tenant", zap.Error(err))
		prometheus.RecordAuthError("tenant_creation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "signup failed"})
	}

	token, err := jwtutil.GenerateToken(tenant.ID, tenant.AdminEmail)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("Tenant registered",
		zap.Uint("tenant_id", tenant.ID),
		zap.String("email", tenant.AdminEmail))

	return c.JSON(http.StatusCreated, echo.Map{
		"token": token,
		"tenant": map[string]interface{}{
			"id":    tenant.ID,
			"name":  tenant.Name,
			"email": tenant.AdminEmail,
		},
	})
}

// Login authenticates a tenant admin and issues a token.
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" || req.Password == "" {
		prometheus.RecordAuthError("incomplete_login")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	tenant, err := h.tenants.FindByAdminEmail(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrTenantNotFound) {
			log.Warn("Login for unknown tenant", zap.String("email", req.Email))
			prometheus.RecordAuthError("tenant_not_found")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		log.Error("Failed to look up tenant", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(tenant.AdminPasswordHash), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	token, err := jwtutil.GenerateToken(tenant.ID, tenant.AdminEmail)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("Tenant logged in",
		zap.Uint("tenant_id", tenant.ID),
		zap.String("email", tenant.AdminEmail))

	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"tenant": map[string]interface{}{
			"id":    tenant.ID,
			"name":  tenant.Name,
			"email": tenant.AdminEmail,
		},
	})
}
