package middleware

import (
	"net/http"
	"strings"

	"insights-service/pkg/jwtutil"
	"insights-service/pkg/logger"
	"insights-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TenantIDKey is the echo context key the resolved tenant ID is stored under.
const TenantIDKey = "tenant_id"

// TenantAuth validates the bearer token and resolves the caller's tenant ID
// into the request context. Handlers trust this value completely and perform
// no independent tenant verification.
func TenantAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Warn("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		c.Set(TenantIDKey, claims.TenantID)
		log.Debug("Request authenticated",
			zap.Uint("tenant_id", claims.TenantID),
			zap.String("email", claims.Email))

		return next(c)
	}
}

// TenantID returns the tenant ID resolved by TenantAuth.
func TenantID(c echo.Context) (uint, bool) {
	id, ok := c.Get(TenantIDKey).(uint)
	return id, ok
}
