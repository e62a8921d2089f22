package handler

import (
	"net/http"
	"time"

	"insights-service/internal/middleware"
	"insights-service/internal/service"
	"insights-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// DashboardHandler serves the tenant-scoped aggregate views.
type DashboardHandler struct {
	reports *service.ReportService
}

func NewDashboardHandler(reports *service.ReportService) *DashboardHandler {
	return &DashboardHandler{reports: reports}
}

// Overview returns customer count, order count and total revenue.
func (h *DashboardHandler) Overview(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context required"})
	}

	stats, err := h.reports.Overview(c.Request().Context(), tenantID)
	if err != nil {
		log.Error("Overview query failed", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute overview"})
	}
	return c.JSON(http.StatusOK, stats)
}

// Orders returns the enriched orders listing, optionally bounded by the
// from/to query parameters (inclusive).
func (h *DashboardHandler) Orders(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context required"})
	}

	from, err := parseTimeParam(c.QueryParam("from"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from date"})
	}
	to, err := parseTimeParam(c.QueryParam("to"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid to date"})
	}

	orders, err := h.reports.Orders(c.Request().Context(), tenantID, from, to)
	if err != nil {
		log.Error("Orders query failed", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list orders"})
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

// TopCustomers returns the top five customers by total spend.
func (h *DashboardHandler) TopCustomers(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context required"})
	}

	top, err := h.reports.TopCustomers(c.Request().Context(), tenantID)
	if err != nil {
		log.Error("Top customers query failed", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to rank customers"})
	}
	return c.JSON(http.StatusOK, top)
}

// EventsSummary returns event counts grouped by event name.
func (h *DashboardHandler) EventsSummary(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context required"})
	}

	summary, err := h.reports.EventsSummary(c.Request().Context(), tenantID)
	if err != nil {
		log.Error("Events summary query failed", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to summarize events"})
	}
	return c.JSON(http.StatusOK, summary)
}

// SalesTrend returns the trailing 30-day revenue buckets.
func (h *DashboardHandler) SalesTrend(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context required"})
	}

	trend, err := h.reports.SalesTrend(c.Request().Context(), tenantID)
	if err != nil {
		log.Error("Sales trend query failed", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute sales trend"})
	}
	return c.JSON(http.StatusOK, trend)
}

// CustomerProducts returns each customer with the shopify ids of their orders.
func (h *DashboardHandler) CustomerProducts(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context required"})
	}

	entries, err := h.reports.CustomerProducts(c.Request().Context(), tenantID)
	if err != nil {
		log.Error("Customer products query failed", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load customer orders"})
	}
	return c.JSON(http.StatusOK, entries)
}

// CustomerHistory returns each customer with their orders and recent events.
func (h *DashboardHandler) CustomerHistory(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context required"})
	}

	history, err := h.reports.CustomerHistory(c.Request().Context(), tenantID)
	if err != nil {
		log.Error("Customer history query failed", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load customer history"})
	}
	return c.JSON(http.StatusOK, echo.Map{"customerHistory": history})
}

// TenantInfo returns the authenticated tenant's profile.
func (h *DashboardHandler) TenantInfo(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context required"})
	}

	info, err := h.reports.TenantInfo(c.Request().Context(), tenantID)
	if err != nil {
		log.Error("Tenant info query failed", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}
	return c.JSON(http.StatusOK, info)
}

var queryTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02",
}

// parseTimeParam parses an optional date query parameter. Empty means unset.
func parseTimeParam(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	var lastErr error
	for _, layout := range queryTimeLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return &t, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
