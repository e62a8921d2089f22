package handler

import (
	"errors"
	"net/http"

	"insights-service/internal/middleware"
	"insights-service/internal/repository"
	"insights-service/internal/service"
	"insights-service/internal/shopify"
	"insights-service/pkg/logger"
	"insights-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const shopifyConfigKey = "shopify_config"

// SyncHandler pulls store data from the Shopify API and feeds it through the
// ingestion pipeline.
type SyncHandler struct {
	tenants *repository.TenantRepository
	client  *shopify.Client
	ingest  *service.IngestService
}

func NewSyncHandler(tenants *repository.TenantRepository, client *shopify.Client, ingest *service.IngestService) *SyncHandler {
	return &SyncHandler{tenants: tenants, client: client, ingest: ingest}
}

// RequireShopifyConfig resolves the tenant's Shopify credentials before any
// sync endpoint runs. Tenants without a store domain and access token cannot
// sync.
func (h *SyncHandler) RequireShopifyConfig(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)
		tenantID, ok := middleware.TenantID(c)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context required"})
		}

		tenant, err := h.tenants.FindByID(c.Request().Context(), tenantID)
		if err != nil {
			if errors.Is(err, repository.ErrTenantNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
			}
			log.Error("Failed to load tenant", zap.Uint("tenant_id", tenantID), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "error fetching tenant configuration"})
		}

		if tenant.StoreDomain == nil || tenant.AccessToken == nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "tenant is missing shopify store domain or access token",
			})
		}

		c.Set(shopifyConfigKey, shopify.TenantConfig{
			StoreDomain: *tenant.StoreDomain,
			AccessToken: *tenant.AccessToken,
		})
		return next(c)
	}
}

// Products syncs the store's products.
func (h *SyncHandler) Products(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantID(c)
	tc := c.Get(shopifyConfigKey).(shopify.TenantConfig)

	payloads, err := h.client.FetchProducts(c.Request().Context(), tc)
	if err != nil {
		prometheus.RecordSync("products", err)
		log.Error("Products sync failed", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{"success": false, "error": err.Error()})
	}

	report, err := h.ingest.IngestProducts(c.Request().Context(), tenantID, payloads)
	prometheus.RecordSync("products", err)
	if err != nil {
		log.Error("Products sync ingestion failed", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to ingest products"})
	}

	log.Info("Products synced", zap.Uint("tenant_id", tenantID), zap.Int("count", report.Ingested))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"count":   report.Ingested,
		"skipped": report.Skipped,
		"message": "products synced successfully",
	})
}

// Customers syncs the store's customers.
func (h *SyncHandler) Customers(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantID(c)
	tc := c.Get(shopifyConfigKey).(shopify.TenantConfig)

	payloads, err := h.client.FetchCustomers(c.Request().Context(), tc)
	if err != nil {
		prometheus.RecordSync("customers", err)
		log.Error("Customers sync failed", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{"success": false, "error": err.Error()})
	}

	report, err := h.ingest.IngestCustomers(c.Request().Context(), tenantID, payloads)
	prometheus.RecordSync("customers", err)
	if err != nil {
		log.Error("Customers sync ingestion failed", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to ingest customers"})
	}

	log.Info("Customers synced", zap.Uint("tenant_id", tenantID), zap.Int("count", report.Ingested))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"count":   report.Ingested,
		"skipped": report.Skipped,
		"message": "customers synced successfully",
	})
}

// Orders syncs the store's orders.
func (h *SyncHandler) Orders(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantID(c)
	tc := c.Get(shopifyConfigKey).(shopify.TenantConfig)

	payloads, err := h.client.FetchOrders(c.Request().Context(), tc)
	if err != nil {
		prometheus.RecordSync("orders", err)
		log.Error("Orders sync failed", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{"success": false, "error": err.Error()})
	}

	report, err := h.ingest.IngestOrders(c.Request().Context(), tenantID, payloads)
	prometheus.RecordSync("orders", err)
	if err != nil {
		log.Error("Orders sync ingestion failed", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to ingest orders"})
	}

	log.Info("Orders synced", zap.Uint("tenant_id", tenantID), zap.Int("count", report.Ingested))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"count":   report.Ingested,
		"skipped": report.Skipped,
		"message": "orders synced successfully",
	})
}
