package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"insights-service/internal/middleware"
	"insights-service/internal/service"
	"insights-service/internal/shopify"
	"insights-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// IngestHandler serves the direct ingestion endpoints. Payloads may arrive in
// the internal camelCase shape or the platform-native snake_case shape; both
// a single object and an array are accepted.
type IngestHandler struct {
	ingest *service.IngestService
}

func NewIngestHandler(ingest *service.IngestService) *IngestHandler {
	return &IngestHandler{ingest: ingest}
}

// Products ingests a batch of product records.
func (h *IngestHandler) Products(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context required"})
	}

	items, err := bindBatch[shopify.Product](c)
	if err != nil {
		log.Error("Failed to parse product batch", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	payloads := make([]service.ProductPayload, 0, len(items))
	for _, item := range items {
		payload, err := item.Payload()
		if err != nil {
			log.Error("Invalid product record", zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		payloads = append(payloads, payload)
	}

	report, err := h.ingest.IngestProducts(c.Request().Context(), tenantID, payloads)
	if err != nil {
		log.Error("Product ingestion failed", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to ingest products"})
	}

	log.Info("Products ingested",
		zap.Uint("tenant_id", tenantID),
		zap.Int("ingested", report.Ingested),
		zap.Int("skipped", report.Skipped))
	return c.JSON(http.StatusCreated, report)
}

// Customers ingests a batch of customer records.
func (h *IngestHandler) Customers(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context required"})
	}

	items, err := bindBatch[shopify.Customer](c)
	if err != nil {
		log.Error("Failed to parse customer batch", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	payloads := make([]service.CustomerPayload, 0, len(items))
	for _, item := range items {
		payloads = append(payloads, item.Payload())
	}

	report, err := h.ingest.IngestCustomers(c.Request().Context(), tenantID, payloads)
	if err != nil {
		log.Error("Customer ingestion failed", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to ingest customers"})
	}

	log.Info("Customers ingested",
		zap.Uint("tenant_id", tenantID),
		zap.Int("ingested", report.Ingested),
		zap.Int("skipped", report.Skipped))
	return c.JSON(http.StatusCreated, report)
}

// Orders ingests a batch of order records through the transactional pipeline.
func (h *IngestHandler) Orders(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context required"})
	}

	items, err := bindBatch[shopify.Order](c)
	if err != nil {
		log.Error("Failed to parse order batch", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	payloads := make([]service.OrderPayload, 0, len(items))
	for _, item := range items {
		payload, err := item.Payload()
		if err != nil {
			log.Error("Invalid order record", zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		payloads = append(payloads, payload)
	}

	report, err := h.ingest.IngestOrders(c.Request().Context(), tenantID, payloads)
	if err != nil {
		log.Error("Order ingestion failed", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to ingest orders"})
	}

	log.Info("Orders ingested",
		zap.Uint("tenant_id", tenantID),
		zap.Int("ingested", report.Ingested),
		zap.Int("skipped", report.Skipped))
	return c.JSON(http.StatusCreated, report)
}

// Events ingests a batch of externally sourced customer activity records.
func (h *IngestHandler) Events(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context required"})
	}

	items, err := bindBatch[shopify.Activity](c)
	if err != nil {
		log.Error("Failed to parse activity batch", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	payloads := make([]service.ActivityPayload, 0, len(items))
	for _, item := range items {
		payload, err := item.Payload()
		if err != nil {
			log.Error("Invalid activity record", zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		payloads = append(payloads, payload)
	}

	report, err := h.ingest.IngestEvents(c.Request().Context(), tenantID, payloads)
	if err != nil {
		log.Error("Event ingestion failed", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to ingest events"})
	}

	log.Info("Events ingested",
		zap.Uint("tenant_id", tenantID),
		zap.Int("ingested", report.Ingested),
		zap.Int("skipped", report.Skipped))
	return c.JSON(http.StatusCreated, report)
}

// ClearData removes all of the tenant's ingested rows.
func (h *IngestHandler) ClearData(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context required"})
	}

	if err := h.ingest.ClearTenantData(c.Request().Context(), tenantID); err != nil {
		log.Error("Failed to clear tenant data", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to clear data"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "all data has been cleared"})
}

// TrackEvent records a client-tracked UI event.
func (h *IngestHandler) TrackEvent(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context required"})
	}

	var req struct {
		EventName string                 `json:"eventName"`
		Details   map[string]interface{} `json:"details"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse event", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.EventName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event name is required"})
	}

	event, err := h.ingest.TrackEvent(c.Request().Context(), tenantID, req.EventName, req.Details)
	if err != nil {
		log.Error("Failed to record event", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record event"})
	}

	return c.JSON(http.StatusCreated, event)
}

// bindBatch decodes the request body as either a JSON array of T or a single
// T, mirroring the flexible batch contract of the ingestion API.
func bindBatch[T any](c echo.Context) ([]T, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, err
	}

	var items []T
	if err := json.Unmarshal(body, &items); err == nil {
		return items, nil
	}

	var single T
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, err
	}
	return []T{single}, nil
}
