package service

import (
	"context"
	"encoding/json"
	"time"

	"insights-service/internal/model"
	"insights-service/internal/repository"
	"insights-service/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// IngestService reconciles raw store data against existing rows using
// idempotent upsert semantics, keyed by (tenant, shopify id).
type IngestService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewIngestService(db *gorm.DB, log *zap.Logger) *IngestService {
	return &IngestService{db: db, log: log}
}

// IngestProducts upserts a batch of products. Existing rows keep their
// locally stored title and price.
func (s *IngestService) IngestProducts(ctx context.Context, tenantID uint, items []ProductPayload) (Report, error) {
	defer prometheus.TrackDBOperation("ingest_batch")(time.Now())

	var report Report
	products := repository.NewProductRepository(s.db)
	for _, item := range items {
		if item.ShopifyID == 0 {
			report.Skipped++
			continue
		}
		_, _, err := products.UpsertByShopifyID(ctx, tenantID, item.ShopifyID, model.Product{
			Title: item.Title,
			Price: item.Price,
		})
		if err != nil {
			prometheus.IngestErrorCounter.WithLabelValues("product").Inc()
			return report, err
		}
		report.Ingested++
	}

	prometheus.RecordIngest("product", report.Ingested, report.Skipped)
	return report, nil
}

// IngestCustomers upserts a batch of customers. When order ingestion has
// already created a bare placeholder row for a customer, the empty identity
// fields are backfilled here; populated fields are never overwritten.
func (s *IngestService) IngestCustomers(ctx context.Context, tenantID uint, items []CustomerPayload) (Report, error) {
	defer prometheus.TrackDBOperation("ingest_batch")(time.Now())

	var report Report
	customers := repository.NewCustomerRepository(s.db)
	for _, item := range items {
		if item.ShopifyID == 0 {
			report.Skipped++
			continue
		}
		customer, created, err := customers.UpsertByShopifyID(ctx, tenantID, item.ShopifyID, model.Customer{
			Email:     item.Email,
			FirstName: item.FirstName,
			LastName:  item.LastName,
		})
		if err != nil {
			prometheus.IngestErrorCounter.WithLabelValues("customer").Inc()
			return report, err
		}

		if !created {
			fields := map[string]interface{}{}
			if customer.Email == "" && item.Email != "" {
				fields["email"] = item.Email
			}
			if customer.FirstName == "" && item.FirstName != "" {
				fields["first_name"] = item.FirstName
			}
			if customer.LastName == "" && item.LastName != "" {
				fields["last_name"] = item.LastName
			}
			if err := customers.UpdateEmptyFields(ctx, customer.ID, fields); err != nil {
				prometheus.IngestErrorCounter.WithLabelValues("customer").Inc()
				return report, err
			}
		}
		report.Ingested++
	}

	prometheus.RecordIngest("customer", report.Ingested, report.Skipped)
	return report, nil
}

// IngestOrders runs the order pipeline for one batch inside a single
// transaction. Records are processed in input order. Payloads without a
// customer reference are counted as skipped, not fatal; any unexpected error
// rolls back the entire batch including the skip decisions.
//
// Line items and the customer's spend increment happen only when the order
// row was newly created, so re-ingesting the same order (same shopify id) is
// a no-op against the customer's total — repeated syncs must not inflate
// revenue figures.
func (s *IngestService) IngestOrders(ctx context.Context, tenantID uint, items []OrderPayload) (Report, error) {
	defer prometheus.TrackDBOperation("ingest_batch")(time.Now())

	var report Report
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customers := repository.NewCustomerRepository(tx)
		products := repository.NewProductRepository(tx)
		orders := repository.NewOrderRepository(tx)

		for _, item := range items {
			if item.Customer == nil || item.Customer.ShopifyID == 0 {
				s.log.Warn("skipping order without customer reference",
					zap.Uint("tenant_id", tenantID),
					zap.Int64("shopify_id", item.ShopifyID))
				report.Skipped++
				continue
			}

			// Resolve or create the customer with no defaults beyond linkage.
			// A bare row is created if the order arrives before a customer
			// sync; IngestCustomers backfills it later.
			customer, _, err := customers.UpsertByShopifyID(ctx, tenantID, item.Customer.ShopifyID, model.Customer{})
			if err != nil {
				return err
			}

			order, created, err := orders.UpsertByShopifyID(ctx, tenantID, item.ShopifyID, model.Order{
				CustomerID: customer.ID,
				TotalPrice: item.TotalPrice,
				PlacedAt:   item.PlacedAt,
			})
			if err != nil {
				return err
			}

			if created {
				linked := make(map[uint]bool, len(item.LineItems))
				for _, lineItem := range item.LineItems {
					product, err := products.FindByShopifyID(ctx, tenantID, lineItem.ProductShopifyID)
					if err != nil {
						return err
					}
					if product == nil {
						// The product has not been synced for this tenant;
						// the order still counts, the link is dropped.
						s.log.Warn("skipping line item for unknown product",
							zap.Uint("tenant_id", tenantID),
							zap.Int64("order_shopify_id", item.ShopifyID),
							zap.Int64("product_shopify_id", lineItem.ProductShopifyID))
						continue
					}
					if linked[product.ID] {
						// Shopify can list the same product on several lines
						// (e.g. separate discount lines); only the first link
						// survives the per-order uniqueness constraint.
						s.log.Warn("skipping repeated line item for product",
							zap.Uint("tenant_id", tenantID),
							zap.Int64("order_shopify_id", item.ShopifyID),
							zap.Int64("product_shopify_id", lineItem.ProductShopifyID))
						continue
					}
					if err := orders.CreateItem(ctx, &model.OrderItem{
						OrderID:   order.ID,
						ProductID: product.ID,
						Quantity:  lineItem.Quantity,
						Price:     lineItem.Price,
					}); err != nil {
						return err
					}
					linked[product.ID] = true
				}

				if err := customers.IncrementTotalSpent(ctx, customer.ID, item.TotalPrice); err != nil {
					return err
				}
			}
			report.Ingested++
		}
		return nil
	})
	if err != nil {
		prometheus.IngestErrorCounter.WithLabelValues("order").Inc()
		return Report{}, err
	}

	prometheus.RecordIngest("order", report.Ingested, report.Skipped)
	return report, nil
}

// IngestEvents records externally sourced customer activity. Activities whose
// subject is not a customer, or whose customer cannot be resolved within the
// tenant, are skipped. Re-ingesting the same feed is idempotent through the
// (tenant, customer, event name, occurred_at) dedup key.
func (s *IngestService) IngestEvents(ctx context.Context, tenantID uint, items []ActivityPayload) (Report, error) {
	defer prometheus.TrackDBOperation("ingest_batch")(time.Now())

	var report Report
	customers := repository.NewCustomerRepository(s.db)
	events := repository.NewEventRepository(s.db)
	for _, item := range items {
		if item.SubjectType != "Customer" {
			report.Skipped++
			continue
		}
		customer, err := customers.FindByShopifyID(ctx, tenantID, item.SubjectID)
		if err != nil {
			prometheus.IngestErrorCounter.WithLabelValues("event").Inc()
			return report, err
		}
		if customer == nil {
			report.Skipped++
			continue
		}

		details, err := json.Marshal(map[string]string{
			"message":     item.Message,
			"author":      item.Author,
			"description": item.Description,
		})
		if err != nil {
			return report, err
		}

		event := model.Event{
			TenantID:   tenantID,
			CustomerID: &customer.ID,
			EventName:  item.Verb,
			Details:    string(details),
			OccurredAt: item.OccurredAt,
		}
		if _, err := events.FindOrCreate(ctx, &event); err != nil {
			prometheus.IngestErrorCounter.WithLabelValues("event").Inc()
			return report, err
		}
		report.Ingested++
	}

	prometheus.RecordIngest("event", report.Ingested, report.Skipped)
	return report, nil
}

// TrackEvent records a client-tracked UI event for the tenant.
func (s *IngestService) TrackEvent(ctx context.Context, tenantID uint, name string, details map[string]interface{}) (*model.Event, error) {
	if details == nil {
		details = map[string]interface{}{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}

	event := model.Event{
		TenantID:   tenantID,
		EventName:  name,
		Details:    string(raw),
		OccurredAt: time.Now(),
	}
	if err := repository.NewEventRepository(s.db).Create(ctx, &event); err != nil {
		return nil, err
	}

	prometheus.IngestCounter.WithLabelValues("event").Inc()
	return &event, nil
}

// ClearTenantData removes every row owned by the tenant in one transaction.
// The tenant record itself survives.
func (s *IngestService) ClearTenantData(ctx context.Context, tenantID uint) error {
	defer prometheus.TrackDBOperation("clear")(time.Now())

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id IN (?)",
			tx.Model(&model.Order{}).Select("id").Where("tenant_id = ?", tenantID),
		).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		for _, m := range []interface{}{
			&model.Order{},
			&model.Event{},
			&model.Customer{},
			&model.Product{},
		} {
			if err := tx.Where("tenant_id = ?", tenantID).Delete(m).Error; err != nil {
				return err
			}
		}
		s.log.Info("tenant data cleared", zap.Uint("tenant_id", tenantID))
		return nil
	})
}
