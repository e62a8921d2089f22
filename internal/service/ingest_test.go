package service

import (
	"context"
	"testing"
	"time"

	"insights-service/internal/model"
	"insights-service/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Tenant{},
		&model.Customer{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
		&model.Event{},
	))
	return db
}

func money(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestIngestProducts(t *testing.T) {
	db := newTestDB(t)
	svc := NewIngestService(db, zap.NewNop())
	ctx := context.Background()

	report, err := svc.IngestProducts(ctx, 1, []ProductPayload{
		{ShopifyID: 101, Title: "Mug", Price: money("12.50")},
		{ShopifyID: 102, Title: "Shirt", Price: money("30.00")},
		{Title: "no id"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Ingested)
	assert.Equal(t, 1, report.Skipped)

	// Re-ingesting with a changed title must not overwrite the stored row.
	report, err = svc.IngestProducts(ctx, 1, []ProductPayload{
		{ShopifyID: 101, Title: "Renamed Mug", Price: money("99.00")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Ingested)

	products := repository.NewProductRepository(db)
	p, err := products.FindByShopifyID(ctx, 1, 101)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Mug", p.Title)
	assert.True(t, p.Price.Equal(money("12.50")), "price should stay %s, got %s", "12.50", p.Price)
}

func TestIngestProductsTenantIsolation(t *testing.T) {
	db := newTestDB(t)
	svc := NewIngestService(db, zap.NewNop())
	ctx := context.Background()

	_, err := svc.IngestProducts(ctx, 1, []ProductPayload{{ShopifyID: 101, Title: "Tenant1 Mug", Price: money("10.00")}})
	require.NoError(t, err)
	_, err = svc.IngestProducts(ctx, 2, []ProductPayload{{ShopifyID: 101, Title: "Tenant2 Mug", Price: money("11.00")}})
	require.NoError(t, err)

	products := repository.NewProductRepository(db)
	p1, err := products.FindByShopifyID(ctx, 1, 101)
	require.NoError(t, err)
	p2, err := products.FindByShopifyID(ctx, 2, 101)
	require.NoError(t, err)
	assert.Equal(t, "Tenant1 Mug", p1.Title)
	assert.Equal(t, "Tenant2 Mug", p2.Title)
	assert.NotEqual(t, p1.ID, p2.ID)
}

func TestIngestCustomersBackfillsEmptyFieldsOnly(t *testing.T) {
	db := newTestDB(t)
	svc := NewIngestService(db, zap.NewNop())
	ctx := context.Background()

	customers := repository.NewCustomerRepository(db)

	// Order ingestion creates a bare placeholder row first.
	placeholder, created, err := customers.UpsertByShopifyID(ctx, 1, 501, model.Customer{})
	require.NoError(t, err)
	require.True(t, created)
	assert.Empty(t, placeholder.Email)

	report, err := svc.IngestCustomers(ctx, 1, []CustomerPayload{
		{ShopifyID: 501, Email: "jo@example.com", FirstName: "Jo", LastName: "Smith"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Ingested)

	got, err := customers.FindByShopifyID(ctx, 1, 501)
	require.NoError(t, err)
	assert.Equal(t, "jo@example.com", got.Email)
	assert.Equal(t, "Jo", got.FirstName)
	assert.Equal(t, "Smith", got.LastName)

	// A second sync with different values must not overwrite populated fields.
	_, err = svc.IngestCustomers(ctx, 1, []CustomerPayload{
		{ShopifyID: 501, Email: "other@example.com", FirstName: "Other", LastName: "Name"},
	})
	require.NoError(t, err)

	got, err = customers.FindByShopifyID(ctx, 1, 501)
	require.NoError(t, err)
	assert.Equal(t, "jo@example.com", got.Email)
	assert.Equal(t, "Jo", got.FirstName)
}

func TestIngestOrdersIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewIngestService(db, zap.NewNop())
	ctx := context.Background()

	_, err := svc.IngestProducts(ctx, 5, []ProductPayload{
		{ShopifyID: 201, Title: "Mug", Price: money("25.00")},
		{ShopifyID: 202, Title: "Shirt", Price: money("75.25")},
	})
	require.NoError(t, err)

	placedAt := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	batch := []OrderPayload{{
		ShopifyID:  1001,
		TotalPrice: money("100.25"),
		PlacedAt:   placedAt,
		Customer:   &CustomerRef{ShopifyID: 501},
		LineItems: []LineItemPayload{
			{ProductShopifyID: 201, Quantity: 1, Price: money("25.00")},
			{ProductShopifyID: 202, Quantity: 1, Price: money("75.25")},
		},
	}}

	report, err := svc.IngestOrders(ctx, 5, batch)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Ingested)
	assert.Equal(t, 0, report.Skipped)

	// Second run: same outcome report, no new rows, no spend inflation.
	report, err = svc.IngestOrders(ctx, 5, batch)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Ingested)

	orders := repository.NewOrderRepository(db)
	count, err := orders.CountByTenant(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	customers := repository.NewCustomerRepository(db)
	customer, err := customers.FindByShopifyID(ctx, 5, 501)
	require.NoError(t, err)
	require.NotNil(t, customer)
	assert.True(t, customer.TotalSpent.Equal(money("100.25")),
		"total spent should be 100.25 after re-ingest, got %s", customer.TotalSpent)

	order, _, err := orders.UpsertByShopifyID(ctx, 5, 1001, model.Order{})
	require.NoError(t, err)
	items, err := orders.CountItemsByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), items)
}

func TestIngestOrdersSkipsRecordsWithoutCustomer(t *testing.T) {
	db := newTestDB(t)
	svc := NewIngestService(db, zap.NewNop())
	ctx := context.Background()

	placedAt := time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC)
	report, err := svc.IngestOrders(ctx, 1, []OrderPayload{
		{ShopifyID: 1001, TotalPrice: money("50.00"), PlacedAt: placedAt, Customer: &CustomerRef{ShopifyID: 501}},
		{ShopifyID: 1002, TotalPrice: money("60.00"), PlacedAt: placedAt},
		{ShopifyID: 1003, TotalPrice: money("70.00"), PlacedAt: placedAt, Customer: &CustomerRef{}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Ingested)
	assert.Equal(t, 2, report.Skipped)

	orders := repository.NewOrderRepository(db)
	count, err := orders.CountByTenant(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestIngestOrdersDropsLineItemsForUnknownProducts(t *testing.T) {
	db := newTestDB(t)
	svc := NewIngestService(db, zap.NewNop())
	ctx := context.Background()

	_, err := svc.IngestProducts(ctx, 1, []ProductPayload{
		{ShopifyID: 201, Title: "Mug", Price: money("25.00")},
	})
	require.NoError(t, err)

	placedAt := time.Date(2026, 8, 22, 12, 0, 0, 0, time.UTC)
	report, err := svc.IngestOrders(ctx, 1, []OrderPayload{{
		ShopifyID:  1001,
		TotalPrice: money("100.00"),
		PlacedAt:   placedAt,
		Customer:   &CustomerRef{ShopifyID: 501},
		LineItems: []LineItemPayload{
			{ProductShopifyID: 201, Quantity: 1, Price: money("25.00")},
			{ProductShopifyID: 999, Quantity: 3, Price: money("25.00")},
		},
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Ingested)

	orders := repository.NewOrderRepository(db)
	order, _, err := orders.UpsertByShopifyID(ctx, 1, 1001, model.Order{})
	require.NoError(t, err)
	items, err := orders.CountItemsByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), items)

	// The full order total still counts toward the customer's spend.
	customers := repository.NewCustomerRepository(db)
	customer, err := customers.FindByShopifyID(ctx, 1, 501)
	require.NoError(t, err)
	assert.True(t, customer.TotalSpent.Equal(money("100.00")))
}

func TestIngestOrdersLinksRepeatedProductOnce(t *testing.T) {
	db := newTestDB(t)
	svc := NewIngestService(db, zap.NewNop())
	ctx := context.Background()

	_, err := svc.IngestProducts(ctx, 1, []ProductPayload{
		{ShopifyID: 201, Title: "Mug", Price: money("25.00")},
	})
	require.NoError(t, err)

	// The same product on two separate lines, as discount splits produce.
	report, err := svc.IngestOrders(ctx, 1, []OrderPayload{{
		ShopifyID:  1001,
		TotalPrice: money("50.00"),
		PlacedAt:   time.Date(2026, 8, 22, 12, 0, 0, 0, time.UTC),
		Customer:   &CustomerRef{ShopifyID: 501},
		LineItems: []LineItemPayload{
			{ProductShopifyID: 201, Quantity: 1, Price: money("25.00")},
			{ProductShopifyID: 201, Quantity: 1, Price: money("25.00")},
		},
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Ingested)

	orders := repository.NewOrderRepository(db)
	count, err := orders.CountByTenant(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	order, _, err := orders.UpsertByShopifyID(ctx, 1, 1001, model.Order{})
	require.NoError(t, err)
	items, err := orders.CountItemsByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), items)

	customers := repository.NewCustomerRepository(db)
	customer, err := customers.FindByShopifyID(ctx, 1, 501)
	require.NoError(t, err)
	assert.True(t, customer.TotalSpent.Equal(money("50.00")))
}

func TestIngestEvents(t *testing.T) {
	db := newTestDB(t)
	svc := NewIngestService(db, zap.NewNop())
	ctx := context.Background()

	_, err := svc.IngestCustomers(ctx, 1, []CustomerPayload{
		{ShopifyID: 501, Email: "jo@example.com", FirstName: "Jo"},
	})
	require.NoError(t, err)

	occurredAt := time.Date(2026, 8, 25, 15, 30, 0, 0, time.UTC)
	batch := []ActivityPayload{
		{SubjectType: "Customer", SubjectID: 501, Verb: "checkout_started", Message: "started checkout", OccurredAt: occurredAt},
		{SubjectType: "Order", SubjectID: 1001, Verb: "confirmed", OccurredAt: occurredAt},
		{SubjectType: "Customer", SubjectID: 999, Verb: "checkout_started", OccurredAt: occurredAt},
	}

	report, err := svc.IngestEvents(ctx, 1, batch)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Ingested)
	assert.Equal(t, 2, report.Skipped)

	// Re-ingesting the same feed must not duplicate events.
	_, err = svc.IngestEvents(ctx, 1, batch)
	require.NoError(t, err)

	events := repository.NewEventRepository(db)
	rows, err := events.CountsByName(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "checkout_started", rows[0].EventName)
	assert.Equal(t, int64(1), rows[0].Count)
}

func TestTrackEvent(t *testing.T) {
	db := newTestDB(t)
	svc := NewIngestService(db, zap.NewNop())
	ctx := context.Background()

	event, err := svc.TrackEvent(ctx, 1, "dashboard_viewed", map[string]interface{}{"page": "overview"})
	require.NoError(t, err)
	assert.NotZero(t, event.ID)
	assert.Equal(t, "dashboard_viewed", event.EventName)
	assert.Contains(t, event.Details, "overview")

	_, err = svc.TrackEvent(ctx, 1, "dashboard_viewed", nil)
	require.NoError(t, err)

	events := repository.NewEventRepository(db)
	rows, err := events.CountsByName(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].Count)
}

func TestClearTenantData(t *testing.T) {
	db := newTestDB(t)
	svc := NewIngestService(db, zap.NewNop())
	ctx := context.Background()

	seed := func(tenantID uint) {
		_, err := svc.IngestProducts(ctx, tenantID, []ProductPayload{{ShopifyID: 201, Title: "Mug", Price: money("25.00")}})
		require.NoError(t, err)
		_, err = svc.IngestOrders(ctx, tenantID, []OrderPayload{{
			ShopifyID:  1001,
			TotalPrice: money("25.00"),
			PlacedAt:   time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
			Customer:   &CustomerRef{ShopifyID: 501},
			LineItems:  []LineItemPayload{{ProductShopifyID: 201, Quantity: 1, Price: money("25.00")}},
		}})
		require.NoError(t, err)
		_, err = svc.TrackEvent(ctx, tenantID, "dashboard_viewed", nil)
		require.NoError(t, err)
	}
	seed(1)
	seed(2)

	require.NoError(t, svc.ClearTenantData(ctx, 1))

	orders := repository.NewOrderRepository(db)
	customers := repository.NewCustomerRepository(db)

	count, err := orders.CountByTenant(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
	count, err = customers.CountByTenant(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	var itemCount int64
	require.NoError(t, db.Model(&model.OrderItem{}).Count(&itemCount).Error)
	assert.Equal(t, int64(1), itemCount, "the other tenant's line items must survive")

	count, err = orders.CountByTenant(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
