package service

import (
	"context"
	"time"

	"insights-service/internal/repository"
	"insights-service/prometheus"

	"github.com/shopspring/decimal"
)

// Read-side response shapes. Field names mirror what the dashboard frontend
// consumes.

// OverviewStats is the dashboard landing summary.
type OverviewStats struct {
	TotalCustomers int64           `json:"totalCustomers"`
	TotalOrders    int64           `json:"totalOrders"`
	Revenue        decimal.Decimal `json:"revenue"`
}

// OrderSummary is one enriched row of the orders listing.
type OrderSummary struct {
	ID           uint            `json:"id"`
	ShopifyID    int64           `json:"shopifyId"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
	PlacedAt     time.Time       `json:"createdAtShopify"`
	CustomerName string          `json:"customerName"`
	Products     []string        `json:"products"`
}

// TopCustomer is one entry of the top-customers ranking. Spend is projected
// to a float only here, at the presentation boundary.
type TopCustomer struct {
	Name  string  `json:"name"`
	Spend float64 `json:"spend"`
}

// TrendPoint is one calendar-day bucket of the sales trend.
type TrendPoint struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
}

// CustomerOrder is one order inside a customer-history entry.
type CustomerOrder struct {
	ShopifyID  int64           `json:"shopifyId"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	PlacedAt   time.Time       `json:"createdAtShopify"`
}

// CustomerEvent is one recent event inside a customer-history entry.
type CustomerEvent struct {
	EventName  string    `json:"eventName"`
	OccurredAt time.Time `json:"occurredAt"`
}

// CustomerHistoryEntry is one customer with their orders and recent events.
type CustomerHistoryEntry struct {
	ID           uint            `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Orders       []CustomerOrder `json:"orders"`
	RecentEvents []CustomerEvent `json:"recentEvents"`
}

// CustomerProductsEntry is one customer with the shopify ids of their orders.
type CustomerProductsEntry struct {
	ID     uint    `json:"id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Orders []int64 `json:"orders"`
}

// TenantInfo is the public profile of the authenticated tenant.
type TenantInfo struct {
	Name       string `json:"name"`
	AdminEmail string `json:"adminEmail"`
	LogoURL    string `json:"logoUrl"`
}

const (
	ordersListLimit      = 50
	topCustomersLimit    = 5
	recentEventsLimit    = 5
	salesTrendWindowDays = 30
)

// ReportService computes the tenant-scoped read-side aggregates. All queries
// run outside any transaction; read-committed is sufficient.
type ReportService struct {
	tenants   *repository.TenantRepository
	customers *repository.CustomerRepository
	orders    *repository.OrderRepository
	events    *repository.EventRepository
}

func NewReportService(
	tenants *repository.TenantRepository,
	customers *repository.CustomerRepository,
	orders *repository.OrderRepository,
	events *repository.EventRepository,
) *ReportService {
	return &ReportService{
		tenants:   tenants,
		customers: customers,
		orders:    orders,
		events:    events,
	}
}

// Overview returns customer count, order count and total revenue for the tenant.
func (s *ReportService) Overview(ctx context.Context, tenantID uint) (*OverviewStats, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	prometheus.RecordDashboardQuery("overview")

	customerCount, err := s.customers.CountByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	orderCount, err := s.orders.CountByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	revenue, err := s.orders.SumTotalByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	return &OverviewStats{
		TotalCustomers: customerCount,
		TotalOrders:    orderCount,
		Revenue:        revenue,
	}, nil
}

// Orders returns the tenant's orders, optionally bounded by an inclusive
// placed_at range, newest first, capped at 50 rows, each enriched with the
// customer's name and the linked product titles.
func (s *ReportService) Orders(ctx context.Context, tenantID uint, from, to *time.Time) ([]OrderSummary, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	prometheus.RecordDashboardQuery("orders")

	orders, err := s.orders.List(ctx, tenantID, from, to, ordersListLimit)
	if err != nil {
		return nil, err
	}

	orderIDs := make([]uint, 0, len(orders))
	customerIDs := make([]uint, 0, len(orders))
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
		customerIDs = append(customerIDs, o.CustomerID)
	}

	titleRows, err := s.orders.ProductTitles(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	titlesByOrder := make(map[uint][]string, len(orders))
	for _, row := range titleRows {
		titlesByOrder[row.OrderID] = append(titlesByOrder[row.OrderID], row.Title)
	}

	customers, err := s.customers.FindByIDs(ctx, tenantID, customerIDs)
	if err != nil {
		return nil, err
	}
	namesByID := make(map[uint]string, len(customers))
	for _, c := range customers {
		namesByID[c.ID] = c.FullName()
	}

	summaries := make([]OrderSummary, 0, len(orders))
	for _, o := range orders {
		titles := titlesByOrder[o.ID]
		if titles == nil {
			titles = []string{}
		}
		summaries = append(summaries, OrderSummary{
			ID:           o.ID,
			ShopifyID:    o.ShopifyID,
			TotalPrice:   o.TotalPrice,
			PlacedAt:     o.PlacedAt,
			CustomerName: namesByID[o.CustomerID],
			Products:     titles,
		})
	}
	return summaries, nil
}

// TopCustomers returns the tenant's top five customers by total spend.
func (s *ReportService) TopCustomers(ctx context.Context, tenantID uint) ([]TopCustomer, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	prometheus.RecordDashboardQuery("top_customers")

	customers, err := s.customers.TopBySpend(ctx, tenantID, topCustomersLimit)
	if err != nil {
		return nil, err
	}

	top := make([]TopCustomer, 0, len(customers))
	for _, c := range customers {
		top = append(top, TopCustomer{
			Name:  c.FullName(),
			Spend: c.TotalSpent.InexactFloat64(),
		})
	}
	return top, nil
}

// EventsSummary returns the tenant's event counts keyed by event name.
func (s *ReportService) EventsSummary(ctx context.Context, tenantID uint) (map[string]int64, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	prometheus.RecordDashboardQuery("events_summary")

	rows, err := s.events.CountsByName(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	summary := make(map[string]int64, len(rows))
	for _, row := range rows {
		summary[row.EventName] = row.Count
	}
	return summary, nil
}

// SalesTrend returns per-day revenue for the trailing 30-day window relative
// to now, ordered by day ascending.
func (s *ReportService) SalesTrend(ctx context.Context, tenantID uint) ([]TrendPoint, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	prometheus.RecordDashboardQuery("sales_trend")

	since := time.Now().AddDate(0, 0, -salesTrendWindowDays)
	rows, err := s.orders.TrendSince(ctx, tenantID, since)
	if err != nil {
		return nil, err
	}

	points := make([]TrendPoint, 0, len(rows))
	for _, row := range rows {
		points = append(points, TrendPoint{
			Date:    dayOf(row.Date),
			Revenue: row.Revenue,
		})
	}
	return points, nil
}

// CustomerProducts returns every tenant customer with the shopify ids of the
// orders they placed.
func (s *ReportService) CustomerProducts(ctx context.Context, tenantID uint) ([]CustomerProductsEntry, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	prometheus.RecordDashboardQuery("customer_products")

	customers, err := s.customers.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	ordersByCustomer := make(map[uint][]int64, len(customers))
	for _, o := range orders {
		ordersByCustomer[o.CustomerID] = append(ordersByCustomer[o.CustomerID], o.ShopifyID)
	}

	entries := make([]CustomerProductsEntry, 0, len(customers))
	for _, c := range customers {
		ids := ordersByCustomer[c.ID]
		if ids == nil {
			ids = []int64{}
		}
		entries = append(entries, CustomerProductsEntry{
			ID:     c.ID,
			Name:   c.FullName(),
			Email:  c.Email,
			Orders: ids,
		})
	}
	return entries, nil
}

// CustomerHistory returns every tenant customer with their orders and their
// five most recent events, newest first.
func (s *ReportService) CustomerHistory(ctx context.Context, tenantID uint) ([]CustomerHistoryEntry, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	prometheus.RecordDashboardQuery("customer_history")

	customers, err := s.customers.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	ordersByCustomer := make(map[uint][]CustomerOrder, len(customers))
	for _, o := range orders {
		ordersByCustomer[o.CustomerID] = append(ordersByCustomer[o.CustomerID], CustomerOrder{
			ShopifyID:  o.ShopifyID,
			TotalPrice: o.TotalPrice,
			PlacedAt:   o.PlacedAt,
		})
	}

	entries := make([]CustomerHistoryEntry, 0, len(customers))
	for _, c := range customers {
		events, err := s.events.RecentByCustomer(ctx, tenantID, c.ID, recentEventsLimit)
		if err != nil {
			return nil, err
		}
		recent := make([]CustomerEvent, 0, len(events))
		for _, e := range events {
			recent = append(recent, CustomerEvent{
				EventName:  e.EventName,
				OccurredAt: e.OccurredAt,
			})
		}

		customerOrders := ordersByCustomer[c.ID]
		if customerOrders == nil {
			customerOrders = []CustomerOrder{}
		}
		entries = append(entries, CustomerHistoryEntry{
			ID:           c.ID,
			Name:         c.FullName(),
			Email:        c.Email,
			Orders:       customerOrders,
			RecentEvents: recent,
		})
	}
	return entries, nil
}

// TenantInfo returns the authenticated tenant's display profile.
func (s *ReportService) TenantInfo(ctx context.Context, tenantID uint) (*TenantInfo, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	prometheus.RecordDashboardQuery("tenant_info")

	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return &TenantInfo{
		Name:       tenant.Name,
		AdminEmail: tenant.AdminEmail,
		LogoURL:    tenant.LogoURL,
	}, nil
}

// dayOf truncates a scanned group-by key to its calendar-date prefix. The
// driver may hand back either a plain "2006-01-02" or a full timestamp string
// depending on how the DATE() expression is typed.
func dayOf(raw string) string {
	if len(raw) > 10 {
		return raw[:10]
	}
	return raw
}
