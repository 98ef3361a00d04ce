package handlers

import (
	"net/http"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"jewelbox/inventory"
	"jewelbox/models"
	"jewelbox/orders"
)

const (
	revenueDays   = 30
	topCategories = 5
)

type AnalyticsHandler struct {
	inventory *inventory.Service
	orders    *orders.Service
	now       func() time.Time
}

func NewAnalyticsHandler(inv *inventory.Service, svc *orders.Service) *AnalyticsHandler {
	return &AnalyticsHandler{inventory: inv, orders: svc, now: func() time.Time { return time.Now().UTC() }}
}

type DayRevenue struct {
	Date    string          `json:"date"`
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

type CategoryUnits struct {
	Category string `json:"category"`
	Units    int    `json:"units"`
}

type Analytics struct {
	Inventory         inventory.Summary          `json:"inventory"`
	TotalOrders       int                        `json:"totalOrders"`
	OrdersByStatus    map[models.OrderStatus]int `json:"ordersByStatus"`
	PaidOrders        int                        `json:"paidOrders"`
	Revenue           decimal.Decimal            `json:"revenue"`
	AverageOrderValue decimal.Decimal            `json:"averageOrderValue"`
	RevenueByDay      []DayRevenue               `json:"revenueByDay"`
	TopCategories     []CategoryUnits            `json:"topCategories"`
	LowStock          []SimpleProduct            `json:"lowStock"`
}

// Get returns the dashboard figures
func (h *AnalyticsHandler) Get(w http.ResponseWriter, r *http.Request) {
	products, err := h.inventory.GetAll(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to load analytics")
		return
	}
	list, err := h.orders.List(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to load analytics")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"analytics": buildAnalytics(products, list, h.now()),
	})
}

// buildAnalytics counts revenue only for paid orders that were not cancelled.
func buildAnalytics(products []models.Product, list []models.Order, now time.Time) Analytics {
	a := Analytics{
		Inventory:         inventory.Summarize(products),
		TotalOrders:       len(list),
		OrdersByStatus:    make(map[models.OrderStatus]int, len(models.OrderStatuses)),
		Revenue:           decimal.Zero,
		AverageOrderValue: decimal.Zero,
		TopCategories:     []CategoryUnits{},
		LowStock:          []SimpleProduct{},
	}
	for _, s := range models.OrderStatuses {
		a.OrdersByStatus[s] = 0
	}

	categoryOf := make(map[string]string, len(products))
	for _, p := range products {
		categoryOf[p.ID] = p.Category
		if p.Inventory.Stock > 0 && p.IsLowStock() {
			a.LowStock = append(a.LowStock, toSimple(p))
		}
	}

	today := now.UTC().Truncate(24 * time.Hour)
	first := today.AddDate(0, 0, -(revenueDays - 1))
	days := make([]DayRevenue, revenueDays)
	for i := range days {
		days[i] = DayRevenue{Date: first.AddDate(0, 0, i).Format(time.DateOnly), Revenue: decimal.Zero}
	}

	units := map[string]int{}
	for _, o := range list {
		a.OrdersByStatus[o.OrderStatus]++
		if o.OrderStatus == models.OrderCancelled {
			continue
		}
		for _, item := range o.Items {
			category := categoryOf[item.ProductID]
			if category == "" {
				category = "Uncategorized"
			}
			units[category] += item.Quantity
		}
		if o.PaymentStatus != models.PaymentPaid {
			continue
		}
		amount := decimal.NewFromFloat(o.TotalAmount)
		a.PaidOrders++
		a.Revenue = a.Revenue.Add(amount)

		day := o.CreatedAt.UTC().Truncate(24 * time.Hour)
		if !day.Before(first) && !day.After(today) {
			idx := int(day.Sub(first) / (24 * time.Hour))
			days[idx].Orders++
			days[idx].Revenue = days[idx].Revenue.Add(amount)
		}
	}
	a.RevenueByDay = days
	if a.PaidOrders > 0 {
		a.AverageOrderValue = a.Revenue.Div(decimal.NewFromInt(int64(a.PaidOrders))).Round(2)
	}

	for category, n := range units {
		a.TopCategories = append(a.TopCategories, CategoryUnits{Category: category, Units: n})
	}
	sort.Slice(a.TopCategories, func(i, j int) bool {
		if a.TopCategories[i].Units != a.TopCategories[j].Units {
			return a.TopCategories[i].Units > a.TopCategories[j].Units
		}
		return a.TopCategories[i].Category < a.TopCategories[j].Category
	})
	if len(a.TopCategories) > topCategories {
		a.TopCategories = a.TopCategories[:topCategories]
	}
	return a
}
