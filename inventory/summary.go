package inventory

import (
	"github.com/shopspring/decimal"

	"jewelbox/models"
)

// Summary aggregates catalog figures for the admin dashboard.
type Summary struct {
	TotalProducts  int             `json:"totalProducts"`
	InStock        int             `json:"inStock"`
	LowStock       int             `json:"lowStock"`
	OutOfStock     int             `json:"outOfStock"`
	TotalUnits     int             `json:"totalUnits"`
	InventoryValue decimal.Decimal `json:"inventoryValue"`
	Categories     map[string]int  `json:"categories"`
}

// Summarize computes stock counts and the value of units on hand.
func Summarize(products []models.Product) Summary {
	sum := Summary{InventoryValue: decimal.Zero, Categories: map[string]int{}}
	for _, p := range products {
		sum.TotalProducts++
		sum.Categories[p.Category]++
		sum.TotalUnits += p.Inventory.Stock
		switch {
		case p.Inventory.Stock == 0:
			sum.OutOfStock++
		case p.IsLowStock():
			sum.InStock++
			sum.LowStock++
		default:
			sum.InStock++
		}
		value := decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(p.Inventory.Stock)))
		sum.InventoryValue = sum.InventoryValue.Add(value)
	}
	return sum
}
