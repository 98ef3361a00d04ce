package inventory

import "jewelbox/models"

// ProductInput is the payload accepted by Create. Missing inventory defaults to 10 in stock with a
// low-stock threshold of 5.
type ProductInput struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Price         float64           `json:"price"`
	OriginalPrice *float64          `json:"originalPrice"`
	Category      string            `json:"category"`
	Images        []string          `json:"images"`
	Material      string            `json:"material"`
	Colors        []string          `json:"colors"`
	Sizes         []string          `json:"sizes"`
	Inventory     *models.Inventory `json:"inventory"`
	SKU           string            `json:"sku"`
	Tags          []string          `json:"tags"`
	Rating        float64           `json:"rating"`
	Reviews       int               `json:"reviews"`
	IsNew         bool              `json:"isNew"`
	IsSale        bool              `json:"isSale"`
	Featured      bool              `json:"featured"`
}

// InventoryPatch changes stock fields; nil fields are left alone.
type InventoryPatch struct {
	Stock             *int           `json:"stock"`
	LowStockThreshold *int           `json:"lowStockThreshold"`
	Sizes             map[string]int `json:"sizes"`
}

// ProductPatch is a partial update. Version, when set, must match the stored version.
type ProductPatch struct {
	Name              *string         `json:"name"`
	Description       *string         `json:"description"`
	Price             *float64        `json:"price"`
	OriginalPrice     *float64        `json:"originalPrice"`
	Category          *string         `json:"category"`
	Images            *[]string       `json:"images"`
	Material          *string         `json:"material"`
	Colors            *[]string       `json:"colors"`
	Sizes             *[]string       `json:"sizes"`
	Inventory         *InventoryPatch `json:"inventory"`
	SKU               *string         `json:"sku"`
	Tags              *[]string       `json:"tags"`
	Rating            *float64        `json:"rating"`
	Reviews           *int            `json:"reviews"`
	IsNew             *bool           `json:"isNew"`
	IsSale            *bool           `json:"isSale"`
	Featured          *bool           `json:"featured"`
	PriceChangeReason string          `json:"priceChangeReason"`
	Version           *int64          `json:"version"`
}

// BulkEntry pairs a product id with the patch to apply to it.
type BulkEntry struct {
	ID      string       `json:"id"`
	Updates ProductPatch `json:"updates"`
}

// BulkResult reports what a bulk update did. Unknown ids are listed in Skipped and stale versions
// in Conflicts; neither aborts the rest of the batch.
type BulkResult struct {
	Updated   []models.Product `json:"updated"`
	Skipped   []string         `json:"skipped"`
	Conflicts []string         `json:"conflicts"`
}

// Filters narrows and orders Search results. Zero value returns the whole catalog.
type Filters struct {
	Category  string
	InStock   *bool
	MinPrice  *float64
	MaxPrice  *float64
	Query     string
	SortBy    string
	SortOrder string
}

// Sort keys accepted by Search.
const (
	SortByName      = "name"
	SortByPrice     = "price"
	SortByDateAdded = "dateAdded"
	SortByStock     = "stock"
)
