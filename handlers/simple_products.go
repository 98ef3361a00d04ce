package handlers

import (
	"net/http"

	"jewelbox/inventory"
	"jewelbox/models"
)

// SimpleProductHandler serves the stock-focused inventory screen.
type SimpleProductHandler struct {
	inventory *inventory.Service
}

func NewSimpleProductHandler(inv *inventory.Service) *SimpleProductHandler {
	return &SimpleProductHandler{inventory: inv}
}

type SimpleProduct struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Category          string  `json:"category"`
	SKU               string  `json:"sku"`
	Price             float64 `json:"price"`
	Stock             int     `json:"stock"`
	LowStockThreshold int     `json:"lowStockThreshold"`
	InStock           bool    `json:"inStock"`
	LowStock          bool    `json:"lowStock"`
	Version           int64   `json:"version"`
}

func toSimple(p models.Product) SimpleProduct {
	return SimpleProduct{
		ID:                p.ID,
		Name:              p.Name,
		Category:          p.Category,
		SKU:               p.SKU,
		Price:             p.Price,
		Stock:             p.Inventory.Stock,
		LowStockThreshold: p.Inventory.LowStockThreshold,
		InStock:           p.InStock,
		LowStock:          p.IsLowStock(),
		Version:           p.Version,
	}
}

// List returns every product in the simplified shape together with the stock summary
func (h *SimpleProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.inventory.GetAll(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve products")
		return
	}
	simple := make([]SimpleProduct, 0, len(products))
	for _, p := range products {
		simple = append(simple, toSimple(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"products": simple,
		"summary":  inventory.Summarize(products),
	})
}

type StockUpdateRequest struct {
	ID                string `json:"id"`
	Stock             *int   `json:"stock"`
	LowStockThreshold *int   `json:"lowStockThreshold"`
	Version           *int64 `json:"version"`
}

// Update changes stock fields of one product. A stale version yields 409.
func (h *SimpleProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req StockUpdateRequest
	if !decodeJSON(w, r, &req, maxBodyBytes) {
		return
	}
	if req.ID == "" || (req.Stock == nil && req.LowStockThreshold == nil) {
		writeError(w, "id and stock or lowStockThreshold are required", http.StatusBadRequest)
		return
	}

	var (
		product models.Product
		err     error
	)
	if req.LowStockThreshold == nil {
		product, err = h.inventory.UpdateStock(r.Context(), req.ID, *req.Stock, req.Version)
	} else {
		product, err = h.inventory.Update(r.Context(), req.ID, inventory.ProductPatch{
			Inventory: &inventory.InventoryPatch{Stock: req.Stock, LowStockThreshold: req.LowStockThreshold},
			Version:   req.Version,
		})
	}
	if err != nil {
		writeServiceError(w, err, "Failed to update stock")
		return
	}
	logAdmin(r, "stock updated", "id", product.ID, "stock", product.Inventory.Stock, "version", product.Version)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "product": toSimple(product)})
}

type SimpleCreateRequest struct {
	Name              string  `json:"name"`
	Category          string  `json:"category"`
	Price             float64 `json:"price"`
	SKU               string  `json:"sku"`
	Stock             *int    `json:"stock"`
	LowStockThreshold *int    `json:"lowStockThreshold"`
}

// Create adds a product from the minimal stock form
func (h *SimpleProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SimpleCreateRequest
	if !decodeJSON(w, r, &req, maxBodyBytes) {
		return
	}
	in := inventory.ProductInput{Name: req.Name, Category: req.Category, Price: req.Price, SKU: req.SKU}
	if req.Stock != nil || req.LowStockThreshold != nil {
		inv := models.Inventory{Stock: 10, LowStockThreshold: 5}
		if req.Stock != nil {
			inv.Stock = *req.Stock
		}
		if req.LowStockThreshold != nil {
			inv.LowStockThreshold = *req.LowStockThreshold
		}
		in.Inventory = &inv
	}
	product, err := h.inventory.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, err, "Failed to create product")
		return
	}
	logAdmin(r, "product created", "id", product.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "product": toSimple(product)})
}
