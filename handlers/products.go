package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"jewelbox/inventory"
	"jewelbox/middleware"
	"jewelbox/models"
)

type ProductHandler struct {
	inventory *inventory.Service
}

func NewProductHandler(inv *inventory.Service) *ProductHandler {
	return &ProductHandler{inventory: inv}
}

// parseFilters reads the catalog query parameters. Malformed numbers or booleans are rejected.
func parseFilters(q url.Values) (inventory.Filters, error) {
	f := inventory.Filters{
		Category:  q.Get("category"),
		Query:     firstNonEmpty(q.Get("q"), q.Get("search")),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}
	if v := q.Get("inStock"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, errBadQuery("inStock")
		}
		f.InStock = &b
	}
	for name, dst := range map[string]**float64{"minPrice": &f.MinPrice, "maxPrice": &f.MaxPrice} {
		if v := q.Get(name); v != "" {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return f, errBadQuery(name)
			}
			*dst = &n
		}
	}
	return f, nil
}

type errBadQuery string

func (e errBadQuery) Error() string { return "invalid value for " + string(e) }

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// List returns the filtered and sorted catalog
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r.URL.Query())
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	products, err := h.inventory.Search(r.Context(), filters)
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve products")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"products": products,
		"count":    len(products),
	})
}

// Get returns one product
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.inventory.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve product")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "product": product})
}

// Create adds a product to the catalog
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req inventory.ProductInput
	if !decodeJSON(w, r, &req, maxBodyBytes) {
		return
	}
	product, err := h.inventory.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "Failed to create product")
		return
	}
	logAdmin(r, "product created", "id", product.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "product": product})
}

// Update applies a partial update to one product
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch inventory.ProductPatch
	if !decodeJSON(w, r, &patch, maxBodyBytes) {
		return
	}
	product, err := h.inventory.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeServiceError(w, err, "Failed to update product")
		return
	}
	logAdmin(r, "product updated", "id", product.ID, "version", product.Version)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "product": product})
}

// Delete removes one product
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.inventory.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, "Failed to delete product")
		return
	}
	logAdmin(r, "product deleted", "id", id)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
}

type BulkUpdateRequest struct {
	Updates []inventory.BulkEntry `json:"updates"`
}

// BulkUpdate patches many products in one write
func (h *ProductHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req BulkUpdateRequest
	if !decodeJSON(w, r, &req, 4*maxBodyBytes) {
		return
	}
	if len(req.Updates) == 0 {
		writeError(w, "updates must not be empty", http.StatusBadRequest)
		return
	}
	result, err := h.inventory.BulkUpdate(r.Context(), req.Updates)
	if err != nil {
		writeServiceError(w, err, "Failed to update products")
		return
	}
	logAdmin(r, "bulk update", "updated", len(result.Updated), "skipped", len(result.Skipped), "conflicts", len(result.Conflicts))
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"updated":   result.Updated,
		"skipped":   result.Skipped,
		"conflicts": result.Conflicts,
	})
}

type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// BulkDelete removes many products in one write
func (h *ProductHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if !decodeJSON(w, r, &req, maxBodyBytes) {
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, "ids must not be empty", http.StatusBadRequest)
		return
	}
	deleted, missing, err := h.inventory.BulkDelete(r.Context(), req.IDs)
	if err != nil {
		writeServiceError(w, err, "Failed to delete products")
		return
	}
	logAdmin(r, "bulk delete", "deleted", len(deleted), "missing", len(missing))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "deleted": deleted, "missing": missing})
}

// Duplicate clones a product under a new id
func (h *ProductHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	product, err := h.inventory.Duplicate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "Failed to duplicate product")
		return
	}
	logAdmin(r, "product duplicated", "source", r.PathValue("id"), "id", product.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "product": product})
}

// PublicList serves the storefront catalog. Storage failures degrade to an empty catalog.
func (h *ProductHandler) PublicList(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r.URL.Query())
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	products, err := h.inventory.Search(r.Context(), filters)
	if err != nil {
		if inventory.IsValidation(err) {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("storefront catalog unavailable", "error", err)
		products = []models.Product{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "products": products})
}

// PublicGet serves one storefront product
func (h *ProductHandler) PublicGet(w http.ResponseWriter, r *http.Request) {
	h.Get(w, r)
}

// logAdmin records an admin action together with who performed it.
func logAdmin(r *http.Request, msg string, args ...any) {
	if identity, ok := middleware.IdentityFromContext(r.Context()); ok {
		args = append(args, "admin", identity.Email)
	}
	slog.Info(msg, args...)
}
