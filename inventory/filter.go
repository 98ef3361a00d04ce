package inventory

import (
	"sort"
	"strings"

	"jewelbox/models"
)

func (f Filters) validate() error {
	switch f.SortBy {
	case "", SortByName, SortByPrice, SortByDateAdded, SortByStock:
	default:
		return newValidationError("sortBy must be one of name, price, dateAdded, stock")
	}
	switch strings.ToLower(f.SortOrder) {
	case "", "asc", "desc":
	default:
		return newValidationError("sortOrder must be asc or desc")
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return newValidationError("minPrice must not exceed maxPrice")
	}
	return nil
}

// Apply returns the products matching f, sorted as requested. Ties keep their stored order.
func Apply(products []models.Product, f Filters) []models.Product {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
			continue
		}
		if f.InStock != nil && p.InStock != *f.InStock {
			continue
		}
		if f.MinPrice != nil && p.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && p.Price > *f.MaxPrice {
			continue
		}
		if query != "" && !matches(p, query) {
			continue
		}
		out = append(out, p)
	}

	if less := comparator(f.SortBy); less != nil {
		desc := strings.EqualFold(f.SortOrder, "desc")
		sort.SliceStable(out, func(i, j int) bool {
			if desc {
				return less(out[j], out[i])
			}
			return less(out[i], out[j])
		})
	}
	return out
}

func matches(p models.Product, query string) bool {
	if strings.Contains(strings.ToLower(p.Name), query) ||
		strings.Contains(strings.ToLower(p.Description), query) ||
		strings.Contains(strings.ToLower(p.SKU), query) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func comparator(sortBy string) func(a, b models.Product) bool {
	switch sortBy {
	case SortByName:
		return func(a, b models.Product) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case SortByPrice:
		return func(a, b models.Product) bool { return a.Price < b.Price }
	case SortByDateAdded:
		return func(a, b models.Product) bool { return a.DateAdded.Before(b.DateAdded) }
	case SortByStock:
		return func(a, b models.Product) bool { return a.Inventory.Stock < b.Inventory.Stock }
	}
	return nil
}
