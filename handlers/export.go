package handlers

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"jewelbox/inventory"
	"jewelbox/models"
	"jewelbox/orders"
)

// ExportHandler serves spreadsheet-friendly CSV downloads of the catalog and the order book.
type ExportHandler struct {
	inventory *inventory.Service
	orders    *orders.Service
}

func NewExportHandler(inv *inventory.Service, svc *orders.Service) *ExportHandler {
	return &ExportHandler{inventory: inv, orders: svc}
}

// Export writes /api/admin/export/{kind} where kind is orders or products
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	var (
		header []string
		rows   [][]string
	)
	switch kind {
	case "orders":
		list, err := h.orders.List(r.Context())
		if err != nil {
			writeServiceError(w, err, "Failed to export orders")
			return
		}
		header, rows = orderRows(list)
	case "products":
		products, err := h.inventory.GetAll(r.Context())
		if err != nil {
			writeServiceError(w, err, "Failed to export products")
			return
		}
		header, rows = productRows(products)
	default:
		writeError(w, "Unknown export "+kind, http.StatusNotFound)
		return
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("jewelbox_%s_%s.csv", kind, timestamp)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		slog.Error("failed to write CSV header", "error", err)
		return
	}
	for _, row := range rows {
		for i, cell := range row {
			row[i] = spreadsheetSafe(cell)
		}
	}
	if err := writer.WriteAll(rows); err != nil {
		slog.Error("failed to write CSV rows", "export", kind, "error", err)
		return
	}
	logAdmin(r, "CSV export", "export", kind, "rows", len(rows))
}

func orderRows(list []models.Order) ([]string, [][]string) {
	header := []string{
		"Order ID", "Created At", "Customer Name", "Customer Email", "Customer Phone",
		"Items", "Subtotal", "Shipping", "Total", "Payment Method", "Payment Status",
		"Payment ID", "Order Status", "Tracking Number", "City", "Postal Code", "Estimated Delivery",
	}
	rows := make([][]string, 0, len(list))
	for _, o := range list {
		items := make([]string, 0, len(o.Items))
		for _, item := range o.Items {
			items = append(items, fmt.Sprintf("%s x%d", item.Name, item.Quantity))
		}
		rows = append(rows, []string{
			o.OrderID,
			o.CreatedAt.Format(time.RFC3339),
			o.CustomerName,
			o.CustomerEmail,
			o.CustomerPhone,
			strings.Join(items, "; "),
			money(o.Subtotal),
			money(o.ShippingCost),
			money(o.TotalAmount),
			o.PaymentMethod,
			string(o.PaymentStatus),
			o.PaymentID,
			string(o.OrderStatus),
			o.TrackingNumber,
			o.ShippingAddress.City,
			o.ShippingAddress.PostalCode,
			o.EstimatedDelivery.Format(time.DateOnly),
		})
	}
	return header, rows
}

func productRows(products []models.Product) ([]string, [][]string) {
	header := []string{
		"ID", "SKU", "Name", "Category", "Material", "Price", "Original Price",
		"Stock", "Low Stock Threshold", "In Stock", "Featured", "Tags", "Last Updated",
	}
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		original := ""
		if p.OriginalPrice != nil {
			original = money(*p.OriginalPrice)
		}
		rows = append(rows, []string{
			p.ID,
			p.SKU,
			p.Name,
			p.Category,
			p.Material,
			money(p.Price),
			original,
			strconv.Itoa(p.Inventory.Stock),
			strconv.Itoa(p.Inventory.LowStockThreshold),
			strconv.FormatBool(p.InStock),
			strconv.FormatBool(p.Featured),
			strings.Join(p.Tags, "; "),
			p.LastUpdated.Format(time.RFC3339),
		})
	}
	return header, rows
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// spreadsheetSafe prefixes cells that a spreadsheet would evaluate as a formula.
func spreadsheetSafe(cell string) string {
	if cell != "" && strings.ContainsRune("=+-@\t\r", rune(cell[0])) {
		return "'" + cell
	}
	return cell
}
