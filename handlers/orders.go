package handlers

import (
	"net/http"
	"strings"

	"jewelbox/models"
	"jewelbox/orders"
)

type OrderHandler struct {
	orders *orders.Service
}

func NewOrderHandler(svc *orders.Service) *OrderHandler {
	return &OrderHandler{orders: svc}
}

// Save persists a completed checkout. Served under both storefront save routes.
func (h *OrderHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req orders.OrderInput
	if !decodeJSON(w, r, &req, maxBodyBytes) {
		return
	}
	order, err := h.orders.Save(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "Failed to save order")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"orderId": order.OrderID,
		"order":   order,
	})
}

// Get looks an order up by orderId, or lists a customer's orders by email or phone
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if id := strings.TrimSpace(q.Get("orderId")); id != "" {
		order, err := h.orders.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, err, "Failed to retrieve order")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "order": order})
		return
	}

	email, phone := q.Get("email"), q.Get("phone")
	if email == "" && phone == "" {
		writeError(w, "orderId, email or phone is required", http.StatusBadRequest)
		return
	}
	list, err := h.orders.FindByContact(r.Context(), email, phone)
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve orders")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "orders": list, "count": len(list)})
}

type UpdateStatusRequest struct {
	OrderID        string             `json:"orderId"`
	Status         models.OrderStatus `json:"status"`
	OrderStatus    models.OrderStatus `json:"orderStatus"`
	TrackingNumber *string            `json:"trackingNumber"`
	Notes          *string            `json:"notes"`
}

// UpdateStatus changes the fulfilment status, tracking number or notes of an order
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if !decodeJSON(w, r, &req, maxBodyBytes) {
		return
	}
	status := req.Status
	if status == "" {
		status = req.OrderStatus
	}
	if req.OrderID == "" || status == "" {
		writeError(w, "orderId and status are required", http.StatusBadRequest)
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), orders.StatusUpdate{
		OrderID:        req.OrderID,
		Status:         status,
		TrackingNumber: req.TrackingNumber,
		Notes:          req.Notes,
	})
	if err != nil {
		writeServiceError(w, err, "Failed to update order status")
		return
	}
	logAdmin(r, "order status updated", "orderId", order.OrderID, "status", order.OrderStatus)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "order": order})
}

// List returns every order for the back office, optionally narrowed by ?status=
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.orders.List(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve orders")
		return
	}
	if status := models.OrderStatus(r.URL.Query().Get("status")); status != "" {
		if !status.Valid() {
			writeError(w, "unknown order status "+string(status), http.StatusBadRequest)
			return
		}
		filtered := make([]models.Order, 0, len(list))
		for _, o := range list {
			if o.OrderStatus == status {
				filtered = append(filtered, o)
			}
		}
		list = filtered
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "orders": list, "count": len(list)})
}
