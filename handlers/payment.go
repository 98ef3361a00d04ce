package handlers

import (
	"log/slog"
	"net/http"

	"jewelbox/payment"
)

type PaymentHandler struct {
	gateway payment.Gateway
}

// NewPaymentHandler accepts a nil gateway; every endpoint then answers 503.
func NewPaymentHandler(gateway payment.Gateway) *PaymentHandler {
	return &PaymentHandler{gateway: gateway}
}

type CreateOrderRequest struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Receipt  string  `json:"receipt"`
}

// CreateOrder opens a gateway order for the checkout amount, given in rupees
func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	if h.gateway == nil {
		writeError(w, "Payments are not configured", http.StatusServiceUnavailable)
		return
	}
	var req CreateOrderRequest
	if !decodeJSON(w, r, &req, maxBodyBytes) {
		return
	}
	paise := payment.ToPaise(req.Amount)
	if paise <= 0 {
		writeError(w, "amount must be positive", http.StatusBadRequest)
		return
	}

	order, err := h.gateway.CreateOrder(r.Context(), paise, req.Currency, req.Receipt)
	if err != nil {
		slog.Error("payment gateway order failed", "amount", paise, "receipt", req.Receipt, "error", err)
		writeError(w, "Failed to create payment order", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"order":   order,
		"keyId":   h.gateway.KeyID(),
	})
}

type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// VerifyPayment checks the signature returned by the checkout widget
func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	if h.gateway == nil {
		writeError(w, "Payments are not configured", http.StatusServiceUnavailable)
		return
	}
	var req VerifyPaymentRequest
	if !decodeJSON(w, r, &req, maxBodyBytes) {
		return
	}
	if !h.gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		slog.Warn("payment signature rejected", "orderId", req.OrderID, "paymentId", req.PaymentID)
		writeServiceError(w, payment.ErrInvalidSignature, "Failed to verify payment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"verified":  true,
		"paymentId": req.PaymentID,
		"orderId":   req.OrderID,
	})
}
