package orders

import (
	"context"
	"time"

	"jewelbox/models"
)

// OrderInput is the checkout payload accepted by Save. Subtotal is recomputed from the items.
type OrderInput struct {
	OrderID         string               `json:"orderId"`
	CustomerName    string               `json:"customerName"`
	CustomerEmail   string               `json:"customerEmail"`
	CustomerPhone   string               `json:"customerPhone"`
	Items           []models.OrderItem   `json:"items"`
	ShippingCost    float64              `json:"shippingCost"`
	TotalAmount     float64              `json:"totalAmount"`
	ShippingAddress models.Address       `json:"shippingAddress"`
	PaymentID       string               `json:"paymentId"`
	RazorpayOrderID string               `json:"razorpayOrderId"`
	PaymentMethod   string               `json:"paymentMethod"`
	PaymentStatus   models.PaymentStatus `json:"paymentStatus"`
	Notes           string               `json:"notes"`
}

// StatusUpdate changes the fulfilment state of an order. Nil tracking number or notes are left alone.
type StatusUpdate struct {
	OrderID        string             `json:"orderId"`
	Status         models.OrderStatus `json:"status"`
	TrackingNumber *string            `json:"trackingNumber"`
	Notes          *string            `json:"notes"`
}

// Options tunes order handling.
type Options struct {
	// DeliveryDays is the number of business days added to the order date for the estimate.
	DeliveryDays int
	// CancelWindow limits how long after creation an order may be cancelled. Zero disables the check.
	CancelWindow time.Duration
	// StrictTransitions enforces the status transition table. When false any known status may
	// overwrite any other.
	StrictTransitions bool
	// AdminEmail receives a copy of every new order when set.
	AdminEmail string
	// SMS enables the customer text message on new orders.
	SMS bool
}

// Outbox persists notifications for later delivery.
type Outbox interface {
	Enqueue(ctx context.Context, msgs ...models.Notification) error
}
