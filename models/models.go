// models.go
// Core data structures shared by the storefront API, the admin back office and every store backend.

package models

import (
	"time"
)

// AdminRole defines the access level of an admin identity.
type AdminRole string

const (
	RoleSuperAdmin AdminRole = "super_admin"
	RoleAdmin      AdminRole = "admin"
	RoleManager    AdminRole = "manager"
)

// Valid reports whether the role is one of the known admin roles.
func (r AdminRole) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleManager:
		return true
	}
	return false
}

// AdminIdentity is built fresh on every login and every token verification.
// It is never persisted; the signed token is the only durable trace of it.
type AdminIdentity struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Role        AdminRole `json:"role"`
	Permissions []string  `json:"permissions"`
}

// Inventory is the stock sub-structure every product carries.
type Inventory struct {
	Stock             int            `firestore:"stock" json:"stock"`
	LowStockThreshold int            `firestore:"lowStockThreshold" json:"lowStockThreshold"`
	Sizes             map[string]int `firestore:"sizes,omitempty" json:"sizes,omitempty"`
}

// PriceHistoryEntry records the price a product had before a change.
type PriceHistoryEntry struct {
	Date   time.Time `firestore:"date" json:"date"`
	Price  float64   `firestore:"price" json:"price"`
	Reason string    `firestore:"reason" json:"reason"`
}

// Product is a catalog entry. Version increments on every write and backs optimistic concurrency.
type Product struct {
	ID            string              `firestore:"id" json:"id"`
	Name          string              `firestore:"name" json:"name"`
	Description   string              `firestore:"description" json:"description"`
	Price         float64             `firestore:"price" json:"price"`
	OriginalPrice *float64            `firestore:"originalPrice,omitempty" json:"originalPrice,omitempty"`
	Category      string              `firestore:"category" json:"category"`
	Images        []string            `firestore:"images" json:"images"`
	Material      string              `firestore:"material" json:"material"`
	Colors        []string            `firestore:"colors" json:"colors"`
	Sizes         []string            `firestore:"sizes" json:"sizes"`
	Inventory     Inventory           `firestore:"inventory" json:"inventory"`
	DateAdded     time.Time           `firestore:"dateAdded" json:"dateAdded"`
	LastUpdated   time.Time           `firestore:"lastUpdated" json:"lastUpdated"`
	SKU           string              `firestore:"sku" json:"sku"`
	Tags          []string            `firestore:"tags" json:"tags"`
	Rating        float64             `firestore:"rating" json:"rating"`
	Reviews       int                 `firestore:"reviews" json:"reviews"`
	InStock       bool                `firestore:"inStock" json:"inStock"`
	IsNew         bool                `firestore:"isNew" json:"isNew"`
	IsSale        bool                `firestore:"isSale" json:"isSale"`
	Featured      bool                `firestore:"featured" json:"featured"`
	PriceHistory  []PriceHistoryEntry `firestore:"priceHistory,omitempty" json:"priceHistory,omitempty"`
	Version       int64               `firestore:"version" json:"version"`
}

// IsLowStock reports whether stock sits at or below the configured threshold.
func (p Product) IsLowStock() bool {
	return p.Inventory.Stock <= p.Inventory.LowStockThreshold
}

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderProcessing OrderStatus = "processing"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists the status vocabulary in lifecycle order.
var OrderStatuses = []OrderStatus{OrderProcessing, OrderConfirmed, OrderShipped, OrderDelivered, OrderCancelled}

// Valid reports whether the status belongs to the vocabulary.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// PaymentStatus tracks the gateway side of an order.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// OrderItem is one line of an order, priced at checkout time.
type OrderItem struct {
	ProductID string  `firestore:"productId" json:"productId"`
	Name      string  `firestore:"name" json:"name"`
	Price     float64 `firestore:"price" json:"price"`
	Quantity  int     `firestore:"quantity" json:"quantity"`
	Size      string  `firestore:"size,omitempty" json:"size,omitempty"`
	Color     string  `firestore:"color,omitempty" json:"color,omitempty"`
	Image     string  `firestore:"image,omitempty" json:"image,omitempty"`
}

// Address is a postal shipping address.
type Address struct {
	Line1      string `firestore:"line1" json:"line1"`
	Line2      string `firestore:"line2,omitempty" json:"line2,omitempty"`
	City       string `firestore:"city" json:"city"`
	State      string `firestore:"state" json:"state"`
	PostalCode string `firestore:"postalCode" json:"postalCode"`
	Country    string `firestore:"country" json:"country"`
}

// StatusChange is one entry of an order's status audit trail.
type StatusChange struct {
	Status OrderStatus `firestore:"status" json:"status"`
	At     time.Time   `firestore:"at" json:"at"`
	Note   string      `firestore:"note,omitempty" json:"note,omitempty"`
}

// Order is a completed checkout.
type Order struct {
	OrderID           string         `firestore:"orderId" json:"orderId"`
	CustomerName      string         `firestore:"customerName" json:"customerName"`
	CustomerEmail     string         `firestore:"customerEmail" json:"customerEmail"`
	CustomerPhone     string         `firestore:"customerPhone" json:"customerPhone"`
	Items             []OrderItem    `firestore:"items" json:"items"`
	Subtotal          float64        `firestore:"subtotal" json:"subtotal"`
	ShippingCost      float64        `firestore:"shippingCost" json:"shippingCost"`
	TotalAmount       float64        `firestore:"totalAmount" json:"totalAmount"`
	ShippingAddress   Address        `firestore:"shippingAddress" json:"shippingAddress"`
	PaymentID         string         `firestore:"paymentId,omitempty" json:"paymentId,omitempty"`
	RazorpayOrderID   string         `firestore:"razorpayOrderId,omitempty" json:"razorpayOrderId,omitempty"`
	PaymentMethod     string         `firestore:"paymentMethod" json:"paymentMethod"`
	PaymentStatus     PaymentStatus  `firestore:"paymentStatus" json:"paymentStatus"`
	OrderStatus       OrderStatus    `firestore:"orderStatus" json:"orderStatus"`
	TrackingNumber    string         `firestore:"trackingNumber,omitempty" json:"trackingNumber,omitempty"`
	Notes             string         `firestore:"notes,omitempty" json:"notes,omitempty"`
	EstimatedDelivery time.Time      `firestore:"estimatedDelivery" json:"estimatedDelivery"`
	StatusHistory     []StatusChange `firestore:"statusHistory" json:"statusHistory"`
	CreatedAt         time.Time      `firestore:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time      `firestore:"updatedAt" json:"updatedAt"`
}

// NotificationChannel names the transport a notification goes out on.
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
)

// NotificationStatus defines the delivery state of an outbox record.
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
)

// Notification is an outbox record written alongside the order it reports on.
type Notification struct {
	ID            string              `firestore:"id" json:"id"`
	OrderID       string              `firestore:"orderId" json:"orderId"`
	Channel       NotificationChannel `firestore:"channel" json:"channel"`
	Recipient     string              `firestore:"recipient" json:"recipient"`
	Subject       string              `firestore:"subject,omitempty" json:"subject,omitempty"`
	Body          string              `firestore:"body" json:"body"`
	Status        NotificationStatus  `firestore:"status" json:"status"`
	Attempts      int                 `firestore:"attempts" json:"attempts"`
	LastError     string              `firestore:"lastError,omitempty" json:"lastError,omitempty"`
	NextAttemptAt time.Time           `firestore:"nextAttemptAt" json:"nextAttemptAt"`
	CreatedAt     time.Time           `firestore:"createdAt" json:"createdAt"`
	SentAt        *time.Time          `firestore:"sentAt,omitempty" json:"sentAt,omitempty"`
}

// BackupBundle is the full-store export served by the backup endpoint and accepted on restore.
type BackupBundle struct {
	CreatedAt time.Time `json:"createdAt"`
	Products  []Product `json:"products"`
	Orders    []Order   `json:"orders"`
}

// ProductKey, OrderKey and NotificationKey extract the collection key of each record type.
func ProductKey(p Product) string           { return p.ID }
func OrderKey(o Order) string               { return o.OrderID }
func NotificationKey(n Notification) string { return n.ID }
