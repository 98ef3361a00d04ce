package handlers

import (
	"fmt"
	"net/http"
	"time"

	"jewelbox/auth"
	"jewelbox/middleware"
)

// Handlers groups everything NewRouter mounts. StaticDir is optional.
type Handlers struct {
	Auth           *AuthHandler
	Products       *ProductHandler
	SimpleProducts *SimpleProductHandler
	Orders         *OrderHandler
	Payments       *PaymentHandler
	Backups        *BackupHandler
	Analytics      *AnalyticsHandler
	Export         *ExportHandler
	Notifications  *NotificationHandler
	LoginLimiter   *middleware.LoginLimiter
	StaticDir      string
}

// NewRouter registers every route with its permission guard. Session checks happen in
// middleware.AdminGate, which must wrap the returned mux.
func NewRouter(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()
	guard := func(key string, fn http.HandlerFunc) http.Handler {
		return middleware.RequirePermission(key)(fn)
	}

	mux.HandleFunc("GET /health", handleHealth)

	// Admin auth
	mux.Handle("POST /api/admin/auth/login", h.LoginLimiter.Middleware(http.HandlerFunc(h.Auth.Login)))
	mux.HandleFunc("POST /api/admin/auth/logout", h.Auth.Logout)
	mux.HandleFunc("GET /api/admin/auth/verify", h.Auth.Verify)
	mux.HandleFunc("GET /api/admin/auth/csrf", h.Auth.CSRF)

	// Catalog management
	mux.Handle("GET /api/admin/products", guard(auth.PermViewProducts, h.Products.List))
	mux.Handle("POST /api/admin/products", guard(auth.PermManageProducts, h.Products.Create))
	mux.Handle("PUT /api/admin/products/bulk", guard(auth.PermManageProducts, h.Products.BulkUpdate))
	mux.Handle("DELETE /api/admin/products/bulk", guard(auth.PermManageProducts, h.Products.BulkDelete))
	mux.Handle("GET /api/admin/products/{id}", guard(auth.PermViewProducts, h.Products.Get))
	mux.Handle("PUT /api/admin/products/{id}", guard(auth.PermManageProducts, h.Products.Update))
	mux.Handle("DELETE /api/admin/products/{id}", guard(auth.PermManageProducts, h.Products.Delete))
	mux.Handle("POST /api/admin/products/{id}/duplicate", guard(auth.PermManageProducts, h.Products.Duplicate))

	mux.Handle("GET /api/admin/simple-products", guard(auth.PermManageInventory, h.SimpleProducts.List))
	mux.Handle("PUT /api/admin/simple-products", guard(auth.PermManageInventory, h.SimpleProducts.Update))
	mux.Handle("POST /api/admin/simple-products", guard(auth.PermManageInventory, h.SimpleProducts.Create))

	// Back office
	mux.Handle("GET /api/admin/orders", guard(auth.PermViewOrders, h.Orders.List))
	mux.Handle("GET /api/admin/notifications", guard(auth.PermViewOrders, h.Notifications.List))
	mux.Handle("GET /api/admin/analytics", guard(auth.PermViewAnalytics, h.Analytics.Get))
	mux.Handle("GET /api/admin/export/{kind}", guard(auth.PermViewAnalytics, h.Export.Export))
	mux.Handle("GET /api/admin/backup", guard(auth.PermManageBackups, h.Backups.Download))
	mux.Handle("POST /api/admin/backup", guard(auth.PermManageBackups, h.Backups.Restore))

	// Storefront
	mux.HandleFunc("GET /api/products", h.Products.PublicList)
	mux.HandleFunc("GET /api/products/{id}", h.Products.PublicGet)
	mux.HandleFunc("POST /api/orders/save", h.Orders.Save)
	mux.HandleFunc("POST /api/orders/save-firebase", h.Orders.Save)
	mux.HandleFunc("GET /api/orders/get", h.Orders.Get)
	mux.Handle("PUT /api/orders/update-status", guard(auth.PermManageOrders, h.Orders.UpdateStatus))
	mux.HandleFunc("POST /api/create-order", h.Payments.CreateOrder)
	mux.HandleFunc("POST /api/razorpay/verify-payment", h.Payments.VerifyPayment)

	if h.StaticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(h.StaticDir)))
	}
	return mux
}

// Health check endpoint
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":%d}`, time.Now().Unix())
}
