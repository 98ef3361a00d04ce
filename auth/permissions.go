package auth

import (
	"slices"

	"jewelbox/models"
)

// Permission keys checked by the admin API.
const (
	PermViewProducts    = "view_products"
	PermManageProducts  = "manage_products"
	PermManageInventory = "manage_inventory"
	PermViewOrders      = "view_orders"
	PermManageOrders    = "manage_orders"
	PermViewAnalytics   = "view_analytics"
	PermManageBackups   = "manage_backups"
	PermManageSettings  = "manage_settings"
)

// Permissions maps every permission key to its label in the admin console.
var Permissions = map[string]string{
	PermViewProducts:    "View products",
	PermManageProducts:  "Create, edit and delete products",
	PermManageInventory: "Edit stock levels",
	PermViewOrders:      "View orders",
	PermManageOrders:    "Update order status",
	PermViewAnalytics:   "View analytics and exports",
	PermManageBackups:   "Download and restore backups",
	PermManageSettings:  "Change store settings",
}

var allPermissions = []string{
	PermViewProducts, PermManageProducts, PermManageInventory, PermViewOrders,
	PermManageOrders, PermViewAnalytics, PermManageBackups, PermManageSettings,
}

var rolePermissions = map[models.AdminRole][]string{
	models.RoleSuperAdmin: allPermissions,
	models.RoleAdmin: {
		PermViewProducts, PermManageProducts, PermManageInventory, PermViewOrders,
		PermManageOrders, PermViewAnalytics, PermManageBackups,
	},
	models.RoleManager: {
		PermViewProducts, PermManageInventory, PermViewOrders, PermManageOrders,
	},
}

// RolePermissions returns a copy of the permission set granted to role.
func RolePermissions(role models.AdminRole) []string {
	return slices.Clone(rolePermissions[role])
}

// HasPermission reports whether the identity carries the permission key.
func HasPermission(identity *models.AdminIdentity, key string) bool {
	if identity == nil {
		return false
	}
	return slices.Contains(identity.Permissions, key)
}
