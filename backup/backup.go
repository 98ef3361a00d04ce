// Package backup exports the catalog and order book as one bundle and restores it, keeping a
// rotating set of snapshots on disk.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"jewelbox/models"
	"jewelbox/orders"
	"jewelbox/store"
)

const snapshotName = "full"

// ErrInvalidBundle is returned when an uploaded backup lacks the products or orders list.
var ErrInvalidBundle = errors.New("backup must contain products and orders")

// Catalog is the product side of a backup.
type Catalog interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	Restore(ctx context.Context, products []models.Product) error
}

// OrderBook is the order side of a backup.
type OrderBook interface {
	List(ctx context.Context) ([]models.Order, error)
	Restore(ctx context.Context, orders []models.Order) error
}

type Service struct {
	catalog Catalog
	orders  OrderBook
	dir     string
	keep    int
	now     func() time.Time
}

func NewService(catalog Catalog, orders OrderBook, dir string, keep int) *Service {
	return &Service{
		catalog: catalog,
		orders:  orders,
		dir:     dir,
		keep:    keep,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Export collects the current products and orders.
func (s *Service) Export(ctx context.Context) (models.BackupBundle, error) {
	products, err := s.catalog.GetAll(ctx)
	if err != nil {
		return models.BackupBundle{}, fmt.Errorf("failed to read products: %w", err)
	}
	list, err := s.orders.List(ctx)
	if err != nil {
		return models.BackupBundle{}, fmt.Errorf("failed to read orders: %w", err)
	}
	return models.BackupBundle{CreatedAt: s.now(), Products: products, Orders: list}, nil
}

// Snapshot writes the current state to the backup directory and returns the file path.
func (s *Service) Snapshot(ctx context.Context) (string, error) {
	bundle, err := s.Export(ctx)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return store.WriteBackup(s.dir, snapshotName, data, s.keep)
}

// Restore snapshots the current state, then replaces products and orders with the bundle.
// Orders are validated up front and products by the catalog before anything is replaced.
func (s *Service) Restore(ctx context.Context, bundle models.BackupBundle) error {
	if bundle.Products == nil || bundle.Orders == nil {
		return ErrInvalidBundle
	}
	if err := orders.ValidateAll(bundle.Orders); err != nil {
		return err
	}

	path, err := s.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to snapshot before restore: %w", err)
	}
	slog.Info("snapshot written before restore", "path", path)

	if err := s.catalog.Restore(ctx, bundle.Products); err != nil {
		return fmt.Errorf("failed to restore products: %w", err)
	}
	if err := s.orders.Restore(ctx, bundle.Orders); err != nil {
		return fmt.Errorf("failed to restore orders, products already restored from %s: %w", path, err)
	}
	slog.Info("backup restored", "products", len(bundle.Products), "orders", len(bundle.Orders), "createdAt", bundle.CreatedAt)
	return nil
}
