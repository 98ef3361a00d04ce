package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"jewelbox/config"
	"jewelbox/models"
	"jewelbox/store"
)

// Collection names shared by every backend.
const (
	ProductsCollection      = "inventory"
	OrdersCollection        = "orders"
	NotificationsCollection = "notifications"
)

// Collections holds the record sets the server persists, whichever backend they live in.
type Collections struct {
	Products      store.Collection[models.Product]
	Orders        store.Collection[models.Order]
	Notifications store.Collection[models.Notification]

	closers []func() error
}

// Close releases the backend connection.
func (c *Collections) Close() error {
	var errs []error
	for _, fn := range c.closers {
		errs = append(errs, fn())
	}
	return errors.Join(errs...)
}

// Open connects the configured storage backend: json, sqlite, postgres or firestore.
func Open(ctx context.Context, cfg *config.Config) (*Collections, error) {
	s := cfg.Storage
	switch s.Backend {
	case "json":
		return openFiles(s.DataDir, s.BackupDir, s.BackupKeep)

	case "sqlite", "postgres":
		if s.Backend == "sqlite" {
			if err := os.MkdirAll(filepath.Dir(s.DatabaseDSN), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		gdb, err := store.OpenSQL(s.Backend, s.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database handle: %w", err)
		}
		slog.Info("storage ready", "backend", s.Backend)
		return &Collections{
			Products:      store.NewGormCollection(gdb, ProductsCollection, models.ProductKey),
			Orders:        store.NewGormCollection(gdb, OrdersCollection, models.OrderKey),
			Notifications: store.NewGormCollection(gdb, NotificationsCollection, models.NotificationKey),
			closers:       []func() error{sqlDB.Close},
		}, nil

	case "firestore":
		fdb, err := NewFirestoreDB(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsPath)
		if err != nil {
			return nil, err
		}
		return &Collections{
			Products:      NewCollection(fdb, ProductsCollection, models.ProductKey),
			Orders:        NewCollection(fdb, OrdersCollection, models.OrderKey),
			Notifications: NewCollection(fdb, NotificationsCollection, models.NotificationKey),
			closers:       []func() error{fdb.Close},
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", s.Backend)
	}
}

func openFiles(dataDir, backupDir string, keep int) (*Collections, error) {
	products, err := store.NewFileCollection(filepath.Join(dataDir, ProductsCollection+".json"), backupDir, keep, models.ProductKey)
	if err != nil {
		return nil, err
	}
	orders, err := store.NewFileCollection(filepath.Join(dataDir, OrdersCollection+".json"), backupDir, keep, models.OrderKey)
	if err != nil {
		return nil, err
	}
	notifications, err := store.NewFileCollection(filepath.Join(dataDir, NotificationsCollection+".json"), backupDir, keep, models.NotificationKey)
	if err != nil {
		return nil, err
	}
	slog.Info("storage ready", "backend", "json", "dir", dataDir)
	return &Collections{Products: products, Orders: orders, Notifications: notifications}, nil
}
