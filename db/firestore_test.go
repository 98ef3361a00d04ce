package db

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"jewelbox/models"
	"jewelbox/store"
)

// These tests need the Firestore emulator: FIRESTORE_EMULATOR_HOST=localhost:8080 go test ./db
func newEmulatorDB(t *testing.T) *FirestoreDB {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	fdb, err := NewFirestoreDB(context.Background(), "jewelbox-test", "")
	if err != nil {
		t.Fatalf("NewFirestoreDB: %v", err)
	}
	t.Cleanup(func() { fdb.Close() })
	return fdb
}

func TestCollectionRoundTrip(t *testing.T) {
	fdb := newEmulatorDB(t)
	ctx := context.Background()
	products := NewCollection(fdb, "products_"+t.Name(), models.ProductKey)

	p := models.Product{ID: "rings-1", Name: "Gold Ring", Category: "Rings", Price: 2000,
		Inventory: models.Inventory{Stock: 3, LowStockThreshold: 1}, InStock: true, Version: 1}
	if err := products.Put(ctx, p); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := products.Get(ctx, "rings-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != p.Name || got.Inventory.Stock != 3 {
		t.Fatalf("Get returned %+v", got)
	}

	if err := products.Replace(ctx, []models.Product{{ID: "rings-2", Name: "Silver Ring", Category: "Rings"}}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if _, err := products.Get(ctx, "rings-1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after replace, got %v", err)
	}
	all, err := products.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 product, got %d", len(all))
	}
}

func TestCollectionAllKeepsInsertionOrder(t *testing.T) {
	fdb := newEmulatorDB(t)
	ctx := context.Background()
	products := NewCollection(fdb, "products_"+t.Name(), models.ProductKey)

	for _, id := range []string{"rings-9", "chains-1", "rings-2"} {
		if err := products.Put(ctx, models.Product{ID: id, Name: id}); err != nil {
			t.Fatalf("Put %s: %v", id, err)
		}
	}
	if err := products.Put(ctx, models.Product{ID: "rings-9", Name: "updated"}); err != nil {
		t.Fatalf("Put upsert: %v", err)
	}

	all, err := products.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	var ids []string
	for _, p := range all {
		ids = append(ids, p.ID)
	}
	if strings.Join(ids, ",") != "rings-9,chains-1,rings-2" {
		t.Errorf("All order = %v", ids)
	}
}
