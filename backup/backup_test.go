package backup

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"jewelbox/inventory"
	"jewelbox/models"
	"jewelbox/orders"
	"jewelbox/store"
)

type fixture struct {
	svc     *Service
	catalog *inventory.Service
	orders  *orders.Service
	dir     string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	backups := filepath.Join(dir, "backups")
	products, err := store.NewFileCollection(filepath.Join(dir, "inventory.json"), backups, 10, models.ProductKey)
	if err != nil {
		t.Fatal(err)
	}
	orderRepo, err := store.NewFileCollection(filepath.Join(dir, "orders.json"), backups, 10, models.OrderKey)
	if err != nil {
		t.Fatal(err)
	}
	catalog := inventory.NewService(products)
	book := orders.NewService(orderRepo, nil, orders.Options{DeliveryDays: 7, StrictTransitions: true})
	t.Cleanup(func() {
		catalog.Close()
		book.Close()
	})
	return fixture{svc: NewService(catalog, book, backups, 3), catalog: catalog, orders: book, dir: backups}
}

func seed(t *testing.T, f fixture) {
	t.Helper()
	ctx := context.Background()
	if _, err := f.catalog.Create(ctx, inventory.ProductInput{Name: "Gold Ring", Price: 2000, Category: "Rings"}); err != nil {
		t.Fatal(err)
	}
	_, err := f.orders.Save(ctx, orders.OrderInput{
		OrderID:         "ORD-1",
		CustomerName:    "Asha",
		CustomerEmail:   "asha@example.com",
		CustomerPhone:   "9876543210",
		Items:           []models.OrderItem{{ProductID: "rings-1", Name: "Gold Ring", Price: 2000, Quantity: 1}},
		TotalAmount:     2000,
		ShippingAddress: models.Address{Line1: "1 Main St", City: "Pune", PostalCode: "411001"},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestExport(t *testing.T) {
	f := newFixture(t)
	seed(t, f)
	bundle, err := f.svc.Export(context.Background())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(bundle.Products) != 1 || len(bundle.Orders) != 1 || bundle.CreatedAt.IsZero() {
		t.Fatalf("unexpected bundle: %+v", bundle)
	}
}

func TestRestoreSnapshotsThenReplaces(t *testing.T) {
	f := newFixture(t)
	seed(t, f)
	ctx := context.Background()

	replacement := models.BackupBundle{
		Products: []models.Product{
			{ID: "pendants-1", Name: "Pearl Pendant", Price: 900, Category: "Pendants", Inventory: models.Inventory{Stock: 4, LowStockThreshold: 1}},
			{ID: "anklets-1", Name: "Silver Anklet", Price: 300, Category: "Anklets"},
		},
		Orders: []models.Order{},
	}
	if err := f.svc.Restore(ctx, replacement); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	products, _ := f.catalog.GetAll(ctx)
	if len(products) != 2 || !products[0].InStock || products[1].InStock {
		t.Errorf("products after restore: %+v", products)
	}
	list, _ := f.orders.List(ctx)
	if len(list) != 0 {
		t.Errorf("orders after restore: %d", len(list))
	}

	snapshots, err := store.ListBackups(f.dir, snapshotName)
	if err != nil || len(snapshots) != 1 {
		t.Fatalf("snapshots = %v, %v", snapshots, err)
	}
	data, err := os.ReadFile(snapshots[0])
	if err != nil {
		t.Fatal(err)
	}
	var saved models.BackupBundle
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatal(err)
	}
	if len(saved.Products) != 1 || saved.Products[0].Name != "Gold Ring" || len(saved.Orders) != 1 {
		t.Errorf("snapshot does not hold the previous state: %+v", saved)
	}
}

func TestRestoreRejectsBadBundles(t *testing.T) {
	f := newFixture(t)
	seed(t, f)
	ctx := context.Background()

	if err := f.svc.Restore(ctx, models.BackupBundle{Products: []models.Product{}}); !errors.Is(err, ErrInvalidBundle) {
		t.Errorf("missing orders = %v", err)
	}

	dupOrders := models.BackupBundle{
		Products: []models.Product{},
		Orders:   []models.Order{{OrderID: "A", OrderStatus: models.OrderShipped}, {OrderID: "A", OrderStatus: models.OrderShipped}},
	}
	if err := f.svc.Restore(ctx, dupOrders); !orders.IsValidation(err) {
		t.Errorf("duplicate orders = %v", err)
	}

	badProduct := models.BackupBundle{
		Products: []models.Product{{ID: "x", Category: "Rings"}},
		Orders:   []models.Order{},
	}
	if err := f.svc.Restore(ctx, badProduct); !inventory.IsValidation(err) {
		t.Errorf("invalid product = %v", err)
	}

	products, _ := f.catalog.GetAll(ctx)
	list, _ := f.orders.List(ctx)
	if len(products) != 1 || len(list) != 1 {
		t.Errorf("rejected restores changed data: %d products, %d orders", len(products), len(list))
	}
}

func TestSnapshotRotation(t *testing.T) {
	f := newFixture(t)
	seed(t, f)
	for i := 0; i < 5; i++ {
		if _, err := f.svc.Snapshot(context.Background()); err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
	}
	snapshots, _ := store.ListBackups(f.dir, snapshotName)
	if len(snapshots) != 3 {
		t.Errorf("kept %d snapshots, want 3", len(snapshots))
	}
}
