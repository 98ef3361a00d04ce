package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"jewelbox/config"
	"jewelbox/db"
	"jewelbox/inventory"
	"jewelbox/models"
)

func main() {
	force := flag.Bool("force", false, "seed even when the catalog already has products")
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using system environment variables")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := seed(context.Background(), cfg, *force); err != nil {
		slog.Error("seeding failed", "error", err)
		os.Exit(1)
	}
	slog.Info("catalog seeding completed")
}

func seed(ctx context.Context, cfg *config.Config, force bool) error {
	collections, err := db.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer collections.Close()

	inv := inventory.NewService(collections.Products)
	defer inv.Close()

	existing, err := inv.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}
	if len(existing) > 0 && !force {
		slog.Info("catalog already has products, skipping (use -force to add the samples anyway)", "count", len(existing))
		return nil
	}

	for _, in := range sampleProducts() {
		p, err := inv.Create(ctx, in)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", in.Name, err)
		}
		slog.Info("created product", "id", p.ID, "name", p.Name, "stock", p.Inventory.Stock)
	}
	return nil
}

func sampleProducts() []inventory.ProductInput {
	price := func(v float64) *float64 { return &v }
	return []inventory.ProductInput{
		{
			Name:        "Classic Gold Band",
			Description: "Polished 22k gold band with a comfort fit.",
			Price:       18500,
			Category:    "Rings",
			Material:    "22k gold",
			Sizes:       []string{"6", "7", "8", "9"},
			Inventory:   &models.Inventory{Stock: 12, LowStockThreshold: 3, Sizes: map[string]int{"6": 2, "7": 4, "8": 4, "9": 2}},
			Tags:        []string{"gold", "wedding", "classic"},
			Featured:    true,
		},
		{
			Name:          "Kundan Drop Earrings",
			Description:   "Handset kundan stones with pearl drops.",
			Price:         4200,
			OriginalPrice: price(5200),
			Category:      "Earrings",
			Material:      "Gold-plated silver",
			Colors:        []string{"green", "red"},
			Inventory:     &models.Inventory{Stock: 4, LowStockThreshold: 5},
			Tags:          []string{"kundan", "festive"},
			IsSale:        true,
		},
		{
			Name:        "Sterling Rope Chain",
			Description: "18 inch sterling silver rope chain.",
			Price:       2300,
			Category:    "Chains",
			Material:    "925 silver",
			Inventory:   &models.Inventory{Stock: 25, LowStockThreshold: 5},
			Tags:        []string{"silver", "everyday"},
			IsNew:       true,
		},
		{
			Name:        "Temple Coin Necklace",
			Description: "Antique finish coin necklace in the temple style.",
			Price:       9600,
			Category:    "Necklaces",
			Material:    "Gold-plated brass",
			Inventory:   &models.Inventory{Stock: 0, LowStockThreshold: 2},
			Tags:        []string{"temple", "antique"},
		},
		{
			Name:        "Oxidised Silver Bangles (Set of 4)",
			Description: "Hand-engraved oxidised bangles.",
			Price:       1850,
			Category:    "Bangles",
			Material:    "Oxidised silver",
			Sizes:       []string{"2.4", "2.6", "2.8"},
			Tags:        []string{"silver", "boho"},
		},
	}
}
