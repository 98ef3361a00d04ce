package inventory

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"jewelbox/models"
	"jewelbox/store"
)

const (
	defaultStock     = 10
	defaultThreshold = 5
	queueTimeout     = 5 * time.Second
)

// command is one unit of work executed by the service goroutine.
type command struct {
	ctx  context.Context
	run  func(ctx context.Context) error
	done chan error
}

// Service owns the product collection. A single goroutine runs every read and write in arrival
// order, so read-modify-write cycles never interleave within the process.
type Service struct {
	repo     store.Collection[models.Product]
	commands chan command
	quit     chan struct{}
	now      func() time.Time
}

// NewService starts the background goroutine immediately.
func NewService(repo store.Collection[models.Product]) *Service {
	svc := &Service{
		repo:     repo,
		commands: make(chan command),
		quit:     make(chan struct{}),
		now:      func() time.Time { return time.Now().UTC() },
	}
	go svc.loop()
	return svc
}

func (s *Service) loop() {
	for {
		select {
		case cmd := <-s.commands:
			cmd.done <- cmd.run(cmd.ctx)
		case <-s.quit:
			return
		}
	}
}

// Close stops the background goroutine when the application shuts down.
func (s *Service) Close() {
	close(s.quit)
}

// do hands fn to the service goroutine and waits for it to finish.
func (s *Service) do(ctx context.Context, fn func(ctx context.Context) error) error {
	done := make(chan error, 1)
	cmd := command{ctx: ctx, run: fn, done: done}

	select {
	case s.commands <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(queueTimeout):
		return ErrBusy
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetAll returns every product in stored order.
func (s *Service) GetAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.do(ctx, func(ctx context.Context) error {
		var err error
		products, err = s.repo.All(ctx)
		return err
	})
	return products, err
}

// GetByID returns one product or ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id string) (models.Product, error) {
	var product models.Product
	err := s.do(ctx, func(ctx context.Context) error {
		var err error
		product, err = s.get(ctx, id)
		return err
	})
	return product, err
}

// Search filters and sorts the catalog in memory.
func (s *Service) Search(ctx context.Context, f Filters) ([]models.Product, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	products, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return Apply(products, f), nil
}

// LowStock returns products whose stock is at or below their threshold.
func (s *Service) LowStock(ctx context.Context) ([]models.Product, error) {
	products, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	low := []models.Product{}
	for _, p := range products {
		if p.IsLowStock() {
			low = append(low, p)
		}
	}
	return low, nil
}

// Create validates the input, assigns an id when missing and stores the new product.
func (s *Service) Create(ctx context.Context, in ProductInput) (models.Product, error) {
	var created models.Product
	err := s.do(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.create(ctx, in)
		return err
	})
	return created, err
}

func (s *Service) create(ctx context.Context, in ProductInput) (models.Product, error) {
	now := s.now()
	p := models.Product{
		ID:            strings.TrimSpace(in.ID),
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		Category:      strings.TrimSpace(in.Category),
		Images:        nonNil(in.Images),
		Material:      in.Material,
		Colors:        nonNil(in.Colors),
		Sizes:         nonNil(in.Sizes),
		SKU:           strings.TrimSpace(in.SKU),
		Tags:          nonNil(in.Tags),
		Rating:        in.Rating,
		Reviews:       in.Reviews,
		IsNew:         in.IsNew,
		IsSale:        in.IsSale,
		Featured:      in.Featured,
		DateAdded:     now,
	}
	if in.Inventory != nil {
		p.Inventory = *in.Inventory
	} else {
		p.Inventory = models.Inventory{Stock: defaultStock, LowStockThreshold: defaultThreshold}
	}
	if err := validate(p); err != nil {
		return models.Product{}, err
	}

	existing, err := s.repo.All(ctx)
	if err != nil {
		return models.Product{}, err
	}
	taken := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		taken[e.ID] = struct{}{}
	}

	if p.ID == "" {
		p.ID = newProductID(p.Category, now, taken)
	} else if _, dup := taken[p.ID]; dup {
		return models.Product{}, fmt.Errorf("%w: id %s already exists", ErrConflict, p.ID)
	}
	if p.SKU == "" {
		p.SKU = newSKU(p.Category, now)
	}
	p.Version = 0
	stamp(&p, now)

	if err := s.repo.Put(ctx, p); err != nil {
		return models.Product{}, fmt.Errorf("failed to save product: %w", err)
	}
	return p, nil
}

// Update applies a partial update. A price change appends the old price to priceHistory.
func (s *Service) Update(ctx context.Context, id string, patch ProductPatch) (models.Product, error) {
	var updated models.Product
	err := s.do(ctx, func(ctx context.Context) error {
		current, err := s.get(ctx, id)
		if err != nil {
			return err
		}
		updated, err = s.applyPatch(current, patch)
		if err != nil {
			return err
		}
		if err := s.repo.Put(ctx, updated); err != nil {
			return fmt.Errorf("failed to save product: %w", err)
		}
		return nil
	})
	return updated, err
}

// UpdateStock sets the stock level; expectedVersion, when non-nil, must match the stored version.
func (s *Service) UpdateStock(ctx context.Context, id string, stock int, expectedVersion *int64) (models.Product, error) {
	return s.Update(ctx, id, ProductPatch{
		Inventory: &InventoryPatch{Stock: &stock},
		Version:   expectedVersion,
	})
}

// BulkUpdate applies every entry in one write. Unknown ids and stale versions are reported, not fatal.
func (s *Service) BulkUpdate(ctx context.Context, entries []BulkEntry) (BulkResult, error) {
	result := BulkResult{Updated: []models.Product{}, Skipped: []string{}, Conflicts: []string{}}
	err := s.do(ctx, func(ctx context.Context) error {
		products, err := s.repo.All(ctx)
		if err != nil {
			return err
		}
		byID := make(map[string]models.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		var order []string
		touched := make(map[string]bool)
		for _, entry := range entries {
			current, ok := byID[entry.ID]
			if !ok {
				result.Skipped = append(result.Skipped, entry.ID)
				continue
			}
			next, err := s.applyPatch(current, entry.Updates)
			if errors.Is(err, ErrConflict) {
				result.Conflicts = append(result.Conflicts, entry.ID)
				continue
			}
			if err != nil {
				return fmt.Errorf("product %s: %w", entry.ID, err)
			}
			if !touched[entry.ID] {
				touched[entry.ID] = true
				order = append(order, entry.ID)
			}
			byID[entry.ID] = next
		}
		if len(order) == 0 {
			return nil
		}
		changed := make([]models.Product, 0, len(order))
		for _, id := range order {
			changed = append(changed, byID[id])
		}
		if err := s.repo.Put(ctx, changed...); err != nil {
			return fmt.Errorf("failed to save products: %w", err)
		}
		result.Updated = changed
		return nil
	})
	return result, err
}

// Delete removes a product or returns ErrNotFound.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.do(ctx, func(ctx context.Context) error {
		if _, err := s.get(ctx, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id)
	})
}

// BulkDelete removes every known id and reports the ones that did not exist.
func (s *Service) BulkDelete(ctx context.Context, ids []string) (deleted, missing []string, err error) {
	deleted, missing = []string{}, []string{}
	err = s.do(ctx, func(ctx context.Context) error {
		products, err := s.repo.All(ctx)
		if err != nil {
			return err
		}
		known := make(map[string]bool, len(products))
		for _, p := range products {
			known[p.ID] = true
		}
		for _, id := range ids {
			if known[id] {
				deleted = append(deleted, id)
				known[id] = false
			} else {
				missing = append(missing, id)
			}
		}
		return s.repo.Delete(ctx, deleted...)
	})
	return deleted, missing, err
}

// Duplicate clones a product under a new id, name and sku.
func (s *Service) Duplicate(ctx context.Context, id string) (models.Product, error) {
	var created models.Product
	err := s.do(ctx, func(ctx context.Context) error {
		src, err := s.get(ctx, id)
		if err != nil {
			return err
		}
		inv := src.Inventory
		if src.Inventory.Sizes != nil {
			inv.Sizes = make(map[string]int, len(src.Inventory.Sizes))
			for k, v := range src.Inventory.Sizes {
				inv.Sizes[k] = v
			}
		}
		created, err = s.create(ctx, ProductInput{
			Name:          src.Name + " (Copy)",
			Description:   src.Description,
			Price:         src.Price,
			OriginalPrice: src.OriginalPrice,
			Category:      src.Category,
			Images:        append([]string(nil), src.Images...),
			Material:      src.Material,
			Colors:        append([]string(nil), src.Colors...),
			Sizes:         append([]string(nil), src.Sizes...),
			Inventory:     &inv,
			SKU:           src.SKU + "-COPY-" + strconv.FormatInt(s.now().UnixMilli()%100000, 10),
			Tags:          append([]string(nil), src.Tags...),
			IsNew:         src.IsNew,
			IsSale:        src.IsSale,
			Featured:      src.Featured,
		})
		return err
	})
	return created, err
}

// Restore replaces the whole catalog after validating every product.
func (s *Service) Restore(ctx context.Context, products []models.Product) error {
	seen := make(map[string]struct{}, len(products))
	for i := range products {
		p := &products[i]
		if p.ID == "" {
			return newValidationError(fmt.Sprintf("product %d has no id", i))
		}
		if _, dup := seen[p.ID]; dup {
			return newValidationError("duplicate product id " + p.ID)
		}
		seen[p.ID] = struct{}{}
		if err := validate(*p); err != nil {
			return fmt.Errorf("product %s: %w", p.ID, err)
		}
		p.InStock = p.Inventory.Stock > 0
		if p.Version < 1 {
			p.Version = 1
		}
	}
	return s.do(ctx, func(ctx context.Context) error {
		return s.repo.Replace(ctx, products)
	})
}

func (s *Service) get(ctx context.Context, id string) (models.Product, error) {
	p, err := s.repo.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.Product{}, ErrNotFound
	}
	return p, err
}

// applyPatch returns the patched copy of p. It is the single write path for updates.
func (s *Service) applyPatch(p models.Product, patch ProductPatch) (models.Product, error) {
	if patch.Version != nil && *patch.Version != p.Version {
		return models.Product{}, fmt.Errorf("%w: expected version %d, stored %d", ErrConflict, *patch.Version, p.Version)
	}
	now := s.now()

	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil && *patch.Price != p.Price {
		reason := patch.PriceChangeReason
		if reason == "" {
			reason = "Price update"
		}
		p.PriceHistory = append(append([]models.PriceHistoryEntry(nil), p.PriceHistory...),
			models.PriceHistoryEntry{Date: now, Price: p.Price, Reason: reason})
		p.Price = *patch.Price
	}
	if patch.OriginalPrice != nil {
		p.OriginalPrice = patch.OriginalPrice
	}
	if patch.Category != nil {
		p.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Images != nil {
		p.Images = nonNil(*patch.Images)
	}
	if patch.Material != nil {
		p.Material = *patch.Material
	}
	if patch.Colors != nil {
		p.Colors = nonNil(*patch.Colors)
	}
	if patch.Sizes != nil {
		p.Sizes = nonNil(*patch.Sizes)
	}
	if inv := patch.Inventory; inv != nil {
		if inv.Stock != nil {
			p.Inventory.Stock = *inv.Stock
		}
		if inv.LowStockThreshold != nil {
			p.Inventory.LowStockThreshold = *inv.LowStockThreshold
		}
		if inv.Sizes != nil {
			p.Inventory.Sizes = inv.Sizes
		}
	}
	if patch.SKU != nil {
		p.SKU = strings.TrimSpace(*patch.SKU)
	}
	if patch.Tags != nil {
		p.Tags = nonNil(*patch.Tags)
	}
	if patch.Rating != nil {
		p.Rating = *patch.Rating
	}
	if patch.Reviews != nil {
		p.Reviews = *patch.Reviews
	}
	if patch.IsNew != nil {
		p.IsNew = *patch.IsNew
	}
	if patch.IsSale != nil {
		p.IsSale = *patch.IsSale
	}
	if patch.Featured != nil {
		p.Featured = *patch.Featured
	}

	if err := validate(p); err != nil {
		return models.Product{}, err
	}
	stamp(&p, now)
	return p, nil
}

// stamp derives inStock and advances the write metadata.
func stamp(p *models.Product, now time.Time) {
	p.InStock = p.Inventory.Stock > 0
	p.LastUpdated = now
	p.Version++
}

func validate(p models.Product) error {
	switch {
	case p.Name == "":
		return newValidationError("name is required")
	case p.Category == "":
		return newValidationError("category is required")
	case p.Price < 0:
		return newValidationError("price must not be negative")
	case p.OriginalPrice != nil && *p.OriginalPrice < 0:
		return newValidationError("originalPrice must not be negative")
	case p.Inventory.Stock < 0:
		return newValidationError("stock must not be negative")
	case p.Inventory.LowStockThreshold < 0:
		return newValidationError("lowStockThreshold must not be negative")
	case p.Rating < 0 || p.Rating > 5:
		return newValidationError("rating must be between 0 and 5")
	case p.Reviews < 0:
		return newValidationError("reviews must not be negative")
	}
	for size, n := range p.Inventory.Sizes {
		if n < 0 {
			return newValidationError("stock for size " + size + " must not be negative")
		}
	}
	return nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// newProductID builds <category>-<unix millis>, bumping the millis until the id is free.
func newProductID(category string, now time.Time, taken map[string]struct{}) string {
	prefix := slugify(category)
	if prefix == "" {
		prefix = "product"
	}
	ms := now.UnixMilli()
	for {
		id := prefix + "-" + strconv.FormatInt(ms, 10)
		if _, dup := taken[id]; !dup {
			return id
		}
		ms++
	}
}

func newSKU(category string, now time.Time) string {
	prefix := strings.ToUpper(strings.ReplaceAll(slugify(category), "-", ""))
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	if prefix == "" {
		prefix = "JWL"
	}
	return fmt.Sprintf("%s-%06d", prefix, now.UnixMilli()%1000000)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
