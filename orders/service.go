package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"jewelbox/models"
	"jewelbox/store"
)

const queueTimeout = 5 * time.Second

// totalTolerance is the largest accepted gap between the client total and subtotal + shipping.
var totalTolerance = decimal.New(1, -2)

type command struct {
	ctx  context.Context
	run  func(ctx context.Context) error
	done chan error
}

// Service owns the order collection. Reads and writes run one at a time on a single goroutine.
// Notifications are handed to the outbox after the order itself is stored.
type Service struct {
	repo     store.Collection[models.Order]
	outbox   Outbox
	opts     Options
	commands chan command
	quit     chan struct{}
	now      func() time.Time
}

// NewService starts the background goroutine immediately.
func NewService(repo store.Collection[models.Order], outbox Outbox, opts Options) *Service {
	svc := &Service{
		repo:     repo,
		outbox:   outbox,
		opts:     opts,
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

// Close stops the background goroutine.
func (s *Service) Close() {
	close(s.quit)
}

func (s *Service) do(ctx context.Context, fn func(ctx context.Context) error) error {
	done := make(chan error, 1)
	select {
	case s.commands <- command{ctx: ctx, run: fn, done: done}:
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

// Save validates and stores a completed checkout, then queues the confirmation messages.
func (s *Service) Save(ctx context.Context, in OrderInput) (models.Order, error) {
	order, err := s.build(in)
	if err != nil {
		return models.Order{}, err
	}

	err = s.do(ctx, func(ctx context.Context) error {
		existing, err := s.repo.All(ctx)
		if err != nil {
			return err
		}
		taken := make(map[string]struct{}, len(existing))
		for _, o := range existing {
			taken[o.OrderID] = struct{}{}
		}
		if order.OrderID == "" {
			order.OrderID = newOrderID(taken)
		} else if _, dup := taken[order.OrderID]; dup {
			return fmt.Errorf("%w: %s", ErrConflict, order.OrderID)
		}
		if err := s.repo.Put(ctx, order); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}

	msgs := []models.Notification{confirmationEmail(order)}
	if s.opts.SMS && order.CustomerPhone != "" {
		msgs = append(msgs, confirmationSMS(order))
	}
	if s.opts.AdminEmail != "" {
		msgs = append(msgs, adminEmail(order, s.opts.AdminEmail))
	}
	s.enqueue(ctx, order.OrderID, msgs...)
	return order, nil
}

// build turns checkout input into an order without touching storage.
func (s *Service) build(in OrderInput) (models.Order, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerEmail = strings.TrimSpace(in.CustomerEmail)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)

	switch {
	case in.CustomerName == "":
		return models.Order{}, newValidationError("customerName is required")
	case in.CustomerEmail == "":
		return models.Order{}, newValidationError("customerEmail is required")
	case in.CustomerPhone == "":
		return models.Order{}, newValidationError("customerPhone is required")
	case len(in.Items) == 0:
		return models.Order{}, newValidationError("order must contain at least one item")
	case strings.TrimSpace(in.ShippingAddress.Line1) == "",
		strings.TrimSpace(in.ShippingAddress.City) == "",
		strings.TrimSpace(in.ShippingAddress.PostalCode) == "":
		return models.Order{}, newValidationError("shippingAddress needs line1, city and postalCode")
	case in.ShippingCost < 0:
		return models.Order{}, newValidationError("shippingCost must not be negative")
	}
	if _, err := mail.ParseAddress(in.CustomerEmail); err != nil {
		return models.Order{}, newValidationError("customerEmail is not a valid address")
	}

	subtotal := decimal.Zero
	for i, item := range in.Items {
		if item.ProductID == "" || item.Quantity <= 0 || item.Price < 0 {
			return models.Order{}, newValidationError(fmt.Sprintf("item %d needs productId, a positive quantity and a non-negative price", i))
		}
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(line)
	}
	expected := subtotal.Add(decimal.NewFromFloat(in.ShippingCost))
	if decimal.NewFromFloat(in.TotalAmount).Sub(expected).Abs().GreaterThan(totalTolerance) {
		return models.Order{}, newValidationError(fmt.Sprintf("totalAmount %s does not match subtotal plus shipping %s",
			decimal.NewFromFloat(in.TotalAmount).StringFixed(2), expected.StringFixed(2)))
	}

	paymentStatus := in.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = models.PaymentPending
	}
	switch paymentStatus {
	case models.PaymentPending, models.PaymentPaid, models.PaymentFailed, models.PaymentRefunded:
	default:
		return models.Order{}, newValidationError("unknown paymentStatus " + string(paymentStatus))
	}

	now := s.now()
	sub, _ := subtotal.Float64()
	return models.Order{
		OrderID:           strings.TrimSpace(in.OrderID),
		CustomerName:      in.CustomerName,
		CustomerEmail:     in.CustomerEmail,
		CustomerPhone:     in.CustomerPhone,
		Items:             in.Items,
		Subtotal:          sub,
		ShippingCost:      in.ShippingCost,
		TotalAmount:       in.TotalAmount,
		ShippingAddress:   in.ShippingAddress,
		PaymentID:         in.PaymentID,
		RazorpayOrderID:   in.RazorpayOrderID,
		PaymentMethod:     in.PaymentMethod,
		PaymentStatus:     paymentStatus,
		OrderStatus:       models.OrderProcessing,
		Notes:             in.Notes,
		EstimatedDelivery: AddBusinessDays(now, s.opts.DeliveryDays),
		StatusHistory:     []models.StatusChange{{Status: models.OrderProcessing, At: now, Note: "Order placed"}},
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Get returns one order or ErrNotFound.
func (s *Service) Get(ctx context.Context, orderID string) (models.Order, error) {
	var order models.Order
	err := s.do(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.get(ctx, orderID)
		return err
	})
	return order, err
}

// FindByContact returns the orders placed with the given email or phone, newest first.
func (s *Service) FindByContact(ctx context.Context, email, phone string) ([]models.Order, error) {
	email = strings.TrimSpace(email)
	phone = digits(phone)
	if email == "" && phone == "" {
		return nil, newValidationError("email or phone is required")
	}
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	matched := []models.Order{}
	for _, o := range all {
		if (email != "" && strings.EqualFold(o.CustomerEmail, email)) || (phone != "" && digits(o.CustomerPhone) == phone) {
			matched = append(matched, o)
		}
	}
	return matched, nil
}

// List returns every order, newest first.
func (s *Service) List(ctx context.Context) ([]models.Order, error) {
	var all []models.Order
	err := s.do(ctx, func(ctx context.Context) error {
		var err error
		all, err = s.repo.All(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return all, nil
}

// UpdateStatus moves an order to a new status and records the change in its history.
func (s *Service) UpdateStatus(ctx context.Context, u StatusUpdate) (models.Order, error) {
	if !u.Status.Valid() {
		return models.Order{}, newValidationError("unknown order status " + string(u.Status))
	}

	var (
		updated models.Order
		changed bool
	)
	err := s.do(ctx, func(ctx context.Context) error {
		order, err := s.get(ctx, u.OrderID)
		if err != nil {
			return err
		}
		now := s.now()

		if s.opts.StrictTransitions && !CanTransition(order.OrderStatus, u.Status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.OrderStatus, u.Status)
		}
		if u.Status == models.OrderCancelled && order.OrderStatus != models.OrderCancelled &&
			s.opts.CancelWindow > 0 && now.Sub(order.CreatedAt) > s.opts.CancelWindow {
			return fmt.Errorf("%w: order is older than %s", ErrCancelWindowClosed, s.opts.CancelWindow)
		}

		changed = order.OrderStatus != u.Status
		note := ""
		if u.Notes != nil {
			order.Notes = *u.Notes
			note = *u.Notes
		}
		if u.TrackingNumber != nil {
			order.TrackingNumber = strings.TrimSpace(*u.TrackingNumber)
		}
		if changed {
			order.OrderStatus = u.Status
			order.StatusHistory = append(order.StatusHistory, models.StatusChange{Status: u.Status, At: now, Note: note})
		}
		order.UpdatedAt = now

		if err := s.repo.Put(ctx, order); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		updated = order
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}

	if changed {
		if msg, ok := statusEmail(updated); ok {
			s.enqueue(ctx, updated.OrderID, msg)
		}
	}
	return updated, nil
}

// Restore replaces every stored order. Ids must be present and unique and statuses known.
func (s *Service) Restore(ctx context.Context, orders []models.Order) error {
	if err := ValidateAll(orders); err != nil {
		return err
	}
	return s.do(ctx, func(ctx context.Context) error {
		return s.repo.Replace(ctx, orders)
	})
}

// ValidateAll checks a full order set before it replaces the stored one.
func ValidateAll(orders []models.Order) error {
	seen := make(map[string]struct{}, len(orders))
	for i, o := range orders {
		if o.OrderID == "" {
			return newValidationError(fmt.Sprintf("order %d has no orderId", i))
		}
		if _, dup := seen[o.OrderID]; dup {
			return newValidationError("duplicate order id " + o.OrderID)
		}
		seen[o.OrderID] = struct{}{}
		if !o.OrderStatus.Valid() {
			return newValidationError(fmt.Sprintf("order %s has unknown status %q", o.OrderID, o.OrderStatus))
		}
	}
	return nil
}

func (s *Service) get(ctx context.Context, orderID string) (models.Order, error) {
	o, err := s.repo.Get(ctx, strings.TrimSpace(orderID))
	if errors.Is(err, store.ErrNotFound) {
		return models.Order{}, ErrNotFound
	}
	return o, err
}

// enqueue never fails the caller; the order is already stored.
func (s *Service) enqueue(ctx context.Context, orderID string, msgs ...models.Notification) {
	if s.outbox == nil || len(msgs) == 0 {
		return
	}
	if err := s.outbox.Enqueue(context.WithoutCancel(ctx), msgs...); err != nil {
		slog.Error("failed to queue order notifications", "orderId", orderID, "count", len(msgs), "error", err)
	}
}

// newOrderID returns ORD- followed by eight upper-case hex digits not yet in use.
func newOrderID(taken map[string]struct{}) string {
	for {
		u := uuid.New()
		id := "ORD-" + strings.ToUpper(strings.ReplaceAll(u.String(), "-", "")[:8])
		if _, dup := taken[id]; !dup {
			return id
		}
	}
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
