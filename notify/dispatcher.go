package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"jewelbox/models"
	"jewelbox/store"
)

const (
	baseBackoff = 30 * time.Second
	maxBackoff  = time.Hour
)

// Mailer delivers one plain-text email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMSSender delivers one text message.
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

// Dispatcher delivers due pending notifications. It is the only reader that changes their status.
type Dispatcher struct {
	repo        store.Collection[models.Notification]
	mailer      Mailer
	sms         SMSSender
	interval    time.Duration
	maxAttempts int
	now         func() time.Time
}

func NewDispatcher(repo store.Collection[models.Notification], mailer Mailer, sms SMSSender, interval time.Duration, maxAttempts int) *Dispatcher {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Dispatcher{
		repo:        repo,
		mailer:      mailer,
		sms:         sms,
		interval:    interval,
		maxAttempts: maxAttempts,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Run polls the outbox until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	slog.Info("notification dispatcher started", "interval", d.interval, "maxAttempts", d.maxAttempts)
	for {
		if _, _, err := d.DispatchOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("notification dispatch failed", "error", err)
		}
		select {
		case <-ctx.Done():
			slog.Info("notification dispatcher stopped")
			return
		case <-ticker.C:
		}
	}
}

// DispatchOnce sends every pending notification that is due and stores the outcome.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (sent, failed int, err error) {
	all, err := d.repo.All(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load outbox: %w", err)
	}

	now := d.now()
	for _, n := range all {
		if n.Status != models.NotificationPending || n.NextAttemptAt.After(now) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return sent, failed, err
		}

		sendErr := d.send(ctx, n)
		n.Attempts++
		if sendErr == nil {
			at := d.now()
			n.Status = models.NotificationSent
			n.SentAt = &at
			n.LastError = ""
			sent++
		} else {
			n.LastError = sendErr.Error()
			if n.Attempts >= d.maxAttempts {
				n.Status = models.NotificationFailed
				failed++
			} else {
				n.NextAttemptAt = d.now().Add(Backoff(n.Attempts))
			}
			slog.Warn("notification not delivered",
				"id", n.ID, "orderId", n.OrderID, "channel", n.Channel, "attempts", n.Attempts, "status", n.Status, "error", sendErr)
		}

		if err := d.repo.Put(ctx, n); err != nil {
			return sent, failed, fmt.Errorf("failed to update notification %s: %w", n.ID, err)
		}
	}
	return sent, failed, nil
}

func (d *Dispatcher) send(ctx context.Context, n models.Notification) error {
	switch n.Channel {
	case models.ChannelEmail:
		return d.mailer.Send(ctx, n.Recipient, n.Subject, n.Body)
	case models.ChannelSMS:
		return d.sms.Send(ctx, n.Recipient, n.Body)
	}
	return fmt.Errorf("unknown channel %q", n.Channel)
}

// Backoff returns the delay before the next attempt after the given number of failures:
// 30s, 1m, 2m, ... capped at one hour.
func Backoff(failures int) time.Duration {
	if failures < 1 {
		return 0
	}
	delay := baseBackoff
	for i := 1; i < failures; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}
