// Package notify stores customer and admin notifications in an outbox and delivers them from a
// background worker, retrying failed sends with exponential backoff.
package notify

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"jewelbox/models"
	"jewelbox/store"
)

// Outbox persists notifications as pending records.
type Outbox struct {
	repo store.Collection[models.Notification]
	now  func() time.Time
}

func NewOutbox(repo store.Collection[models.Notification]) *Outbox {
	return &Outbox{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Enqueue stores msgs as pending and due immediately. Ids are assigned when missing.
func (o *Outbox) Enqueue(ctx context.Context, msgs ...models.Notification) error {
	if len(msgs) == 0 {
		return nil
	}
	now := o.now()
	records := make([]models.Notification, 0, len(msgs))
	for _, m := range msgs {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		m.Status = models.NotificationPending
		m.Attempts = 0
		m.LastError = ""
		m.NextAttemptAt = now
		m.CreatedAt = now
		m.SentAt = nil
		records = append(records, m)
	}
	if err := o.repo.Put(ctx, records...); err != nil {
		return fmt.Errorf("failed to enqueue notifications: %w", err)
	}
	return nil
}

// List returns every notification, newest first.
func (o *Outbox) List(ctx context.Context) ([]models.Notification, error) {
	all, err := o.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return all, nil
}
