package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"jewelbox/store"
)

// maxTxWrites keeps every transaction well under Firestore's 500 write limit.
const maxTxWrites = 400

// FirestoreDB wraps the Firestore client
type FirestoreDB struct {
	client *firestore.Client
}

// NewFirestoreDB initializes a new Firestore client. An empty credentialsPath falls back to
// application default credentials (or the emulator when FIRESTORE_EMULATOR_HOST is set).
func NewFirestoreDB(ctx context.Context, projectID, credentialsPath string) (*FirestoreDB, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	config := &firebase.Config{ProjectID: projectID}
	app, err := firebase.NewApp(ctx, config, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firestore client: %w", err)
	}

	slog.Info("Connected to Firestore", "project", projectID)

	return &FirestoreDB{client: client}, nil
}

// Close closes the Firestore client
func (db *FirestoreDB) Close() error {
	return db.client.Close()
}

// Collection is a store.Collection backed by one Firestore collection, one document per record.
type Collection[T any] struct {
	client *firestore.Client
	name   string
	key    store.KeyFunc[T]
}

// NewCollection binds a Firestore collection name to a record type.
func NewCollection[T any](db *FirestoreDB, name string, key store.KeyFunc[T]) *Collection[T] {
	return &Collection[T]{client: db.client, name: name, key: key}
}

// All retrieves every document in creation order. An upsert keeps the original creation time,
// and documents created by the same commit come back in ID order.
func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	iter := c.client.Collection(c.name).Documents(ctx)
	defer iter.Stop()

	type entry struct {
		created time.Time
		item    T
	}
	var entries []entry
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate %s: %w", c.name, err)
		}

		var item T
		if err := doc.DataTo(&item); err != nil {
			slog.Warn("Skipping unparseable document", "collection", c.name, "id", doc.Ref.ID, "error", err)
			continue
		}
		entries = append(entries, entry{created: doc.CreateTime, item: item})
	}

	// Documents arrive in ID order, so a stable sort on creation time keeps ID order for ties.
	slices.SortStableFunc(entries, func(a, b entry) int {
		return a.created.Compare(b.created)
	})
	items := make([]T, 0, len(entries))
	for _, e := range entries {
		items = append(items, e.item)
	}
	return items, nil
}

// Get retrieves a document by ID
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var item T
	doc, err := c.client.Collection(c.name).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return item, store.ErrNotFound
	}
	if err != nil {
		return item, fmt.Errorf("failed to get %s/%s: %w", c.name, id, err)
	}

	if err := doc.DataTo(&item); err != nil {
		return item, fmt.Errorf("failed to parse %s/%s: %w", c.name, id, err)
	}

	return item, nil
}

// Put writes the records in transactions of at most maxTxWrites documents
func (c *Collection[T]) Put(ctx context.Context, items ...T) error {
	for start := 0; start < len(items); start += maxTxWrites {
		end := min(start+maxTxWrites, len(items))
		chunk := items[start:end]
		err := c.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
			for _, item := range chunk {
				k := c.key(item)
				if k == "" {
					return errors.New("record key is empty")
				}
				if err := tx.Set(c.client.Collection(c.name).Doc(k), item); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", c.name, err)
		}
	}
	return nil
}

// Delete removes documents by ID
func (c *Collection[T]) Delete(ctx context.Context, ids ...string) error {
	for start := 0; start < len(ids); start += maxTxWrites {
		end := min(start+maxTxWrites, len(ids))
		chunk := ids[start:end]
		err := c.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
			for _, id := range chunk {
				if err := tx.Delete(c.client.Collection(c.name).Doc(id)); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to delete from %s: %w", c.name, err)
		}
	}
	return nil
}

// Replace deletes documents that are not in items, then writes items. Large collections are
// replaced in several transactions, so a failure part-way can leave a mix of old and new records.
func (c *Collection[T]) Replace(ctx context.Context, items []T) error {
	keep := make(map[string]struct{}, len(items))
	for _, item := range items {
		keep[c.key(item)] = struct{}{}
	}

	refs, err := c.client.Collection(c.name).DocumentRefs(ctx).GetAll()
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", c.name, err)
	}
	var stale []string
	for _, ref := range refs {
		if _, ok := keep[ref.ID]; !ok {
			stale = append(stale, ref.ID)
		}
	}
	if err := c.Delete(ctx, stale...); err != nil {
		return err
	}
	return c.Put(ctx, items...)
}
