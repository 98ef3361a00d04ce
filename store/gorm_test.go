package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func setupSQL(t *testing.T) *GormCollection[widget] {
	t.Helper()
	// A unique in-memory database per test avoids cross-test collisions.
	db, err := OpenSQL("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return NewGormCollection(db, "widgets", widgetKey)
}

func TestGormCollectionCRUD(t *testing.T) {
	c := setupSQL(t)
	ctx := context.Background()

	if err := c.Put(ctx, widget{ID: "a", Name: "one"}, widget{ID: "b", Name: "two"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Put(ctx, widget{ID: "a", Name: "uno"}); err != nil {
		t.Fatalf("Put upsert: %v", err)
	}

	got, err := c.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "uno" {
		t.Fatalf("Get returned %+v", got)
	}

	items, err := c.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(items) != 2 || items[0].ID != "a" || items[1].ID != "b" {
		t.Fatalf("unexpected order after upsert: %+v", items)
	}

	if err := c.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGormCollectionReplace(t *testing.T) {
	c := setupSQL(t)
	ctx := context.Background()

	if err := c.Put(ctx, widget{ID: "a"}, widget{ID: "b"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Replace(ctx, []widget{{ID: "z", Name: "only"}}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	items, err := c.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(items) != 1 || items[0].ID != "z" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestNormalizeDSN(t *testing.T) {
	cases := map[string]string{
		"":                                "",
		"postgres://u:p@localhost/db":     "postgres://u:p@localhost/db",
		" 'host=db  user=u dbname=shop' ": "host=db user=u dbname=shop sslmode=disable",
		"host=db user=u sslmode=require":  "host=db user=u sslmode=require",
	}
	for in, want := range cases {
		if got := NormalizeDSN(in); got != want {
			t.Errorf("NormalizeDSN(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGormCollectionLargeWrites(t *testing.T) {
	c := setupSQL(t)
	ctx := context.Background()

	// 7000 rows of 5 columns is past SQLite's 32766 bound-variable limit for a single statement.
	items := make([]widget, 7000)
	for i := range items {
		items[i] = widget{ID: fmt.Sprintf("w-%05d", i)}
	}
	if err := c.Put(ctx, items...); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Replace(ctx, items); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	got, err := c.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(got) != len(items) || got[0].ID != "w-00000" || got[len(got)-1].ID != "w-06999" {
		t.Fatalf("got %d items, first %q", len(got), got[0].ID)
	}
}
