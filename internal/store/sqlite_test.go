package store_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qrblink/qrblink/internal/store"
)

func newTestStore(t *testing.T) *store.SQLite {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_foreign_keys=on&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, store.Migrate(db))
	return store.NewSQLite(db)
}

func TestInsertAndGetBySlug(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Insert(ctx, store.Redirect{
		Slug:   "abc123",
		URL:    "https://example.com/page",
		Secret: "s3cr3t-token-value-here!",
	})
	require.NoError(t, err)

	rec, err := s.GetBySlug(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", rec.Slug)
	assert.Equal(t, "https://example.com/page", rec.URL)
	assert.Equal(t, "s3cr3t-token-value-here!", rec.Secret)
	assert.Zero(t, rec.Clicks)
	assert.False(t, rec.CreatedAt.IsZero(), "created_at is set by the store")
}

func TestGetBySlug_Missing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetBySlug(context.Background(), "nope42")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestInsert_SlugCollision(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := store.Redirect{Slug: "dup999", URL: "https://a.example.com", Secret: "secret-a"}
	require.NoError(t, s.Insert(ctx, first))

	err := s.Insert(ctx, store.Redirect{Slug: "dup999", URL: "https://b.example.com", Secret: "secret-b"})
	assert.ErrorIs(t, err, store.ErrSlugTaken)

	// The original row survives untouched
	rec, err := s.GetBySlug(ctx, "dup999")
	require.NoError(t, err)
	assert.Equal(t, "https://a.example.com", rec.URL)
	assert.Equal(t, "secret-a", rec.Secret)
}

func TestUpdateURL_Conditional(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, store.Redirect{Slug: "upd111", URL: "https://old.example.com", Secret: "right"}))

	before, err := s.GetBySlug(ctx, "upd111")
	require.NoError(t, err)

	err = s.UpdateURL(ctx, "upd111", "wrong", "https://new.example.com")
	assert.ErrorIs(t, err, store.ErrNoMatch)

	err = s.UpdateURL(ctx, "absent", "right", "https://new.example.com")
	assert.ErrorIs(t, err, store.ErrNoMatch)

	require.NoError(t, s.UpdateURL(ctx, "upd111", "right", "https://new.example.com"))

	after, err := s.GetBySlug(ctx, "upd111")
	require.NoError(t, err)
	assert.Equal(t, "https://new.example.com", after.URL)
	assert.Equal(t, before.CreatedAt, after.CreatedAt, "created_at is immutable")
	assert.Equal(t, before.Clicks, after.Clicks)
}

func TestIncrementClicks_NoLostUpdates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, store.Redirect{Slug: "clk222", URL: "https://example.com", Secret: "x"}))

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.IncrementClicks(ctx, "clk222"))
		}()
	}
	wg.Wait()

	rec, err := s.GetBySlug(ctx, "clk222")
	require.NoError(t, err)
	assert.Equal(t, int64(n), rec.Clicks)
}

func TestIncrementClicks_MissingSlug(t *testing.T) {
	s := newTestStore(t)
	err := s.IncrementClicks(context.Background(), "ghost1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
