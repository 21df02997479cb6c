package store

import (
	"context"
	"errors"
	"time"
)

// Redirect is the sole persisted entity: one row per short link.
type Redirect struct {
	Slug      string    `json:"slug"`
	URL       string    `json:"url"`
	Clicks    int64     `json:"clicks"`
	Secret    string    `json:"secret"`
	CreatedAt time.Time `json:"createdAt"`
}

var (
	// ErrNotFound means no row matched the slug.
	ErrNotFound = errors.New("redirect not found")
	// ErrSlugTaken means an insert hit the unique constraint on slug.
	ErrSlugTaken = errors.New("slug already taken")
	// ErrNoMatch means a conditional update touched zero rows; wrong
	// secret and absent slug are deliberately indistinguishable.
	ErrNoMatch = errors.New("no matching redirect")
)

type Store interface {
	// Insert creates the row with the given clicks-zero record. Returns
	// ErrSlugTaken on a slug collision, never overwrites.
	Insert(ctx context.Context, r Redirect) error
	// GetBySlug loads the full record or ErrNotFound.
	GetBySlug(ctx context.Context, slug string) (Redirect, error)
	// UpdateURL sets url where both slug and secret match, in one
	// statement. Returns ErrNoMatch when zero rows were affected.
	UpdateURL(ctx context.Context, slug, secret, url string) error
	// IncrementClicks applies clicks = clicks + 1 atomically.
	IncrementClicks(ctx context.Context, slug string) error
}
