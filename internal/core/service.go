package core

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/qrblink/qrblink/internal/metrics"
	"github.com/qrblink/qrblink/internal/shortid"
	"github.com/qrblink/qrblink/internal/store"
)

// Total insert attempts per create, counting the first one.
const createAttempts = 4

var (
	ErrMissingURL = errors.New("missing URL")
	ErrInvalidURL = errors.New("invalid URL")
	// ErrCreateExhausted means every attempt collided on slug.
	ErrCreateExhausted = errors.New("could not allocate a unique slug")
)

type Service struct {
	store    store.Store
	clicksCh chan string
	wg       sync.WaitGroup
}

func NewService(s store.Store) *Service {
	return &Service{
		store:    s,
		clicksCh: make(chan string, 4096),
	}
}

// ValidateURL normalizes a candidate destination. Only absolute http(s)
// URLs are accepted.
func ValidateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrMissingURL
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", ErrInvalidURL
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", ErrInvalidURL
	}
	if parsed.Host == "" {
		return "", ErrInvalidURL
	}
	return parsed.String(), nil
}

// Create mints a slug/secret pair and inserts the record. A unique
// violation on slug gets a fresh pair and another attempt; any other
// failure is terminal. No row exists after a failed Create.
func (s *Service) Create(ctx context.Context, rawURL string) (store.Redirect, error) {
	target, err := ValidateURL(rawURL)
	if err != nil {
		return store.Redirect{}, err
	}

	for attempt := 0; attempt < createAttempts; attempt++ {
		rec := store.Redirect{
			Slug:   shortid.Slug(),
			URL:    target,
			Secret: shortid.Secret(),
		}

		err := s.store.Insert(ctx, rec)
		if err == nil {
			// created_at is assigned by the store; re-read for the
			// authoritative row
			return s.store.GetBySlug(ctx, rec.Slug)
		}
		if errors.Is(err, store.ErrSlugTaken) {
			metrics.SlugCollisions.Inc()
			log.Warn().Str("slug", rec.Slug).Int("attempt", attempt+1).Msg("slug collision")
			continue
		}
		return store.Redirect{}, fmt.Errorf("insert redirect: %w", err)
	}

	return store.Redirect{}, ErrCreateExhausted
}

// Get returns the record for slug after checking the presented secret.
// Absent slug and wrong secret stay distinct here; only the update path
// collapses them.
func (s *Service) Get(ctx context.Context, slug, secret string) (store.Redirect, error) {
	rec, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		return store.Redirect{}, err
	}
	if rec.Secret != secret {
		return store.Redirect{}, store.ErrNoMatch
	}
	return rec, nil
}

// Update sets a new destination in a single conditional statement and
// re-reads the row so the caller sees fresh clicks and created_at.
func (s *Service) Update(ctx context.Context, slug, secret, rawURL string) (store.Redirect, error) {
	target, err := ValidateURL(rawURL)
	if err != nil {
		return store.Redirect{}, err
	}
	if err := s.store.UpdateURL(ctx, slug, secret, target); err != nil {
		return store.Redirect{}, err
	}
	return s.store.GetBySlug(ctx, slug)
}

// Resolve returns the destination for slug, or false when the slug is
// unknown and the request should fall through to static serving.
func (s *Service) Resolve(ctx context.Context, slug string) (string, bool) {
	rec, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Error().Err(err).Str("slug", slug).Msg("resolve lookup")
		}
		return "", false
	}
	return rec.URL, true
}

// RecordClick enqueues a click increment for slug. The send may block
// briefly when the buffer is full but the increment is never dropped;
// the store write itself always happens off the caller's path.
func (s *Service) RecordClick(slug string) {
	s.wg.Add(1)
	s.clicksCh <- slug
}

// RunClickIngester applies queued increments until ctx is cancelled,
// then drains whatever is still buffered. Write failures are logged and
// swallowed; the visitor already got the redirect.
func (s *Service) RunClickIngester(ctx context.Context) {
	for {
		select {
		case slug := <-s.clicksCh:
			s.applyClick(slug)
		case <-ctx.Done():
			for {
				select {
				case slug := <-s.clicksCh:
					s.applyClick(slug)
				default:
					return
				}
			}
		}
	}
}

// WaitClicks blocks until every enqueued increment has been applied or
// ctx expires. Called during shutdown, after the ingester has drained.
func (s *Service) WaitClicks(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) applyClick(slug string) {
	defer s.wg.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.IncrementClicks(ctx, slug); err != nil {
		metrics.ClickWriteFailures.Inc()
		log.Error().Err(err).Str("slug", slug).Msg("increment clicks")
	}
}
