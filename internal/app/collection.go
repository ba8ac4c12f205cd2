package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"recotrip/internal/adapters/observability"
	"recotrip/internal/domain"
)

const (
	FavoritesKey = "@recotrip_favorites"
	ReviewsKey   = "@recotrip_reviews"
)

type options struct {
	singleWriter bool
	now          func() time.Time
	newID        func() string
}

type Option func(*options)

// WithSingleWriter serializes mutations on a store so that concurrent
// read-modify-write cycles cannot drop each other's updates.
func WithSingleWriter() Option { return func(o *options) { o.singleWriter = true } }

// WithClock overrides the time source used to stamp new reviews.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// WithIDGenerator overrides review id generation.
func WithIDGenerator(f func() string) Option { return func(o *options) { o.newID = f } }

func buildOptions(opts []Option) options {
	o := options{
		now:   time.Now,
		newID: func() string { return uuid.Must(uuid.NewV7()).String() },
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// collection is one JSON array persisted whole under a single key.
// Every mutation reads the full array, edits it and writes it back.
type collection[T any] struct {
	kv   domain.KeyValueStore
	key  string
	name string
	mu   *sync.Mutex // nil unless single-writer
}

func newCollection[T any](kv domain.KeyValueStore, key, name string, o options) *collection[T] {
	c := &collection[T]{kv: kv, key: key, name: name}
	if o.singleWriter {
		c.mu = &sync.Mutex{}
	}
	return c
}

// load never fails: an absent, unreadable or corrupt record reads as empty.
func (c *collection[T]) load(ctx context.Context) []T {
	items := []T{}
	raw, ok, err := c.kv.Get(ctx, c.key)
	if err != nil {
		log.Warn().Err(err).Str("store", c.name).Str("reason", "read").Msg("collection read failed, serving empty")
		observability.ObserveStoreReadFailure(c.name, "read")
		return items
	}
	if !ok {
		return items
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		log.Warn().Err(err).Str("store", c.name).Str("reason", "decode").Msg("collection record corrupt, serving empty")
		observability.ObserveStoreReadFailure(c.name, "decode")
		return []T{}
	}
	if items == nil {
		// stored literal null
		items = []T{}
	}
	return items
}

func (c *collection[T]) save(ctx context.Context, op string, items []T) error {
	b, err := json.Marshal(items)
	if err == nil {
		err = c.kv.Set(ctx, c.key, b)
	}
	observability.ObserveStore(c.name, op, err)
	if err != nil {
		log.Error().Err(err).Str("store", c.name).Str("op", op).Msg("collection write failed")
		return &domain.PersistenceError{Op: op, Key: c.key, Err: err}
	}
	return nil
}

// mutate runs one read-modify-write cycle. fn reports whether anything
// needs writing; when it returns false the store is left untouched.
func (c *collection[T]) mutate(ctx context.Context, op string, fn func([]T) ([]T, bool)) error {
	if c.mu != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
	}
	next, write := fn(c.load(ctx))
	if !write {
		observability.ObserveStore(c.name, op, nil)
		return nil
	}
	if next == nil {
		next = []T{}
	}
	return c.save(ctx, op, next)
}
