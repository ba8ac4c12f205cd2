package app

import (
	"context"

	"recotrip/internal/domain"
)

// FavoriteStore keeps the user's bookmarked places, at most one per name.
//
// Each mutation is an unlocked read-modify-write of the whole collection, so
// two overlapping calls race and the last write wins; one of the two effects
// can be lost. Use WithSingleWriter when callers may overlap.
type FavoriteStore struct {
	col *collection[domain.Favorite]
}

func NewFavoriteStore(kv domain.KeyValueStore, opts ...Option) *FavoriteStore {
	o := buildOptions(opts)
	return &FavoriteStore{col: newCollection[domain.Favorite](kv, FavoritesKey, "favorites", o)}
}

// List returns a fresh copy of every favorite, in insertion order.
// Read failures yield an empty list.
func (s *FavoriteStore) List(ctx context.Context) []domain.Favorite {
	return s.col.load(ctx)
}

// Add appends f unless a favorite with the same name already exists.
func (s *FavoriteStore) Add(ctx context.Context, f domain.Favorite) error {
	if err := f.Validate(); err != nil {
		return err
	}
	return s.col.mutate(ctx, "add", func(favs []domain.Favorite) ([]domain.Favorite, bool) {
		for _, existing := range favs {
			if existing.Name == f.Name {
				return favs, false
			}
		}
		return append(favs, f), true
	})
}

// Remove drops every favorite named name. A missing name is not an error;
// the collection is still written back.
func (s *FavoriteStore) Remove(ctx context.Context, name string) error {
	return s.col.mutate(ctx, "remove", func(favs []domain.Favorite) ([]domain.Favorite, bool) {
		kept := favs[:0]
		for _, f := range favs {
			if f.Name != name {
				kept = append(kept, f)
			}
		}
		return kept, true
	})
}

func (s *FavoriteStore) Contains(ctx context.Context, name string) bool {
	for _, f := range s.List(ctx) {
		if f.Name == name {
			return true
		}
	}
	return false
}
