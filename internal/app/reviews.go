package app

import (
	"context"
	"time"

	"recotrip/internal/domain"
)

// isoMillis matches the ISO-8601 form JavaScript clients produce (2024-05-01T10:00:00.000Z).
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// ReviewStore keeps the user's reviews, most recent first.
// It shares FavoriteStore's last-write-wins behaviour.
type ReviewStore struct {
	col   *collection[domain.Review]
	now   func() time.Time
	newID func() string
}

func NewReviewStore(kv domain.KeyValueStore, opts ...Option) *ReviewStore {
	o := buildOptions(opts)
	return &ReviewStore{
		col:   newCollection[domain.Review](kv, ReviewsKey, "reviews", o),
		now:   o.now,
		newID: o.newID,
	}
}

// List returns a fresh copy of every review, newest first.
// Read failures yield an empty list.
func (s *ReviewStore) List(ctx context.Context) []domain.Review {
	return s.col.load(ctx)
}

// Add stamps a new id and date on in and puts it at the front.
func (s *ReviewStore) Add(ctx context.Context, in domain.ReviewInput) (domain.Review, error) {
	if err := in.Validate(); err != nil {
		return domain.Review{}, err
	}
	r := domain.Review{
		ID:        s.newID(),
		PlaceName: in.PlaceName,
		Rating:    in.Rating,
		Comment:   in.Comment,
		Date:      s.now().UTC().Format(isoMillis),
	}
	err := s.col.mutate(ctx, "add", func(revs []domain.Review) ([]domain.Review, bool) {
		return append([]domain.Review{r}, revs...), true
	})
	if err != nil {
		return domain.Review{}, err
	}
	return r, nil
}

// Update merges patch into the review with the given id, in place.
// An unknown id is a no-op and nothing is written.
func (s *ReviewStore) Update(ctx context.Context, id string, patch domain.ReviewPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	return s.col.mutate(ctx, "update", func(revs []domain.Review) ([]domain.Review, bool) {
		for i := range revs {
			if revs[i].ID == id {
				revs[i] = patch.Apply(revs[i])
				return revs, true
			}
		}
		return revs, false
	})
}

// Delete removes the review with the given id; an unknown id is not an error.
func (s *ReviewStore) Delete(ctx context.Context, id string) error {
	return s.col.mutate(ctx, "delete", func(revs []domain.Review) ([]domain.Review, bool) {
		kept := revs[:0]
		for _, r := range revs {
			if r.ID != id {
				kept = append(kept, r)
			}
		}
		return kept, true
	})
}
