package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"recotrip/internal/app"
	"recotrip/internal/domain"
	"recotrip/internal/storage/memory"
)

func eiffelFav() domain.Favorite {
	return domain.Favorite{Name: "Eiffel Tower", Latitude: 48.8584, Longitude: 2.2945, Rating: 4.7}
}

func TestFavorites_Scenario(t *testing.T) {
	ctx := context.Background()
	s := app.NewFavoriteStore(memory.New())

	if got := s.List(ctx); len(got) != 0 {
		t.Fatalf("expected empty, got %+v", got)
	}
	a := domain.Favorite{Name: "A", Latitude: 1, Longitude: 2, Rating: 3}
	if err := s.Add(ctx, a); err != nil {
		t.Fatalf("add: %v", err)
	}
	if n := len(s.List(ctx)); n != 1 {
		t.Fatalf("len = %d, want 1", n)
	}
	// same name, different payload: still a no-op
	if err := s.Add(ctx, domain.Favorite{Name: "A", Rating: 1}); err != nil {
		t.Fatalf("re-add: %v", err)
	}
	if diff := cmp.Diff([]domain.Favorite{a}, s.List(ctx)); diff != "" {
		t.Fatalf("favorites mismatch (-want +got):\n%s", diff)
	}
	if err := s.Remove(ctx, "A"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if n := len(s.List(ctx)); n != 0 {
		t.Fatalf("len = %d, want 0", n)
	}
}

func TestFavorites_ContainsAndIdempotentRemove(t *testing.T) {
	ctx := context.Background()
	s := app.NewFavoriteStore(memory.New())

	for i := 0; i < 2; i++ {
		if err := s.Add(ctx, eiffelFav()); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if err := s.Add(ctx, domain.Favorite{Name: "Louvre", Rating: 4.8}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if n := len(s.List(ctx)); n != 2 {
		t.Fatalf("dedup failed, len = %d", n)
	}
	if !s.Contains(ctx, "Eiffel Tower") {
		t.Fatalf("expected Eiffel Tower to be a favorite")
	}

	if err := s.Remove(ctx, "Eiffel Tower"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	once := s.List(ctx)
	if err := s.Remove(ctx, "Eiffel Tower"); err != nil {
		t.Fatalf("second remove: %v", err)
	}
	if diff := cmp.Diff(once, s.List(ctx)); diff != "" {
		t.Fatalf("remove not idempotent (-once +twice):\n%s", diff)
	}
	if s.Contains(ctx, "Eiffel Tower") {
		t.Fatalf("expected Eiffel Tower to be gone")
	}
	if err := s.Remove(ctx, "never added"); err != nil {
		t.Fatalf("removing an absent name must succeed: %v", err)
	}
}

func TestFavorites_Validation(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	s := app.NewFavoriteStore(kv)

	for _, f := range []domain.Favorite{
		{Name: "  "},
		{Name: "X", Rating: 5.5},
		{Name: "X", Rating: -1},
	} {
		if err := s.Add(ctx, f); !errors.Is(err, domain.ErrInvalid) {
			t.Fatalf("Add(%+v) err = %v, want ErrInvalid", f, err)
		}
	}
	if _, ok, _ := kv.Get(ctx, app.FavoritesKey); ok {
		t.Fatalf("invalid input must not touch storage")
	}
}

func TestFavorites_ReadFailuresReadAsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	s := app.NewFavoriteStore(kv)

	if err := kv.Set(ctx, app.FavoritesKey, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	if got := s.List(ctx); got == nil || len(got) != 0 {
		t.Fatalf("corrupt record: got %#v, want empty slice", got)
	}

	kv.FailReads(errors.New("io error"))
	if got := s.List(ctx); len(got) != 0 {
		t.Fatalf("unreadable store: got %+v", got)
	}
	if s.Contains(ctx, "anything") {
		t.Fatalf("unreadable store must not report favorites")
	}
}

func TestFavorites_WriteFailurePropagates(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	s := app.NewFavoriteStore(kv)
	if err := s.Add(ctx, eiffelFav()); err != nil {
		t.Fatal(err)
	}

	cause := errors.New("quota exceeded")
	kv.FailWrites(cause)

	err := s.Add(ctx, domain.Favorite{Name: "Louvre"})
	var pe *domain.PersistenceError
	if !errors.As(err, &pe) || pe.Op != "add" || pe.Key != app.FavoritesKey || !errors.Is(err, cause) {
		t.Fatalf("add err = %v, want PersistenceError wrapping cause", err)
	}
	if err := s.Remove(ctx, "Eiffel Tower"); !errors.As(err, &pe) || pe.Op != "remove" {
		t.Fatalf("remove err = %v, want PersistenceError", err)
	}
	// duplicate add never writes, so it cannot fail
	if err := s.Add(ctx, eiffelFav()); err != nil {
		t.Fatalf("duplicate add should be a no-op, got %v", err)
	}
	if !s.Contains(ctx, "Eiffel Tower") {
		t.Fatalf("failed remove must leave the collection unchanged")
	}
}

func TestFavorites_ListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := app.NewFavoriteStore(memory.New())
	if err := s.Add(ctx, eiffelFav()); err != nil {
		t.Fatal(err)
	}
	got := s.List(ctx)
	got[0].Name = "mutated"
	if !s.Contains(ctx, "Eiffel Tower") {
		t.Fatalf("store was mutated through a listed value")
	}
}

func TestFavorites_SingleWriterKeepsConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	s := app.NewFavoriteStore(memory.New(), app.WithSingleWriter())

	names := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	var wg sync.WaitGroup
	for _, n := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			if err := s.Add(ctx, domain.Favorite{Name: name}); err != nil {
				t.Errorf("add %s: %v", name, err)
			}
		}(n)
	}
	wg.Wait()

	if got := len(s.List(ctx)); got != len(names) {
		t.Fatalf("lost updates: %d of %d favorites stored", got, len(names))
	}
}
