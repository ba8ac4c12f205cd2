package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"recotrip/internal/domain"
	"recotrip/internal/geo"
)

// DefaultRadiusKm is the lodging search radius when the caller gives none.
const DefaultRadiusKm = 5.0

// cache cells are ~1.2 km wide; recommendations are annotated from the exact origin anyway
const cacheGeohashChars = 6

// Snapshot is the most recent recommendation fetch. It lives until the next fetch or Clear.
type Snapshot struct {
	Origin    domain.Coordinate       `json:"origin"`
	Prefs     string                  `json:"prefs"`
	Places    []domain.AnnotatedPlace `json:"places"`
	FetchedAt time.Time               `json:"fetched_at"`
}

type Exploration struct {
	Places []domain.AnnotatedPlace `json:"places"`
	Hotels []domain.AnnotatedHotel `json:"hotels"`
}

// NearbyService fetches places and hotels around a position and annotates
// them with distance, ETA and transport mode. It owns the latest snapshot
// that screens share instead of a global.
type NearbyService struct {
	recs     domain.RecommendationClient
	lodging  domain.LodgingClient
	cache    domain.Cache // optional
	cacheTTL time.Duration
	now      func() time.Time

	mu        sync.RWMutex
	latest    *Snapshot
	latestKey string // cache entry behind latest
}

func NewNearbyService(r domain.RecommendationClient, l domain.LodgingClient, c domain.Cache, ttl time.Duration) *NearbyService {
	return &NearbyService{recs: r, lodging: l, cache: c, cacheTTL: ttl, now: time.Now}
}

// Recommendations fetches the ranked list for origin, keeping the service's order,
// and replaces the latest snapshot.
func (s *NearbyService) Recommendations(ctx context.Context, origin domain.Coordinate, prefs string) (Snapshot, error) {
	places, err := s.fetchPlaces(ctx, origin, prefs)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		Origin:    origin,
		Prefs:     prefs,
		Places:    geo.AnnotatePlaces(origin, places),
		FetchedAt: s.now().UTC(),
	}

	s.mu.Lock()
	s.latest = &snap
	s.latestKey = cacheKey(origin, prefs)
	s.mu.Unlock()

	return copySnapshot(snap), nil
}

func (s *NearbyService) fetchPlaces(ctx context.Context, origin domain.Coordinate, prefs string) ([]domain.Place, error) {
	key := cacheKey(origin, prefs)
	var places []domain.Place
	if s.cache != nil {
		if ok, err := s.cache.Get(ctx, key, &places); ok && err == nil {
			return places, nil
		}
	}

	places, err := s.recs.Recommend(ctx, domain.RecommendationRequest{Lat: origin.Latitude, Lon: origin.Longitude, Prefs: prefs})
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, places, int(s.cacheTTL.Seconds())); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("recommendation cache set failed")
		}
	}
	return places, nil
}

// Hotels returns lodging within radiusKm of origin, nearest first.
func (s *NearbyService) Hotels(ctx context.Context, origin domain.Coordinate, radiusKm float64) ([]domain.AnnotatedHotel, error) {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	hotels, err := s.lodging.NearbyHotels(ctx, origin, radiusKm)
	if err != nil {
		return nil, err
	}
	out := geo.AnnotateHotels(origin, hotels)
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out, nil
}

// Explore fetches recommendations and hotels concurrently. Either failure fails the call.
func (s *NearbyService) Explore(ctx context.Context, origin domain.Coordinate, prefs string, radiusKm float64) (Exploration, error) {
	var out Exploration
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap, err := s.Recommendations(gctx, origin, prefs)
		if err != nil {
			return err
		}
		out.Places = snap.Places
		return nil
	})
	g.Go(func() error {
		hotels, err := s.Hotels(gctx, origin, radiusKm)
		if err != nil {
			return err
		}
		out.Hotels = hotels
		return nil
	})
	if err := g.Wait(); err != nil {
		return Exploration{}, err
	}
	return out, nil
}

// Latest returns a copy of the last recommendation snapshot, if any.
func (s *NearbyService) Latest() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return Snapshot{}, false
	}
	return copySnapshot(*s.latest), true
}

// Clear drops the latest snapshot and evicts its cached recommendations,
// so the next fetch for that cell goes to the recommender.
func (s *NearbyService) Clear(ctx context.Context) {
	s.mu.Lock()
	key := s.latestKey
	s.latest, s.latestKey = nil, ""
	s.mu.Unlock()

	if s.cache == nil || key == "" {
		return
	}
	if err := s.cache.Del(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("recommendation cache evict failed")
	}
}

func cacheKey(origin domain.Coordinate, prefs string) string {
	return fmt.Sprintf("recs:%s:%s", geo.Geohash(origin, cacheGeohashChars), strings.ToLower(strings.TrimSpace(prefs)))
}

func copySnapshot(in Snapshot) Snapshot {
	out := in
	out.Places = make([]domain.AnnotatedPlace, len(in.Places))
	copy(out.Places, in.Places)
	return out
}
