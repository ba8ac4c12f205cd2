package domain

import "context"

// KeyValueStore is the durable string-keyed byte store behind the user collections.
// Get reports ok=false for an absent key.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type RecommendationClient interface {
	Recommend(ctx context.Context, req RecommendationRequest) ([]Place, error)
}

type LodgingClient interface {
	NearbyHotels(ctx context.Context, center Coordinate, radiusKm float64) ([]Hotel, error)
}
