// Package geo annotates places with distance, travel time and a transport mode.
// Everything here is pure; coordinates are not validated.
package geo

import (
	"fmt"
	"math"

	"github.com/mmcloughlin/geohash"

	"recotrip/internal/domain"
)

const (
	earthRadiusKm = 6371.0

	driveSpeedKmH = 40.0
	walkSpeedKmH  = 5.0

	walkMaxKm = 1.5
	bikeMaxKm = 5.0

	geohashChars = 7
)

// DistanceKm returns the haversine great-circle distance between a and b,
// rounded half-up to one decimal place.
func DistanceKm(a, b domain.Coordinate) float64 {
	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Latitude))*math.Cos(toRad(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return roundHalfUp(earthRadiusKm*c*10) / 10
}

// EstimatedTravelTimeMinutes assumes a flat 40 km/h average speed.
func EstimatedTravelTimeMinutes(distanceKm float64) int {
	return minutesAt(distanceKm, driveSpeedKmH)
}

// SuggestTransportMode picks walk below 1.5 km, bike/transit below 5 km and car/transit beyond.
func SuggestTransportMode(distanceKm float64) string {
	switch {
	case distanceKm < walkMaxKm:
		return fmt.Sprintf("walk (%d min)", minutesAt(distanceKm, walkSpeedKmH))
	case distanceKm < bikeMaxKm:
		return "bike/transit"
	default:
		return "car/transit"
	}
}

// Annotate computes everything a place card shows for target seen from origin.
func Annotate(origin, target domain.Coordinate) domain.Annotation {
	d := DistanceKm(origin, target)
	return domain.Annotation{
		DistanceKm:    d,
		TravelMinutes: EstimatedTravelTimeMinutes(d),
		TransportMode: SuggestTransportMode(d),
		Geohash:       Geohash(target, geohashChars),
	}
}

// Geohash encodes c with the given number of characters.
func Geohash(c domain.Coordinate, chars uint) string {
	return geohash.EncodeWithPrecision(c.Latitude, c.Longitude, chars)
}

func AnnotatePlaces(origin domain.Coordinate, places []domain.Place) []domain.AnnotatedPlace {
	out := make([]domain.AnnotatedPlace, 0, len(places))
	for _, p := range places {
		out = append(out, domain.AnnotatedPlace{Place: p, Annotation: Annotate(origin, p.Coordinate())})
	}
	return out
}

func AnnotateHotels(origin domain.Coordinate, hotels []domain.Hotel) []domain.AnnotatedHotel {
	out := make([]domain.AnnotatedHotel, 0, len(hotels))
	for _, h := range hotels {
		out = append(out, domain.AnnotatedHotel{Hotel: h, Annotation: Annotate(origin, h.Coordinate())})
	}
	return out
}

func minutesAt(distanceKm, speedKmH float64) int {
	m := int(roundHalfUp(distanceKm / speedKmH * 60))
	if m < 0 {
		return 0
	}
	return m
}

// roundHalfUp rounds .5 towards +Inf, unlike math.Round which rounds away from zero.
func roundHalfUp(x float64) float64 { return math.Floor(x + 0.5) }

func toRad(deg float64) float64 { return deg * (math.Pi / 180) }
