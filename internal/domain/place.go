package domain

// Coordinate is a WGS 84 position. Values are not range-checked on construction.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the coordinate lies within [-90,90] x [-180,180].
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// Place is one entry of the ranked list returned by the recommendation service.
type Place struct {
	Name       string  `json:"name"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Rating     float64 `json:"rating"`
	FinalScore float64 `json:"final_score"`
}

func (p Place) Coordinate() Coordinate { return Coordinate{Latitude: p.Latitude, Longitude: p.Longitude} }

// Hotel is a lodging point returned by the nearby-lodging lookup.
type Hotel struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Address string  `json:"address,omitempty"`
}

func (h Hotel) Coordinate() Coordinate { return Coordinate{Latitude: h.Lat, Longitude: h.Lon} }

// Annotation is what the screens show next to each place: distance, ETA, mode.
type Annotation struct {
	DistanceKm    float64 `json:"distance_km"`
	TravelMinutes int     `json:"travel_minutes"`
	TransportMode string  `json:"transport_mode"`
	Geohash       string  `json:"geohash"`
}

type AnnotatedPlace struct {
	Place
	Annotation
}

type AnnotatedHotel struct {
	Hotel
	Annotation
}

type RecommendationRequest struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Prefs string  `json:"prefs"`
}
