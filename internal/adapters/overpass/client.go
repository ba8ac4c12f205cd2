// Package overpass looks up hotels around a point through the OpenStreetMap Overpass API.
package overpass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"recotrip/internal/adapters/observability"
	"recotrip/internal/domain"
)

const (
	DefaultURL = "https://overpass-api.de/api/interpreter"
	Timeout    = 15 * time.Second

	defaultRadiusKm = 5.0
	failureMessage  = "Failed to fetch nearby hotels"

	unnamedHotel    = "Unnamed Hotel"
	addressFallback = "Address not available"
)

type Client struct {
	url string
	hc  *http.Client
}

// New returns a client for the interpreter at endpoint (DefaultURL when empty).
// A non-positive timeout means Timeout.
func New(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultURL
	}
	if timeout <= 0 {
		timeout = Timeout
	}
	return &Client{url: endpoint, hc: &http.Client{Timeout: timeout}}
}

type response struct {
	Elements []struct {
		Lat  float64           `json:"lat"`
		Lon  float64           `json:"lon"`
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

// NearbyHotels returns every node tagged amenity=hotel within radiusKm of center.
// Missing names and street addresses are replaced with display fallbacks.
func (c *Client) NearbyHotels(ctx context.Context, center domain.Coordinate, radiusKm float64) ([]domain.Hotel, error) {
	if radiusKm <= 0 {
		radiusKm = defaultRadiusKm
	}
	form := url.Values{"data": {Query(center, radiusKm)}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fail(0, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "recotrip/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("overpass", "interpreter", 0, time.Since(start))
		return nil, fail(0, err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("overpass", "interpreter", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return nil, fail(resp.StatusCode, fmt.Errorf("bad status %d", resp.StatusCode))
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fail(resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}

	hotels := make([]domain.Hotel, 0, len(body.Elements))
	for _, el := range body.Elements {
		h := domain.Hotel{
			Name:    el.Tags["name"],
			Lat:     el.Lat,
			Lon:     el.Lon,
			Address: el.Tags["addr:street"],
		}
		if h.Name == "" {
			h.Name = unnamedHotel
		}
		if h.Address == "" {
			h.Address = addressFallback
		}
		hotels = append(hotels, h)
	}
	return hotels, nil
}

// Query builds the Overpass QL for hotels around center.
func Query(center domain.Coordinate, radiusKm float64) string {
	meters := strconv.FormatFloat(radiusKm*1000, 'f', -1, 64)
	lat := strconv.FormatFloat(center.Latitude, 'f', -1, 64)
	lon := strconv.FormatFloat(center.Longitude, 'f', -1, 64)
	return fmt.Sprintf("[out:json];node[amenity=hotel](around:%s,%s,%s);out body;", meters, lat, lon)
}

func fail(status int, err error) *domain.NetworkError {
	timeout := errors.Is(err, context.DeadlineExceeded)
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		timeout = true
	}
	return &domain.NetworkError{Message: failureMessage, Status: status, Timeout: timeout, Err: err}
}
