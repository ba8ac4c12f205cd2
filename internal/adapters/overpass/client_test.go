package overpass_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"recotrip/internal/adapters/overpass"
	"recotrip/internal/domain"
)

var center = domain.Coordinate{Latitude: 48.8584, Longitude: 2.2945}

func TestQuery(t *testing.T) {
	got := overpass.Query(center, 2.5)
	want := "[out:json];node[amenity=hotel](around:2500,48.8584,2.2945);out body;"
	if got != want {
		t.Fatalf("query = %q, want %q", got, want)
	}
}

func TestNearbyHotels_FallbacksAndForm(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("content-type = %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if q := r.PostForm.Get("data"); q != overpass.Query(center, 5) {
			t.Errorf("unexpected query %q", q)
		}
		_, _ = w.Write([]byte(`{"elements":[
			{"type":"node","lat":48.857,"lon":2.295,"tags":{"name":"Hotel Eiffel","addr:street":"Avenue de Suffren"}},
			{"type":"node","lat":48.859,"lon":2.30,"tags":{"amenity":"hotel"}},
			{"type":"node","lat":48.86,"lon":2.31}
		]}`))
	}))
	defer ts.Close()

	cl := overpass.New(ts.URL, time.Second)
	hotels, err := cl.NearbyHotels(context.Background(), center, 0) // 0 => default 5 km
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(hotels) != 3 {
		t.Fatalf("got %d hotels", len(hotels))
	}
	if hotels[0].Name != "Hotel Eiffel" || hotels[0].Address != "Avenue de Suffren" {
		t.Fatalf("unexpected first hotel: %+v", hotels[0])
	}
	for _, h := range hotels[1:] {
		if h.Name != "Unnamed Hotel" || h.Address != "Address not available" {
			t.Fatalf("fallbacks not applied: %+v", h)
		}
	}
}

func TestNearbyHotels_Failure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	_, err := overpass.New(ts.URL, time.Second).NearbyHotels(context.Background(), center, 1)
	var ne *domain.NetworkError
	if !errors.As(err, &ne) || ne.Message != "Failed to fetch nearby hotels" || ne.Status != http.StatusTooManyRequests {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNearbyHotels_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	_, err := overpass.New(ts.URL, 100*time.Millisecond).NearbyHotels(context.Background(), center, 1)
	var ne *domain.NetworkError
	if !errors.As(err, &ne) || !ne.Timeout {
		t.Fatalf("expected timeout, got %v", err)
	}
}
