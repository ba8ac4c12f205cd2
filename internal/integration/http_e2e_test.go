//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	goredis "github.com/redis/go-redis/v9"

	server "recotrip/internal/adapters/http_server"
	"recotrip/internal/adapters/overpass"
	"recotrip/internal/adapters/recommend"
	redisad "recotrip/internal/adapters/redis"
	"recotrip/internal/app"
	"recotrip/internal/domain"
)

// ---------- helpers ----------
func startRedis(t *testing.T) string {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{Repository: "redis", Tag: "7.2-alpine"}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run redis: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	addr := fmt.Sprintf("127.0.0.1:%s", resource.GetPort("6379/tcp"))
	if err := pool.Retry(func() error {
		c := redisad.NewClient(addr, "", 0)
		defer c.Close()
		return c.Ping(context.Background()).Err()
	}); err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	return addr
}

// boot wires a full API over a fresh redis client, the way cmd/api does.
func boot(t *testing.T, addr, recommendURL, overpassURL string) *httptest.Server {
	t.Helper()
	rdb := redisad.NewClient(addr, "", 0)
	t.Cleanup(func() { _ = rdb.Close() })

	recs, err := recommend.New(recommendURL, 50)
	if err != nil {
		t.Fatalf("recommend client: %v", err)
	}
	kv := redisad.NewStore(rdb)
	h := &server.Handlers{
		Favorites: app.NewFavoriteStore(kv, app.WithSingleWriter()),
		Reviews:   app.NewReviewStore(kv, app.WithSingleWriter()),
		Nearby:    app.NewNearbyService(recs, overpass.New(overpassURL, time.Second), redisad.New(rdb), time.Minute),
	}
	srv := server.New()
	srv.MountHandlers(h)
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	b, _ := json.Marshal(v)
	res, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

// ---------- the test ----------
func TestHTTP_EndToEnd_Redis(t *testing.T) {
	addr := startRedis(t)

	var recCalls int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/recommend":
			atomic.AddInt32(&recCalls, 1)
			_, _ = w.Write([]byte(`[{"name":"Louvre","latitude":48.8606,"longitude":2.3376,"rating":4.8,"final_score":0.9}]`))
		default:
			_, _ = w.Write([]byte(`{"elements":[{"lat":48.859,"lon":2.295,"tags":{"name":"Hotel Eiffel"}}]}`))
		}
	}))
	defer upstream.Close()

	api := boot(t, addr, upstream.URL, upstream.URL+"/interpreter")

	if res := postJSON(t, api.URL+"/v1/favorites", domain.Favorite{Name: "Louvre", Latitude: 48.8606, Longitude: 2.3376, Rating: 4.8}); res.StatusCode != http.StatusCreated {
		t.Fatalf("add favorite status %d", res.StatusCode)
	}
	if res := postJSON(t, api.URL+"/v1/reviews", domain.ReviewInput{PlaceName: "Louvre", Comment: "Mona Lisa", Rating: 5}); res.StatusCode != http.StatusCreated {
		t.Fatalf("add review status %d", res.StatusCode)
	}

	req := domain.RecommendationRequest{Lat: 48.8584, Lon: 2.2945, Prefs: "Museums"}
	for i := 0; i < 2; i++ {
		if res := postJSON(t, api.URL+"/v1/recommendations", req); res.StatusCode != http.StatusOK {
			t.Fatalf("recommendations #%d status %d", i, res.StatusCode)
		}
	}
	if n := atomic.LoadInt32(&recCalls); n != 1 {
		t.Fatalf("expected cached second call, upstream hit %d times", n)
	}

	// clearing the snapshot evicts its redis entry
	dreq, _ := http.NewRequest(http.MethodDelete, api.URL+"/v1/recommendations/latest", nil)
	dres, err := http.DefaultClient.Do(dreq)
	if err != nil || dres.StatusCode != http.StatusNoContent {
		t.Fatalf("clear latest: %v %v", err, dres)
	}
	dres.Body.Close()
	if res := postJSON(t, api.URL+"/v1/recommendations", req); res.StatusCode != http.StatusOK {
		t.Fatalf("recommendations after clear status %d", res.StatusCode)
	}
	if n := atomic.LoadInt32(&recCalls); n != 2 {
		t.Fatalf("expected refetch after clear, upstream hit %d times", n)
	}

	// A second process over the same redis sees the same collections.
	restarted := boot(t, addr, upstream.URL, upstream.URL+"/interpreter")

	res, err := http.Get(restarted.URL + "/v1/favorites")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer res.Body.Close()
	var favs []domain.Favorite
	if err := json.NewDecoder(res.Body).Decode(&favs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(favs) != 1 || favs[0].Name != "Louvre" {
		t.Fatalf("unexpected favorites: %+v", favs)
	}

	res2, err := http.Get(restarted.URL + "/v1/reviews")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer res2.Body.Close()
	var revs []domain.Review
	if err := json.NewDecoder(res2.Body).Decode(&revs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(revs) != 1 || revs[0].Comment != "Mona Lisa" || revs[0].ID == "" {
		t.Fatalf("unexpected reviews: %+v", revs)
	}

	hres, err := http.Get(restarted.URL + "/v1/hotels?lat=48.8584&lon=2.2945")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer hres.Body.Close()
	var hotels []domain.AnnotatedHotel
	if err := json.NewDecoder(hres.Body).Decode(&hotels); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(hotels) != 1 || hotels[0].Address != "Address not available" {
		t.Fatalf("unexpected hotels: %+v", hotels)
	}

	// the raw value is a plain JSON array under the well-known key
	rc := goredis.NewClient(&goredis.Options{Addr: addr})
	defer rc.Close()
	raw, err := rc.Get(context.Background(), app.FavoritesKey).Bytes()
	if err != nil || !bytes.HasPrefix(raw, []byte(`[{"name":"Louvre"`)) {
		t.Fatalf("unexpected raw favorites %q (err %v)", raw, err)
	}
}
