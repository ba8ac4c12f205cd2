package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"recotrip/internal/app"
	"recotrip/internal/domain"
	"recotrip/internal/geo"
)

type Handlers struct {
	Favorites *app.FavoriteStore
	Reviews   *app.ReviewStore
	Nearby    *app.NearbyService // optional; nil disables the discovery routes
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

const saveFailedDetail = "could not save your changes, please try again"

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/geo/distance", h.distance)

	s.mux.Route("/v1/favorites", func(r chi.Router) {
		r.Get("/", h.listFavorites)
		r.Post("/", h.addFavorite)
		r.Get("/{name}", h.isFavorite)
		r.Delete("/{name}", h.removeFavorite)
	})
	s.mux.Route("/v1/reviews", func(r chi.Router) {
		r.Get("/", h.listReviews)
		r.Post("/", h.addReview)
		r.Patch("/{id}", h.updateReview)
		r.Delete("/{id}", h.deleteReview)
	})

	if h.Nearby == nil {
		return
	}
	s.mux.Post("/v1/recommendations", h.recommend)
	s.mux.Get("/v1/recommendations/latest", h.latest)
	s.mux.Delete("/v1/recommendations/latest", h.clearLatest)
	s.mux.Get("/v1/hotels", h.hotels)
	s.mux.Get("/v1/explore", h.explore)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain failures onto problem responses.
func writeError(w http.ResponseWriter, err error) {
	var pe *domain.PersistenceError
	var ne *domain.NetworkError
	switch {
	case errors.Is(err, domain.ErrInvalid):
		writeProblem(w, http.StatusBadRequest, "Invalid Input", err.Error())
	case errors.As(err, &pe):
		log.Error().Err(err).Str("op", pe.Op).Str("key", pe.Key).Msg("persist failed")
		writeProblem(w, http.StatusInternalServerError, "Save Failed", saveFailedDetail)
	case errors.As(err, &ne) && ne.Timeout:
		writeProblem(w, http.StatusGatewayTimeout, "Upstream Timeout", ne.Message)
	case errors.As(err, &ne):
		log.Warn().Err(err).Int("upstream_status", ne.Status).Msg("upstream failed")
		writeProblem(w, http.StatusBadGateway, "Upstream Failed", ne.Message)
	default:
		log.Error().Err(err).Msg("unhandled error")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCached answers 304 when the client already holds this version of v.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body", domain.ErrInvalid)
	}
	return nil
}

// pathParam returns the decoded route parameter. chi matches on RawPath when
// the request carries escapes like %2F, leaving those params encoded; otherwise
// it matches on the already decoded Path.
func pathParam(r *http.Request, key string) (string, error) {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v, nil
	}
	dec, err := url.PathUnescape(v)
	if err != nil {
		return "", fmt.Errorf("%w: malformed %s in path", domain.ErrInvalid, key)
	}
	return dec, nil
}

func queryFloat(r *http.Request, key string, required bool) (float64, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		if required {
			return 0, fmt.Errorf("%w: %s is required", domain.ErrInvalid, key)
		}
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", domain.ErrInvalid, key)
	}
	return f, nil
}

func queryCoordinate(r *http.Request, latKey, lonKey string) (domain.Coordinate, error) {
	lat, err := queryFloat(r, latKey, true)
	if err != nil {
		return domain.Coordinate{}, err
	}
	lon, err := queryFloat(r, lonKey, true)
	if err != nil {
		return domain.Coordinate{}, err
	}
	c := domain.Coordinate{Latitude: lat, Longitude: lon}
	if !c.Valid() {
		return domain.Coordinate{}, fmt.Errorf("%w: coordinate out of range", domain.ErrInvalid)
	}
	return c, nil
}

// ---- geo ----

func (h *Handlers) distance(w http.ResponseWriter, r *http.Request) {
	from, err := queryCoordinate(r, "from_lat", "from_lon")
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := queryCoordinate(r, "to_lat", "to_lon")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, geo.Annotate(from, to))
}

// ---- favorites ----

func (h *Handlers) listFavorites(w http.ResponseWriter, r *http.Request) {
	writeCached(w, r, h.Favorites.List(r.Context()))
}

func (h *Handlers) addFavorite(w http.ResponseWriter, r *http.Request) {
	var f domain.Favorite
	if err := decodeBody(r, &f); err != nil {
		writeError(w, err)
		return
	}
	if err := h.Favorites.Add(r.Context(), f); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (h *Handlers) isFavorite(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "name")
	if err != nil {
		writeError(w, err)
		return
	}
	ok := h.Favorites.Contains(r.Context(), name)
	writeJSON(w, http.StatusOK, map[string]bool{"favorite": ok})
}

func (h *Handlers) removeFavorite(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "name")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Favorites.Remove(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- reviews ----

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	writeCached(w, r, h.Reviews.List(r.Context()))
}

func (h *Handlers) addReview(w http.ResponseWriter, r *http.Request) {
	var in domain.ReviewInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, err)
		return
	}
	rev, err := h.Reviews.Add(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rev)
}

func (h *Handlers) updateReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var p domain.ReviewPatch
	if err := decodeBody(r, &p); err != nil {
		writeError(w, err)
		return
	}
	if err := h.Reviews.Update(r.Context(), id, p); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) deleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Reviews.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- discovery ----

func (h *Handlers) recommend(w http.ResponseWriter, r *http.Request) {
	var req domain.RecommendationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	origin := domain.Coordinate{Latitude: req.Lat, Longitude: req.Lon}
	if !origin.Valid() {
		writeError(w, fmt.Errorf("%w: coordinate out of range", domain.ErrInvalid))
		return
	}
	snap, err := h.Nearby.Recommendations(r.Context(), origin, req.Prefs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handlers) latest(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.Nearby.Latest()
	if !ok {
		writeProblem(w, http.StatusNotFound, "Not Found", "no recommendations fetched yet")
		return
	}
	writeCached(w, r, snap)
}

func (h *Handlers) clearLatest(w http.ResponseWriter, r *http.Request) {
	h.Nearby.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) hotels(w http.ResponseWriter, r *http.Request) {
	origin, err := queryCoordinate(r, "lat", "lon")
	if err != nil {
		writeError(w, err)
		return
	}
	radius, err := queryFloat(r, "radius_km", false)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := h.Nearby.Hotels(r.Context(), origin, radius)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) explore(w http.ResponseWriter, r *http.Request) {
	origin, err := queryCoordinate(r, "lat", "lon")
	if err != nil {
		writeError(w, err)
		return
	}
	radius, err := queryFloat(r, "radius_km", false)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := h.Nearby.Explore(r.Context(), origin, r.URL.Query().Get("prefs"), radius)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
