package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/patrickmn/go-cache"

	"github.com/marvimarv/tunequest-card-creator/internal/musicbrainz"
	"github.com/marvimarv/tunequest-card-creator/internal/services"
)

const (
	msgMissingParams = "Missing track or artist query parameter."
	msgExhausted     = "Failed to fetch from MusicBrainz after multiple retries."
)

// YearHandler answers GET /musicbrainz/year?track=&artist= with the earliest release year
// known to MusicBrainz.
//
// All requests share one lookup client, and therefore one identity and one request queue.
// Found and NotFound answers are cached when a cache is given; failures never are.
type YearHandler struct {
	lookup  services.YearLookup
	cache   *cache.Cache
	metrics *Metrics
	logger  *log.Logger
	handler http.Handler
}

// NewYearHandler creates a YearHandler. responses may be nil to disable caching.
func NewYearHandler(lookup services.YearLookup, responses *cache.Cache, metrics *Metrics, logger *log.Logger) *YearHandler {
	h := &YearHandler{lookup: lookup, cache: responses, metrics: metrics, logger: logger}
	h.handler = metrics.Instrument("year", http.HandlerFunc(h.serve))
	return h
}

func (h *YearHandler) Routes() []string {
	return []string{"/musicbrainz/year"}
}

func (h *YearHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

func (h *YearHandler) serve(w http.ResponseWriter, r *http.Request) {
	track := strings.TrimSpace(r.URL.Query().Get("track"))
	artist := strings.TrimSpace(r.URL.Query().Get("artist"))
	if track == "" || artist == "" {
		writeError(w, http.StatusBadRequest, msgMissingParams)
		return
	}

	key := musicbrainz.Query{Title: track, Artist: artist}.String()
	if h.cache != nil {
		if v, ok := h.cache.Get(key); ok {
			h.metrics.cacheHits.Inc()
			writeYear(w, v.(musicbrainz.Result))
			return
		}
	}

	res := h.lookup.LookupYear(r.Context(), track, artist)
	if err := r.Context().Err(); err != nil && !res.Succeeded() {
		// Nobody is left to answer and the failure says nothing about MusicBrainz.
		h.logger.Debug("client went away during lookup", "track", track, "artist", artist, "err", err)
		return
	}
	h.metrics.ObserveLookup(res)

	switch res.Outcome {
	case musicbrainz.Found, musicbrainz.NotFound:
		if h.cache != nil {
			h.cache.SetDefault(key, res)
		}
		writeYear(w, res)
	case musicbrainz.HardFailure:
		status := res.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		h.logger.Warn("upstream rejected lookup", "track", track, "artist", artist, "status", res.Status, "err", res.Err)
		http.Error(w, fmt.Sprintf("MusicBrainz API error: %s", http.StatusText(status)), status)
	default:
		h.logger.Error("lookup failed", "track", track, "artist", artist, "attempts", res.Attempts, "err", res.Err)
		writeError(w, http.StatusInternalServerError, msgExhausted)
	}
}

type yearBody struct {
	Year *string `json:"year"`
}

type errorBody struct {
	Error string `json:"error"`
}

func writeYear(w http.ResponseWriter, res musicbrainz.Result) {
	var body yearBody
	if res.Outcome == musicbrainz.Found && res.Year.Known() {
		year := string(res.Year)
		body.Year = &year
	}
	writeJSON(w, http.StatusOK, body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response", "err", err)
	}
}
