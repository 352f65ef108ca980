package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const destinationListLimit = 20

// rankDestinationsByInterests boosts destinations whose tags overlap the
// viewer's interests (tags are compared lowercased against the interest
// list). Stable sort, so equal relevance keeps the rating order of the
// fetch.
func rankDestinationsByInterests(destinations []Destination, interests []string) []Destination {
	if len(interests) == 0 {
		return destinations
	}
	interestSet := make(map[string]bool, len(interests))
	for _, i := range interests {
		interestSet[strings.ToLower(i)] = true
	}
	relevance := func(d Destination) int {
		n := 0
		for _, tag := range d.Tags {
			if interestSet[strings.ToLower(tag)] {
				n++
			}
		}
		return n
	}
	ranked := make([]Destination, len(destinations))
	copy(ranked, destinations)
	sort.SliceStable(ranked, func(i, j int) bool {
		return relevance(ranked[i]) > relevance(ranked[j])
	})
	return ranked
}

// filterDestinationsByPrompt applies the free-text recommendation prompt.
// A handful of keywords select curated subsets; anything else is a plain
// substring search over name, description, country and tags.
func filterDestinationsByPrompt(destinations []Destination, prompt string) []Destination {
	prompt = strings.ToLower(strings.TrimSpace(prompt))
	if prompt == "" {
		return destinations
	}

	var keep func(Destination) bool
	switch {
	case strings.Contains(prompt, "near"):
		keep = func(d Destination) bool {
			return d.IsNearby || hasTag(d, "local")
		}
	case strings.Contains(prompt, "hidden") || strings.Contains(prompt, "gem"):
		keep = func(d Destination) bool {
			return hasTag(d, "hidden gem")
		}
	case strings.Contains(prompt, "trending") || strings.Contains(prompt, "popular"):
		keep = func(d Destination) bool {
			return d.Trending
		}
	default:
		keep = func(d Destination) bool {
			if strings.Contains(strings.ToLower(d.Name), prompt) ||
				strings.Contains(strings.ToLower(d.Description), prompt) ||
				strings.Contains(strings.ToLower(d.Country), prompt) {
				return true
			}
			for _, tag := range d.Tags {
				if strings.Contains(strings.ToLower(tag), prompt) {
					return true
				}
			}
			return false
		}
	}

	var filtered []Destination
	for _, d := range destinations {
		if keep(d) {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

func hasTag(d Destination, tag string) bool {
	for _, t := range d.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func fetchTopDestinations(ctx context.Context, store DocumentStore) ([]Destination, error) {
	docs, err := store.Query(ctx, destinationsCollection,
		OrderByDesc("rating"),
		Limit(destinationListLimit),
	)
	if err != nil {
		return nil, err
	}
	return decodeDestinations(docs), nil
}

func decodeDestinations(docs []Document) []Destination {
	destinations := make([]Destination, 0, len(docs))
	for _, doc := range docs {
		var d Destination
		if err := decodeDoc(doc, &d); err != nil {
			continue
		}
		destinations = append(destinations, d)
	}
	return destinations
}

// GET /destinations - top destinations by rating.
// POST /destinations - add a destination (content-management path).
func destinationsHandler(store DocumentStore) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			destinations, err := fetchTopDestinations(r.Context(), store)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "store_error")
				log.Println("destinations fetch error:", err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"destinations": destinations})

		case http.MethodPost:
			var dest Destination
			if err := json.NewDecoder(r.Body).Decode(&dest); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_json")
				return
			}
			if strings.TrimSpace(dest.Name) == "" {
				writeError(w, http.StatusBadRequest, "missing_fields")
				return
			}
			dest.ID = uuid.NewString()
			dest.CreatedAt = time.Now().UTC()
			if err := store.Create(r.Context(), destinationsCollection, dest.ID, encodeDoc(dest)); err != nil {
				writeError(w, http.StatusInternalServerError, "store_error")
				log.Println("destination create error:", err)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]string{"id": dest.ID})

		default:
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
		}
	})
}

// GET /destinations/recommended?q= - rating-ordered destinations, boosted by
// the viewer's interests and narrowed by the optional prompt.
func recommendedDestinationsHandler(store DocumentStore) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		me := r.Context().Value(userIDKey).(string)

		destinations, err := fetchTopDestinations(r.Context(), store)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "store_error")
			log.Println("recommended destinations fetch error:", err)
			return
		}

		// The viewer's interests are a soft signal; a missing profile just
		// skips the boost.
		if viewer, err := fetchProfile(r.Context(), store, me); err == nil {
			destinations = rankDestinationsByInterests(destinations, viewer.Interests)
		}
		destinations = filterDestinationsByPrompt(destinations, r.URL.Query().Get("q"))

		if destinations == nil {
			destinations = []Destination{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"destinations": destinations})
	})
}

// GET /map/destinations - destinations that can be placed on the map.
func mapDestinationsHandler(store DocumentStore) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		docs, err := store.Query(r.Context(), destinationsCollection)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "store_error")
			log.Println("map destinations fetch error:", err)
			return
		}

		var mappable []Destination
		for _, d := range decodeDestinations(docs) {
			if d.Coordinates != nil {
				mappable = append(mappable, d)
			}
		}
		if mappable == nil {
			mappable = []Destination{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"destinations": mappable})
	})
}
