package main

import (
	"context"
	"log"
	"net/http"
)

// How many discoverable profiles one pool fetch pulls in for local ranking.
const candidatePoolLimit = 50

// fetchCandidatePool queries the store for discoverable profiles: completed
// profiles that are not the viewer's own. Exclusion by liked/disliked/match
// state happens later in rankCandidates; the store only filters what it can
// express as predicates.
func fetchCandidatePool(ctx context.Context, store DocumentStore, viewerID string) ([]UserProfile, error) {
	docs, err := store.Query(ctx, usersCollection,
		Where("profileCompleted", "==", true),
		Where("id", "!=", viewerID),
		Limit(candidatePoolLimit),
	)
	if err != nil {
		return nil, err
	}
	return decodeProfiles(docs), nil
}

// GET /explore - travel companions ranked by the weighted compatibility
// score. Page size is the client's concern; the full ranked pool is
// returned.
func exploreHandler(store DocumentStore) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		me := r.Context().Value(userIDKey).(string)

		viewer, err := fetchProfile(r.Context(), store, me)
		if err != nil {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}

		pool, err := fetchCandidatePool(r.Context(), store, me)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "store_error")
			log.Println("explore pool error:", err)
			return
		}

		ranked := rankCandidates(viewer, pool, exclusionSet(viewer), weightedCompatibility)

		type entry struct {
			PublicProfile
			CompatibilityScore int `json:"compatibility_score"`
		}
		resp := make([]entry, 0, len(ranked))
		for _, c := range ranked {
			resp = append(resp, entry{PublicProfile: c.Profile.Public(), CompatibilityScore: c.Score})
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"users":            resp,
			"profile_complete": viewer.ProfileCompleted,
		})
	})
}
