package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"
)

// Like/dislike state machine, per unordered user pair:
//
//	Unrelated → A-liked-B | B-liked-A → Matched (terminal)
//
// Dislikes live on an independent track: disliking someone never retracts an
// earlier like, it only keeps them out of future candidate listings. All
// three sets (likedUsers, dislikedUsers, matches) only ever grow.

var errInvalidTarget = errors.New("invalid target user")

// LikeResult reports whether a like completed a mutual match.
type LikeResult struct {
	IsMatch bool   `json:"is_match"`
	MatchID string `json:"match_id,omitempty"`
}

// canonicalMatchID builds the deterministic key for an unordered user pair:
// the lexicographically smaller id first. Both directions of a mutual like
// compute the same key, which is what makes the match record unique.
func canonicalMatchID(a, b string) string {
	if a < b {
		return a + "_" + b
	}
	return b + "_" + a
}

// applyLike records a one-directional like and materializes a match when the
// liked user already liked back.
//
// The like itself always lands first (an idempotent array union), and only
// then is the other side's profile read. Whichever request runs second is
// therefore guaranteed to observe reciprocity, and the create-if-absent
// write on the canonical match id decides exactly one creator when both
// sides race. A liked user whose profile is gone never fails the liker: the
// like sticks and the result is simply "no match".
func applyLike(ctx context.Context, store DocumentStore, likerID, likedID string) (LikeResult, error) {
	if likerID == "" || likedID == "" || likerID == likedID {
		return LikeResult{}, errInvalidTarget
	}

	if err := store.Update(ctx, usersCollection, likerID, Document{
		"likedUsers": ArrayUnion(likedID),
	}); err != nil {
		return LikeResult{}, err
	}

	liked, err := fetchProfile(ctx, store, likedID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return LikeResult{IsMatch: false}, nil
		}
		return LikeResult{}, err
	}

	if !containsString(liked.LikedUsers, likerID) {
		return LikeResult{IsMatch: false}, nil
	}

	// Reciprocity holds. The match record is keyed by the canonical pair id,
	// so a concurrent like from the other direction targets the same
	// document and only one create succeeds.
	matchID := canonicalMatchID(likerID, likedID)
	lo, hi := likerID, likedID
	if hi < lo {
		lo, hi = hi, lo
	}
	record := MatchRecord{
		Users:     []string{lo, hi},
		CreatedAt: time.Now().UTC(),
		Messages:  []any{},
	}
	created := true
	if err := store.Create(ctx, matchesCollection, matchID, encodeDoc(record)); err != nil {
		if !errors.Is(err, ErrExists) {
			return LikeResult{}, err
		}
		created = false
	}

	// Both sides get the match appended; unions are idempotent so replaying
	// either direction is harmless.
	if err := store.Update(ctx, usersCollection, likerID, Document{
		"matches": ArrayUnion(likedID),
	}); err != nil {
		return LikeResult{}, err
	}
	if err := store.Update(ctx, usersCollection, likedID, Document{
		"matches": ArrayUnion(likerID),
	}); err != nil {
		return LikeResult{}, err
	}

	if created {
		notifyMatch(matchHub, matchID, likerID, likedID)
	}
	return LikeResult{IsMatch: true, MatchID: matchID}, nil
}

// applyDislike records a dislike. No reciprocity check, no match record, and
// no effect on an earlier like.
func applyDislike(ctx context.Context, store DocumentStore, likerID, dislikedID string) error {
	if likerID == "" || dislikedID == "" || likerID == dislikedID {
		return errInvalidTarget
	}
	return store.Update(ctx, usersCollection, likerID, Document{
		"dislikedUsers": ArrayUnion(dislikedID),
	})
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

// POST /users/{id}/like
func likeUserHandler(store DocumentStore, targetID string) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		me := r.Context().Value(userIDKey).(string)

		result, err := applyLike(r.Context(), store, me, targetID)
		if err == errInvalidTarget {
			writeError(w, http.StatusBadRequest, "invalid_target")
			return
		} else if err != nil {
			writeError(w, http.StatusInternalServerError, "store_error")
			log.Println("applyLike error:", err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	})
}

// POST /users/{id}/dislike
func dislikeUserHandler(store DocumentStore, targetID string) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		me := r.Context().Value(userIDKey).(string)

		err := applyDislike(r.Context(), store, me, targetID)
		if err == errInvalidTarget {
			writeError(w, http.StatusBadRequest, "invalid_target")
			return
		} else if err != nil {
			writeError(w, http.StatusInternalServerError, "store_error")
			log.Println("applyDislike error:", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"disliked": true})
	})
}

// GET /matches - profiles of everyone the user has matched with.
// Matched profiles are point reads, so they go through the batched profile
// loader instead of N sequential store calls.
func matchesHandler(store DocumentStore) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		me := r.Context().Value(userIDKey).(string)

		profile, err := fetchProfile(r.Context(), store, me)
		if err != nil {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}

		matched := loadProfiles(r.Context(), newProfileLoader(store), profile.Matches)
		resp := make([]PublicProfile, 0, len(matched))
		for _, m := range matched {
			// A matched user whose account is gone is silently skipped.
			if m != nil {
				resp = append(resp, m.Public())
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"matches": resp})
	})
}

// GET /matches/potential - the discoverable pool ranked by shared-interest
// count, excluding everyone already liked, disliked or matched.
func potentialMatchesHandler(store DocumentStore) http.HandlerFunc {
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
			log.Println("potential matches pool error:", err)
			return
		}

		ranked := rankCandidates(viewer, pool, exclusionSet(viewer), simpleOverlapCount)

		type entry struct {
			PublicProfile
			MatchScore      int      `json:"match_score"`
			CommonInterests []string `json:"common_interests"`
		}
		resp := make([]entry, 0, len(ranked))
		for _, c := range ranked {
			resp = append(resp, entry{
				PublicProfile:   c.Profile.Public(),
				MatchScore:      c.Score,
				CommonInterests: c.CommonInterests,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"potential_matches": resp})
	})
}
