package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
)

// Dispatcher for /users/* to route search, profile reads and like/dislike
// actions.
func usersDispatcher(store DocumentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.Trim(r.URL.Path, "/")
		parts := strings.Split(path, "/")
		if len(parts) < 2 || parts[0] != "users" {
			http.NotFound(w, r)
			return
		}
		if len(parts) == 2 {
			if parts[1] == "search" {
				searchUsersHandler(store).ServeHTTP(w, r)
				return
			}
			userProfileHandler(store, parts[1]).ServeHTTP(w, r)
			return
		}
		if len(parts) == 3 && r.Method == http.MethodPost {
			switch parts[2] {
			case "like":
				likeUserHandler(store, parts[1]).ServeHTTP(w, r)
			case "dislike":
				dislikeUserHandler(store, parts[1]).ServeHTTP(w, r)
			default:
				http.NotFound(w, r)
			}
			return
		}
		http.NotFound(w, r)
	}
}

// GET /users/{id} - another user's public profile. A missing user surfaces
// as a 404 here, unlike in the reciprocity check where it is swallowed.
func userProfileHandler(store DocumentStore, targetID string) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		profile, err := fetchProfile(r.Context(), store, targetID)
		if err != nil {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		writeJSON(w, http.StatusOK, profile.Public())
	})
}

// GET /me - the authenticated user's own document, including the private
// matching state (liked/disliked/matches) but never the password hash.
func meHandler(store DocumentStore) http.HandlerFunc {
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
		profile.PasswordHash = ""
		writeJSON(w, http.StatusOK, profile)
	})
}

// GET|PATCH /me/profile - read or edit the editable profile fields.
// Completing a display name and at least one interest marks the profile
// discoverable.
func meProfileHandler(store DocumentStore) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		me := r.Context().Value(userIDKey).(string)

		profile, err := fetchProfile(r.Context(), store, me)
		if err != nil {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}

		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, profile.Public())
			return
		case http.MethodPatch, http.MethodPost:
			// fallthrough to the edit below
		default:
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}

		type ProfileUpdate struct {
			DisplayName           *string   `json:"display_name"`
			Bio                   *string   `json:"bio"`
			Interests             *[]string `json:"interests"`
			PreferredDestinations *[]string `json:"preferred_destinations"`
		}
		var req ProfileUpdate
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json")
			return
		}

		if req.DisplayName != nil {
			profile.DisplayName = strings.TrimSpace(*req.DisplayName)
		}
		if req.Bio != nil {
			profile.Bio = *req.Bio
		}
		if req.Interests != nil {
			profile.Interests = *req.Interests
		}
		if req.PreferredDestinations != nil {
			profile.PreferredDestinations = *req.PreferredDestinations
		}
		profile.ProfileCompleted = profile.DisplayName != "" && len(profile.Interests) > 0

		err = store.Update(r.Context(), usersCollection, me, Document{
			"displayName":           profile.DisplayName,
			"bio":                   profile.Bio,
			"interests":             profile.Interests,
			"preferredDestinations": profile.PreferredDestinations,
			"profileCompleted":      profile.ProfileCompleted,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "store_error")
			log.Println("profile update error:", err)
			return
		}
		writeJSON(w, http.StatusOK, profile.Public())
	})
}

// GET /users/search?q= - substring search over display names and interests.
// The store has no text search, so the filtering happens here over the full
// user list, same as the rest of the matching flow.
func searchUsersHandler(store DocumentStore) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		term := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
		if term == "" {
			writeJSON(w, http.StatusOK, map[string]any{"users": []PublicProfile{}})
			return
		}
		me := r.Context().Value(userIDKey).(string)

		docs, err := store.Query(r.Context(), usersCollection, Where("id", "!=", me))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "store_error")
			log.Println("user search error:", err)
			return
		}

		var results []PublicProfile
		for _, p := range decodeProfiles(docs) {
			if matchesSearchTerm(p, term) {
				results = append(results, p.Public())
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"users": results})
	})
}

func matchesSearchTerm(p UserProfile, term string) bool {
	if strings.Contains(strings.ToLower(p.DisplayName), term) {
		return true
	}
	for _, interest := range p.Interests {
		if strings.Contains(strings.ToLower(interest), term) {
			return true
		}
	}
	return false
}
