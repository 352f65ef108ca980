package main

import (
	"context"
	"encoding/json"
	"net/http"
)

// --- Response helpers ---
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- Document <-> model helpers ---

// encodeDoc turns a model struct into a store document through its JSON
// tags. The id lives in the document key, not the payload.
func encodeDoc(v any) Document {
	raw, err := json.Marshal(v)
	if err != nil {
		panic("encodeDoc: unserializable model: " + err.Error())
	}
	var doc Document
	_ = json.Unmarshal(raw, &doc)
	delete(doc, "id")
	return doc
}

// decodeDoc fills a model struct from a store document (including the
// injected "id" field).
func decodeDoc(doc Document, v any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// fetchProfile is the plain profile-read accessor used by handlers and the
// match detector.
func fetchProfile(ctx context.Context, store DocumentStore, userID string) (UserProfile, error) {
	doc, err := store.Get(ctx, usersCollection, userID)
	if err != nil {
		return UserProfile{}, err
	}
	var profile UserProfile
	if err := decodeDoc(doc, &profile); err != nil {
		return UserProfile{}, err
	}
	return profile, nil
}

// decodeProfiles converts query results, skipping rows that fail to decode.
func decodeProfiles(docs []Document) []UserProfile {
	profiles := make([]UserProfile, 0, len(docs))
	for _, doc := range docs {
		var p UserProfile
		if err := decodeDoc(doc, &p); err != nil {
			continue
		}
		profiles = append(profiles, p)
	}
	return profiles
}
